package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

type StatsProvider func() any

// DebugServer exposes runtime counters as JSON for operators.
type DebugServer struct {
	log    *slog.Logger
	server *http.Server
}

// NewDebugServer routes each endpoint to its provider.
func NewDebugServer(log *slog.Logger, address string, providers map[string]StatsProvider) *DebugServer {
	mux := http.NewServeMux()
	for endpoint, provider := range providers {
		mux.HandleFunc(endpoint, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(provider()); err != nil {
				log.Warn("Debug endpoint failed", "endpoint", endpoint, "error", err)
			}
		})
	}
	return &DebugServer{
		log:    log,
		server: &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}
}

func (d *DebugServer) Handler() http.Handler {
	return d.server.Handler
}

// Run serves until ctx is cancelled.
func (d *DebugServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return err
	}
	d.log.Info("Debug server available", "url", "http://"+lis.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.server.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := d.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
