package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor records every directory call served by the zone.
func LoggingInterceptor(log *slog.Logger, zone string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{
			"zone", zone,
			"method", info.FullMethod,
			"duration", time.Since(start),
		}
		if err != nil {
			log.Debug("Directory request failed", append(attrs, "code", status.Code(err).String())...)
			return resp, err
		}
		log.Debug("Directory request served", attrs...)
		return resp, nil
	}
}
