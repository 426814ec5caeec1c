package client

import (
	"chat-relay/contract"
	"chat-relay/errors"
	pb "chat-relay/proto/directory"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultCallTimeout = 5 * time.Second

var _ contract.ZoneDialer = (*ZonePool)(nil)

type pooledZone struct {
	conn   *grpc.ClientConn
	client *ZoneClient
}

// ZonePool caches one client connection per zone address.
// Connections are established lazily by gRPC on first use, so Dial never
// touches the network and can be called while the remote zone is still starting.
type ZonePool struct {
	mu          sync.Mutex
	log         *slog.Logger
	zones       map[string]*pooledZone
	callTimeout time.Duration
	options     []grpc.DialOption
}

func NewZonePool(log *slog.Logger, callTimeout time.Duration, options ...grpc.DialOption) *ZonePool {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &ZonePool{
		log:         log,
		zones:       make(map[string]*pooledZone),
		callTimeout: callTimeout,
		options: append([]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}, options...),
	}
}

func (p *ZonePool) Dial(address string) (contract.ZoneHandle, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: missing address", errors.ErrZoneUnreachable)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if z, ok := p.zones[address]; ok {
		return z.client, nil
	}

	// passthrough hands the address to the dialer untouched, as grpc.Dial did.
	conn, err := grpc.NewClient("passthrough:///"+address, p.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrZoneUnreachable, address, err)
	}
	z := &pooledZone{
		conn:   conn,
		client: NewZoneClient(address, pb.NewDirectoryServiceClient(conn), p.callTimeout),
	}
	p.zones[address] = z
	p.log.Debug("Zone client created", "address", address)
	return z.client, nil
}

// Close releases every cached connection.
func (p *ZonePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for address, z := range p.zones {
		if err := z.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", address, err))
		}
		delete(p.zones, address)
	}
	return stderrors.Join(errs...)
}
