package client

import (
	"chat-relay/contract"
	"chat-relay/errors"
	pb "chat-relay/proto/directory"
	"context"
	"time"
)

var _ contract.ZoneHandle = (*ZoneClient)(nil)

// ZoneClient is a handle on a remote zone.
// Every call is bounded by callTimeout unless ctx expires first.
type ZoneClient struct {
	address     string
	client      pb.DirectoryServiceClient
	callTimeout time.Duration
}

func NewZoneClient(address string, client pb.DirectoryServiceClient, callTimeout time.Duration) *ZoneClient {
	return &ZoneClient{address: address, client: client, callTimeout: callTimeout}
}

func (c *ZoneClient) Address() string {
	return c.address
}

func (c *ZoneClient) RegisterZone(ctx context.Context, path, address string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	_, err := c.client.RegisterZone(ctx, pb.NewRegisterZoneRequest(path, address))
	return errors.FromGRPCError(err)
}

func (c *ZoneClient) RegisterAddress(ctx context.Context, name, address string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	_, err := c.client.RegisterAddress(ctx, pb.NewRegisterAddressRequest(name, address))
	return errors.FromGRPCError(err)
}

func (c *ZoneClient) Lookup(ctx context.Context, name string) (string, bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	resp, err := c.client.Lookup(ctx, pb.NewLookupRequest(name))
	if err != nil {
		return "", false, errors.FromGRPCError(err)
	}
	return pb.String(resp, pb.FieldAddress), pb.Bool(resp, pb.FieldFound), nil
}

func (c *ZoneClient) ResolveZone(ctx context.Context, label string) (string, bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	resp, err := c.client.ResolveZone(ctx, pb.NewResolveZoneRequest(label))
	if err != nil {
		return "", false, errors.FromGRPCError(err)
	}
	return pb.String(resp, pb.FieldAddress), pb.Bool(resp, pb.FieldFound), nil
}

func (c *ZoneClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}
