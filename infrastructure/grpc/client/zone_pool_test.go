package client_test

import (
	"chat-relay/directory"
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/client"
	"chat-relay/infrastructure/grpc/server"
	pb "chat-relay/proto/directory"
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// network serves zones over in-memory listeners keyed by address.
type network struct {
	log       *slog.Logger
	listeners map[string]*bufconn.Listener
	servers   []*grpc.Server
	pool      *client.ZonePool
}

func newNetwork(t *testing.T) *network {
	n := &network{
		log:       logs.GetLoggerFromLevel(slog.LevelDebug),
		listeners: make(map[string]*bufconn.Listener),
	}
	n.pool = client.NewZonePool(n.log, time.Second, grpc.WithContextDialer(n.dial))
	t.Cleanup(func() {
		_ = n.pool.Close()
		for _, s := range n.servers {
			s.Stop()
		}
	})
	return n
}

func (n *network) dial(ctx context.Context, address string) (net.Conn, error) {
	lis, ok := n.listeners[address]
	if !ok {
		return nil, fmt.Errorf("connection refused: %s", address)
	}
	return lis.DialContext(ctx)
}

// serve starts a zone; it must be called before the pool dials it.
func (n *network) serve(name, address string) *directory.Zone {
	zone := directory.NewZone(n.log, name, address, n.pool, directory.NewMemoryAddressTable())
	lis := bufconn.Listen(bufSize)
	n.listeners[address] = lis
	s := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(n.log, zone.Name())))
	pb.RegisterDirectoryServiceServer(s, server.NewDirectoryServer(n.log, zone))
	n.servers = append(n.servers, s)
	go func() { _ = s.Serve(lis) }()
	return zone
}

func TestZonePool_RegisterAndLookupAcrossZones(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNetwork(t)
	n.serve("", "root:1")
	n.serve("at", "at:1")
	n.serve("vienna.at", "vienna:1")

	root, err := n.pool.Dial("root:1")
	req.NoError(err)

	// Given a two level hierarchy registered through the root
	req.NoError(root.RegisterZone(ctx, "at", "at:1"))
	req.NoError(root.RegisterZone(ctx, "vienna.at", "vienna:1"))

	// When alice registers her address
	req.NoError(root.RegisterAddress(ctx, "alice.vienna.at", "127.0.0.1:9001"))

	// Then it can be looked up from the root
	address, found, err := root.Lookup(ctx, "alice.vienna.at")
	req.NoError(err)
	req.True(found)
	req.Equal("127.0.0.1:9001", address)

	// And walking the zones by label reaches the same zone
	atAddress, found, err := root.ResolveZone(ctx, "at")
	req.NoError(err)
	req.True(found)
	at, err := n.pool.Dial(atAddress)
	req.NoError(err)
	viennaAddress, found, err := at.ResolveZone(ctx, "vienna")
	req.NoError(err)
	req.True(found)
	req.Equal("vienna:1", viennaAddress)
}

func TestZonePool_ErrorsSurviveTheWire(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNetwork(t)
	n.serve("", "root:1")
	n.serve("at", "at:1")

	root, err := n.pool.Dial("root:1")
	req.NoError(err)
	req.NoError(root.RegisterZone(ctx, "at", "at:1"))

	req.ErrorIs(root.RegisterZone(ctx, "at", "at:1"), errors.ErrAlreadyRegistered)
	req.ErrorIs(root.RegisterZone(ctx, "eng.acme", "eng:1"), errors.ErrInvalidDomain)

	_, found, err := root.Lookup(ctx, "nobody.at")
	req.NoError(err)
	req.False(found)
}

func TestZonePool_UnreachableZone(t *testing.T) {
	req := require.New(t)
	n := newNetwork(t)

	// Given no zone listens on the address
	handle, err := n.pool.Dial("ghost:1")
	req.NoError(err)

	// When it is used
	_, _, err = handle.Lookup(context.Background(), "bob")

	// Then the failure is reported as unreachable
	req.ErrorIs(err, errors.ErrZoneUnreachable)
}

func TestZonePool_CachesClients(t *testing.T) {
	req := require.New(t)
	n := newNetwork(t)

	first, err := n.pool.Dial("root:1")
	req.NoError(err)
	second, err := n.pool.Dial("root:1")
	req.NoError(err)

	req.Same(first, second)
	req.Equal("root:1", first.Address())

	_, err = n.pool.Dial("")
	req.ErrorIs(err, errors.ErrZoneUnreachable)
}
