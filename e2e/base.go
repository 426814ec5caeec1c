// Package e2e runs a whole deployment in process: a tree of nameservers,
// a broker and as many clients as a scenario needs, all on loopback sockets.
package e2e

import (
	"chat-relay/auth"
	"chat-relay/client"
	"chat-relay/directory"
	grpcclient "chat-relay/infrastructure/grpc/client"
	"chat-relay/infrastructure/grpc/server"
	pb "chat-relay/proto/directory"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const sharedKey = "e2e-shared-secret"

var testParams = auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// Screen records what a client shows to its user.
type Screen struct {
	mu    sync.Mutex
	lines []string
}

func (s *Screen) Show(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

type BaseSuite struct {
	suite.Suite
	Config Config

	log         *slog.Logger
	dialer      *grpcclient.ZonePool
	servers     []*grpc.Server
	zones       []*directory.Zone
	RootAddress string
	BrokerTCP   string
	BrokerUDP   string
	Broker      *services.BrokerService
	cancel      context.CancelFunc
	supervisor  *workers.Supervisor
	stopped     chan struct{}
}

// SetupSuite starts the root zone, the at and vienna.at zones and a broker
// knowing alice and bob of vienna.at.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromString(s.Config.LogLevel)
	s.dialer = grpcclient.NewZonePool(s.log, s.Config.StepTimeout, grpc.WithUnaryInterceptor(s.logCall))

	s.RootAddress = s.StartZone("")
	s.StartZone("at")
	s.StartZone("vienna.at")
	s.startBroker()
}

func (s *BaseSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
		s.supervisor.Stop()
		<-s.stopped
	}
	for _, srv := range s.servers {
		srv.Stop()
	}
	_ = s.dialer.Close()
	for _, zone := range s.zones {
		_ = zone.Close()
	}
}

// StartZone serves a zone on a fresh port and announces it to the root.
func (s *BaseSuite) StartZone(domain string) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	address := lis.Addr().String()

	zone := directory.NewZone(s.log, domain, address, s.dialer, directory.NewMemoryAddressTable())
	srv := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(s.log, zone.Name())))
	pb.RegisterDirectoryServiceServer(srv, server.NewDirectoryServer(s.log, zone))
	go func() { _ = srv.Serve(lis) }()
	s.servers = append(s.servers, srv)
	s.zones = append(s.zones, zone)

	if domain != "" {
		root, err := s.dialer.Dial(s.RootAddress)
		s.Require().NoError(err)
		ctx, cancel := context.WithTimeout(context.Background(), s.Config.StepTimeout)
		defer cancel()
		s.Require().NoError(root.RegisterZone(ctx, domain, address), "registering zone "+domain)
	}
	return address
}

func (s *BaseSuite) startBroker() {
	accounts, err := repositories.NewAccountRepository([]repositories.Credential{
		{Username: "alice.vienna.at", Password: "12345"},
		{Username: "bob.vienna.at", Password: "23456"},
	}, testParams)
	s.Require().NoError(err)

	registry := runtime.NewRegistry(accounts)
	directoryService := services.NewDirectoryService(s.log, s.dialer, s.RootAddress)
	s.Broker = services.NewBrokerService(s.log, accounts, registry, directoryService, nil, time.Second)

	tcp, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	udp, err := net.ListenPacket("udp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.BrokerTCP, s.BrokerUDP = tcp.Addr().String(), udp.LocalAddr().String()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.supervisor = workers.NewSupervisor(s.log, 0)
	s.supervisor.Add(
		workers.NewSessionListener(s.log, tcp, s.Broker, 20, time.Second),
		workers.NewPresenceListener(s.log, udp, s.Broker),
	)
	s.stopped = make(chan struct{})
	go func() {
		defer close(s.stopped)
		s.supervisor.Run(ctx)
	}()
}

// NewClient connects a client to the broker. It is closed with the test.
func (s *BaseSuite) NewClient() (*client.Client, *Screen) {
	screen := &Screen{}
	mac, err := auth.NewMAC([]byte(sharedKey))
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.StepTimeout)
	defer cancel()
	engine, err := client.Dial(ctx, s.log, s.BrokerTCP, screen, 8)
	s.Require().NoError(err)

	c := client.NewClient(s.log, engine, mac, screen, s.BrokerUDP, s.Config.StepTimeout)
	s.T().Cleanup(c.Close)
	return c, screen
}

// Execute runs one user line and returns what the client would print.
func (s *BaseSuite) Execute(c *client.Client, line string) string {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.StepTimeout)
	defer cancel()
	reply, err := c.Execute(ctx, line)
	s.Require().NoError(err, line)
	return reply
}

// FreeAddress returns a loopback address nobody listens on.
func (s *BaseSuite) FreeAddress() string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	address := lis.Addr().String()
	s.Require().NoError(lis.Close())
	return address
}

// Step prints a header before running one stage of a scenario.
func (s *BaseSuite) Step(name string, fn func()) {
	s.Run(name, func() {
		header := fmt.Sprintf("  ====== %s ======", name)
		if s.Config.Colours {
			header = color.New(color.BgBlack, color.FgGreen).Render(header)
		}
		s.T().Log(header)
		fn()
	})
}

// logCall traces the directory requests issued by the broker and the zones.
func (s *BaseSuite) logCall(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)

	var b strings.Builder
	fmt.Fprintf(&b, "GRPC %s -> %s [%s] in %v", method, cc.Target(), status.Code(err), time.Since(start))
	if s.Config.DebugJSON {
		marshaler := protojson.MarshalOptions{UseProtoNames: true, Multiline: true}
		fmt.Fprintln(&b, "\nREQUEST:")
		fmt.Fprintln(&b, marshaler.Format(req.(proto.Message)))
		if err == nil {
			fmt.Fprintln(&b, "RESPONSE:")
			fmt.Fprintln(&b, marshaler.Format(reply.(proto.Message)))
		}
	}
	s.log.Debug(b.String())
	return err
}
