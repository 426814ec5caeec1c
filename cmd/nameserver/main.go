package main

import (
	"chat-relay/directory"
	"chat-relay/infrastructure/grpc/client"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/internal"
	pb "chat-relay/proto/directory"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Nameserver terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.NameserverConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Zone
	addresses, err := config.NewAddressTable()
	if err != nil {
		return exitRuntime, fmt.Errorf("address table: %w", err)
	}
	zones := client.NewZonePool(log, config.RPCTimeout)
	zone := directory.NewZone(log, config.Domain, config.Address, zones, addresses)
	defer func() {
		_ = zones.Close()
		_ = zone.Close()
	}()

	// 3. gRPC Server Setup
	listener, err := net.Listen("tcp", config.Address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address, err)
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(log, zone.Name())))
	pb.RegisterDirectoryServiceServer(s, server.NewDirectoryServer(log, zone))

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting nameserver", "zone", zone.Name(), "address", config.Address)
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	defer s.GracefulStop()

	// 4. Announce the zone to its parent through the root
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !config.IsRoot() {
		root, err := zones.Dial(config.RootAddress)
		if err != nil {
			return exitRuntime, err
		}
		if err := root.RegisterZone(ctx, config.Domain, config.Address); err != nil {
			return exitRuntime, fmt.Errorf("registering zone %q at %s: %w", config.Domain, config.RootAddress, err)
		}
		log.Info("Zone registered", "zone", config.Domain, "root", config.RootAddress)
	}

	// 5. Operator console, until !exit, a signal or a server failure
	console := internal.NewConsole(log, os.Stdin, os.Stdout).
		Handle("!nameservers", func(w io.Writer) error {
			internal.RenderZones(w, zone.Zones())
			return nil
		}).
		Handle("!addresses", func(w io.Writer) error {
			table, err := zone.Addresses()
			if err != nil {
				return err
			}
			internal.RenderAddresses(w, table)
			return nil
		})

	consoleDone := make(chan error, 1)
	go func() { consoleDone <- console.Run(ctx) }()

	select {
	case err := <-errChan:
		return exitRuntime, err
	case err := <-consoleDone:
		if err != nil {
			log.Warn("Console stopped", "error", err)
		}
	}

	log.Info("Shutting down gracefully...", "zone", zone.Name())
	return exitOK, nil
}
