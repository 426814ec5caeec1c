package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/infrastructure/grpc/client"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// statsView is the body of the /stats debug endpoint.
type statsView struct {
	Broker  services.BrokerStats  `json:"broker"`
	Process internal.ProcessStats `json:"process"`
}

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Broker terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.BrokerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	moderator, err := config.Moderator(log)
	if err != nil {
		return exitConfig, err
	}
	var censor services.Censor
	if moderator != nil {
		censor = moderator
	}

	// 2. Accounts
	file, err := os.Open(config.CredentialsFile)
	if err != nil {
		return exitConfig, fmt.Errorf("opening credentials: %w", err)
	}
	credentials, err := repositories.LoadCredentials(file)
	_ = file.Close()
	if err != nil {
		return exitConfig, err
	}
	accounts, err := repositories.NewAccountRepository(credentials, auth.DefaultParams)
	if err != nil {
		return exitConfig, err
	}
	log.Info("Accounts loaded", "count", len(credentials))

	// 3. Directory access and broker state
	zones := client.NewZonePool(log, config.RPCTimeout)
	defer func() {
		_ = zones.Close()
	}()
	directory := services.NewDirectoryService(log, zones, config.RootAddress)
	registry := runtime.NewRegistry(accounts)
	broker := services.NewBrokerService(log, accounts, registry, directory, censor, config.SinkTimeout)

	// 4. Listeners
	tcp, err := net.Listen("tcp", config.TCPAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.TCPAddress(), err)
	}
	udp, err := net.ListenPacket("udp", config.UDPAddress())
	if err != nil {
		_ = tcp.Close()
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.UDPAddress(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := workers.NewSessionListener(log, tcp, broker, config.WorkerPoolSize, config.ReplyTimeout)
	supervised := []contract.Worker{
		sessions,
		workers.NewPresenceListener(log, udp, broker),
	}
	self, err := internal.NewProcessSampler(log)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to inspect broker process: %w", err)
	}
	if config.DebugAddress != "" {
		supervised = append(supervised, internal.NewDebugServer(log, config.DebugAddress, map[string]internal.StatsProvider{
			"/stats":    func() any { return statsView{Broker: broker.Stats(), Process: self.Sample()} },
			"/accounts": func() any { return accounts.Accounts() },
		}))
	}
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(supervised...)

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Run(ctx)
	}()
	log.Info("Broker started", "tcp", config.TCPAddress(), "udp", config.UDPAddress(),
		"pool_size", config.WorkerPoolSize, "root", config.RootAddress)

	// 5. Operator console, until !exit or a signal
	console := internal.NewConsole(log, os.Stdin, os.Stdout).
		Handle("!users", func(w io.Writer) error {
			internal.RenderAccounts(w, accounts.Accounts())
			return nil
		}).
		Handle("!stats", func(w io.Writer) error {
			stats, process := broker.Stats(), self.Sample()
			_, err := fmt.Fprintf(w, "sessions=%d online=%d logins=%d broadcasts=%d dropped=%d active=%d cpu=%.1f%% rss=%d\n",
				stats.Sessions, stats.Online, stats.Logins, stats.Broadcasts, stats.Dropped, sessions.ActiveSessions(),
				process.CPUPercent, process.RSSBytes)
			return err
		})
	if err := console.Run(ctx); err != nil {
		log.Warn("Console stopped", "error", err)
	}

	// 6. Final Cleanup
	log.Info("Shutting down gracefully...")
	stop()
	sup.Stop()
	<-supervisorDone
	log.Info("Broker stopped cleanly")
	return exitOK, nil
}
