package main

import (
	"bufio"
	"chat-relay/auth"
	"chat-relay/client"
	"chat-relay/domain/chat"
	"chat-relay/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	key, err := auth.LoadKey(config.KeyFile)
	if err != nil {
		return exitConfig, err
	}
	mac, err := auth.NewMAC(key)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Broker connection
	display := newTerminal(os.Stdout)
	engine, err := client.Dial(ctx, log, config.TCPAddress(), display, config.ReplyBufferSize)
	if err != nil {
		return exitRuntime, fmt.Errorf("connecting to %s: %w", config.TCPAddress(), err)
	}
	c := client.NewClient(log, engine, mac, display, config.UDPAddress(), config.PeerTimeout)
	defer c.Close()
	log.Info("Connected", "broker", config.TCPAddress())

	// 3. Input loop
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-c.Done():
			display.Reply("Connection to the broker closed.")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if line == "" {
				continue
			}
			reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
			reply, err := c.Execute(reqCtx, line)
			cancel()
			if err != nil {
				display.Error(err)
				return exitRuntime, err
			}
			display.Reply(reply)
			if cmd, _ := chat.Parse(line); cmd != nil && cmd.Name() == chat.CmdExit {
				return exitOK, nil
			}
		}
	}
}
