package internal

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/repositories"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestNameserverConfig_FromEnvironment(t *testing.T) {
	req := require.New(t)

	// Given a child zone environment
	t.Setenv("ADDRESS", "127.0.0.1:7001")
	t.Setenv("DOMAIN", "vienna.at")
	t.Setenv("ROOT_ADDRESS", "127.0.0.1:7000")

	// When it is loaded
	var config NameserverConfig
	_, err := env.UnmarshalFromEnviron(&config)

	// Then defaults are applied and the config is valid
	req.NoError(err)
	req.False(config.IsRoot())
	req.Equal(StoreMemory, config.AddressStore)
	req.Equal(5*time.Second, config.RPCTimeout)
	req.NoError(config.Validate())
}

func TestNameserverConfig_Validate(t *testing.T) {
	req := require.New(t)

	req.NoError(NameserverConfig{Address: "127.0.0.1:7000", AddressStore: StoreMemory}.Validate())
	req.Error(NameserverConfig{Address: "127.0.0.1:7001", Domain: "at", AddressStore: StoreMemory}.Validate())
	req.Error(NameserverConfig{Address: "127.0.0.1:7000", AddressStore: "redis"}.Validate())
}

func TestNameserverConfig_NewAddressTable(t *testing.T) {
	req := require.New(t)

	for _, store := range []string{StoreMemory, StoreBadger} {
		table, err := NameserverConfig{AddressStore: store}.NewAddressTable()
		req.NoError(err)
		req.NoError(table.Put("alice", "127.0.0.1:9001"))
		address, ok, err := table.Get("alice")
		req.NoError(err)
		req.True(ok)
		req.Equal("127.0.0.1:9001", address)
		req.NoError(table.Close())
	}
}

func TestBrokerConfig_Moderator(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	none, err := BrokerConfig{CharReplacement: "*"}.Moderator(log)
	req.NoError(err)
	req.Nil(none)

	_, err = BrokerConfig{CensoredWords: "darn", CharReplacement: "**"}.Moderator(log)
	req.Error(err)

	moderator, err := BrokerConfig{CensoredWords: "darn", CharReplacement: "#"}.Moderator(log)
	req.NoError(err)
	censored, changed := moderator.Censor("well darn it")
	req.True(changed)
	req.Equal("well #### it", censored)
}

func TestConsole_Run(t *testing.T) {
	req := require.New(t)

	// Given a console with one command
	in := strings.NewReader("!users\n\n!unknown\n!exit\n!users\n")
	var out bytes.Buffer
	calls := 0
	console := NewConsole(logs.GetLoggerFromLevel(slog.LevelDebug), in, &out).
		Handle("!users", func(w io.Writer) error {
			calls++
			_, err := fmt.Fprintln(w, "alice.vienna.at")
			return err
		})

	// When the input is consumed
	err := console.Run(context.Background())

	// Then commands after !exit are ignored
	req.NoError(err)
	req.Equal(1, calls)
	req.Contains(out.String(), "alice.vienna.at")
	req.Contains(out.String(), chat.ReplyUnknownCommand+" Available: !exit, !users")
}

func TestConsole_Run_StopsOnCancel(t *testing.T) {
	req := require.New(t)

	// Given an input that never ends
	in, _ := io.Pipe()
	console := NewConsole(logs.GetLoggerFromLevel(slog.LevelDebug), in, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- console.Run(ctx) }()

	// When the context is cancelled
	cancel()

	// Then the console returns
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("console still running")
	}
}

func TestRenderTables(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	RenderAccounts(&out, []chat.UserAccount{
		{Username: "alice.vienna.at", Online: true, Address: "127.0.0.1:9001"},
		{Username: "bob.vienna.at"},
	})
	RenderZones(&out, []string{"at", "de"})
	text := out.String()
	req.Contains(text, "alice.vienna.at")
	req.Contains(text, "127.0.0.1:9001")
	req.Contains(text, "offline")
	req.Contains(text, "de")

	var addresses bytes.Buffer
	RenderAddresses(&addresses, map[string]string{"bob": "127.0.0.1:9002", "alice": "127.0.0.1:9001"})
	req.Less(strings.Index(addresses.String(), "alice"), strings.Index(addresses.String(), "bob"))
}

func TestDebugServer_ServesJSON(t *testing.T) {
	req := require.New(t)

	// Given a debug server with a stats provider
	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", map[string]StatsProvider{
		"/stats": func() any { return map[string]int{"sessions": 2} },
	})

	// When the endpoint is queried
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/stats", nil))

	// Then the provider output is encoded
	req.Equal(http.StatusOK, recorder.Code)
	var stats map[string]int
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &stats))
	req.Equal(2, stats["sessions"])
}

func TestDebugServer_AccountsHidePasswordHash(t *testing.T) {
	req := require.New(t)

	// Given a broker account table
	accounts, err := repositories.NewAccountRepository([]repositories.Credential{
		{Username: "alice.vienna.at", Password: "12345"},
	}, auth.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	req.NoError(err)
	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", map[string]StatsProvider{
		"/accounts": func() any { return accounts.Accounts() },
	})

	// When the accounts endpoint is queried
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/accounts", nil))

	// Then usernames are listed without their credentials
	req.Equal(http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	req.Contains(body, "alice.vienna.at")
	req.NotContains(body, "argon2id")
	req.NotContains(body, "PasswordHash")
}

func TestProcessSampler_Sample(t *testing.T) {
	req := require.New(t)

	// Given a sampler of the test binary itself
	sampler, err := NewProcessSampler(logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	// When it is sampled
	stats := sampler.Sample()

	// Then it reports this process and its resident memory
	req.Equal(int32(os.Getpid()), stats.PID)
	req.Positive(stats.RSSBytes)
	req.GreaterOrEqual(stats.CPUPercent, 0.0)
}

func TestDebugServer_StatsIncludeProcess(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	sampler, err := NewProcessSampler(log)
	req.NoError(err)

	// Given a stats endpoint carrying the process sample
	server := NewDebugServer(log, "127.0.0.1:0", map[string]StatsProvider{
		"/stats": func() any { return map[string]any{"process": sampler.Sample()} },
	})

	// When it is queried
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/stats", nil))

	// Then cpu and memory usage are part of the body
	req.Equal(http.StatusOK, recorder.Code)
	req.Contains(recorder.Body.String(), `"rss_bytes"`)
	req.Contains(recorder.Body.String(), `"cpu_percent"`)
}
