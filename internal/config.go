package internal

import (
	"chat-relay/directory"
	"chat-relay/moderation"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

type BrokerConfig struct {
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	Host            string        `env:"HOST,default=0.0.0.0"`
	TCPPort         int           `env:"TCP_PORT,required=true"`
	UDPPort         int           `env:"UDP_PORT,required=true"`
	RootAddress     string        `env:"ROOT_ADDRESS,required=true"`
	CredentialsFile string        `env:"CREDENTIALS_FILE,required=true"`
	WorkerPoolSize  int64         `env:"WORKER_POOL_SIZE,default=20"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=2s"`
	ReplyTimeout    time.Duration `env:"REPLY_TIMEOUT,default=5s"`
	RPCTimeout      time.Duration `env:"RPC_TIMEOUT,default=5s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	DebugAddress    string        `env:"DEBUG_ADDR"`
}

type NameserverConfig struct {
	LogLevel     string        `env:"LOG_LEVEL,default=INFO"`
	Address      string        `env:"ADDRESS,required=true"`
	Domain       string        `env:"DOMAIN"`
	RootAddress  string        `env:"ROOT_ADDRESS"`
	AddressStore string        `env:"ADDRESS_STORE,default=memory"`
	RPCTimeout   time.Duration `env:"RPC_TIMEOUT,default=5s"`
}

type ClientConfig struct {
	LogLevel        string        `env:"LOG_LEVEL,default=WARN"`
	BrokerHost      string        `env:"BROKER_HOST,default=localhost"`
	BrokerTCPPort   int           `env:"BROKER_TCP_PORT,required=true"`
	BrokerUDPPort   int           `env:"BROKER_UDP_PORT,required=true"`
	KeyFile         string        `env:"KEY_FILE,required=true"`
	ReplyBufferSize int           `env:"REPLY_BUFFER_SIZE,default=16"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	PeerTimeout     time.Duration `env:"PEER_TIMEOUT,default=5s"`
}

func (c BrokerConfig) TCPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.TCPPort)
}

func (c BrokerConfig) UDPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.UDPPort)
}

func (c ClientConfig) TCPAddress() string {
	return fmt.Sprintf("%s:%d", c.BrokerHost, c.BrokerTCPPort)
}

func (c ClientConfig) UDPAddress() string {
	return fmt.Sprintf("%s:%d", c.BrokerHost, c.BrokerUDPPort)
}

// IsRoot tells whether the nameserver serves the root zone.
func (c NameserverConfig) IsRoot() bool {
	return c.Domain == ""
}

func (c NameserverConfig) Validate() error {
	if !c.IsRoot() && c.RootAddress == "" {
		return fmt.Errorf("ROOT_ADDRESS is required when DOMAIN is set")
	}
	switch c.AddressStore {
	case StoreMemory, StoreBadger:
		return nil
	default:
		return fmt.Errorf("ADDRESS_STORE must be %q or %q, got %q", StoreMemory, StoreBadger, c.AddressStore)
	}
}

// NewAddressTable builds the address table selected by ADDRESS_STORE.
func (c NameserverConfig) NewAddressTable() (directory.AddressTable, error) {
	if strings.EqualFold(c.AddressStore, StoreBadger) {
		return directory.NewBadgerAddressTable()
	}
	return directory.NewMemoryAddressTable(), nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// Moderator returns nil when no censored word is configured.
func (c BrokerConfig) Moderator(log *slog.Logger) (*moderation.Moderator, error) {
	words := moderation.ParseWords(c.CensoredWords)
	if len(words) == 0 {
		return nil, nil
	}
	char, err := CharacterRune(c.CharReplacement)
	if err != nil {
		return nil, err
	}
	return moderation.NewModerator(log, words, char)
}
