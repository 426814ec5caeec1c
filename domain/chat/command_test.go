package chat

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_KnownCommands(t *testing.T) {
	tests := []struct {
		line     string
		expected Command
	}{
		{"!login alice 12345", LoginCommand{Username: "alice", Password: "12345"}},
		{"!logout", LogoutCommand{}},
		{"!send hello  world ", SendCommand{Text: "hello  world"}},
		{"!register 127.0.0.1:9001", RegisterCommand{Address: "127.0.0.1:9001"}},
		{"!lookup alice.vienna.at", LookupCommand{Target: "alice.vienna.at"}},
		{"!msg bob how are you", MsgCommand{Recipient: "bob", Text: "how are you"}},
		{"!lastMsg", LastMsgCommand{}},
		{"!list", ListCommand{}},
		{"!exit\r\n", ExitCommand{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(tt.line)
			req.NoError(err)
			req.Equal(tt.expected, cmd)
		})
	}
}

func TestParse_UnknownCommand(t *testing.T) {
	req := require.New(t)

	// When the keyword only shares a prefix with a known command
	cmd, err := Parse("!loginx alice 12345")

	// Then it is not mistaken for it
	req.NoError(err)
	req.Equal(UnknownCommand{Raw: "!loginx alice 12345"}, cmd)

	cmd, err = Parse("hello")
	req.NoError(err)
	req.IsType(UnknownCommand{}, cmd)
}

func TestParse_WrongArity(t *testing.T) {
	lines := []string{
		"!login alice",
		"!login alice 123 456",
		"!send",
		"!send   ",
		"!register",
		"!register a b",
		"!lookup",
		"!msg bob",
		"!msg",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(line)
			req.Nil(cmd)
			req.ErrorIs(err, errors.ErrMalformedCommand)

			var usageErr *UsageError
			req.ErrorAs(err, &usageErr)
			req.Contains(err.Error(), "usage")
		})
	}
}

func TestCommand_StringRoundTrip(t *testing.T) {
	req := require.New(t)
	commands := []Command{
		LoginCommand{Username: "alice", Password: "pw"},
		SendCommand{Text: "hi there"},
		RegisterCommand{Address: "localhost:1234"},
		LookupCommand{Target: "bob.at"},
		MsgCommand{Recipient: "bob", Text: "psst"},
	}
	for _, c := range commands {
		parsed, err := Parse(c.(interface{ String() string }).String())
		req.NoError(err)
		req.Equal(c, parsed)
	}
}
