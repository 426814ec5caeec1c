package chat

import (
	"chat-relay/errors"
	"fmt"
	"strings"
)

const (
	CmdLogin    = "!login"
	CmdLogout   = "!logout"
	CmdSend     = "!send"
	CmdRegister = "!register"
	CmdLookup   = "!lookup"
	CmdMsg      = "!msg"
	CmdLastMsg  = "!lastMsg"
	CmdList     = "!list"
	CmdExit     = "!exit"
)

// Command is one parsed input line. The set of implementations is closed:
// every line maps to exactly one of the types below.
type Command interface {
	Name() string
	String() string
}

type LoginCommand struct {
	Username string
	Password string
}

type LogoutCommand struct{}

type SendCommand struct {
	Text string
}

type RegisterCommand struct {
	Address string
}

type LookupCommand struct {
	Target string
}

type MsgCommand struct {
	Recipient string
	Text      string
}

type LastMsgCommand struct{}

type ListCommand struct{}

type ExitCommand struct{}

type UnknownCommand struct {
	Raw string
}

func (LoginCommand) Name() string    { return CmdLogin }
func (LogoutCommand) Name() string   { return CmdLogout }
func (SendCommand) Name() string     { return CmdSend }
func (RegisterCommand) Name() string { return CmdRegister }
func (LookupCommand) Name() string   { return CmdLookup }
func (MsgCommand) Name() string      { return CmdMsg }
func (LastMsgCommand) Name() string  { return CmdLastMsg }
func (ListCommand) Name() string     { return CmdList }
func (ExitCommand) Name() string     { return CmdExit }
func (UnknownCommand) Name() string  { return "" }

// String renders the command back to its wire form.
func (c LoginCommand) String() string    { return CmdLogin + " " + c.Username + " " + c.Password }
func (LogoutCommand) String() string     { return CmdLogout }
func (c SendCommand) String() string     { return CmdSend + " " + c.Text }
func (c RegisterCommand) String() string { return CmdRegister + " " + c.Address }
func (c LookupCommand) String() string   { return CmdLookup + " " + c.Target }
func (c MsgCommand) String() string      { return CmdMsg + " " + c.Recipient + " " + c.Text }
func (LastMsgCommand) String() string    { return CmdLastMsg }
func (ListCommand) String() string       { return CmdList }
func (ExitCommand) String() string       { return CmdExit }
func (c UnknownCommand) String() string  { return c.Raw }

// UsageError reports a known command issued with the wrong arguments.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("Wrong number of arguments for %s, usage: %s", e.Command, e.Usage)
}

func (e *UsageError) Unwrap() error {
	return errors.ErrMalformedCommand
}

// Parse turns one protocol line into a Command.
// Unrecognised keywords give an UnknownCommand and no error; a recognised
// keyword with bad arguments gives a *UsageError.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	keyword, rest, _ := strings.Cut(strings.TrimLeft(line, " "), " ")
	args := strings.Fields(rest)

	switch keyword {
	case CmdLogin:
		if len(args) != 2 {
			return nil, usage(CmdLogin, "!login <username> <password>")
		}
		return LoginCommand{Username: args[0], Password: args[1]}, nil
	case CmdLogout:
		return LogoutCommand{}, nil
	case CmdSend:
		text := strings.TrimSpace(rest)
		if text == "" {
			return nil, usage(CmdSend, "!send <message>")
		}
		return SendCommand{Text: text}, nil
	case CmdRegister:
		if len(args) != 1 {
			return nil, usage(CmdRegister, "!register <host:port>")
		}
		return RegisterCommand{Address: args[0]}, nil
	case CmdLookup:
		if len(args) != 1 {
			return nil, usage(CmdLookup, "!lookup <username>")
		}
		return LookupCommand{Target: args[0]}, nil
	case CmdMsg:
		recipient, text, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
		text = strings.TrimSpace(text)
		if recipient == "" || text == "" {
			return nil, usage(CmdMsg, "!msg <username> <message>")
		}
		return MsgCommand{Recipient: recipient, Text: text}, nil
	case CmdLastMsg:
		return LastMsgCommand{}, nil
	case CmdList:
		return ListCommand{}, nil
	case CmdExit:
		return ExitCommand{}, nil
	default:
		return UnknownCommand{Raw: line}, nil
	}
}

func usage(command, text string) error {
	return &UsageError{Command: command, Usage: text}
}
