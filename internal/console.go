package internal

import (
	"bufio"
	"chat-relay/domain/chat"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ConsoleAction writes the answer of one operator command.
type ConsoleAction func(w io.Writer) error

// Console reads operator commands line by line until !exit or end of input.
type Console struct {
	log     *slog.Logger
	in      io.Reader
	out     io.Writer
	actions map[string]ConsoleAction
}

func NewConsole(log *slog.Logger, in io.Reader, out io.Writer) *Console {
	return &Console{log: log, in: in, out: out, actions: make(map[string]ConsoleAction)}
}

func (c *Console) Handle(command string, action ConsoleAction) *Console {
	c.actions[command] = action
	return c
}

// Commands lists the registered commands, !exit included.
func (c *Console) Commands() []string {
	commands := append(lo.Keys(c.actions), chat.CmdExit)
	slices.Sort(commands)
	return commands
}

// Run returns when the operator types !exit, the input ends or ctx is
// cancelled. A blocked read on the input is abandoned on cancellation.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}
			if line == chat.CmdExit {
				c.log.Info("Shutdown requested from the console")
				return nil
			}
			c.execute(line)
		}
	}
}

func (c *Console) execute(line string) {
	action, ok := c.actions[line]
	if !ok {
		_, _ = fmt.Fprintf(c.out, "%s Available: %s\n", chat.ReplyUnknownCommand, strings.Join(c.Commands(), ", "))
		return
	}
	if err := action(c.out); err != nil {
		c.log.Warn("Console command failed", "command", line, "error", err)
		_, _ = fmt.Fprintf(c.out, "%s failed: %v\n", line, err)
	}
}
