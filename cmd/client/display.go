package main

import (
	"chat-relay/domain/chat"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
)

// terminal prints broker pushes, peer messages and replies without
// interleaving them.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

// Show is called from the reader goroutines.
func (t *terminal) Show(line string) {
	if chat.IsPublicLine(line) {
		t.print(color.New(color.FgCyan).Render(strings.TrimPrefix(line, chat.PublicPrefix)))
		return
	}
	t.print(color.New(color.FgGreen).Render(line))
}

func (t *terminal) Reply(line string) {
	if line == chat.ReplyTampered {
		t.print(color.New(color.FgRed, color.OpBold).Render(line))
		return
	}
	t.print(line)
}

func (t *terminal) Error(err error) {
	t.print(color.New(color.FgRed).Render(err.Error()))
}

func (t *terminal) print(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, line)
}
