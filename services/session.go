package services

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"context"
	"sync"

	"github.com/google/uuid"
)

// LineWriter is the transport under a session.
type LineWriter interface {
	WriteLine(ctx context.Context, line string) error
	Close() error
}

var _ contract.SessionSink = (*Session)(nil)

// Session is one broker connection. Who it is logged in as is kept by the
// registry; the session only caches the last broadcast it received.
type Session struct {
	id  string
	out LineWriter

	mu      sync.Mutex
	lastMsg string
}

func NewSession(out LineWriter) *Session {
	return &Session{id: uuid.NewString(), out: out}
}

func (s *Session) SessionID() string {
	return s.id
}

// Consume pushes a broadcast to the connection.
func (s *Session) Consume(ctx context.Context, b chat.Broadcast) error {
	s.mu.Lock()
	s.lastMsg = b.Content()
	s.mu.Unlock()
	return s.out.WriteLine(ctx, b.Line())
}

func (s *Session) Reply(ctx context.Context, text string) error {
	return s.out.WriteLine(ctx, text)
}

func (s *Session) LastMessage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMsg, s.lastMsg != ""
}

func (s *Session) forgetLastMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMsg = ""
}

func (s *Session) Close() error {
	return s.out.Close()
}
