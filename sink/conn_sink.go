package sink

import (
	"chat-relay/errors"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// ConnSink writes newline terminated lines on a connection.
// Replies and broadcast pushes share the connection; the mutex keeps each
// line whole.
type ConnSink struct {
	mu     sync.Mutex
	conn   net.Conn
	broken error
}

func NewConnSink(conn net.Conn) *ConnSink {
	return &ConnSink{conn: conn}
}

// WriteLine gives up when ctx is done or its deadline passes.
// A failed write may have left part of the line on the stream, so the
// connection is closed and every later write fails with ErrConnectionClosed.
func (s *ConnSink) WriteLine(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectionClosed, s.broken)
	}

	deadline, _ := ctx.Deadline()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return s.fail(err)
	}
	forced := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(forced)
		_ = s.conn.SetWriteDeadline(time.Now())
	})

	_, err := io.WriteString(s.conn, line+"\n")
	if !stop() {
		// The forced deadline must land before the next write sets its own.
		<-forced
	}
	if err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *ConnSink) fail(err error) error {
	s.broken = err
	_ = s.conn.Close()
	return err
}

func (s *ConnSink) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

func (s *ConnSink) Close() error {
	return s.conn.Close()
}
