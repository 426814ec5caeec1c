// Package client is the user side of the chat: one line-oriented connection
// to the broker plus direct connections to other clients.
package client

import (
	"bufio"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Display shows lines to the user.
type Display interface {
	Show(line string)
}

// Engine owns the broker connection.
// A single reader goroutine splits incoming lines: broadcast pushes go to the
// display, everything else is the reply of the request in flight.
type Engine struct {
	log     *slog.Logger
	conn    net.Conn
	display Display
	replies chan string

	mu        sync.Mutex // one request in flight
	closeOnce sync.Once
	stopped   chan struct{}
	done      chan struct{}
}

// Dial connects to the broker.
func Dial(ctx context.Context, log *slog.Logger, address string, display Display, bufferSize int) (*Engine, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewEngine(log, conn, display, bufferSize), nil
}

func NewEngine(log *slog.Logger, conn net.Conn, display Display, bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	e := &Engine{
		log:     log,
		conn:    conn,
		display: display,
		replies: make(chan string, bufferSize),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go e.read()
	return e
}

func (e *Engine) read() {
	defer close(e.done)
	scanner := bufio.NewScanner(e.conn)
	for scanner.Scan() {
		line := scanner.Text()
		if chat.IsPublicLine(line) {
			e.display.Show(line)
			continue
		}
		select {
		case e.replies <- line:
		case <-e.stopped:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-e.stopped:
		default:
			e.log.Warn("Broker connection lost", "error", err)
		}
	}
}

// Request sends line and waits for its reply.
// If ctx ends first the connection is closed: a reply arriving later would
// otherwise be taken for the answer of the next request.
func (e *Engine) Request(ctx context.Context, line string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
		return "", errors.ErrConnectionClosed
	default:
	}

	deadline, _ := ctx.Deadline()
	_ = e.conn.SetWriteDeadline(deadline)
	if _, err := io.WriteString(e.conn, line+"\n"); err != nil {
		e.Close()
		return "", errors.ErrConnectionClosed
	}

	select {
	case reply := <-e.replies:
		return reply, nil
	case <-e.done:
		// The last reply may have been queued right before the connection closed.
		select {
		case reply := <-e.replies:
			return reply, nil
		default:
			return "", errors.ErrConnectionClosed
		}
	case <-ctx.Done():
		e.Close()
		return "", ctx.Err()
	}
}

// Done is closed when the broker connection is gone.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Close force-closes the connection, failing any pending Request.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.stopped)
		_ = e.conn.Close()
	})
}

// Wait blocks until the reader has stopped or timeout elapses.
func (e *Engine) Wait(timeout time.Duration) bool {
	select {
	case <-e.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
