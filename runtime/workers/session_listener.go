package workers

import (
	"bufio"
	"chat-relay/services"
	"chat-relay/sink"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const acceptRetryDelay = 50 * time.Millisecond

// SessionListener accepts broker connections and serves one session per
// connection. At most poolSize sessions run at once: a slot is taken before
// Accept, so a full pool leaves new clients waiting in the backlog.
type SessionListener struct {
	log          *slog.Logger
	listener     net.Listener
	broker       services.IBrokerService
	pool         *semaphore.Weighted
	replyTimeout time.Duration

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewSessionListener(log *slog.Logger, listener net.Listener,
	broker services.IBrokerService, poolSize int64, replyTimeout time.Duration) *SessionListener {
	return &SessionListener{
		log:          log,
		listener:     listener,
		broker:       broker,
		pool:         semaphore.NewWeighted(poolSize),
		replyTimeout: replyTimeout,
		conns:        make(map[net.Conn]struct{}),
	}
}

// Run returns nil once ctx is cancelled, after every session has ended.
func (l *SessionListener) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.listener.Close()
	})
	defer stop()
	defer l.shutdown()

	l.log.Info("Session listener started", "address", l.listener.Addr().String())
	for {
		if err := l.pool.Acquire(ctx, 1); err != nil {
			return nil
		}
		conn, err := l.listener.Accept()
		if err != nil {
			l.pool.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.log.Warn("Accept failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(acceptRetryDelay):
			}
			continue
		}

		l.track(conn, true)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.pool.Release(1)
			defer l.track(conn, false)
			l.serve(ctx, conn)
		}()
	}
}

// ActiveSessions is the number of connections being served.
func (l *SessionListener) ActiveSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *SessionListener) serve(ctx context.Context, conn net.Conn) {
	session := services.NewSession(sink.NewConnSink(conn))
	l.broker.Connect(session)
	defer l.broker.Disconnect(session)
	defer conn.Close()

	log := l.log.With("session_id", session.SessionID(), "remote", conn.RemoteAddr().String())
	log.Debug("Connection accepted")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		reply := l.broker.Handle(ctx, session, scanner.Text())
		if err := l.reply(ctx, session, reply.Text); err != nil {
			log.Debug("Reply not delivered", "error", err)
			return
		}
		if reply.Close {
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Debug("Connection lost", "error", err)
	}
}

func (l *SessionListener) reply(ctx context.Context, session *services.Session, text string) error {
	if l.replyTimeout <= 0 {
		return session.Reply(ctx, text)
	}
	replyCtx, cancel := context.WithTimeout(ctx, l.replyTimeout)
	defer cancel()
	return session.Reply(replyCtx, text)
}

func (l *SessionListener) track(conn net.Conn, add bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if add {
		l.conns[conn] = struct{}{}
		return
	}
	delete(l.conns, conn)
}

// shutdown closes every live connection so that blocked reads return.
func (l *SessionListener) shutdown() {
	l.mu.Lock()
	for conn := range l.conns {
		_ = conn.Close()
	}
	open := len(l.conns)
	l.mu.Unlock()
	l.wg.Wait()
	l.log.Info("Session listener stopped", "closed_sessions", open)
}
