package client

import (
	"bufio"
	"chat-relay/domain/chat"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Signer signs and verifies peer payloads.
type Signer interface {
	Sign(message string) string
	Verify(message, encoded string) bool
}

// PeerListener receives direct messages from other clients.
// Each connection carries one message and one reply.
type PeerListener struct {
	log      *slog.Logger
	listener net.Listener
	signer   Signer
	display  Display
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewPeerListener(log *slog.Logger, listener net.Listener, signer Signer, display Display, timeout time.Duration) *PeerListener {
	return &PeerListener{log: log, listener: listener, signer: signer, display: display, timeout: timeout}
}

func (l *PeerListener) Address() string {
	return l.listener.Addr().String()
}

// Run serves until ctx is cancelled or the listener is closed.
func (l *PeerListener) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.listener.Close()
	})
	defer stop()
	defer l.wg.Wait()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handle(conn)
		}()
	}
}

func (l *PeerListener) Close() error {
	return l.listener.Close()
}

func (l *PeerListener) handle(conn net.Conn) {
	defer conn.Close()
	if l.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(l.timeout))
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		l.log.Debug("Peer message not received", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	reply := l.answer(line)
	if _, err := io.WriteString(conn, reply.String()+"\n"); err != nil {
		l.log.Debug("Peer reply not sent", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// answer shows the message, verified or not, and builds the reply.
func (l *PeerListener) answer(line string) chat.PeerReply {
	msg, err := chat.ParsePeerMessage(line)
	if err != nil {
		l.log.Warn("Malformed peer message", "error", err)
		return l.tampered()
	}

	l.display.Show(msg.Sender + ": " + msg.Text)
	if !l.signer.Verify(chat.CanonicalText(msg.Text), msg.MAC) {
		l.log.Warn("Peer message failed verification", "sender", msg.Sender)
		return l.tampered()
	}
	return chat.AckReply()
}

func (l *PeerListener) tampered() chat.PeerReply {
	return chat.PeerReply{MAC: l.signer.Sign(chat.PeerTampered), Payload: chat.PeerTampered}
}
