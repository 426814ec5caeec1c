package workers

import (
	"chat-relay/domain/chat"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
)

const datagramSize = 1024

// OnlineLister renders the online user list.
type OnlineLister interface {
	OnlineList() string
}

// PresenceListener answers "!list" datagrams with the online users.
type PresenceListener struct {
	log      *slog.Logger
	conn     net.PacketConn
	presence OnlineLister
}

func NewPresenceListener(log *slog.Logger, conn net.PacketConn, presence OnlineLister) *PresenceListener {
	return &PresenceListener{log: log, conn: conn, presence: presence}
}

func (l *PresenceListener) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()

	l.log.Info("Presence listener started", "address", l.conn.LocalAddr().String())
	buf := make([]byte, datagramSize)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.log.Info("Presence listener stopped")
				return nil
			}
			return err
		}

		response := l.answer(string(buf[:n]))
		if _, err := l.conn.WriteTo([]byte(response), addr); err != nil {
			l.log.Warn("Presence reply not sent", "remote", addr.String(), "error", err)
		}
	}
}

func (l *PresenceListener) answer(request string) string {
	cmd, err := chat.Parse(strings.TrimSpace(request))
	if err != nil {
		return chat.ReplyListError
	}
	if _, ok := cmd.(chat.ListCommand); !ok {
		return chat.ReplyListError
	}
	return l.presence.OnlineList()
}
