//go:generate go run go.uber.org/mock/mockgen -source=broker_service.go -destination=../mocks/mock_broker_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// Reply is what the broker answers to one command line.
// Close asks the transport to end the session after writing Text.
type Reply struct {
	Text  string
	Close bool
}

// Censor masks forbidden words in a broadcast.
type Censor interface {
	Censor(text string) (string, bool)
}

type IBrokerService interface {
	Connect(session *Session)
	Disconnect(session *Session)
	Handle(ctx context.Context, session *Session, line string) Reply
	Execute(ctx context.Context, session *Session, cmd chat.Command) Reply
}

// BrokerStats are counters since start-up.
type BrokerStats struct {
	Sessions   int   `json:"sessions"`
	Online     int   `json:"online"`
	Logins     int64 `json:"logins"`
	Broadcasts int64 `json:"broadcasts"`
	Dropped    int64 `json:"dropped_deliveries"`
}

// BrokerService runs the session protocol. It knows nothing about sockets:
// replies are returned and broadcasts go through the registry sinks.
type BrokerService struct {
	log         *slog.Logger
	accounts    repositories.IAccountRepository
	registry    contract.IRegistry
	directory   IDirectoryService
	censor      Censor
	sinkTimeout time.Duration

	logins     atomic.Int64
	broadcasts atomic.Int64
	dropped    atomic.Int64
}

// NewBrokerService builds the service. censor may be nil.
func NewBrokerService(log *slog.Logger,
	accounts repositories.IAccountRepository,
	registry contract.IRegistry,
	directory IDirectoryService,
	censor Censor,
	sinkTimeout time.Duration) *BrokerService {
	return &BrokerService{
		log:         log,
		accounts:    accounts,
		registry:    registry,
		directory:   directory,
		censor:      censor,
		sinkTimeout: sinkTimeout,
	}
}

func (s *BrokerService) Connect(session *Session) {
	s.registry.Join(session.SessionID(), session)
	s.log.Debug("Session opened", "session_id", session.SessionID())
}

// Disconnect drops the session. A session still logged in is logged out first.
func (s *BrokerService) Disconnect(session *Session) {
	username, stillOnline := s.registry.Leave(session.SessionID())
	s.log.Debug("Session closed", "session_id", session.SessionID(),
		"username", username, "still_online", stillOnline)
}

// Handle parses line and executes it. A malformed command only earns a
// usage reply.
func (s *BrokerService) Handle(ctx context.Context, session *Session, line string) Reply {
	cmd, err := chat.Parse(line)
	if err != nil {
		return Reply{Text: err.Error()}
	}
	return s.Execute(ctx, session, cmd)
}

func (s *BrokerService) Execute(ctx context.Context, session *Session, cmd chat.Command) Reply {
	switch c := cmd.(type) {
	case chat.LoginCommand:
		return s.login(session, c)
	case chat.LogoutCommand:
		return s.logout(session)
	case chat.ExitCommand:
		s.unbind(session)
		return Reply{Text: chat.ReplyBye, Close: true}
	}

	username, ok := s.registry.Username(session.SessionID())
	switch c := cmd.(type) {
	case chat.ListCommand, chat.UnknownCommand:
		return replyFor(fmt.Errorf("%w: %s", errors.ErrUnknownCommand, c.String()))
	}
	if !ok {
		return Reply{Text: chat.ReplyLoginRequired}
	}

	switch c := cmd.(type) {
	case chat.SendCommand:
		return s.send(ctx, session, username, c)
	case chat.RegisterCommand:
		return s.register(ctx, username, c)
	case chat.LookupCommand:
		return s.lookup(ctx, c)
	case chat.MsgCommand:
		// The client signs its peer payload with the name the broker vouches for.
		return Reply{Text: username}
	case chat.LastMsgCommand:
		if last, ok := session.LastMessage(); ok {
			return Reply{Text: last}
		}
		return Reply{Text: chat.ReplyNoMessage}
	default:
		return replyFor(errors.ErrUnknownCommand)
	}
}

// replyFor turns a refused session command into the text the user sees.
func replyFor(err error) Reply {
	switch {
	case stderrors.Is(err, errors.ErrAlreadyLoggedIn):
		return Reply{Text: chat.ReplyAlreadyLoggedIn}
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return Reply{Text: chat.ReplyWrongCredentials}
	case stderrors.Is(err, errors.ErrNotLoggedIn):
		return Reply{Text: chat.ReplyNotLoggedIn}
	case stderrors.Is(err, errors.ErrInvalidAddress):
		return Reply{Text: chat.ReplyInvalidAddress}
	case stderrors.Is(err, errors.ErrInvalidUsername):
		return Reply{Text: chat.ReplyInvalidDomain}
	default:
		return Reply{Text: chat.ReplyUnknownCommand}
	}
}

func (s *BrokerService) login(session *Session, c chat.LoginCommand) Reply {
	if err := s.bind(session, c); err != nil {
		return replyFor(err)
	}
	s.logins.Add(1)
	s.log.Info("User logged in", "session_id", session.SessionID(), "username", c.Username)
	return Reply{Text: chat.ReplyLoggedIn}
}

func (s *BrokerService) bind(session *Session, c chat.LoginCommand) error {
	if username, ok := s.registry.Username(session.SessionID()); ok {
		return fmt.Errorf("%w: as %s", errors.ErrAlreadyLoggedIn, username)
	}
	if err := s.accounts.Authenticate(c.Username, c.Password); err != nil {
		if !stderrors.Is(err, errors.ErrInvalidCredentials) {
			s.log.Warn("Authentication failed", "username", c.Username, "error", err)
			return fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
		}
		return err
	}
	if !s.registry.Bind(session.SessionID(), c.Username) {
		return errors.ErrAlreadyLoggedIn
	}
	return nil
}

func (s *BrokerService) logout(session *Session) Reply {
	if !s.unbind(session) {
		return replyFor(errors.ErrNotLoggedIn)
	}
	return Reply{Text: chat.ReplyLoggedOut}
}

func (s *BrokerService) unbind(session *Session) bool {
	username, stillOnline, ok := s.registry.Unbind(session.SessionID())
	if !ok {
		return false
	}
	session.forgetLastMessage()
	s.log.Info("User logged out", "session_id", session.SessionID(),
		"username", username, "still_online", stillOnline)
	return true
}

func (s *BrokerService) send(ctx context.Context, session *Session, username string, c chat.SendCommand) Reply {
	text := c.Text
	if s.censor != nil {
		text, _ = s.censor.Censor(text)
	}
	s.broadcast(ctx, session.SessionID(), chat.Broadcast{Author: username, Text: text, At: time.Now().UTC()})
	return Reply{Text: chat.ReplyMessageSent}
}

// broadcast delivers b to every other logged-in session concurrently and
// waits for all of them. A slow or broken recipient costs at most sinkTimeout
// and never fails the sender.
func (s *BrokerService) broadcast(ctx context.Context, senderID string, b chat.Broadcast) {
	recipients := s.registry.Recipients(senderID)
	s.broadcasts.Add(1)

	var wg sync.WaitGroup
	for _, sink := range recipients {
		wg.Add(1)
		go func(sink contract.SessionSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, b); err != nil {
				s.dropped.Add(1)
				s.log.Warn("Broadcast delivery failed",
					"session_id", sink.SessionID(), "author", b.Author, "error", err)
			}
		}(sink)
	}
	wg.Wait()
}

func (s *BrokerService) register(ctx context.Context, username string, c chat.RegisterCommand) Reply {
	if err := auth.ValidateRegistration(auth.Registration{Username: username, Address: c.Address}); err != nil {
		return replyFor(err)
	}
	if err := s.directory.RegisterAddress(ctx, username, c.Address); err != nil {
		s.log.Debug("Address registration failed", "username", username, "error", err)
		switch {
		case stderrors.Is(err, errors.ErrAlreadyRegistered):
			return Reply{Text: chat.ReplyAlreadyRegistered}
		case stderrors.Is(err, errors.ErrInvalidDomain):
			return Reply{Text: chat.ReplyInvalidDomain}
		default:
			return Reply{Text: chat.ReplyRegisterUnreachable}
		}
	}
	if err := s.accounts.SetAddress(username, c.Address); err != nil {
		s.log.Warn("Could not record address on account", "username", username, "error", err)
	}
	return Reply{Text: chat.ReplyRegistered(username)}
}

func (s *BrokerService) lookup(ctx context.Context, c chat.LookupCommand) Reply {
	address, err := s.directory.Lookup(ctx, c.Target)
	switch {
	case err == nil:
		return Reply{Text: address}
	case stderrors.Is(err, errors.ErrInvalidDomain):
		return Reply{Text: chat.ReplyNoSuchDomain}
	case stderrors.Is(err, errors.ErrAddressNotFound):
		return Reply{Text: chat.ReplyNoAddress}
	default:
		s.log.Warn("Lookup failed", "name", c.Target, "error", err)
		return Reply{Text: chat.ReplyLookupUnreachable}
	}
}

// Stats is served by the debug endpoint.
func (s *BrokerService) Stats() BrokerStats {
	return BrokerStats{
		Sessions:   len(s.registry.Sinks()),
		Online:     len(s.accounts.OnlineUsers()),
		Logins:     s.logins.Load(),
		Broadcasts: s.broadcasts.Load(),
		Dropped:    s.dropped.Load(),
	}
}

// OnlineList answers the datagram "!list" query.
func (s *BrokerService) OnlineList() string {
	online := s.accounts.OnlineUsers()
	if len(online) == 0 {
		return chat.ReplyNoOnlineUsers
	}
	return strings.Join(lo.Map(online, func(username string, _ int) string {
		return chat.UserAccount{Username: username, Online: true}.String()
	}), "\n")
}
