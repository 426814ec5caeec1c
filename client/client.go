package client

import (
	"bufio"
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	datagramSize       = 1024
	defaultPeerTimeout = 5 * time.Second
	ReplyShuttingDown  = "Shutting down client now."
)

// Client runs user commands. Most are relayed to the broker as is; register,
// msg, list and exit also drive local sockets.
type Client struct {
	log         *slog.Logger
	engine      *Engine
	signer      Signer
	display     Display
	udpAddress  string
	peerTimeout time.Duration

	mu         sync.Mutex
	peer       *PeerListener
	peerCancel context.CancelFunc
	peerDone   chan struct{}
}

func NewClient(log *slog.Logger, engine *Engine, signer Signer, display Display,
	udpAddress string, peerTimeout time.Duration) *Client {
	if peerTimeout <= 0 {
		peerTimeout = defaultPeerTimeout
	}
	return &Client{
		log:         log,
		engine:      engine,
		signer:      signer,
		display:     display,
		udpAddress:  udpAddress,
		peerTimeout: peerTimeout,
	}
}

// Execute runs one input line and returns what to show the user.
// An error means the broker connection is unusable.
func (c *Client) Execute(ctx context.Context, line string) (string, error) {
	cmd, err := chat.Parse(line)
	if err != nil {
		return err.Error(), nil
	}

	switch cmd := cmd.(type) {
	case chat.LoginCommand, chat.SendCommand, chat.LookupCommand, chat.LastMsgCommand:
		return c.engine.Request(ctx, cmd.String())
	case chat.LogoutCommand:
		c.stopPeer()
		return c.engine.Request(ctx, cmd.String())
	case chat.RegisterCommand:
		return c.register(ctx, cmd)
	case chat.MsgCommand:
		return c.msg(ctx, cmd)
	case chat.ListCommand:
		return c.list(ctx)
	case chat.ExitCommand:
		return c.exit(ctx)
	default:
		return chat.ReplyUnknownCommand, nil
	}
}

// Done is closed once the broker connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.engine.Done()
}

// PeerAddress is where the peer listener accepts messages, if it runs.
func (c *Client) PeerAddress() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return "", false
	}
	return c.peer.Address(), true
}

// register opens the peer listener first and keeps it only if the broker
// accepted the address.
func (c *Client) register(ctx context.Context, cmd chat.RegisterCommand) (string, error) {
	if err := auth.ValidateAddress(cmd.Address); err != nil {
		return chat.ReplyInvalidAddress, nil
	}
	c.stopPeer()

	lis, err := net.Listen("tcp", cmd.Address)
	if err != nil {
		return fmt.Sprintf("Cannot listen on %s: %v", cmd.Address, err), nil
	}
	reply, err := c.engine.Request(ctx, cmd.String())
	if err != nil || !chat.IsRegistered(reply) {
		_ = lis.Close()
		return reply, err
	}

	peer := NewPeerListener(c.log, lis, c.signer, c.display, c.peerTimeout)
	peerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := peer.Run(peerCtx); err != nil {
			c.log.Warn("Peer listener stopped", "error", err)
		}
	}()

	c.mu.Lock()
	c.peer, c.peerCancel, c.peerDone = peer, cancel, done
	c.mu.Unlock()
	c.log.Debug("Peer listener started", "address", peer.Address())
	return reply, nil
}

func (c *Client) stopPeer() {
	c.mu.Lock()
	cancel, done := c.peerCancel, c.peerDone
	c.peer, c.peerCancel, c.peerDone = nil, nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// msg asks the broker who we are and where the recipient is, then talks to
// the recipient directly.
func (c *Client) msg(ctx context.Context, cmd chat.MsgCommand) (string, error) {
	sender, err := c.engine.Request(ctx, cmd.String())
	if err != nil {
		return "", err
	}
	if auth.ValidateUsername(sender) != nil {
		return sender, nil
	}

	address, err := c.engine.Request(ctx, chat.LookupCommand{Target: cmd.Recipient}.String())
	if err != nil {
		return "", err
	}
	if auth.ValidateAddress(address) != nil {
		return address, nil
	}

	reply, err := c.sendPeer(ctx, address, chat.PeerMessage{
		MAC:    c.signer.Sign(chat.CanonicalText(cmd.Text)),
		Sender: sender,
		Text:   cmd.Text,
	})
	if err != nil {
		c.log.Debug("Peer unreachable", "recipient", cmd.Recipient, "address", address, "error", err)
		return fmt.Sprintf("Could not send the message to %s: %v", cmd.Recipient, err), nil
	}

	switch {
	case reply.IsAck():
		return chat.ReplyPeerAck(cmd.Recipient), nil
	case reply.Payload == chat.PeerTampered || !c.signer.Verify(reply.Payload, reply.MAC):
		return chat.ReplyTampered, nil
	default:
		return chat.ReplyPeer(cmd.Recipient, reply.Payload), nil
	}
}

func (c *Client) sendPeer(ctx context.Context, address string, msg chat.PeerMessage) (chat.PeerReply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.peerTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return chat.PeerReply{}, err
	}
	defer conn.Close()
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	if _, err := io.WriteString(conn, msg.String()+"\n"); err != nil {
		return chat.PeerReply{}, err
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return chat.PeerReply{}, err
	}
	return chat.ParsePeerReply(line)
}

// list asks the broker's datagram endpoint for the online users.
func (c *Client) list(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.peerTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.udpAddress)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	if _, err := io.WriteString(conn, chat.CmdList); err != nil {
		return "", err
	}
	buf := make([]byte, datagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Sprintf("No answer to %s: %v", chat.CmdList, err), nil
	}
	return string(buf[:n]), nil
}

// exit lets the broker log the session out, then releases every socket.
func (c *Client) exit(ctx context.Context) (string, error) {
	c.stopPeer()
	if _, err := c.engine.Request(ctx, chat.CmdExit); err != nil {
		c.log.Debug("Exit not acknowledged", "error", err)
	}
	c.engine.Close()
	return ReplyShuttingDown, nil
}

// Close releases every socket without talking to the broker.
func (c *Client) Close() {
	c.stopPeer()
	c.engine.Close()
}
