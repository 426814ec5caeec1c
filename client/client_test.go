package client

import (
	"bufio"
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// scriptedBroker answers each request line through a fixed table.
type scriptedBroker struct {
	mu       sync.Mutex
	replies  map[string]string
	received []string
}

func (b *scriptedBroker) set(line, reply string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[line] = reply
}

func (b *scriptedBroker) Received() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.received...)
}

func (b *scriptedBroker) answer(line string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = append(b.received, line)
	if line == chat.CmdExit {
		return chat.ReplyBye, true
	}
	if reply, ok := b.replies[line]; ok {
		return reply, false
	}
	return chat.ReplyUnknownCommand, false
}

func startScriptedBroker(t *testing.T) (*scriptedBroker, string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lis.Close() })

	broker := &scriptedBroker{replies: map[string]string{}}
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					reply, last := broker.answer(scanner.Text())
					if _, err := conn.Write([]byte(reply + "\n")); err != nil || last {
						return
					}
				}
			}()
		}
	}()
	return broker, lis.Addr().String()
}

func newMAC(t *testing.T, key string) *auth.MAC {
	t.Helper()
	mac, err := auth.NewMAC([]byte(key))
	require.NoError(t, err)
	return mac
}

type clientFixture struct {
	client  *Client
	broker  *scriptedBroker
	display *recordingDisplay
}

func newClient(t *testing.T, udpAddress string) *clientFixture {
	t.Helper()
	broker, address := startScriptedBroker(t)
	display := &recordingDisplay{}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	engine, err := Dial(context.Background(), log, address, display, 4)
	require.NoError(t, err)

	c := NewClient(log, engine, newMAC(t, "shared-secret"), display, udpAddress, time.Second)
	t.Cleanup(c.Close)
	return &clientFixture{client: c, broker: broker, display: display}
}

// startPeer runs a peer listener as the recipient side would.
func startPeer(t *testing.T, key string) (string, *recordingDisplay) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	display := &recordingDisplay{}
	peer := NewPeerListener(logs.GetLoggerFromLevel(slog.LevelDebug), lis, newMAC(t, key), display, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- peer.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return peer.Address(), display
}

func freeAddress(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := lis.Addr().String()
	require.NoError(t, lis.Close())
	return address
}

func TestClient_Execute_ForwardsBrokerCommands(t *testing.T) {
	req := require.New(t)

	// Given a broker accepting alice
	f := newClient(t, "")
	f.broker.set("!login alice.vienna.at 12345", chat.ReplyLoggedIn)
	f.broker.set("!send hello", chat.ReplyMessageSent)

	// When the commands are executed
	login, err := f.client.Execute(context.Background(), "!login alice.vienna.at 12345")
	req.NoError(err)
	send, err := f.client.Execute(context.Background(), "!send hello")
	req.NoError(err)

	// Then the broker replies are returned as is
	req.Equal(chat.ReplyLoggedIn, login)
	req.Equal(chat.ReplyMessageSent, send)
}

func TestClient_Execute_LocalDiagnostics(t *testing.T) {
	req := require.New(t)
	f := newClient(t, "")

	usage, err := f.client.Execute(context.Background(), "!login alice.vienna.at")
	req.NoError(err)
	req.Contains(usage, "!login <username> <password>")

	unknown, err := f.client.Execute(context.Background(), "!dance")
	req.NoError(err)
	req.Equal(chat.ReplyUnknownCommand, unknown)

	invalid, err := f.client.Execute(context.Background(), "!register nowhere")
	req.NoError(err)
	req.Equal(chat.ReplyInvalidAddress, invalid)

	// None of them reached the broker
	req.Empty(f.broker.Received())
}

func TestClient_Register_StartsPeerListener(t *testing.T) {
	req := require.New(t)

	// Given a broker accepting the registration
	f := newClient(t, "")
	address := freeAddress(t)
	f.broker.set("!register "+address, chat.ReplyRegistered("alice.vienna.at"))
	f.broker.set(chat.CmdLogout, chat.ReplyLoggedOut)

	// When the address is registered
	reply, err := f.client.Execute(context.Background(), "!register "+address)

	// Then the listener accepts signed messages on that address
	req.NoError(err)
	req.True(chat.IsRegistered(reply))
	listening, ok := f.client.PeerAddress()
	req.True(ok)
	req.Equal(address, listening)

	conn, err := net.Dial("tcp", address)
	req.NoError(err)
	defer conn.Close()
	msg := chat.PeerMessage{
		MAC:    newMAC(t, "shared-secret").Sign(chat.CanonicalText("hi")),
		Sender: "bob.vienna.at",
		Text:   "hi",
	}
	_, err = conn.Write([]byte(msg.String() + "\n"))
	req.NoError(err)
	line, err := bufio.NewReader(conn).ReadString('\n')
	req.NoError(err)
	req.Equal(chat.PeerAck, strings.TrimSpace(line))
	req.Contains(f.display.Lines(), "bob.vienna.at: hi")

	// And logout stops it
	_, err = f.client.Execute(context.Background(), "!logout")
	req.NoError(err)
	_, ok = f.client.PeerAddress()
	req.False(ok)
}

func TestClient_Register_RefusedReleasesAddress(t *testing.T) {
	req := require.New(t)

	// Given a broker refusing the registration
	f := newClient(t, "")
	address := freeAddress(t)
	f.broker.set("!register "+address, chat.ReplyAlreadyRegistered)

	// When the address is registered
	reply, err := f.client.Execute(context.Background(), "!register "+address)

	// Then the diagnostic is shown and the port is free again
	req.NoError(err)
	req.Equal(chat.ReplyAlreadyRegistered, reply)
	_, ok := f.client.PeerAddress()
	req.False(ok)
	lis, err := net.Listen("tcp", address)
	req.NoError(err)
	req.NoError(lis.Close())
}

func TestClient_Msg(t *testing.T) {
	tests := []struct {
		name     string
		peerKey  string
		expected string
	}{
		{name: "acknowledged", peerKey: "shared-secret", expected: chat.ReplyPeerAck("bob.vienna.at")},
		{name: "different key is reported as tampering", peerKey: "other-secret", expected: chat.ReplyTampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			// Given bob listening for direct messages
			f := newClient(t, "")
			peerAddress, peerDisplay := startPeer(t, tt.peerKey)
			f.broker.set("!msg bob.vienna.at hello bob", "alice.vienna.at")
			f.broker.set("!lookup bob.vienna.at", peerAddress)

			// When alice sends him a message
			reply, err := f.client.Execute(context.Background(), "!msg bob.vienna.at hello bob")

			// Then the outcome depends on the shared key
			req.NoError(err)
			req.Equal(tt.expected, reply)
			req.Contains(peerDisplay.Lines(), "alice.vienna.at: hello bob")
		})
	}
}

// startTamperingRelay sits between two peers, rewrites the message text on
// its way to target and records the reply it passes back.
func startTamperingRelay(t *testing.T, target, text string) (string, <-chan string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lis.Close() })

	replies := make(chan string, 1)
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		msg, err := chat.ParsePeerMessage(line)
		if err != nil {
			return
		}
		msg.Text = text

		upstream, err := net.Dial("tcp", target)
		if err != nil {
			return
		}
		defer upstream.Close()
		if _, err := upstream.Write([]byte(msg.String() + "\n")); err != nil {
			return
		}
		reply, err := bufio.NewReader(upstream).ReadString('\n')
		if err != nil {
			return
		}
		replies <- strings.TrimSpace(reply)
		_, _ = conn.Write([]byte(reply))
	}()
	return lis.Addr().String(), replies
}

func TestClient_Msg_AlteredInTransit(t *testing.T) {
	req := require.New(t)

	// Given bob sharing alice's key behind a relay that rewrites the text
	f := newClient(t, "")
	peerAddress, peerDisplay := startPeer(t, "shared-secret")
	relayAddress, replies := startTamperingRelay(t, peerAddress, "hello mallory")
	f.broker.set("!msg bob.vienna.at hello bob", "alice.vienna.at")
	f.broker.set("!lookup bob.vienna.at", relayAddress)

	// When alice sends him a message
	reply, err := f.client.Execute(context.Background(), "!msg bob.vienna.at hello bob")

	// Then bob sees the altered text and answers with a signed tampering notice
	req.NoError(err)
	req.Contains(peerDisplay.Lines(), "alice.vienna.at: hello mallory")
	var line string
	select {
	case line = <-replies:
	case <-time.After(time.Second):
		req.Fail("no reply from bob")
	}
	peerReply, err := chat.ParsePeerReply(line)
	req.NoError(err)
	req.Equal(chat.PeerTampered, peerReply.Payload)
	req.True(newMAC(t, "shared-secret").Verify(chat.PeerTampered, peerReply.MAC))

	// And alice is told her message was tampered with
	req.Equal(chat.ReplyTampered, reply)
}

func TestClient_Msg_BrokerDiagnostics(t *testing.T) {
	req := require.New(t)

	// Given a broker where alice is logged out
	f := newClient(t, "")
	f.broker.set("!msg bob.vienna.at hi", chat.ReplyLoginRequired)

	reply, err := f.client.Execute(context.Background(), "!msg bob.vienna.at hi")
	req.NoError(err)
	req.Equal(chat.ReplyLoginRequired, reply)

	// Given bob has no address
	f.broker.set("!msg bob.vienna.at hi", "alice.vienna.at")
	f.broker.set("!lookup bob.vienna.at", chat.ReplyNoAddress)

	reply, err = f.client.Execute(context.Background(), "!msg bob.vienna.at hi")
	req.NoError(err)
	req.Equal(chat.ReplyNoAddress, reply)
}

func TestClient_List(t *testing.T) {
	req := require.New(t)

	// Given a datagram endpoint listing the online users
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	req.NoError(err)
	defer conn.Close()
	go func() {
		buf := make([]byte, datagramSize)
		n, from, err := conn.ReadFrom(buf)
		if err != nil || string(buf[:n]) != chat.CmdList {
			return
		}
		_, _ = conn.WriteTo([]byte("alice.vienna.at\nbob.vienna.at"), from)
	}()
	f := newClient(t, conn.LocalAddr().String())

	// When the list is requested
	reply, err := f.client.Execute(context.Background(), "!list")

	// Then the datagram answer is returned
	req.NoError(err)
	req.Equal("alice.vienna.at\nbob.vienna.at", reply)
	req.Empty(f.broker.Received())
}

func TestClient_Exit(t *testing.T) {
	req := require.New(t)
	f := newClient(t, "")

	reply, err := f.client.Execute(context.Background(), "!exit")

	req.NoError(err)
	req.Equal(ReplyShuttingDown, reply)
	req.Equal([]string{chat.CmdExit}, f.broker.Received())
	select {
	case <-f.client.Done():
	case <-time.After(time.Second):
		req.Fail("connection still open")
	}
}
