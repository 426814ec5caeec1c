package chat

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePeerMessage(t *testing.T) {
	req := require.New(t)

	// Given a well-formed peer line whose text contains separators
	line := PeerMessage{MAC: "bWFj", Sender: "alice", Text: "see you at 10:30; ok"}.String()

	// When it is parsed
	msg, err := ParsePeerMessage(line + "\n")

	// Then only the first separators split the fields
	req.NoError(err)
	req.Equal("bWFj", msg.MAC)
	req.Equal("alice", msg.Sender)
	req.Equal("see you at 10:30; ok", msg.Text)
}

func TestParsePeerMessage_Malformed(t *testing.T) {
	for _, line := range []string{"", "no separators", ";alice:hi", "bWFj;no sender", "bWFj;:hi"} {
		t.Run(line, func(t *testing.T) {
			_, err := ParsePeerMessage(line)
			require.ErrorIs(t, err, errors.ErrMalformedPeerMessage)
		})
	}
}

func TestParsePeerReply(t *testing.T) {
	req := require.New(t)

	reply, err := ParsePeerReply("!ack\n")
	req.NoError(err)
	req.True(reply.IsAck())
	req.Equal(PeerAck, reply.String())

	reply, err = ParsePeerReply("bWFj;!tampered")
	req.NoError(err)
	req.False(reply.IsAck())
	req.Equal("bWFj", reply.MAC)
	req.Equal(PeerTampered, reply.Payload)

	_, err = ParsePeerReply("garbage")
	req.ErrorIs(err, errors.ErrMalformedPeerMessage)
}

func TestCanonicalText(t *testing.T) {
	require.Equal(t, "!msg hello", CanonicalText("hello"))
}

func TestBroadcast_Line(t *testing.T) {
	req := require.New(t)
	b := Broadcast{Author: "alice", Text: "hello all", At: time.Now()}

	req.Equal("alice: hello all", b.Content())
	req.Equal("!public: alice: hello all", b.Line())
	req.True(IsPublicLine(b.Line()))
	req.False(IsPublicLine(ReplyMessageSent))
}

func TestUserAccount_String(t *testing.T) {
	req := require.New(t)
	req.Equal("Username: alice | online", UserAccount{Username: "alice", Online: true}.String())
	req.Equal("Username: bob | offline", UserAccount{Username: "bob"}.String())
}
