package chat

import (
	"chat-relay/errors"
	"fmt"
	"strings"
)

const (
	PeerAck      = "!ack"
	PeerTampered = "!tampered"

	macSeparator    = ";"
	senderSeparator = ":"
)

// PeerMessage is the single line sent on a direct client-to-client connection:
// <base64-mac>;<sender>:<text>
type PeerMessage struct {
	MAC    string
	Sender string
	Text   string
}

func (m PeerMessage) String() string {
	return m.MAC + macSeparator + m.Sender + senderSeparator + m.Text
}

// CanonicalText is the byte sequence covered by the MAC of a peer message.
func CanonicalText(text string) string {
	return CmdMsg + " " + text
}

func ParsePeerMessage(line string) (PeerMessage, error) {
	mac, payload, ok := strings.Cut(strings.TrimRight(line, "\r\n"), macSeparator)
	if !ok || mac == "" {
		return PeerMessage{}, fmt.Errorf("%w: missing mac", errors.ErrMalformedPeerMessage)
	}
	sender, text, ok := strings.Cut(payload, senderSeparator)
	if !ok || sender == "" {
		return PeerMessage{}, fmt.Errorf("%w: missing sender", errors.ErrMalformedPeerMessage)
	}
	return PeerMessage{MAC: mac, Sender: sender, Text: text}, nil
}

// PeerReply is the answer of a peer listener: either the bare acknowledgement
// or <base64-mac>;<payload>.
type PeerReply struct {
	MAC     string
	Payload string
}

func (r PeerReply) IsAck() bool {
	return r.MAC == "" && r.Payload == PeerAck
}

func (r PeerReply) String() string {
	if r.IsAck() {
		return PeerAck
	}
	return r.MAC + macSeparator + r.Payload
}

func AckReply() PeerReply {
	return PeerReply{Payload: PeerAck}
}

func ParsePeerReply(line string) (PeerReply, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == PeerAck {
		return AckReply(), nil
	}
	mac, payload, ok := strings.Cut(line, macSeparator)
	if !ok || mac == "" {
		return PeerReply{}, fmt.Errorf("%w: unexpected reply %q", errors.ErrMalformedPeerMessage, line)
	}
	return PeerReply{MAC: mac, Payload: payload}, nil
}
