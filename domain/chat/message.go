package chat

import (
	"strings"
	"time"
)

// PublicPrefix marks a broadcast push on a broker connection. Clients divert
// such lines to their display instead of treating them as a reply.
const PublicPrefix = "!public: "

// Broadcast is one "!send" fanned out to the other authenticated sessions.
type Broadcast struct {
	Author string
	Text   string
	At     time.Time
}

// Content is what a recipient caches for "!lastMsg".
func (b Broadcast) Content() string {
	return b.Author + ": " + b.Text
}

// Line is the pushed wire form.
func (b Broadcast) Line() string {
	return PublicPrefix + b.Content()
}

func IsPublicLine(line string) bool {
	return strings.HasPrefix(line, PublicPrefix)
}
