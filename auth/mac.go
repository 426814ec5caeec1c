package auth

import (
	"bytes"
	"chat-relay/errors"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
)

// MAC signs peer messages with HMAC-SHA256 over a secret shared by every client.
type MAC struct {
	key []byte
}

func NewMAC(key []byte) (*MAC, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", errors.ErrInvalidKey)
	}
	return &MAC{key: bytes.Clone(key)}, nil
}

// LoadKey reads a hex encoded secret. Surrounding whitespace is ignored.
func LoadKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", path, err)
	}
	key, err := hex.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidKey, path, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", errors.ErrInvalidKey, path)
	}
	return key, nil
}

// Sign returns the base64 encoded HMAC of message.
func (m *MAC) Sign(message string) string {
	return base64.StdEncoding.EncodeToString(m.sum(message))
}

// Verify reports whether encoded is the MAC of message.
func (m *MAC) Verify(message, encoded string) bool {
	received, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return hmac.Equal(m.sum(message), received)
}

func (m *MAC) sum(message string) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write([]byte(message))
	return h.Sum(nil)
}
