//go:build tools

// Package tools pins the code generators run by go generate, so that
// mockgen resolves to the version recorded in go.mod.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)
