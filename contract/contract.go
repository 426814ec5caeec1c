//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/chat"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ZoneHandle is a capability on one zone of the directory tree.
// It is held by parent zones and by the broker; it never owns the zone's data.
type ZoneHandle interface {
	Address() string
	RegisterZone(ctx context.Context, path, address string) error
	RegisterAddress(ctx context.Context, name, address string) error
	Lookup(ctx context.Context, name string) (string, bool, error)
	ResolveZone(ctx context.Context, label string) (string, bool, error)
}

// ZoneDialer turns a zone address into a handle.
type ZoneDialer interface {
	Dial(address string) (ZoneHandle, error)
}

// EventSink receives broadcasts fanned out by the broker.
type EventSink interface {
	Consume(ctx context.Context, b chat.Broadcast) error
}

// SessionSink is the broker side of one live connection.
type SessionSink interface {
	EventSink
	SessionID() string
	Close() error
}

// PresenceTracker is told when the online state of an account changes.
type PresenceTracker interface {
	SetOnline(username string, online bool)
}

type IRegistry interface {
	Join(sessionID string, sink SessionSink)
	Leave(sessionID string) (username string, stillOnline bool)
	Bind(sessionID, username string) bool
	Unbind(sessionID string) (username string, stillOnline bool, ok bool)
	Username(sessionID string) (string, bool)
	Recipients(excludeID string) []SessionSink
	Sinks() []SessionSink
}
