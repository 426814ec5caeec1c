package runtime

import (
	"chat-relay/contract"
	"sync"
)

type Set map[string]struct{}

var _ contract.IRegistry = (*Registry)(nil)

// Registry tracks live broker sessions and the user each one is logged in as.
// A user may be logged in from several sessions at once; the account stays
// online until the last of them is unbound. Presence changes are pushed to the
// tracker while the write lock is held, so a concurrent login cannot slip in
// between the "any session left?" check and the update.
type Registry struct {
	mu           sync.RWMutex
	presence     contract.PresenceTracker
	sessions     map[string]contract.SessionSink // session -> sink
	bindings     map[string]string               // session -> username
	userSessions map[string]Set                  // username -> sessions
}

func NewRegistry(presence contract.PresenceTracker) *Registry {
	return &Registry{
		presence:     presence,
		sessions:     make(map[string]contract.SessionSink),
		bindings:     make(map[string]string),
		userSessions: make(map[string]Set),
	}
}

// Join registers an anonymous session.
func (r *Registry) Join(sessionID string, sink contract.SessionSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = sink
}

// Leave removes the session, logging it out first when needed.
func (r *Registry) Leave(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, stillOnline, _ := r.unbind(sessionID)
	delete(r.sessions, sessionID)
	return username, stillOnline
}

// Bind marks the session as logged in as username.
// It fails when the session is unknown or already bound.
func (r *Registry) Bind(sessionID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	if _, ok := r.bindings[sessionID]; ok {
		return false
	}
	r.bindings[sessionID] = username
	if _, ok := r.userSessions[username]; !ok {
		r.userSessions[username] = make(Set)
	}
	r.userSessions[username][sessionID] = struct{}{}
	r.presence.SetOnline(username, true)
	return true
}

// Unbind logs the session out. stillOnline reports whether another session
// is still logged in as the same user.
func (r *Registry) Unbind(sessionID string) (string, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unbind(sessionID)
}

func (r *Registry) unbind(sessionID string) (string, bool, bool) {
	username, ok := r.bindings[sessionID]
	if !ok {
		return "", false, false
	}
	delete(r.bindings, sessionID)

	members := r.userSessions[username]
	delete(members, sessionID)
	if len(members) > 0 {
		return username, true, true
	}
	delete(r.userSessions, username)
	r.presence.SetOnline(username, false)
	return username, false, true
}

func (r *Registry) Username(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	username, ok := r.bindings[sessionID]
	return username, ok
}

// Recipients returns a snapshot of every logged-in session except excludeID.
func (r *Registry) Recipients(excludeID string) []contract.SessionSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recipients := make([]contract.SessionSink, 0, len(r.bindings))
	for sessionID := range r.bindings {
		if sessionID == excludeID {
			continue
		}
		if sink, ok := r.sessions[sessionID]; ok {
			recipients = append(recipients, sink)
		}
	}
	return recipients
}

// Sinks returns a snapshot of every live session, logged in or not.
func (r *Registry) Sinks() []contract.SessionSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.SessionSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}
