package scope

import (
	"maps"
	"sync"
)

// Session holds variables that live for a host session and are never persisted.
// It is shared by reference between a scope and all of its children.
type Session struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{vars: make(map[string]string)}
}

// Get returns a session variable
func (s *Session) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Set stores a session variable
func (s *Session) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

// Snapshot returns a copy of all session variables
func (s *Session) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}
