// internal/conversation/store.go
package conversation

import (
	"sync"

	"github.com/user/storynest/internal/types"
)

// Store is an in-memory session registry keyed by SessionKey. Nothing is
// persisted: a restart always begins with fresh sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[types.SessionKey]*Session
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{
		sessions: make(map[types.SessionKey]*Session),
	}
}

// ResolveOrCreate returns the session for the given key, creating it on
// first use.
func (s *Store) ResolveOrCreate(key types.SessionKey) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[key]; ok {
		return existing
	}
	session := NewSession(key)
	s.sessions[key] = session
	return session
}

// Get returns the session with the given id, or nil.
func (s *Store) Get(id types.SessionID) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

// List returns all sessions.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}
