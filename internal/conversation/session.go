// internal/conversation/session.go
package conversation

import (
	"sync"
	"time"

	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// Session is one interaction lifetime: an append-only conversation, the
// story currently on display, and the recently generated story library.
// Sessions live in memory only; ids are fresh per process start.
type Session struct {
	ID        types.SessionID
	Key       types.SessionKey
	CreatedAt time.Time

	mu           sync.RWMutex
	log          *Log
	currentStory *storyapi.Story
	storyHistory []storyapi.Story
}

// View is a consistent cross-field snapshot handed to renderers.
type View struct {
	Turns        []types.Turn
	CurrentStory *storyapi.Story
	StoryHistory []storyapi.Story
}

// NewSession creates a fresh session for the given key.
func NewSession(key types.SessionKey) *Session {
	return &Session{
		ID:        types.NewSessionID(),
		Key:       key,
		CreatedAt: time.Now(),
		log:       NewLog(),
	}
}

// Append adds a turn to the conversation.
func (s *Session) Append(turn types.Turn) {
	s.mu.RLock()
	log := s.log
	s.mu.RUnlock()
	log.Append(turn)
}

// Turns returns the conversation in insertion order.
func (s *Session) Turns() []types.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Snapshot()
}

// Len returns the number of turns in the conversation.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Len()
}

// History returns the conversation in backend wire format.
func (s *Session) History() []storyapi.HistoryMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.History()
}

// CurrentStory returns the story on display, or nil.
func (s *Session) CurrentStory() *storyapi.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStory
}

// SetCurrentStory replaces the story on display.
func (s *Session) SetCurrentStory(story *storyapi.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentStory = story
}

// StoryHistory returns the last fetched story library.
func (s *Session) StoryHistory() []storyapi.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storyapi.Story, len(s.storyHistory))
	copy(out, s.storyHistory)
	return out
}

// SetStoryHistory replaces the story library snapshot.
func (s *Session) SetStoryHistory(stories []storyapi.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyHistory = stories
}

// Reset starts a new conversation: the turn log and the current story are
// cleared under one lock so no reader observes one cleared and the other
// stale. The story library is left alone; it reflects the backend, not the
// conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = NewLog()
	s.currentStory = nil
}

// Snapshot returns a consistent view of conversation, current story, and
// story library.
func (s *Session) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]storyapi.Story, len(s.storyHistory))
	copy(history, s.storyHistory)
	return View{
		Turns:        s.log.Snapshot(),
		CurrentStory: s.currentStory,
		StoryHistory: history,
	}
}
