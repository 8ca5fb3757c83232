// internal/conversation/log.go
package conversation

import (
	"sync"

	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// Log is an append-only ordered sequence of conversation turns. Turns are
// never removed or rewritten; the only way to drop history is to replace the
// whole log on a new-conversation reset.
type Log struct {
	mu    sync.RWMutex
	turns []types.Turn
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a turn to the end of the log.
func (l *Log) Append(turn types.Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
}

// Snapshot returns a copy of the turns in insertion order.
func (l *Log) Snapshot() []types.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// History converts the log into the wire format the backend consumes as
// conversation context.
func (l *Log) History() []storyapi.HistoryMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]storyapi.HistoryMessage, len(l.turns))
	for i, turn := range l.turns {
		out[i] = storyapi.HistoryMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		}
	}
	return out
}
