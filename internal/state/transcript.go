// internal/state/transcript.go
package state

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/storynest/internal/types"
)

// TranscriptLog is a JSONL-backed append-only record of conversation turns.
// Turns are stored per-session in sessions/<sessionID>/transcript.jsonl so
// bedtime conversations survive daemon restarts and can be reviewed later.
type TranscriptLog struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewTranscriptLog creates a file-backed TranscriptLog rooted at the given directory.
func NewTranscriptLog(root string) *TranscriptLog {
	return &TranscriptLog{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (l *TranscriptLog) getLock(sessionID types.SessionID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lock, ok := l.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	l.locks[sessionID] = lock
	return lock
}

func (l *TranscriptLog) transcriptPath(sessionID types.SessionID) string {
	return filepath.Join(l.root, "sessions", string(sessionID), "transcript.jsonl")
}

// Append adds a turn to the session's transcript.
func (l *TranscriptLog) Append(sessionID types.SessionID, turn types.Turn) error {
	lock := l.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(l.transcriptPath(sessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	f, err := os.OpenFile(l.transcriptPath(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write turn: %w", err)
	}

	return nil
}

// Tail returns the last N turns for the given session. Returns nil if the
// session has no transcript.
func (l *TranscriptLog) Tail(sessionID types.SessionID, limit int) ([]types.Turn, error) {
	lock := l.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(l.transcriptPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var turns []types.Turn
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var turn types.Turn
		if err := json.Unmarshal(scanner.Bytes(), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript file: %w", err)
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	return turns, nil
}

// Count returns the number of recorded turns for the given session.
func (l *TranscriptLog) Count(sessionID types.SessionID) (int64, error) {
	lock := l.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(l.transcriptPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan transcript file: %w", err)
	}
	return count, nil
}
