// internal/state/transcript_test.go
package state

import (
	"testing"

	"github.com/user/storynest/internal/types"
)

func TestTranscriptLog_AppendAndTail(t *testing.T) {
	log := NewTranscriptLog(t.TempDir())
	sessionID := types.NewSessionID()

	turns := []types.Turn{
		types.NewTurn(types.RoleUser, "tell me a story"),
		types.NewTurn(types.RoleAssistant, "once upon a time"),
		types.NewTurn(types.RoleUser, "what happened next?"),
	}
	for _, turn := range turns {
		if err := log.Append(sessionID, turn); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.Tail(sessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	for i := range turns {
		if got[i].Content != turns[i].Content {
			t.Errorf("turn %d: expected %q, got %q", i, turns[i].Content, got[i].Content)
		}
		if got[i].Role != turns[i].Role {
			t.Errorf("turn %d: expected role %q, got %q", i, turns[i].Role, got[i].Role)
		}
	}
}

func TestTranscriptLog_TailLimit(t *testing.T) {
	log := NewTranscriptLog(t.TempDir())
	sessionID := types.NewSessionID()

	for i := 0; i < 5; i++ {
		if err := log.Append(sessionID, types.NewTurn(types.RoleUser, "msg")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.Tail(sessionID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 turns, got %d", len(got))
	}
}

func TestTranscriptLog_TailMissingSession(t *testing.T) {
	log := NewTranscriptLog(t.TempDir())

	got, err := log.Tail(types.NewSessionID(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %v", got)
	}
}

func TestTranscriptLog_Count(t *testing.T) {
	log := NewTranscriptLog(t.TempDir())
	sessionID := types.NewSessionID()

	count, err := log.Count(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 turns, got %d", count)
	}

	if err := log.Append(sessionID, types.NewTurn(types.RoleUser, "hi")); err != nil {
		t.Fatal(err)
	}
	count, err = log.Count(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 turn, got %d", count)
	}
}
