//go:build integration

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/storynest/internal/conversation"
	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// fakeBackend speaks the storyteller HTTP API. A chat message containing
// "story" triggers generation.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{
			"success":  true,
			"type":     "conversation",
			"response": "Of course! Let me think about " + req.Message,
		}
		if strings.Contains(req.Message, "story") {
			resp["should_generate_story"] = true
			resp["story_prompt"] = "a sleepy dragon"
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /api/generate-story", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"story": map[string]any{
				"id":          "s1",
				"title":       "The Sleepy Dragon",
				"content":     "Once upon a time a dragon yawned.",
				"prompt":      "a sleepy dragon",
				"length_type": "long",
				"iterations":  2,
				"final_score": map[string]any{
					"clarity": 9, "moralValue": 8, "ageAppropriateness": 9,
					"score": 9, "approved": true,
				},
			},
		})
	})
	mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"stories": []map[string]any{
				{"id": "s1", "title": "The Sleepy Dragon", "content": "Once upon a time a dragon yawned."},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newPipeline(t *testing.T, backendURL string) *orchestrator.Controller {
	t.Helper()

	client := storyapi.New(&storyapi.Config{
		BaseURL: backendURL,
		Timeout: 5 * time.Second,
	})
	controller := orchestrator.New(client, conversation.NewStore(), nil, 2)
	controller.Start(t.Context())
	t.Cleanup(controller.Stop)
	return controller
}

func send(t *testing.T, c *orchestrator.Controller, key types.SessionKey, text string, opts ...orchestrator.RunOption) {
	t.Helper()

	done := make(chan struct{})
	opts = append(opts, orchestrator.WithOnComplete(func() { close(done) }))
	msg := &types.InboundMessage{
		Source:     "test",
		SessionKey: key,
		UserID:     "user1",
		Text:       text,
	}
	if err := c.HandleInbound(msg, opts...); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for run")
	}
}

func TestEndToEndConversation(t *testing.T) {
	srv := fakeBackend(t)
	controller := newPipeline(t, srv.URL)

	key := types.NewSessionKey("test", "user1")
	for i := 0; i < 3; i++ {
		send(t, controller, key, fmt.Sprintf("message %d", i))
	}

	session := controller.Sessions().ResolveOrCreate(key)
	turns := session.Turns()
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(turns))
	}
	// Strict user/assistant alternation in arrival order.
	for i, turn := range turns {
		wantRole := types.RoleUser
		if i%2 == 1 {
			wantRole = types.RoleAssistant
		}
		if turn.Role != wantRole {
			t.Errorf("turn %d: role = %q, want %q", i, turn.Role, wantRole)
		}
	}
	for i := 0; i < 3; i++ {
		want := fmt.Sprintf("message %d", i)
		if turns[i*2].Content != want {
			t.Errorf("turn %d: content = %q, want %q", i*2, turns[i*2].Content, want)
		}
	}
}

func TestEndToEndStoryGeneration(t *testing.T) {
	srv := fakeBackend(t)
	controller := newPipeline(t, srv.URL)

	var story *storyapi.Story
	key := types.NewSessionKey("test", "user1")
	send(t, controller, key, "tell me a story please",
		orchestrator.WithOnStory(func(s *storyapi.Story) { story = s }))

	if story == nil {
		t.Fatal("expected a generated story")
	}
	if story.Title != "The Sleepy Dragon" {
		t.Errorf("title = %q", story.Title)
	}

	session := controller.Sessions().ResolveOrCreate(key)
	if got := session.CurrentStory(); got == nil || got.ID != "s1" {
		t.Errorf("current story = %+v, want s1", got)
	}
	if got := session.StoryHistory(); len(got) != 1 {
		t.Errorf("story history length = %d, want 1", len(got))
	}
	// user turn, reply, announcement, echo
	if got := session.Len(); got != 4 {
		t.Errorf("turn count = %d, want 4", got)
	}
}

func TestEndToEndTranscriptPersistence(t *testing.T) {
	srv := fakeBackend(t)
	controller := newPipeline(t, srv.URL)

	transcripts := state.NewTranscriptLog(t.TempDir())
	key := types.NewSessionKey("test", "user1")
	session := controller.Sessions().ResolveOrCreate(key)

	record := orchestrator.WithOnTurn(func(turn types.Turn) {
		if err := transcripts.Append(session.ID, turn); err != nil {
			t.Errorf("append transcript: %v", err)
		}
	})
	send(t, controller, key, "hello there", record)
	send(t, controller, key, "another one", record)

	tail, err := transcripts.Tail(session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 4 {
		t.Fatalf("expected 4 transcript turns, got %d", len(tail))
	}
	if tail[0].Content != "hello there" {
		t.Errorf("first transcript turn = %q", tail[0].Content)
	}
}
