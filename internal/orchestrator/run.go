// internal/orchestrator/run.go
package orchestrator

import (
	"context"
	"time"

	"github.com/user/storynest/internal/conversation"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// Run tracks a single pass of the chat → story pipeline for one inbound
// message. Frontends observe the pipeline through the optional callbacks;
// all callbacks fire from the processing goroutine.
type Run struct {
	ID        types.RunID
	Session   *conversation.Session
	Message   *types.InboundMessage
	CreatedAt time.Time
	Ctx       context.Context

	onStatus   func(Status)
	onTurn     func(types.Turn)
	onStory    func(*storyapi.Story)
	onComplete func()
}

// NewRun creates a Run for the given session and message.
func NewRun(session *conversation.Session, message *types.InboundMessage) *Run {
	return &Run{
		ID:        types.NewRunID(),
		Session:   session,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// RunOption configures optional behavior on a Run.
type RunOption func(*Run)

// WithOnStatus observes busy-state transitions.
func WithOnStatus(fn func(Status)) RunOption {
	return func(r *Run) { r.onStatus = fn }
}

// WithOnTurn observes every turn appended to the conversation by this run,
// including apology turns.
func WithOnTurn(fn func(types.Turn)) RunOption {
	return func(r *Run) { r.onTurn = fn }
}

// WithOnStory is invoked once when the run produced a new story, after the
// story library has been refreshed.
func WithOnStory(fn func(*storyapi.Story)) RunOption {
	return func(r *Run) { r.onStory = fn }
}

// WithOnComplete is invoked exactly once when the run finishes, on success
// and failure alike.
func WithOnComplete(fn func()) RunOption {
	return func(r *Run) { r.onComplete = fn }
}

func (r *Run) notifyStatus(status Status) {
	if r.onStatus != nil {
		r.onStatus(status)
	}
}

func (r *Run) notifyTurn(turn types.Turn) {
	if r.onTurn != nil {
		r.onTurn(turn)
	}
}

func (r *Run) notifyStory(story *storyapi.Story) {
	if r.onStory != nil {
		r.onStory(story)
	}
}

func (r *Run) complete() {
	if r.onComplete != nil {
		r.onComplete()
	}
}
