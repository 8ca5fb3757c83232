// internal/orchestrator/controller.go
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/storynest/internal/contextwindow"
	"github.com/user/storynest/internal/conversation"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// StoryContextMarker prefixes the assistant turn that echoes a generated
// story's full text back into the conversation. The echo turn exists so
// later chat calls carry the complete story as context for modification
// requests; renderers use IsStoryEcho to keep it off screen.
const StoryContextMarker = "[story-context]"

// User-facing failure wording. Raw status codes never reach the user.
const (
	apologyRateLimited = "I'm sorry, the storyteller is rate limited right now. " +
		"Let's take a little breather and try again in a minute."
	apologyGeneric = "I'm sorry, something went wrong while I was working on that. " +
		"Could you ask me again?"
)

// Controller turns one user utterance into zero or one new story while
// keeping the conversation, current story, and story library consistent. It
// is the only writer of conversation state.
type Controller struct {
	service      storyapi.Service
	sessions     *conversation.Store
	window       *contextwindow.Window
	historyLimit int

	Queue *Queue

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Controller. window may be nil to disable history trimming;
// maxConcurrent caps simultaneous pipeline runs across sessions.
func New(service storyapi.Service, sessions *conversation.Store, window *contextwindow.Window, maxConcurrent int64) *Controller {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	c := &Controller{
		service:      service,
		sessions:     sessions,
		window:       window,
		historyLimit: 10,
		Queue:        NewQueue(maxConcurrent),
	}
	c.Queue.SetProcessor(c.processRun)
	return c
}

// Start initialises the controller's context and starts the queue.
func (c *Controller) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.Queue.Start(c.ctx)
}

// Stop cancels outstanding work and drains the queue.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.Queue.Stop()
}

// Sessions exposes the session registry to frontends.
func (c *Controller) Sessions() *conversation.Store {
	return c.sessions
}

// HandleInbound resolves the session for the message and enqueues a
// pipeline run. The run executes on the session's FIFO lane.
func (c *Controller) HandleInbound(msg *types.InboundMessage, opts ...RunOption) error {
	session := c.sessions.ResolveOrCreate(msg.SessionKey)
	run := NewRun(session, msg)
	for _, opt := range opts {
		opt(run)
	}
	return c.Queue.Enqueue(run)
}

// RefreshStoryHistory re-queries the backend library for the session.
func (c *Controller) RefreshStoryHistory(ctx context.Context, session *conversation.Session) []storyapi.Story {
	if c.service == nil {
		return session.StoryHistory()
	}
	stories := c.service.ListStories(ctx, c.historyLimit, string(session.ID))
	session.SetStoryHistory(stories)
	return stories
}

// processRun is the queue processor: the chat → (maybe) story pipeline.
// The user's turn is appended before any network call and is never rolled
// back; busy state is cleared on every exit path.
func (c *Controller) processRun(run *Run) error {
	ctx := run.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	session := run.Session

	text := strings.TrimSpace(run.Message.Text)
	if text == "" {
		run.complete()
		return nil
	}

	userTurn := types.NewTurn(types.RoleUser, text)
	session.Append(userTurn)
	run.notifyTurn(userTurn)

	defer run.complete()
	defer run.notifyStatus(Idle())

	run.notifyStatus(Thinking())

	result, err := c.service.SendChatTurn(ctx, text, c.history(session), string(session.ID))
	if err != nil {
		c.apologize(run, err)
		return nil
	}

	run.notifyStatus(Idle())
	replyTurn := types.NewTurn(types.RoleAssistant, result.Reply)
	session.Append(replyTurn)
	run.notifyTurn(replyTurn)

	prompt := strings.TrimSpace(result.StoryPrompt)
	if !result.ShouldGenerateStory || prompt == "" {
		return nil
	}

	length := DetectLength(text, prompt)
	run.notifyStatus(Crafting())
	slog.Info("generating story",
		"session_id", string(session.ID),
		"length", string(length))

	story, err := c.service.GenerateStory(ctx, prompt, length, c.history(session), string(session.ID))
	if err != nil {
		c.apologize(run, err)
		return nil
	}

	announceTurn := types.NewTurn(types.RoleAssistant, storyAnnouncement(story))
	announceTurn.Quality = types.QualityFromStory(story)
	session.Append(announceTurn)
	run.notifyTurn(announceTurn)

	// Separate echo turn keeps the full story text in conversational
	// context so follow-up edit requests see what they are editing.
	echoTurn := types.NewTurn(types.RoleAssistant, StoryEcho(story))
	session.Append(echoTurn)
	run.notifyTurn(echoTurn)

	session.SetCurrentStory(story)
	c.RefreshStoryHistory(ctx, session)
	run.notifyStory(story)
	return nil
}

// history returns the session's conversation in wire format, trimmed to the
// configured token budget.
func (c *Controller) history(session *conversation.Session) []storyapi.HistoryMessage {
	history := session.History()
	if c.window != nil {
		history = c.window.Trim(history)
	}
	return history
}

// apologize converts a transport failure into a single conversational turn.
// Rate-limit rejections get explicit wording with a mitigation hint; every
// other failure gets the generic apology.
func (c *Controller) apologize(run *Run, err error) {
	message := apologyGeneric
	if reqErr, ok := storyapi.AsRequestError(err); ok && reqErr.RateLimited() {
		message = apologyRateLimited
	}
	slog.Warn("pipeline request failed",
		"session_id", string(run.Session.ID),
		"error", err)

	turn := types.NewTurn(types.RoleAssistant, message)
	run.Session.Append(turn)
	run.notifyTurn(turn)
}

func storyAnnouncement(story *storyapi.Story) string {
	msg := fmt.Sprintf("I've finished a new bedtime story for you: %q.", story.Title)
	if story.FinalScore != nil {
		iterations := story.Iterations
		if iterations < 1 {
			iterations = 1
		}
		msg += fmt.Sprintf(" It was polished over %d iterations and scored %d/10.", iterations, story.FinalScore.Score)
	}
	return msg + " Tell me if you'd like anything changed."
}

// StoryEcho builds the marker-prefixed turn content embedding a story's
// title and body verbatim.
func StoryEcho(story *storyapi.Story) string {
	return StoryContextMarker + " " + story.Title + "\n\n" + story.Content
}

// IsStoryEcho reports whether a turn is a story-context echo that renderers
// should suppress.
func IsStoryEcho(content string) bool {
	return strings.HasPrefix(content, StoryContextMarker)
}
