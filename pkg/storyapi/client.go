package storyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Service is the backend surface the rest of the application consumes.
// Implementations must be safe for concurrent use.
type Service interface {
	// SendChatTurn runs one conversational round trip.
	SendChatTurn(ctx context.Context, message string, history []HistoryMessage, sessionID string) (*ChatResult, error)

	// GenerateStory asks the backend to produce a refined story.
	GenerateStory(ctx context.Context, prompt string, length Length, history []HistoryMessage, sessionID string) (*Story, error)

	// ListStories returns recent stories. Failures yield an empty slice;
	// listing must never block the chat experience.
	ListStories(ctx context.Context, limit int, sessionID string) []Story

	// GetStory returns a story by id, or nil when it does not exist or the
	// request failed. Callers cannot distinguish the two cases.
	GetStory(ctx context.Context, id string) *Story

	// SynthesizeSpeech returns MP3 audio for the given text.
	SynthesizeSpeech(ctx context.Context, text, lang string, slow bool) ([]byte, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the story backend over HTTP. One network call per
// operation, no retries, no shared mutable state beyond the http.Client.
type Client struct {
	config     *Config
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// New creates a backend client. Story generation runs a multi-iteration
// refinement loop server-side, so the default timeout is generous.
func New(config *Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
	SessionID           string           `json:"session_id,omitempty"`
}

// chatResponse is the POST /api/chat success body.
type chatResponse struct {
	Success             bool   `json:"success"`
	Type                string `json:"type"`
	Response            string `json:"response"`
	ShouldGenerateStory bool   `json:"should_generate_story"`
	StoryPrompt         string `json:"story_prompt,omitempty"`
}

// storyRequest is the POST /api/generate-story body. The backend expects
// lengthType in camel case, unlike the rest of its snake_case fields.
type storyRequest struct {
	Prompt              string           `json:"prompt"`
	LengthType          Length           `json:"lengthType"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
	SessionID           string           `json:"session_id,omitempty"`
}

// storyResponse wraps a single story.
type storyResponse struct {
	Success bool  `json:"success"`
	Story   Story `json:"story"`
}

// storiesResponse is the GET /api/stories body.
type storiesResponse struct {
	Success bool    `json:"success"`
	Stories []Story `json:"stories"`
}

// ttsRequest is the POST /api/tts body.
type ttsRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
	Slow bool   `json:"slow"`
}

// SendChatTurn posts one user message with the conversation so far.
func (c *Client) SendChatTurn(ctx context.Context, message string, history []HistoryMessage, sessionID string) (*ChatResult, error) {
	body, err := c.postJSON(ctx, "/api/chat", chatRequest{
		Message:             message,
		ConversationHistory: history,
		SessionID:           sessionID,
	})
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing chat response: %w", err)
	}

	return &ChatResult{
		Reply:               resp.Response,
		ShouldGenerateStory: resp.ShouldGenerateStory,
		StoryPrompt:         resp.StoryPrompt,
	}, nil
}

// GenerateStory requests story generation and normalizes the result so the
// identifier is never a missing-value token.
func (c *Client) GenerateStory(ctx context.Context, prompt string, length Length, history []HistoryMessage, sessionID string) (*Story, error) {
	body, err := c.postJSON(ctx, "/api/generate-story", storyRequest{
		Prompt:              prompt,
		LengthType:          length,
		ConversationHistory: history,
		SessionID:           sessionID,
	})
	if err != nil {
		return nil, err
	}

	var resp storyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing story response: %w", err)
	}

	story := resp.Story
	NormalizeStory(&story)
	return &story, nil
}

// ListStories fetches the most recent stories. Any failure is swallowed and
// logged; the caller always gets a usable (possibly empty) slice.
func (c *Client) ListStories(ctx context.Context, limit int, sessionID string) []Story {
	path := "/api/stories?limit=" + strconv.Itoa(limit)
	if sessionID != "" {
		path += "&session_id=" + url.QueryEscape(sessionID)
	}

	body, err := c.get(ctx, path)
	if err != nil {
		slog.Warn("story listing failed", "error", err)
		return []Story{}
	}

	var resp storiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Warn("story listing unparseable", "error", err)
		return []Story{}
	}

	stories := resp.Stories
	for i := range stories {
		NormalizeStory(&stories[i])
	}
	return stories
}

// GetStory fetches one story by id. Not-found and transport failures both
// yield nil.
func (c *Client) GetStory(ctx context.Context, id string) *Story {
	body, err := c.get(ctx, "/api/stories/"+url.PathEscape(id))
	if err != nil {
		slog.Warn("story lookup failed", "story_id", id, "error", err)
		return nil
	}

	var resp storyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Warn("story lookup unparseable", "story_id", id, "error", err)
		return nil
	}

	story := resp.Story
	NormalizeStory(&story)
	return &story
}

// SynthesizeSpeech returns the MP3 payload for text. No fallback here; the
// presentation layer decides what to do when synthesis fails.
func (c *Client) SynthesizeSpeech(ctx context.Context, text, lang string, slow bool) ([]byte, error) {
	return c.postJSON(ctx, "/api/tts", ttsRequest{
		Text: text,
		Lang: lang,
		Slow: slow,
	})
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newRequestError(resp.StatusCode, body)
	}
	return body, nil
}

// newRequestError extracts the server's detail string from a JSON
// {"detail": ...} body, falling back to the raw text.
func newRequestError(status int, body []byte) *RequestError {
	detail := ""
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		detail = parsed.Detail
	} else if len(body) > 0 {
		detail = string(bytes.TrimSpace(body))
	}
	const maxDetail = 500
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}
	return &RequestError{Status: status, Detail: detail}
}
