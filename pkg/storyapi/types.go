package storyapi

import "time"

// Role values used in conversation history sent to the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryMessage is one conversation turn in the wire format the backend
// expects as conversation_history.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Length selects the requested story length.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// StoryQuality is the judge's scorecard attached to a generated story.
type StoryQuality struct {
	Clarity            int    `json:"clarity"`
	MoralValue         int    `json:"moralValue"`
	AgeAppropriateness int    `json:"ageAppropriateness"`
	Score              int    `json:"score"`
	Approved           bool   `json:"approved"`
	Feedback           string `json:"feedback,omitempty"`
}

// Story is a generated narrative as returned by the backend. Stories are
// immutable on the client; a refinement request yields a new Story value.
type Story struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Prompt     string        `json:"prompt"`
	LengthType Length        `json:"length_type"`
	Iterations int           `json:"iterations"`
	FinalScore *StoryQuality `json:"final_score,omitempty"`
	AgeRange   string        `json:"age_range,omitempty"`
	ImageURL   string        `json:"image_url,omitempty"`
	CreatedAt  string        `json:"created_at,omitempty"`
	UpdatedAt  string        `json:"updated_at,omitempty"`
}

// CreatedTime parses the backend's created_at timestamp. Returns the zero
// time when the field is absent or not RFC 3339.
func (s *Story) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ChatResult is the outcome of one conversational turn.
type ChatResult struct {
	Reply               string
	ShouldGenerateStory bool
	StoryPrompt         string
}
