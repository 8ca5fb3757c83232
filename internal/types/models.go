// internal/types/models.go
package types

import (
	"time"

	"github.com/user/storynest/pkg/storyapi"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Turns are append-only: once a turn
// is in a session's log it is never removed or rewritten.
type Turn struct {
	ID      TurnID       `json:"id"`
	Role    Role         `json:"role"`
	Content string       `json:"content"`
	At      time.Time    `json:"at"`
	Quality *QualityMeta `json:"quality,omitempty"`
}

// NewTurn creates a timestamped turn.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:      NewTurnID(),
		Role:    role,
		Content: content,
		At:      time.Now(),
	}
}

// QualityMeta summarizes the backend's refinement scorecard on the turn that
// announces a new story. Immutable once created.
type QualityMeta struct {
	Clarity            int `json:"clarity"`
	MoralValue         int `json:"moral_value"`
	AgeAppropriateness int `json:"age_appropriateness"`
	OverallScore       int `json:"overall_score"`
	IterationCount     int `json:"iteration_count"`
}

// QualityFromStory extracts quality metadata from a generated story, or nil
// when the backend supplied no scorecard.
func QualityFromStory(story *storyapi.Story) *QualityMeta {
	if story == nil || story.FinalScore == nil {
		return nil
	}
	iterations := story.Iterations
	if iterations < 1 {
		iterations = 1
	}
	return &QualityMeta{
		Clarity:            story.FinalScore.Clarity,
		MoralValue:         story.FinalScore.MoralValue,
		AgeAppropriateness: story.FinalScore.AgeAppropriateness,
		OverallScore:       story.FinalScore.Score,
		IterationCount:     iterations,
	}
}

// InboundMessage is a user utterance arriving from any frontend.
type InboundMessage struct {
	Source     string     `json:"source"`
	SessionKey SessionKey `json:"session_key"`
	UserID     string     `json:"user_id"`
	Text       string     `json:"text"`
}
