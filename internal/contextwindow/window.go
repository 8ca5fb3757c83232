// internal/contextwindow/window.go
package contextwindow

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/storynest/pkg/storyapi"
)

// Window trims conversation history to a token budget before it is shipped
// to the backend as context. The newest turns always survive; trimming drops
// from the oldest side.
type Window struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a Window using the named tiktoken encoding. maxTokens is the
// total budget for serialized history, reserve is held back for the message
// being sent alongside it.
func New(encoding string, maxTokens, reserve int) (*Window, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		// Unknown encodings fall back to cl100k_base.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Window{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

func (w *Window) countTokens(text string) int {
	return len(w.tokenizer.Encode(text, nil, nil))
}

// Trim returns the longest suffix of history that fits the budget. The most
// recent message is always kept, even when it alone exceeds the budget.
func (w *Window) Trim(history []storyapi.HistoryMessage) []storyapi.HistoryMessage {
	if len(history) == 0 {
		return history
	}

	budget := w.maxTokens - w.reserve
	used := 0
	start := len(history)

	for i := len(history) - 1; i >= 0; i-- {
		cost := w.countTokens(history[i].Content) + w.countTokens(history[i].Role)
		if used+cost > budget && start < len(history) {
			break
		}
		used += cost
		start = i
	}

	return history[start:]
}
