// internal/orchestrator/length.go
package orchestrator

import (
	"regexp"

	"github.com/user/storynest/pkg/storyapi"
)

// Length keywords are matched on word boundaries so "belongs" never reads as
// a request for a long story. Precedence is fixed: long wins over medium,
// anything else falls through to short.
var (
	longKeywordsRe   = regexp.MustCompile(`(?i)\b(?:long|longer|longest|lengthy|extended)\b`)
	mediumKeywordsRe = regexp.MustCompile(`(?i)\b(?:medium|middle|moderate|mid-length)\b`)
)

// DetectLength derives the requested story length from the user's message
// combined with the backend-provided prompt. This is a best-effort keyword
// heuristic, not a parser; conflicting keywords resolve to the first
// matching rule.
func DetectLength(userMessage, storyPrompt string) storyapi.Length {
	combined := userMessage + " " + storyPrompt
	switch {
	case longKeywordsRe.MatchString(combined):
		return storyapi.LengthLong
	case mediumKeywordsRe.MatchString(combined):
		return storyapi.LengthMedium
	default:
		return storyapi.LengthShort
	}
}
