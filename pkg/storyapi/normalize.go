package storyapi

import (
	"regexp"
	"strings"
)

// Stray tokens are serialization artifacts that occasionally leak into story
// fields ("undefined" from a missing JS value, "None"/"null" from the
// backend). They are removed only as standalone words.
var (
	strayTokenRe   = regexp.MustCompile(`(?i)\b(?:undefined|null|none)\b`)
	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
	trailingWSRe   = regexp.MustCompile(`[ \t]+\n`)
	leadingLineWS  = regexp.MustCompile(`\n[ \t]+`)
	missingIDWords = map[string]bool{"undefined": true, "null": true, "none": true}
)

// CleanContent removes stray serialization tokens from story text and
// re-collapses the whitespace left behind. The transform is idempotent and
// never touches occurrences inside larger words.
func CleanContent(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strayTokenRe.ReplaceAllString(text, "")
	cleaned = trailingWSRe.ReplaceAllString(cleaned, "\n")
	cleaned = leadingLineWS.ReplaceAllString(cleaned, "\n")
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// NormalizeStory repairs a story received from the backend so downstream
// code never sees a missing identifier rendered as a literal token. The
// identifier falls back to the empty string, never "undefined" or "null".
func NormalizeStory(story *Story) {
	if story == nil {
		return
	}
	if missingIDWords[strings.ToLower(strings.TrimSpace(story.ID))] {
		story.ID = ""
	}
	story.ID = strings.TrimSpace(story.ID)
	story.Title = CleanContent(story.Title)
	story.Content = CleanContent(story.Content)
}
