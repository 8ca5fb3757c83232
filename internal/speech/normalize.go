// internal/speech/normalize.go
package speech

import (
	"regexp"
	"strings"
)

var (
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n[\s]*`)
	newlineRe        = regexp.MustCompile(`\n+`)
	spaceRunRe       = regexp.MustCompile(`[ \t]{2,}`)
	// Digits are excluded so decimals and times survive untouched.
	punctNoSpaceRe = regexp.MustCompile(`([.!?,;:])([^\s.!?,;:"')\]0-9])`)
)

// Normalize prepares story text for narration. Paragraph breaks become
// spoken pauses, remaining newlines become spaces, runs of whitespace
// collapse, and punctuation glued to the next word gets a space so the
// synthesizer does not slur sentence boundaries.
func Normalize(text string) string {
	out := paragraphBreakRe.ReplaceAllString(text, " . . . ")
	out = newlineRe.ReplaceAllString(out, " ")
	out = punctNoSpaceRe.ReplaceAllString(out, "$1 $2")
	out = spaceRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
