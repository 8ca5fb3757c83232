// internal/orchestrator/length_test.go
package orchestrator

import (
	"testing"

	"github.com/user/storynest/pkg/storyapi"
)

func TestDetectLength(t *testing.T) {
	tests := []struct {
		name    string
		message string
		prompt  string
		want    storyapi.Length
	}{
		{"long keyword", "tell me a long story about dragons", "", storyapi.LengthLong},
		{"medium keyword", "a medium length tale", "", storyapi.LengthMedium},
		{"no keyword", "a tiny story", "", storyapi.LengthShort},
		{"long beats medium", "a medium or maybe long story", "", storyapi.LengthLong},
		{"keyword in prompt", "dragons please", "a long adventure with dragons", storyapi.LengthLong},
		{"longer variant", "make it longer this time", "", storyapi.LengthLong},
		{"word boundary", "the dragon belongs to the princess", "", storyapi.LengthShort},
		{"case insensitive", "a LONG one", "", storyapi.LengthLong},
		{"moderate variant", "something moderate please", "", storyapi.LengthMedium},
		{"empty input", "", "", storyapi.LengthShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLength(tt.message, tt.prompt)
			if got != tt.want {
				t.Errorf("DetectLength(%q, %q) = %q, want %q", tt.message, tt.prompt, got, tt.want)
			}
		})
	}
}

func TestStatusBusy(t *testing.T) {
	if Idle().Busy() {
		t.Error("idle must not be busy")
	}
	if !Thinking().Busy() || !Crafting().Busy() {
		t.Error("thinking and crafting must be busy")
	}
	if Thinking().Message == "" || Crafting().Message == "" {
		t.Error("busy phases carry a status message")
	}
}
