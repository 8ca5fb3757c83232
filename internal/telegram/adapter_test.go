package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0] != short {
		t.Errorf("expected %q, got %q", short, parts[0])
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage {
		t.Errorf("expected first part length %d, got %d", maxTelegramMessage, len(parts[0]))
	}
}

func TestSplitMessageMultibyte(t *testing.T) {
	long := strings.Repeat("ö", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if !utf8.ValidString(part) {
			t.Errorf("part %d is not valid UTF-8", i)
		}
	}
	if got := utf8.RuneCountInString(parts[0]); got != maxTelegramMessage {
		t.Errorf("expected first part to hold %d characters, got %d", maxTelegramMessage, got)
	}
}

func TestBuildSessionKey(t *testing.T) {
	key := buildSessionKey(12345, 67890)
	if string(key) != "telegram:12345:67890" {
		t.Errorf("expected 'telegram:12345:67890', got %q", key)
	}
}

func TestDeliverReminderRejectsBadKey(t *testing.T) {
	a := &Adapter{}

	if err := a.DeliverReminder("tui:default", "story time"); err == nil {
		t.Error("expected error for non-telegram key")
	}
	if err := a.DeliverReminder("telegram:only-two", "story time"); err == nil {
		t.Error("expected error for short key")
	}
	if err := a.DeliverReminder("telegram:1:not-a-number", "story time"); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}
