// internal/state/media_test.go
package state

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestMediaStore_PutAndGet(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	path := store.AudioPath("abc-123", "en", false)
	payload := []byte("mp3 bytes")

	if store.Has(path) {
		t.Error("cache must miss before Put")
	}
	if err := store.Put(path, payload); err != nil {
		t.Fatal(err)
	}
	if !store.Has(path) {
		t.Error("cache must hit after Put")
	}

	got, err := store.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected %q, got %q", payload, got)
	}

	// No temp file left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not exist after Put")
	}
}

func TestMediaStore_AudioPathVariants(t *testing.T) {
	store := NewMediaStore("/data")

	normal := store.AudioPath("s1", "en", false)
	slow := store.AudioPath("s1", "en", true)
	spanish := store.AudioPath("s1", "es", false)

	if normal == slow {
		t.Error("slow narration must cache separately")
	}
	if normal == spanish {
		t.Error("languages must cache separately")
	}
	if !strings.HasSuffix(normal, ".mp3") {
		t.Errorf("expected .mp3 suffix, got %s", normal)
	}
}

func TestMediaStore_SafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc-123", "abc-123"},
		{"a/b\\c", "a-b-c"},
		{"../../etc/passwd", "etc-passwd"},
		{"", "story"},
		{"///", "story"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMediaStore_HasEmptyFile(t *testing.T) {
	store := NewMediaStore(t.TempDir())
	path := store.ImagePath("s1")

	if err := store.Put(path, nil); err != nil {
		t.Fatal(err)
	}
	if store.Has(path) {
		t.Error("empty cached file must count as a miss")
	}
}
