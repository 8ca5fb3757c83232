// internal/state/media.go
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SafeName reduces an arbitrary identifier to a filesystem-safe token.
func SafeName(id string) string {
	cleaned := unsafeNameRe.ReplaceAllString(id, "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return "story"
	}
	return cleaned
}

// MediaStore caches synthesized narration and downloaded illustrations on
// disk so repeated read-alouds of the same story never re-hit the backend.
// Files live at media/audio/<story>-<lang>.mp3 and media/images/<story>.jpg.
type MediaStore struct {
	root string
}

// NewMediaStore creates a file-backed MediaStore rooted at the given directory.
func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

// AudioPath returns the cache path for a story's narration in the given
// language. Slow narration is cached separately from normal speed.
func (m *MediaStore) AudioPath(storyID, lang string, slow bool) string {
	name := SafeName(storyID) + "-" + SafeName(lang)
	if slow {
		name += "-slow"
	}
	return filepath.Join(m.root, "media", "audio", name+".mp3")
}

// ImagePath returns the cache path for a story's illustration.
func (m *MediaStore) ImagePath(storyID string) string {
	return filepath.Join(m.root, "media", "images", SafeName(storyID)+".jpg")
}

// Put writes data to path atomically, creating parent directories as needed.
func (m *MediaStore) Put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp media file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp media file: %w", err)
	}
	return nil
}

// Get reads a cached media file.
func (m *MediaStore) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	return data, nil
}

// Has reports whether a cached file exists and is non-empty.
func (m *MediaStore) Has(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
