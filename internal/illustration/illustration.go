// internal/illustration/illustration.go

// Package illustration fetches a cover image for a generated story from a
// prompt-to-image service. Illustration is strictly best effort: a story is
// complete without one, and every failure here degrades to text only.
package illustration

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/pkg/storyapi"
)

const (
	// excerptLen bounds how much story text goes into the image prompt.
	excerptLen = 150

	maxImageBytes = 8 << 20
)

// Config controls how illustrations are requested.
type Config struct {
	BaseURL string
	Width   int
	Height  int
	Timeout time.Duration
}

// Fetcher downloads story illustrations and caches them in the media store.
type Fetcher struct {
	cfg    Config
	media  *state.MediaStore
	client *http.Client
}

// New creates a Fetcher. A zero timeout defaults to 30 seconds.
func New(cfg Config, media *state.MediaStore) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		cfg:    cfg,
		media:  media,
		client: &http.Client{Timeout: timeout},
	}
}

// Prompt builds the image prompt from a story's title and an excerpt of its
// opening, styled for a children's book.
func Prompt(story *storyapi.Story) string {
	excerpt := strings.TrimSpace(story.Content)
	if len(excerpt) > excerptLen {
		cut := excerpt[:excerptLen]
		// Break on a word boundary when one is near.
		if idx := strings.LastIndex(cut, " "); idx > excerptLen/2 {
			cut = cut[:idx]
		}
		excerpt = cut
	}
	return fmt.Sprintf("children's book illustration, soft colors, cozy bedtime scene: %s. %s", story.Title, excerpt)
}

// URL returns the image service URL for a story.
func (f *Fetcher) URL(story *storyapi.Story) string {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/prompt/%s?width=%d&height=%d",
		base, url.PathEscape(Prompt(story)), f.cfg.Width, f.cfg.Height)
}

// cacheKey identifies a story for caching. Stories that arrive without an ID
// are keyed by a hash of their content instead.
func cacheKey(story *storyapi.Story) string {
	if story.ID != "" {
		return story.ID
	}
	h := fnv.New64a()
	h.Write([]byte(story.Title))
	h.Write([]byte(story.Content))
	return fmt.Sprintf("h%x", h.Sum64())
}

// Fetch returns the path of a cached illustration for the story, downloading
// it on a miss. Returns an empty path, never an error surfaced to callers'
// users, when the image cannot be fetched.
func (f *Fetcher) Fetch(ctx context.Context, story *storyapi.Story) string {
	if f.media == nil {
		return ""
	}
	path := f.media.ImagePath(cacheKey(story))
	if f.media.Has(path) {
		return path
	}

	data, err := f.download(ctx, f.URL(story))
	if err != nil {
		slog.Warn("illustration fetch failed", "story_id", story.ID, "error", err)
		return ""
	}
	if err := f.media.Put(path, data); err != nil {
		slog.Warn("illustration cache write failed", "story_id", story.ID, "error", err)
		return ""
	}
	return path
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image service returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image service returned empty body")
	}
	return data, nil
}
