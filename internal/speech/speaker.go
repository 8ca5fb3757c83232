// internal/speech/speaker.go
package speech

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os/exec"

	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/pkg/storyapi"
)

// players are tried in order when no explicit player is configured.
var players = []string{"afplay", "mpg123", "mpv", "ffplay"}

// playerArgs returns the arguments a player needs to play one file and exit
// without opening a window.
func playerArgs(player, path string) []string {
	switch player {
	case "mpv":
		return []string{"--no-video", "--really-quiet", path}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	default:
		return []string{path}
	}
}

// PlaybackError reports that narration audio existed but could not be played.
type PlaybackError struct {
	Player string
	Err    error
}

func (e *PlaybackError) Error() string {
	if e.Player == "" {
		return "no audio player found"
	}
	return fmt.Sprintf("playback with %s failed: %v", e.Player, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// Options configures narration.
type Options struct {
	Lang     string
	Slow     bool
	Player   string // explicit player command, empty means autodetect
	Fallback string // local TTS command (say, espeak) used when the backend fails
}

// Speaker narrates stories. Synthesized audio is cached in the media store
// keyed by story, language, and speed, so re-reading a story plays instantly.
type Speaker struct {
	service storyapi.Service
	media   *state.MediaStore
	opts    Options
}

// New creates a Speaker. The media store may be nil, in which case audio is
// not cached and every narration hits the backend.
func New(service storyapi.Service, media *state.MediaStore, opts Options) *Speaker {
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	return &Speaker{service: service, media: media, opts: opts}
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

// Speak narrates a story, fetching and caching audio as needed. When either
// synthesis or playback fails and a local fallback command is configured, the
// fallback speaks the text directly; only with both routes broken does the
// caller see an error.
func (s *Speaker) Speak(ctx context.Context, story *storyapi.Story) error {
	text := Normalize(story.Content)
	if text == "" {
		return fmt.Errorf("story has no narration text")
	}

	path, err := s.fetchAudio(ctx, story, text)
	if err == nil {
		if err = s.play(ctx, path); err == nil {
			return nil
		}
	}
	if s.opts.Fallback != "" {
		slog.Warn("narration failed, using local fallback",
			"fallback", s.opts.Fallback, "error", err)
		return s.speakLocal(ctx, text)
	}
	return err
}

// fetchAudio returns the path of cached narration audio, synthesizing and
// caching it on a miss.
func (s *Speaker) fetchAudio(ctx context.Context, story *storyapi.Story, text string) (string, error) {
	if s.media == nil {
		return "", fmt.Errorf("no media store configured")
	}
	path := s.media.AudioPath(cacheKey(story), s.opts.Lang, s.opts.Slow)
	if s.media.Has(path) {
		return path, nil
	}

	audio, err := s.service.SynthesizeSpeech(ctx, text, s.opts.Lang, s.opts.Slow)
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}
	if err := s.media.Put(path, audio); err != nil {
		return "", err
	}
	return path, nil
}

// play runs an audio player on the given file, autodetecting one when no
// explicit player is configured.
func (s *Speaker) play(ctx context.Context, path string) error {
	player := s.opts.Player
	if player == "" {
		for _, candidate := range players {
			if _, err := exec.LookPath(candidate); err == nil {
				player = candidate
				break
			}
		}
	}
	if player == "" {
		return &PlaybackError{}
	}

	cmd := exec.CommandContext(ctx, player, playerArgs(player, path)...)
	if err := cmd.Run(); err != nil {
		return &PlaybackError{Player: player, Err: err}
	}
	return nil
}

// speakLocal pipes the text through a local TTS command such as say or espeak.
func (s *Speaker) speakLocal(ctx context.Context, text string) error {
	if _, err := exec.LookPath(s.opts.Fallback); err != nil {
		return &PlaybackError{Player: s.opts.Fallback, Err: err}
	}
	cmd := exec.CommandContext(ctx, s.opts.Fallback, text)
	if err := cmd.Run(); err != nil {
		return &PlaybackError{Player: s.opts.Fallback, Err: err}
	}
	return nil
}
