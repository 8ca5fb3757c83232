// internal/tui/cmds.go
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// eventMsg wraps a pipeline Event for the update loop.
type eventMsg Event

// narrationDoneMsg reports the outcome of a read-aloud.
type narrationDoneMsg struct{ err error }

// sendErrMsg reports a message that could not be enqueued.
type sendErrMsg struct{ err error }

// typeTickMsg advances the story screen's typewriter reveal.
type typeTickMsg struct{}

// illustrationMsg carries the cached illustration path, or "" on failure.
type illustrationMsg struct{ path string }

// waitForEvent blocks on the pipeline event channel. The update loop re-arms
// it after every event so nothing is dropped.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.events)
	}
}

// sendMessage pushes user text into the pipeline. Callbacks translate
// pipeline progress into events the update loop consumes.
func (m *Model) sendMessage(text string) tea.Cmd {
	msg := &types.InboundMessage{
		Source:     "tui",
		SessionKey: m.session,
		Text:       text,
	}
	err := m.controller.HandleInbound(msg,
		orchestrator.WithOnStatus(func(status orchestrator.Status) {
			s := status
			m.events <- Event{Status: &s}
		}),
		orchestrator.WithOnTurn(func(turn types.Turn) {
			t := turn
			m.events <- Event{Turn: &t}
		}),
		orchestrator.WithOnStory(func(story *storyapi.Story) {
			m.events <- Event{Story: story}
		}),
	)
	if err != nil {
		return func() tea.Msg { return sendErrMsg{err: err} }
	}
	return nil
}

// narrate reads the current story aloud off the UI goroutine.
func (m *Model) narrate(story *storyapi.Story) tea.Cmd {
	return func() tea.Msg {
		err := m.speaker.Speak(context.Background(), story)
		return narrationDoneMsg{err: err}
	}
}

// typeTick paces the typewriter reveal.
func typeTick() tea.Cmd {
	return tea.Tick(25*time.Millisecond, func(time.Time) tea.Msg {
		return typeTickMsg{}
	})
}

// fetchIllustration downloads the story's illustration off the UI goroutine.
func (m *Model) fetchIllustration(story *storyapi.Story) tea.Cmd {
	return func() tea.Msg {
		return illustrationMsg{path: m.images.Fetch(context.Background(), story)}
	}
}
