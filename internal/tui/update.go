// internal/tui/update.go
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/pkg/storyapi"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		return m.handleEvent(Event(msg))

	case sendErrMsg:
		m.err = msg.err
		return m, nil

	case narrationDoneMsg:
		m.narrating = false
		m.err = msg.err
		return m, nil

	case typeTickMsg:
		if !m.revealing || m.current == nil {
			return m, nil
		}
		m.revealed += 3
		if m.revealed >= len([]rune(m.current.Content)) {
			m.revealed = len([]rune(m.current.Content))
			m.revealing = false
			return m, nil
		}
		return m, typeTick()

	case illustrationMsg:
		m.illFetching = false
		m.illPath = msg.path
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// handleEvent folds one pipeline event into the model and re-arms the listener.
func (m *Model) handleEvent(ev Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForEvent()}

	switch {
	case ev.Status != nil:
		m.status = *ev.Status
		if m.status.Busy() {
			cmds = append(cmds, m.spin.Tick)
		}
	case ev.Turn != nil:
		// Story echoes carry the full text for the backend's benefit and
		// would duplicate the story screen.
		if !orchestrator.IsStoryEcho(ev.Turn.Content) {
			m.turns = append(m.turns, *ev.Turn)
			m.syncViewport()
		}
	case ev.Story != nil:
		m.refreshLibrary(context.Background())
		cmds = append(cmds, m.openStory(ev.Story))
	}
	return m, tea.Batch(cmds...)
}

// openStory switches to the story screen and restarts the typewriter reveal
// and illustration fetch for the given story.
func (m *Model) openStory(story *storyapi.Story) tea.Cmd {
	m.current = story
	m.view = storyView
	m.revealed = 0
	m.revealing = true
	cmds := []tea.Cmd{typeTick()}

	m.illPath = ""
	m.illFetching = false
	if m.images != nil {
		m.illFetching = true
		cmds = append(cmds, m.fetchIllustration(story))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.view {
	case landingView:
		if key.Matches(msg, m.keys.Send) {
			m.view = chatView
		}
		return m, nil
	case chatView:
		return m.handleChatKey(msg)
	case libraryView:
		return m.handleLibraryKey(msg)
	case storyView:
		return m.handleStoryKey(msg)
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.status.Busy() {
			return m, nil
		}
		m.input.Reset()
		m.err = nil
		return m, m.sendFn(text)

	case key.Matches(msg, m.keys.NewSession):
		session := m.controller.Sessions().ResolveOrCreate(m.session)
		session.Reset()
		m.turns = nil
		m.current = nil
		m.err = nil
		m.syncViewport()
		return m, nil

	case key.Matches(msg, m.keys.Library):
		m.view = libraryView
		m.refreshLibrary(context.Background())
		return m, nil

	case key.Matches(msg, m.keys.ReadAloud):
		return m.startNarration()
	}

	return m.updateFocused(msg)
}

func (m *Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Library):
		m.view = chatView
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.stories)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.stories) {
			story := m.stories[m.cursor]
			return m, m.openStory(&story)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleStoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.revealing = false
		m.view = chatView
		return m, nil

	case key.Matches(msg, m.keys.Open):
		// Skip the typewriter reveal.
		if m.revealing && m.current != nil {
			m.revealed = len([]rune(m.current.Content))
			m.revealing = false
		}
		return m, nil

	case key.Matches(msg, m.keys.Library):
		m.revealing = false
		m.view = libraryView
		return m, nil

	case key.Matches(msg, m.keys.ReadAloud):
		return m.startNarration()
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// startNarration kicks off read-aloud for the current story.
func (m *Model) startNarration() (tea.Model, tea.Cmd) {
	if m.speaker == nil || m.current == nil || m.narrating {
		return m, nil
	}
	m.narrating = true
	m.err = nil
	return m, tea.Batch(m.narrate(m.current), m.spin.Tick)
}

// updateFocused routes remaining messages to the focused component.
func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.view == chatView {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.vp, cmd = m.vp.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
