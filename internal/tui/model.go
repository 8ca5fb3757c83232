// internal/tui/model.go
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/storynest/internal/illustration"
	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/internal/speech"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

// view identifies which screen the terminal shows.
type view int

const (
	landingView view = iota
	chatView
	libraryView
	storyView
)

// Event is one pipeline notification delivered to the UI loop.
type Event struct {
	Status *orchestrator.Status
	Turn   *types.Turn
	Story  *storyapi.Story
}

// Model is the bubbletea model for the bedtime story terminal.
type Model struct {
	controller *orchestrator.Controller
	speaker    *speech.Speaker
	images     *illustration.Fetcher
	session    types.SessionKey
	events     chan Event

	view    view
	input   textinput.Model
	spin    spinner.Model
	vp      viewport.Model
	keys    KeyMap
	width   int
	height  int
	ready   bool

	turns     []types.Turn
	status    orchestrator.Status
	stories   []storyapi.Story
	cursor    int
	current   *storyapi.Story
	narrating bool
	err       error

	// typewriter reveal state for the story screen
	revealed  int
	revealing bool

	illPath     string
	illFetching bool

	// seam so update tests can intercept outbound messages
	sendFn func(text string) tea.Cmd
}

// New creates the TUI model bound to one session. images may be nil when
// illustration fetching is disabled.
func New(controller *orchestrator.Controller, speaker *speech.Speaker, images *illustration.Fetcher, session types.SessionKey) *Model {
	input := textinput.New()
	input.Placeholder = "Ask for a bedtime story..."
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		controller: controller,
		speaker:    speaker,
		images:     images,
		session:    session,
		events:     make(chan Event, 64),
		view:       landingView,
		input:      input,
		spin:       spin,
		keys:       NewKeyMap(),
		status:     orchestrator.Idle(),
	}
	m.sendFn = m.sendMessage
	return m
}

// Init arms the event listener and the cursor blink.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// refreshLibrary pulls the story list for the library screen.
func (m *Model) refreshLibrary(ctx context.Context) {
	session := m.controller.Sessions().ResolveOrCreate(m.session)
	m.stories = m.controller.RefreshStoryHistory(ctx, session)
	if m.cursor >= len(m.stories) {
		m.cursor = 0
	}
}
