// internal/tui/app.go

// Package tui renders the interactive bedtime story terminal: a chat screen
// with live pipeline status, a story library, and a full-story reader with
// read-aloud narration.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/storynest/internal/illustration"
	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/internal/speech"
	"github.com/user/storynest/internal/types"
)

// Run starts the terminal UI and blocks until the user quits.
func Run(controller *orchestrator.Controller, speaker *speech.Speaker, images *illustration.Fetcher, session types.SessionKey) error {
	model := New(controller, speaker, images, session)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
