// internal/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)
)

func (m *Model) View() string {
	if !m.ready {
		return "warming up the storyteller..."
	}

	switch m.view {
	case landingView:
		return m.landingScreen()
	case libraryView:
		return m.libraryScreen()
	case storyView:
		return m.storyScreen()
	default:
		return m.chatScreen()
	}
}

func (m *Model) landingScreen() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("  StoryNest"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("  Bedtime stories, dreamed up just for you."))
	b.WriteString("\n\n")
	b.WriteString("  press enter to begin")
	return b.String()
}

func (m *Model) chatScreen() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("StoryNest"))
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n")

	if m.status.Busy() {
		b.WriteString(m.spin.View() + dimStyle.Render(m.status.Message))
	} else if m.narrating {
		b.WriteString(m.spin.View() + dimStyle.Render("Reading aloud..."))
	} else if m.err != nil {
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter send · tab library · ctrl+r read aloud · ctrl+n new · ctrl+c quit"))
	return b.String()
}

func (m *Model) libraryScreen() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Story Library"))
	b.WriteString("\n\n")

	if len(m.stories) == 0 {
		b.WriteString(dimStyle.Render("No stories yet. Ask for one!"))
	}
	for i, story := range m.stories {
		title := story.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("  %s", title)
		if story.FinalScore != nil {
			line += scoreStyle.Render(fmt.Sprintf("  %d/10", story.FinalScore.Score))
		}
		if i == m.cursor {
			line = cursorStyle.Render("> ") + line[2:]
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ move · enter open · esc back"))
	return b.String()
}

func (m *Model) storyScreen() string {
	if m.current == nil {
		return dimStyle.Render("no story selected")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.current.Title))
	b.WriteString("\n")
	if meta := storyMeta(m.current); meta != "" {
		b.WriteString(dimStyle.Render(meta))
		b.WriteString("\n")
	}
	switch {
	case m.illFetching:
		b.WriteString(dimStyle.Render("illustration: painting..."))
		b.WriteString("\n")
	case m.illPath != "":
		b.WriteString(dimStyle.Render("illustration: " + m.illPath))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	content := []rune(m.current.Content)
	if m.revealing && m.revealed < len(content) {
		b.WriteString(string(content[:m.revealed]))
		b.WriteString("▌")
	} else {
		b.WriteString(string(content))
	}
	b.WriteString("\n\n")
	if m.narrating {
		b.WriteString(m.spin.View() + dimStyle.Render("Reading aloud..."))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("enter reveal · ctrl+r read aloud · tab library · esc back to chat"))
	return b.String()
}

// storyMeta summarizes a story's quality line for the header.
func storyMeta(story *storyapi.Story) string {
	var parts []string
	if story.AgeRange != "" {
		parts = append(parts, "ages "+story.AgeRange)
	}
	if story.FinalScore != nil {
		parts = append(parts, fmt.Sprintf("score %d/10", story.FinalScore.Score))
	}
	if story.Iterations > 1 {
		parts = append(parts, fmt.Sprintf("%d drafts", story.Iterations))
	}
	return strings.Join(parts, " · ")
}

// syncViewport re-renders the conversation into the chat viewport and keeps
// the latest turn visible.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, turn := range m.turns {
		switch turn.Role {
		case types.RoleUser:
			b.WriteString(userStyle.Render("you: ") + turn.Content)
		default:
			b.WriteString(assistantStyle.Render("storyteller: ") + turn.Content)
		}
		b.WriteString("\n\n")
		if turn.Quality != nil {
			b.WriteString(scoreStyle.Render(fmt.Sprintf(
				"quality %d/10 after %d drafts", turn.Quality.OverallScore, turn.Quality.IterationCount)))
			b.WriteString("\n\n")
		}
	}
	m.vp.SetContent(b.String())
	m.vp.GotoBottom()
}
