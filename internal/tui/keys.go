// internal/tui/keys.go
package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Send       key.Binding
	NewSession key.Binding
	Library    key.Binding
	ReadAloud  key.Binding
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	Back       key.Binding
	Quit       key.Binding
}

func NewKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new session"),
		),
		Library: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "library"),
		),
		ReadAloud: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "read aloud"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
