package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits
func Run(deps Deps) error {
	m, err := New(deps)
	if err != nil {
		return err
	}
	defer m.Cleanup()

	// Update uses a pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}
