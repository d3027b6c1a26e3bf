package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run starts the live monitor against d and blocks until the user quits.
func Run(d Daemon) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(d), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
