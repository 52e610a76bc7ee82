package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run runs a capture session until the user quits or the video ends.
// Whatever is still buffered when the program stops is saved.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(opts)
	defer func() { _ = opts.Source.Close() }()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, runErr := p.Run()

	if _, err := m.flush(); err != nil {
		return fmt.Errorf("failed to save the last run: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	return m.Err()
}
