package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

// Run shows the terminal UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl *workflow.Controller) error {
	model := NewModel(ctx, ctrl)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
