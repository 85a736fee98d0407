package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Snapshot before the session can write anything.
	ctx.PerformAutomaticBackup()

	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(sess, ctx.Settle), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
