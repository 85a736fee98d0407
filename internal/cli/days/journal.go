package days

import (
	"context"

	"github.com/julianstephens/hard75/internal/cli"
)

type JournalShowCmd struct{}

func (c *JournalShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	note, err := sess.Journal(bg)
	if err != nil {
		return err
	}
	if note == nil {
		ctx.Printf("No journal entry for day %d yet.\n", sess.CurrentDayID())
		return nil
	}
	ctx.Println(*note)
	return nil
}

type JournalSetCmd struct {
	Note string `arg:"" help:"Journal text for the current day. Replaces any existing entry."`
}

func (c *JournalSetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.SaveJournal(bg, c.Note); err != nil {
		return err
	}
	ctx.Printf("✓ Journal saved for day %d.\n", sess.CurrentDayID())
	return nil
}
