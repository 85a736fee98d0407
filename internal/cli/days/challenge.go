package days

import (
	"context"
	"fmt"

	"github.com/julianstephens/hard75/internal/cli"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/utils"
)

type StartCmd struct {
	Date string `help:"First day of the challenge (YYYY-MM-DD). Defaults to today."`
	Yes  bool   `short:"y" help:"Replace a challenge in progress without asking."`
}

func (c *StartCmd) Run(ctx *cli.Context) error {
	date := c.Date
	if date == "" {
		date = ctx.Clock.Today()
	}
	if !utils.ValidateDate(date) {
		return fmt.Errorf("%w: %q, expected YYYY-MM-DD", apperrors.ErrInvalidDate, date)
	}

	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if len(sess.DaysPath()) > 0 {
		ok, err := confirm(ctx, c.Yes, "A challenge is already in progress. Discard it and start over?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Start cancelled.")
			return nil
		}
		ctx.PerformAutomaticBackup()
	}

	if err := sess.StartChallenge(bg, date); err != nil {
		return err
	}
	ctx.Printf("✓ Challenge started on %s. Day 1 of 75 is active.\n", date)
	return nil
}

type RestartCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *RestartCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}

	ok, err := confirm(ctx, c.Yes, "Restart the challenge from day 1? All progress, notes and custom todos are discarded.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Restart cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := sess.RestartChallenge(bg); err != nil {
		return err
	}
	ctx.Printf("✓ Challenge restarted on %s.\n", ctx.Clock.Today())
	return nil
}

func confirm(ctx *cli.Context, yes bool, title string) (bool, error) {
	if yes {
		return true, nil
	}
	return ctx.Confirm(title)
}
