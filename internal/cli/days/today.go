package days

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/session"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	printToday(ctx, sess)
	return nil
}

func printToday(ctx *cli.Context, sess *session.Cache) {
	day, ok := sess.CurrentDay()
	if !ok {
		ctx.Printf("No challenge in progress. Run '%s start' to begin.\n", constants.AppName)
		return
	}

	ctx.Println(cli.Header(cli.FormatDay(day)))
	switch day.Status {
	case models.DayFailed:
		ctx.Printf("Day %d was missed. Run '%s restart' to start again from day 1.\n", day.ID, constants.AppName)
	case models.DayCompleted:
		if day.ID == constants.ChallengeDays {
			ctx.Println("Challenge complete. 75 days done.")
		} else {
			ctx.Println("All tasks done. The next day unlocks tomorrow.")
		}
	}
	ctx.Println()

	for _, t := range sess.TodayTasks() {
		ctx.Println(cli.FormatTask(t))
	}

	if todos := sess.CustomTodos(); len(todos) > 0 {
		ctx.Println()
		ctx.Println(cli.Header("Custom todos"))
		ctx.Printf("%s", cli.FormatTodos(todos))
	}

	if day.Notes != nil && strings.TrimSpace(*day.Notes) != "" {
		ctx.Println()
		ctx.Println(cli.Header("Journal"))
		ctx.Println(*day.Notes)
	}
}

type ToggleCmd struct {
	Task string `arg:"" help:"Task id or type (workout_outdoor, workout_indoor, water, read, diet, no_alcohol, pic)."`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	task, err := cli.ResolveTask(sess.TodayTasks(), c.Task)
	if err != nil {
		return err
	}
	if err := sess.ToggleTask(task.ID); err != nil {
		if task.Type == models.TaskPic && errors.Is(err, apperrors.ErrInvalidValue) {
			return fmt.Errorf("%w; run '%s complete pic %s<path>' instead", err, constants.AppName, constants.LocalFilePrefix)
		}
		return err
	}
	if err := ctx.Settle(); err != nil {
		return err
	}
	reportTask(ctx, sess, task.ID)
	return nil
}

type CompleteCmd struct {
	Task  string `arg:"" help:"Task id or type."`
	Value string `arg:"" help:"Evidence for the task. Progress pictures take a file:// path."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	task, err := cli.ResolveTask(sess.TodayTasks(), c.Task)
	if err != nil {
		return err
	}
	if err := sess.CompleteTaskWithValue(task.ID, c.Value); err != nil {
		return err
	}
	if err := ctx.Settle(); err != nil {
		return err
	}
	reportTask(ctx, sess, task.ID)
	return nil
}

func reportTask(ctx *cli.Context, sess *session.Cache, taskID int64) {
	for _, t := range sess.TodayTasks() {
		if t.ID == taskID {
			ctx.Println(cli.FormatTask(t))
		}
	}
	if day, ok := sess.CurrentDay(); ok {
		ctx.Printf("Day %d is %s.\n", day.ID, cli.FormatStatus(day.Status))
	}
}
