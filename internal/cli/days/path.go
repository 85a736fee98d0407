package days

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
)

const pathRowLength = 15

type PathCmd struct{}

func (c *PathCmd) Run(ctx *cli.Context) error {
	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	days := sess.DaysPath()
	if len(days) == 0 {
		ctx.Printf("No challenge in progress. Run '%s start' to begin.\n", constants.AppName)
		return nil
	}

	current := sess.CurrentDayID()
	var row []string
	for _, d := range days {
		cell := fmt.Sprintf("%3d", d.ID)
		if d.ID == current {
			cell = fmt.Sprintf(">%2d", d.ID)
		}
		row = append(row, cli.StatusStyle(d.Status).Render(cell))
		if len(row) == pathRowLength {
			ctx.Println(strings.Join(row, " "))
			row = row[:0]
		}
	}
	if len(row) > 0 {
		ctx.Println(strings.Join(row, " "))
	}
	ctx.Printf("\n%s %s to %s\n", cli.Header("Path"), days[0].Date, days[len(days)-1].Date)
	return nil
}

type DayCmd struct {
	ID int `arg:"" help:"Day number (1-75)."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if _, err := ctx.Session(bg); err != nil {
		return err
	}
	details, err := ctx.Engine().DayDetails(bg, c.ID)
	if err != nil {
		return err
	}

	ctx.Println(cli.Header(cli.FormatDay(details.Day)))
	ctx.Println()
	for _, t := range details.Tasks {
		ctx.Println(cli.FormatTask(t))
	}
	if len(details.CustomTodos) > 0 {
		ctx.Println()
		ctx.Println(cli.Header("Custom todos"))
		ctx.Printf("%s", cli.FormatTodos(details.CustomTodos))
	}
	if details.Day.Notes != nil {
		ctx.Println()
		ctx.Println(cli.Header("Journal"))
		ctx.Println(*details.Day.Notes)
	}
	return nil
}

type GalleryCmd struct{}

func (c *GalleryCmd) Run(ctx *cli.Context) error {
	sess, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	images := sess.GalleryImages()
	if len(images) == 0 {
		ctx.Println("No progress pictures yet.")
		return nil
	}
	for _, img := range images {
		ctx.Printf("Day %-3d %s\n", img.DayID, img.URI)
	}
	return nil
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if _, err := ctx.Session(bg); err != nil {
		return err
	}
	stats, err := ctx.Engine().Stats(bg)
	if err != nil {
		return err
	}

	current := "-"
	if stats.CurrentDay > 0 {
		current = fmt.Sprintf("%d/%d", stats.CurrentDay, constants.ChallengeDays)
	}
	ctx.Printf("Current day:    %s\n", current)
	ctx.Printf("Completed days: %d\n", stats.CompletedDays)
	ctx.Printf("Failed days:    %d\n", stats.FailedDays)
	ctx.Printf("Streak:         %d\n", stats.Streak)
	ctx.Printf("Photos:         %d\n", stats.TotalPhotos)
	return nil
}
