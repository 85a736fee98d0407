package todos

import (
	"context"
	"strings"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/models"
)

type TodoAddCmd struct {
	Title       string `arg:"" help:"Todo title."`
	Description string `short:"d" help:"Optional longer description."`
}

func (c *TodoAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	var desc *string
	if d := strings.TrimSpace(c.Description); d != "" {
		desc = &d
	}
	id, err := sess.AddCustomTodo(bg, c.Title, desc)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added todo %d to day %d\n", id, sess.CurrentDayID())
	return nil
}

type TodoListCmd struct {
	Day int `help:"Day number to list. Defaults to the current day."`
}

func (c *TodoListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}

	var todos []models.CustomTodoWithSubtasks
	if c.Day == 0 || c.Day == sess.CurrentDayID() {
		todos = sess.CustomTodos()
	} else {
		details, err := ctx.Engine().DayDetails(bg, c.Day)
		if err != nil {
			return err
		}
		todos = details.CustomTodos
	}

	if len(todos) == 0 {
		ctx.Println("No custom todos.")
		return nil
	}
	ctx.Printf("%s", cli.FormatTodos(todos))
	return nil
}

type TodoToggleCmd struct {
	ID int64 `arg:"" help:"Todo id."`
}

func (c *TodoToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.ToggleCustomTodo(bg, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Toggled todo %d\n", c.ID)
	return nil
}

type TodoDeleteCmd struct {
	ID int64 `arg:"" help:"Todo id. Its subtasks are deleted too."`
}

func (c *TodoDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.DeleteCustomTodo(bg, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted todo %d\n", c.ID)
	return nil
}

type SubtaskAddCmd struct {
	TodoID  int64  `arg:"" help:"Parent todo id."`
	Content string `arg:"" help:"Subtask text."`
}

func (c *SubtaskAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	id, err := sess.AddSubtask(bg, c.TodoID, c.Content)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added subtask %d to todo %d\n", id, c.TodoID)
	return nil
}

type SubtaskToggleCmd struct {
	ID int64 `arg:"" help:"Subtask id."`
}

func (c *SubtaskToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.ToggleSubtask(bg, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Toggled subtask %d\n", c.ID)
	return nil
}

type SubtaskDeleteCmd struct {
	ID int64 `arg:"" help:"Subtask id."`
}

func (c *SubtaskDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.DeleteSubtask(bg, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted subtask %d\n", c.ID)
	return nil
}
