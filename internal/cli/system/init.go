package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/lock"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing SQLite database before initializing."`
	Source string `help:"Database path or connection string to copy an existing challenge from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized hard75 storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying challenge from: %s\n", c.Source)
		if err := c.copyFrom(ctx, c.Source); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Println("Copy completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return fmt.Errorf("--force only applies to the SQLite store")
	}
	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDB, err1 := filepath.Abs(dbPath)
		absSrc, err2 := filepath.Abs(c.Source)
		if err1 == nil && err2 == nil && absDB == absSrc {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	l, err := lock.Acquire(lock.PathFor(dbPath))
	if err != nil {
		return err
	}
	defer l.Release()

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

// copyFrom replaces the destination's challenge with the source's, keeping
// day numbers and remapping row ids.
func (c *InitCmd) copyFrom(ctx *cli.Context, source string) error {
	src, err := cli.OpenStore(source)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	bg := context.Background()
	days, err := src.ListDays(bg)
	if err != nil {
		return fmt.Errorf("failed to read source days: %w", err)
	}

	var tasks, todos, subtasks int
	err = ctx.Store.Transaction(bg, func(q storage.Queries) error {
		if err := q.DeleteAllCustomTodos(bg); err != nil {
			return err
		}
		if err := q.DeleteAllTasks(bg); err != nil {
			return err
		}
		if err := q.DeleteAllDays(bg); err != nil {
			return err
		}

		for _, day := range days {
			if err := q.InsertDay(bg, day); err != nil {
				return err
			}
			dayTasks, err := src.ListTasksByDay(bg, day.ID)
			if err != nil {
				return err
			}
			for _, t := range dayTasks {
				if _, err := q.InsertTask(bg, t); err != nil {
					return err
				}
				tasks++
			}
			n, m, err := copyTodos(bg, src, q, day.ID)
			if err != nil {
				return err
			}
			todos += n
			subtasks += m
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx.Printf("  Copied %d days, %d tasks, %d todos, %d subtasks\n", len(days), tasks, todos, subtasks)
	return nil
}

func copyTodos(ctx context.Context, src storage.Queries, dst storage.Queries, dayID int) (int, int, error) {
	todos, err := src.ListCustomTodosByDay(ctx, dayID)
	if err != nil {
		return 0, 0, err
	}
	var subtasks int
	for _, todo := range todos {
		newID, err := dst.InsertCustomTodo(ctx, todo)
		if err != nil {
			return 0, 0, err
		}
		subs, err := src.ListSubtasksByTodo(ctx, todo.ID)
		if err != nil {
			return 0, 0, err
		}
		for _, st := range subs {
			if _, err := dst.InsertSubtask(ctx, models.Subtask{TodoID: newID, Content: st.Content, Completed: st.Completed}); err != nil {
				return 0, 0, err
			}
			subtasks++
		}
	}
	return len(todos), subtasks, nil
}
