package challenge

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
)

// Custom todos are optional extras. They never affect a day's status.

// AddCustomTodo adds a todo to the current day.
func (e *Engine) AddCustomTodo(ctx context.Context, title string, description *string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: todo title is required", apperrors.ErrInvalidValue)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentDay == 0 {
		return 0, apperrors.ErrNoActiveChallenge
	}
	var id int64
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		var err error
		id, err = q.InsertCustomTodo(ctx, models.CustomTodo{DayID: e.currentDay, Title: title, Description: description})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add todo: %w", err)
	}
	logger.Debug("Custom todo added", "id", id, "day", e.currentDay)
	return id, nil
}

func (e *Engine) ToggleCustomTodo(ctx context.Context, todoID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		todo, err := q.GetCustomTodo(ctx, todoID)
		if err != nil {
			return err
		}
		return q.SetCustomTodoCompleted(ctx, todoID, !todo.Completed)
	})
	if err != nil {
		return fmt.Errorf("failed to toggle todo %d: %w", todoID, err)
	}
	return nil
}

// DeleteCustomTodo removes a todo together with its subtasks.
func (e *Engine) DeleteCustomTodo(ctx context.Context, todoID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		return q.DeleteCustomTodo(ctx, todoID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", todoID, err)
	}
	return nil
}

func (e *Engine) AddSubtask(ctx context.Context, todoID int64, content string) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, fmt.Errorf("%w: subtask content is required", apperrors.ErrInvalidValue)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var id int64
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		if _, err := q.GetCustomTodo(ctx, todoID); err != nil {
			return err
		}
		var err error
		id, err = q.InsertSubtask(ctx, models.Subtask{TodoID: todoID, Content: content})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add subtask: %w", err)
	}
	return id, nil
}

func (e *Engine) ToggleSubtask(ctx context.Context, subtaskID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		sub, err := q.GetSubtask(ctx, subtaskID)
		if err != nil {
			return err
		}
		return q.SetSubtaskCompleted(ctx, subtaskID, !sub.Completed)
	})
	if err != nil {
		return fmt.Errorf("failed to toggle subtask %d: %w", subtaskID, err)
	}
	return nil
}

func (e *Engine) DeleteSubtask(ctx context.Context, subtaskID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		return q.DeleteSubtask(ctx, subtaskID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete subtask %d: %w", subtaskID, err)
	}
	return nil
}

// CustomTodos lists a day's todos with their subtasks.
func (e *Engine) CustomTodos(ctx context.Context, dayID int) ([]models.CustomTodoWithSubtasks, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var todos []models.CustomTodoWithSubtasks
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		var err error
		todos, err = customTodos(ctx, q, dayID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list todos for day %d: %w", dayID, err)
	}
	return todos, nil
}

func customTodos(ctx context.Context, q storage.Queries, dayID int) ([]models.CustomTodoWithSubtasks, error) {
	todos, err := q.ListCustomTodosByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CustomTodoWithSubtasks, 0, len(todos))
	for _, t := range todos {
		subs, err := q.ListSubtasksByTodo(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CustomTodoWithSubtasks{CustomTodo: t, Subtasks: subs})
	}
	return out, nil
}
