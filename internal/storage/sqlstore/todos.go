package sqlstore

import (
	"context"
	"database/sql"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

const (
	todoColumns    = "id, day_id, title, description, completed"
	subtaskColumns = "id, todo_id, content, completed"
)

func scanTodo(row scanner) (models.CustomTodo, error) {
	var t models.CustomTodo
	var description sql.NullString
	if err := row.Scan(&t.ID, &t.DayID, &t.Title, &description, &t.Completed); err != nil {
		return models.CustomTodo{}, err
	}
	t.Description = stringPtr(description)
	return t, nil
}

func scanSubtask(row scanner) (models.Subtask, error) {
	var s models.Subtask
	if err := row.Scan(&s.ID, &s.TodoID, &s.Content, &s.Completed); err != nil {
		return models.Subtask{}, err
	}
	return s, nil
}

func (q *Queries) InsertCustomTodo(ctx context.Context, todo models.CustomTodo) (int64, error) {
	return q.insert(ctx, "insert custom todo",
		"INSERT INTO custom_todos (day_id, title, description, completed) VALUES (?, ?, ?, ?)",
		todo.DayID, todo.Title, nullString(todo.Description), todo.Completed)
}

func (q *Queries) GetCustomTodo(ctx context.Context, id int64) (models.CustomTodo, error) {
	t, err := scanTodo(q.queryRow(ctx, "SELECT "+todoColumns+" FROM custom_todos WHERE id = ?", id))
	if err != nil {
		return models.CustomTodo{}, rowErr("get custom todo", "custom todo", id, err)
	}
	return t, nil
}

func (q *Queries) ListCustomTodosByDay(ctx context.Context, dayID int) ([]models.CustomTodo, error) {
	rows, err := q.query(ctx, "SELECT "+todoColumns+" FROM custom_todos WHERE day_id = ? ORDER BY id", dayID)
	if err != nil {
		return nil, apperrors.StorageFault("list custom todos", err)
	}
	defer rows.Close()

	todos := []models.CustomTodo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, apperrors.StorageFault("list custom todos", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageFault("list custom todos", err)
	}
	return todos, nil
}

func (q *Queries) SetCustomTodoCompleted(ctx context.Context, id int64, completed bool) error {
	return q.update(ctx, "set custom todo completed", "custom todo", id,
		"UPDATE custom_todos SET completed = ? WHERE id = ?", completed, id)
}

// DeleteCustomTodo removes the todo and its subtasks. The subtasks are
// deleted explicitly so the cascade holds even where foreign keys are off;
// callers run it inside a transaction.
func (q *Queries) DeleteCustomTodo(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, "DELETE FROM todo_subtasks WHERE todo_id = ?", id); err != nil {
		return apperrors.StorageFault("delete subtasks", err)
	}
	result, err := q.exec(ctx, "DELETE FROM custom_todos WHERE id = ?", id)
	if err != nil {
		return apperrors.StorageFault("delete custom todo", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.StorageFault("delete custom todo", err)
	}
	if rows == 0 {
		return apperrors.NotFound("custom todo", id)
	}
	return nil
}

func (q *Queries) DeleteAllCustomTodos(ctx context.Context) error {
	if _, err := q.exec(ctx, "DELETE FROM todo_subtasks"); err != nil {
		return apperrors.StorageFault("delete subtasks", err)
	}
	if _, err := q.exec(ctx, "DELETE FROM custom_todos"); err != nil {
		return apperrors.StorageFault("delete custom todos", err)
	}
	return nil
}

func (q *Queries) InsertSubtask(ctx context.Context, subtask models.Subtask) (int64, error) {
	return q.insert(ctx, "insert subtask",
		"INSERT INTO todo_subtasks (todo_id, content, completed) VALUES (?, ?, ?)",
		subtask.TodoID, subtask.Content, subtask.Completed)
}

func (q *Queries) GetSubtask(ctx context.Context, id int64) (models.Subtask, error) {
	s, err := scanSubtask(q.queryRow(ctx, "SELECT "+subtaskColumns+" FROM todo_subtasks WHERE id = ?", id))
	if err != nil {
		return models.Subtask{}, rowErr("get subtask", "subtask", id, err)
	}
	return s, nil
}

func (q *Queries) ListSubtasksByTodo(ctx context.Context, todoID int64) ([]models.Subtask, error) {
	rows, err := q.query(ctx, "SELECT "+subtaskColumns+" FROM todo_subtasks WHERE todo_id = ? ORDER BY id", todoID)
	if err != nil {
		return nil, apperrors.StorageFault("list subtasks", err)
	}
	defer rows.Close()

	subtasks := []models.Subtask{}
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			return nil, apperrors.StorageFault("list subtasks", err)
		}
		subtasks = append(subtasks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageFault("list subtasks", err)
	}
	return subtasks, nil
}

func (q *Queries) SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error {
	return q.update(ctx, "set subtask completed", "subtask", id,
		"UPDATE todo_subtasks SET completed = ? WHERE id = ?", completed, id)
}

func (q *Queries) DeleteSubtask(ctx context.Context, id int64) error {
	result, err := q.exec(ctx, "DELETE FROM todo_subtasks WHERE id = ?", id)
	if err != nil {
		return apperrors.StorageFault("delete subtask", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.StorageFault("delete subtask", err)
	}
	if rows == 0 {
		return apperrors.NotFound("subtask", id)
	}
	return nil
}
