package sqlstore

import (
	"context"
	"database/sql"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

const taskColumns = "id, day_id, type, completed, value"

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var taskType string
	var value sql.NullString
	if err := row.Scan(&t.ID, &t.DayID, &taskType, &t.Completed, &value); err != nil {
		return models.Task{}, err
	}
	t.Type = models.TaskType(taskType)
	t.Value = value.String
	return t, nil
}

func (q *Queries) scanTasks(ctx context.Context, op, query string, args ...any) ([]models.Task, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StorageFault(op, err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperrors.StorageFault(op, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageFault(op, err)
	}
	return tasks, nil
}

func (q *Queries) InsertTask(ctx context.Context, task models.Task) (int64, error) {
	return q.insert(ctx, "insert task",
		"INSERT INTO tasks (day_id, type, completed, value) VALUES (?, ?, ?, ?)",
		task.DayID, string(task.Type), task.Completed, task.Value)
}

func (q *Queries) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(q.queryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return models.Task{}, rowErr("get task", "task", id, err)
	}
	return t, nil
}

func (q *Queries) ListTasksByDay(ctx context.Context, dayID int) ([]models.Task, error) {
	return q.scanTasks(ctx, "list tasks by day",
		"SELECT "+taskColumns+" FROM tasks WHERE day_id = ? ORDER BY id", dayID)
}

func (q *Queries) ListTasksByTypeCompleted(ctx context.Context, taskType models.TaskType, completed bool) ([]models.Task, error) {
	return q.scanTasks(ctx, "list tasks by type",
		"SELECT "+taskColumns+" FROM tasks WHERE type = ? AND completed = ? ORDER BY day_id, id",
		string(taskType), completed)
}

func (q *Queries) SetTaskCompleted(ctx context.Context, id int64, completed bool) error {
	return q.update(ctx, "set task completed", "task", id,
		"UPDATE tasks SET completed = ? WHERE id = ?", completed, id)
}

// CompleteTask marks the task completed and stores value in one statement.
func (q *Queries) CompleteTask(ctx context.Context, id int64, value string) error {
	return q.update(ctx, "complete task", "task", id,
		"UPDATE tasks SET completed = ?, value = ? WHERE id = ?", true, value, id)
}

func (q *Queries) DeleteAllTasks(ctx context.Context) error {
	if _, err := q.exec(ctx, "DELETE FROM tasks"); err != nil {
		return apperrors.StorageFault("delete tasks", err)
	}
	return nil
}
