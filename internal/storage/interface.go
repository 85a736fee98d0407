package storage

import (
	"context"

	"github.com/julianstephens/hard75/internal/models"
)

// Queries is the typed set of point and range operations over days, tasks,
// custom todos and subtasks. Every update touches only the named fields.
// Lookups and updates of a missing row fail with errors.ErrNotFound.
type Queries interface {
	// Days
	InsertDay(ctx context.Context, day models.Day) error
	GetDay(ctx context.Context, id int) (models.Day, error)
	GetDayByStatus(ctx context.Context, status models.DayStatus) (models.Day, error)
	ListDays(ctx context.Context) ([]models.Day, error)
	UpdateDayStatus(ctx context.Context, id int, status models.DayStatus) error
	UpdateDayNotes(ctx context.Context, id int, notes string) error
	DeleteAllDays(ctx context.Context) error

	// Tasks
	InsertTask(ctx context.Context, task models.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	ListTasksByDay(ctx context.Context, dayID int) ([]models.Task, error)
	ListTasksByTypeCompleted(ctx context.Context, taskType models.TaskType, completed bool) ([]models.Task, error)
	SetTaskCompleted(ctx context.Context, id int64, completed bool) error
	CompleteTask(ctx context.Context, id int64, value string) error
	DeleteAllTasks(ctx context.Context) error

	// Custom todos
	InsertCustomTodo(ctx context.Context, todo models.CustomTodo) (int64, error)
	GetCustomTodo(ctx context.Context, id int64) (models.CustomTodo, error)
	ListCustomTodosByDay(ctx context.Context, dayID int) ([]models.CustomTodo, error)
	SetCustomTodoCompleted(ctx context.Context, id int64, completed bool) error
	DeleteCustomTodo(ctx context.Context, id int64) error
	DeleteAllCustomTodos(ctx context.Context) error

	// Subtasks
	InsertSubtask(ctx context.Context, subtask models.Subtask) (int64, error)
	GetSubtask(ctx context.Context, id int64) (models.Subtask, error)
	ListSubtasksByTodo(ctx context.Context, todoID int64) ([]models.Subtask, error)
	SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error
	DeleteSubtask(ctx context.Context, id int64) error
}

// Provider is a durable store. Queries called directly on the provider run
// as single statements; Transaction groups several into one atomic unit.
type Provider interface {
	Queries

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Transaction runs work with all-or-nothing semantics. Reads inside work
	// observe its earlier writes. Any error returned by work, or by commit,
	// rolls everything back and is returned to the caller.
	Transaction(ctx context.Context, work func(q Queries) error) error

	// Utils
	GetConfigPath() string
}
