package models

type CustomTodo struct {
	ID          int64   `json:"id"`
	DayID       int     `json:"day_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
}

type Subtask struct {
	ID        int64  `json:"id"`
	TodoID    int64  `json:"todo_id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

type CustomTodoWithSubtasks struct {
	CustomTodo
	Subtasks []Subtask `json:"subtasks"`
}
