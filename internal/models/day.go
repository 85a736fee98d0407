package models

type DayStatus string

const (
	DayLocked    DayStatus = "locked"
	DayActive    DayStatus = "active"
	DayCompleted DayStatus = "completed"
	DayFailed    DayStatus = "failed"
)

// Valid reports whether s is one of the four known statuses.
func (s DayStatus) Valid() bool {
	switch s {
	case DayLocked, DayActive, DayCompleted, DayFailed:
		return true
	}
	return false
}

// Closed reports whether the status is terminal for a day row.
func (s DayStatus) Closed() bool {
	return s == DayCompleted || s == DayFailed
}

type Day struct {
	ID     int       `json:"id"`   // 1..75, the day number
	Date   string    `json:"date"` // YYYY-MM-DD format
	Status DayStatus `json:"status"`
	Notes  *string   `json:"notes,omitempty"`
}

// DayDetails is the full content of one day as shown in the path view.
type DayDetails struct {
	Day         Day                      `json:"day"`
	Tasks       []Task                   `json:"tasks"`
	CustomTodos []CustomTodoWithSubtasks `json:"custom_todos"`
}

// Stats summarises progress through the current challenge.
type Stats struct {
	CompletedDays int `json:"completed_days"`
	FailedDays    int `json:"failed_days"`
	TotalPhotos   int `json:"total_photos"`
	CurrentDay    int `json:"current_day"` // 0 when no challenge is in progress
	Streak        int `json:"streak"`
}
