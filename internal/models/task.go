package models

type TaskType string

const (
	TaskWorkoutOutdoor TaskType = "workout_outdoor"
	TaskWorkoutIndoor  TaskType = "workout_indoor"
	TaskWater          TaskType = "water"
	TaskRead           TaskType = "read"
	TaskDiet           TaskType = "diet"
	TaskNoAlcohol      TaskType = "no_alcohol"
	TaskPic            TaskType = "pic"
)

// DailyTasks lists the mandatory tasks seeded for every day, in display order,
// together with their default descriptions.
var DailyTasks = []struct {
	Type  TaskType
	Value string
}{
	{TaskWorkoutOutdoor, "45 min Outdoor Workout"},
	{TaskWorkoutIndoor, "45 min Indoor Workout"},
	{TaskWater, "1 Gallon (3.7L)"},
	{TaskRead, "10 Pages (Non-fiction)"},
	{TaskDiet, "Follow Diet Plan"},
	{TaskNoAlcohol, "Zero Alcohol"},
	{TaskPic, "Progress Picture"},
}

// ParseTaskType returns the TaskType named by s.
func ParseTaskType(s string) (TaskType, bool) {
	for _, dt := range DailyTasks {
		if string(dt.Type) == s {
			return dt.Type, true
		}
	}
	return "", false
}

type Task struct {
	ID        int64    `json:"id"`
	DayID     int      `json:"day_id"`
	Type      TaskType `json:"type"`
	Completed bool     `json:"completed"`
	Value     string   `json:"value"`
}

// GalleryImage is a completed progress picture.
type GalleryImage struct {
	TaskID int64  `json:"id"`
	URI    string `json:"uri"`
	DayID  int    `json:"day_id"`
}
