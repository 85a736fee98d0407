package challenge

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// DeriveStatus computes the status of a live day from its mandatory tasks:
// completed when every one of the seven task types is present and done,
// active otherwise. Custom todos never count.
func DeriveStatus(tasks []models.Task) models.DayStatus {
	done := make(map[models.TaskType]bool, len(models.DailyTasks))
	for _, t := range tasks {
		prev, seen := done[t.Type]
		done[t.Type] = t.Completed && (!seen || prev)
	}
	for _, dt := range models.DailyTasks {
		if !done[dt.Type] {
			return models.DayActive
		}
	}
	return models.DayCompleted
}

// IsOpen reports whether day's status still follows its tasks. An active day
// is open; a completed day stays open until the next day has been unlocked.
// next is nil for the last day of the challenge.
func IsOpen(day models.Day, next *models.Day) bool {
	switch day.Status {
	case models.DayActive:
		return true
	case models.DayCompleted:
		return next == nil || next.Status == models.DayLocked
	}
	return false
}

// IsLocalFileRef reports whether value points at an image on this device.
func IsLocalFileRef(value string) bool {
	return strings.HasPrefix(value, constants.LocalFilePrefix) && len(value) > len(constants.LocalFilePrefix)
}

// CheckWritable returns nil when the tasks of day may be changed.
func CheckWritable(day models.Day, next *models.Day) error {
	switch {
	case day.Status == models.DayLocked:
		return fmt.Errorf("day %d: %w", day.ID, apperrors.ErrDayLocked)
	case day.Status == models.DayFailed, IsOpen(day, next):
		return nil
	default:
		return fmt.Errorf("day %d: %w", day.ID, apperrors.ErrDayClosed)
	}
}

// Rederive returns the status day should have after its tasks changed.
// Failed days keep their status.
func Rederive(day models.Day, next *models.Day, tasks []models.Task) models.DayStatus {
	if day.Status == models.DayFailed || !IsOpen(day, next) {
		return day.Status
	}
	return DeriveStatus(tasks)
}

// CheckValue validates the payload for CompleteTaskWithValue.
func CheckValue(taskType models.TaskType, value string) error {
	if taskType == models.TaskPic && !IsLocalFileRef(value) {
		return fmt.Errorf("%w: picture must be a %s reference", apperrors.ErrInvalidValue, constants.LocalFilePrefix)
	}
	return nil
}

// CheckCompletion refuses to mark task done when its current value is not
// valid evidence for it. A picture task can only be ticked again after a
// file reference has been recorded with CompleteTaskWithValue.
func CheckCompletion(task models.Task, completed bool) error {
	if !completed || task.Completed {
		return nil
	}
	if err := CheckValue(task.Type, task.Value); err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}
	return nil
}

// SeedDays lays out the full challenge starting on startDate: day 1 active,
// the rest locked, one calendar day apart.
func SeedDays(startDate string) ([]models.Day, error) {
	if !utils.ValidateDate(startDate) {
		return nil, fmt.Errorf("%w: %q, expected %s", apperrors.ErrInvalidDate, startDate, constants.DateFormat)
	}
	days := make([]models.Day, constants.ChallengeDays)
	for i := range days {
		date, err := utils.AddDays(startDate, i)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidDate, err)
		}
		days[i] = models.Day{ID: i + 1, Date: date, Status: models.DayLocked}
	}
	days[0].Status = models.DayActive
	return days, nil
}

// ResolveCurrentDay picks the day the participant is looking at: the active
// day if there is one, else the highest day that is no longer locked.
// It returns 0 when days is empty.
func ResolveCurrentDay(days []models.Day) int {
	current := 0
	for _, d := range days {
		if d.Status == models.DayActive {
			return d.ID
		}
		if d.Status != models.DayLocked && d.ID > current {
			current = d.ID
		}
	}
	return current
}

// NextDay returns the day following id in days, or nil.
func NextDay(days []models.Day, id int) *models.Day {
	for i := range days {
		if days[i].ID == id+1 {
			return &days[i]
		}
	}
	return nil
}

// Streak counts completed days since the last failure.
func Streak(days []models.Day) int {
	streak := 0
	for _, d := range days {
		switch d.Status {
		case models.DayCompleted:
			streak++
		case models.DayFailed:
			streak = 0
		}
	}
	return streak
}
