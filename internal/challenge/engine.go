// Package challenge implements the 75-day state machine: seeding, task
// completion with derived day status, missed-day failure and restart.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/utils"
)

// Engine owns the store handle and the current-day pointer. Operations are
// serialized and each one runs as a single store transaction.
type Engine struct {
	mu         sync.Mutex
	store      storage.Provider
	clock      utils.Clock
	currentDay int
}

func New(store storage.Provider, clock utils.Clock) *Engine {
	return &Engine{store: store, clock: clock}
}

// CurrentDayID returns the current-day pointer, 0 when no challenge is in
// progress or EvaluateOnResume has not run yet.
func (e *Engine) CurrentDayID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentDay
}

// StartChallenge discards any existing challenge and seeds a new one
// beginning on startDate.
func (e *Engine) StartChallenge(ctx context.Context, startDate string) error {
	days, err := SeedDays(startDate)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err = e.store.Transaction(ctx, func(q storage.Queries) error {
		if err := wipe(ctx, q); err != nil {
			return err
		}
		for _, day := range days {
			if err := q.InsertDay(ctx, day); err != nil {
				return err
			}
			for _, dt := range models.DailyTasks {
				task := models.Task{DayID: day.ID, Type: dt.Type, Value: dt.Value}
				if _, err := q.InsertTask(ctx, task); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start challenge: %w", err)
	}

	e.currentDay = 1
	logger.Info("Challenge started", "start_date", startDate, "days", len(days))
	return nil
}

// RestartChallenge starts over from today.
func (e *Engine) RestartChallenge(ctx context.Context) error {
	today := e.clock.Today()
	logger.Info("Restarting challenge", "date", today)
	return e.StartChallenge(ctx, today)
}

// wipe clears every challenge table, children first.
func wipe(ctx context.Context, q storage.Queries) error {
	if err := q.DeleteAllCustomTodos(ctx); err != nil {
		return err
	}
	if err := q.DeleteAllTasks(ctx); err != nil {
		return err
	}
	return q.DeleteAllDays(ctx)
}

// EvaluateOnResume brings the challenge up to date with the calendar. If the
// last completed day is in the past its successor becomes active. An active
// day dated before today was missed and is marked failed. The current-day
// pointer is then resolved from the resulting statuses. When no day is
// active it does not stay unset: it points at the highest day that is no
// longer locked, so a failed day keeps blocking until restart and a
// finished challenge shows day 75.
func (e *Engine) EvaluateOnResume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.clock.Today()
	var current int
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		days, err := q.ListDays(ctx)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}

		active := activeIndex(days)
		if active < 0 {
			if i := advanceIndex(days, today); i >= 0 {
				if err := q.UpdateDayStatus(ctx, days[i].ID, models.DayActive); err != nil {
					return err
				}
				days[i].Status = models.DayActive
				active = i
				logger.Info("Advanced to next day", "day", days[i].ID, "date", days[i].Date)
			}
		}

		if active >= 0 && days[active].Date < today {
			if err := q.UpdateDayStatus(ctx, days[active].ID, models.DayFailed); err != nil {
				return err
			}
			days[active].Status = models.DayFailed
			logger.Warn("Missed day marked failed", "day", days[active].ID, "date", days[active].Date, "today", today)
		}

		current = ResolveCurrentDay(days)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate challenge: %w", err)
	}

	e.currentDay = current
	logger.Debug("Evaluated challenge", "today", today, "current_day", current)
	return nil
}

func activeIndex(days []models.Day) int {
	for i, d := range days {
		if d.Status == models.DayActive {
			return i
		}
	}
	return -1
}

// advanceIndex finds the locked day that should become active: the one right
// after the highest completed day, once that day's date has passed.
func advanceIndex(days []models.Day, today string) int {
	last := -1
	for i, d := range days {
		if d.Status == models.DayFailed {
			return -1
		}
		if d.Status == models.DayCompleted {
			last = i
		}
	}
	if last < 0 || last+1 >= len(days) {
		return -1
	}
	if days[last].Date >= today || days[last+1].Status != models.DayLocked {
		return -1
	}
	return last + 1
}

// ToggleTask flips a task's completion and returns its day as it stands
// afterwards.
func (e *Engine) ToggleTask(ctx context.Context, taskID int64) (models.Day, error) {
	return e.writeTask(ctx, taskID, func(q storage.Queries, task models.Task) error {
		if err := CheckCompletion(task, !task.Completed); err != nil {
			return err
		}
		return q.SetTaskCompleted(ctx, task.ID, !task.Completed)
	})
}

// SetTaskCompleted sets a task's completion to an absolute value. Repeating
// it is harmless.
func (e *Engine) SetTaskCompleted(ctx context.Context, taskID int64, completed bool) (models.Day, error) {
	return e.writeTask(ctx, taskID, func(q storage.Queries, task models.Task) error {
		if task.Completed == completed {
			return nil
		}
		if err := CheckCompletion(task, completed); err != nil {
			return err
		}
		return q.SetTaskCompleted(ctx, task.ID, completed)
	})
}

// CompleteTaskWithValue marks a task done and records its evidence, such as
// a picture reference or a workout note.
func (e *Engine) CompleteTaskWithValue(ctx context.Context, taskID int64, value string) (models.Day, error) {
	return e.writeTask(ctx, taskID, func(q storage.Queries, task models.Task) error {
		if err := CheckValue(task.Type, value); err != nil {
			return err
		}
		return q.CompleteTask(ctx, task.ID, value)
	})
}

// writeTask applies a task change and recomputes the owning day's status in
// the same transaction.
func (e *Engine) writeTask(ctx context.Context, taskID int64, apply func(storage.Queries, models.Task) error) (models.Day, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var day models.Day
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		day, err = q.GetDay(ctx, task.DayID)
		if err != nil {
			return err
		}
		next, err := nextDay(ctx, q, day.ID)
		if err != nil {
			return err
		}
		if err := CheckWritable(day, next); err != nil {
			return err
		}
		if err := apply(q, task); err != nil {
			return err
		}

		tasks, err := q.ListTasksByDay(ctx, day.ID)
		if err != nil {
			return fmt.Errorf("day %d: %w: %w", day.ID, apperrors.ErrInconsistentDerivedState, err)
		}
		status := Rederive(day, next, tasks)
		if status == day.Status {
			return nil
		}
		if err := q.UpdateDayStatus(ctx, day.ID, status); err != nil {
			return fmt.Errorf("day %d: %w: %w", day.ID, apperrors.ErrInconsistentDerivedState, err)
		}
		logger.Debug("Day status changed", "day", day.ID, "from", day.Status, "to", status)
		day.Status = status
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInconsistentDerivedState) {
			logger.Error("Failed to recompute day status", "task_id", taskID, "error", err)
		}
		return models.Day{}, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	return day, nil
}

func nextDay(ctx context.Context, q storage.Queries, id int) (*models.Day, error) {
	if id >= constants.ChallengeDays {
		return nil, nil
	}
	next, err := q.GetDay(ctx, id+1)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// GetJournal returns the current day's note. A nil note was never written.
func (e *Engine) GetJournal(ctx context.Context) (*string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentDay == 0 {
		return nil, apperrors.ErrNoActiveChallenge
	}
	day, err := e.store.GetDay(ctx, e.currentDay)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return day.Notes, nil
}

// SaveJournal overwrites the current day's note. Empty is a valid note.
func (e *Engine) SaveJournal(ctx context.Context, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentDay == 0 {
		return apperrors.ErrNoActiveChallenge
	}
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		return q.UpdateDayNotes(ctx, e.currentDay, note)
	})
	if err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

// ComputeGallery lists completed progress pictures across all days, ordered
// by day.
func (e *Engine) ComputeGallery(ctx context.Context) ([]models.GalleryImage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gallery(ctx, e.store)
}

func gallery(ctx context.Context, q storage.Queries) ([]models.GalleryImage, error) {
	pics, err := q.ListTasksByTypeCompleted(ctx, models.TaskPic, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}
	images := []models.GalleryImage{}
	for _, p := range pics {
		if !IsLocalFileRef(p.Value) {
			continue
		}
		images = append(images, models.GalleryImage{TaskID: p.ID, URI: p.Value, DayID: p.DayID})
	}
	return images, nil
}

// Days returns every day of the challenge in order.
func (e *Engine) Days(ctx context.Context) ([]models.Day, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	days, err := e.store.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	return days, nil
}

// TasksForDay returns the mandatory tasks of one day.
func (e *Engine) TasksForDay(ctx context.Context, dayID int) ([]models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.ListTasksByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for day %d: %w", dayID, err)
	}
	return tasks, nil
}

// DayDetails loads a day with its tasks, custom todos and subtasks.
func (e *Engine) DayDetails(ctx context.Context, dayID int) (models.DayDetails, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var details models.DayDetails
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		day, err := q.GetDay(ctx, dayID)
		if err != nil {
			return err
		}
		tasks, err := q.ListTasksByDay(ctx, dayID)
		if err != nil {
			return err
		}
		todos, err := customTodos(ctx, q, dayID)
		if err != nil {
			return err
		}
		details = models.DayDetails{Day: day, Tasks: tasks, CustomTodos: todos}
		return nil
	})
	if err != nil {
		return models.DayDetails{}, fmt.Errorf("failed to load day %d: %w", dayID, err)
	}
	return details, nil
}

// Stats summarises the challenge so far.
func (e *Engine) Stats(ctx context.Context) (models.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	days, err := e.store.ListDays(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	images, err := gallery(ctx, e.store)
	if err != nil {
		return models.Stats{}, err
	}

	stats := models.Stats{
		TotalPhotos: len(images),
		CurrentDay:  e.currentDay,
		Streak:      Streak(days),
	}
	for _, d := range days {
		switch d.Status {
		case models.DayCompleted:
			stats.CompletedDays++
		case models.DayFailed:
			stats.FailedDays++
		}
	}
	return stats, nil
}
