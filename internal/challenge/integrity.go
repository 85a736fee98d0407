package challenge

import (
	"context"
	"fmt"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/utils"
)

// Verify walks the stored challenge and reports every rule it breaks.
// An empty result means the data is consistent.
func (e *Engine) Verify(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var problems []string
	err := e.store.Transaction(ctx, func(q storage.Queries) error {
		var err error
		problems, err = verify(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify challenge: %w", err)
	}
	return problems, nil
}

func verify(ctx context.Context, q storage.Queries) ([]string, error) {
	days, err := q.ListDays(ctx)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(days) != constants.ChallengeDays {
		report("expected %d days, found %d", constants.ChallengeDays, len(days))
	}

	active := 0
	seenLocked := false
	for i, d := range days {
		if d.ID != i+1 {
			report("day numbers are not contiguous at position %d (found day %d)", i+1, d.ID)
		}
		if !d.Status.Valid() {
			report("day %d has unknown status %q", d.ID, d.Status)
		}
		if i > 0 {
			if want, err := utils.AddDays(days[0].Date, i); err == nil && d.Date != want {
				report("day %d is dated %s, expected %s", d.ID, d.Date, want)
			}
		}

		switch d.Status {
		case models.DayActive:
			active++
		case models.DayLocked:
			seenLocked = true
		}
		if seenLocked && d.Status != models.DayLocked {
			report("day %d is %s but follows a locked day", d.ID, d.Status)
		}

		tasks, err := q.ListTasksByDay(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		problems = append(problems, verifyTasks(d, tasks)...)
	}
	if active > 1 {
		report("%d days are active, at most one may be", active)
	}
	return problems, nil
}

func verifyTasks(day models.Day, tasks []models.Task) []string {
	var problems []string
	count := make(map[models.TaskType]int, len(models.DailyTasks))
	for _, t := range tasks {
		count[t.Type]++
		if t.Type == models.TaskPic && t.Completed && !IsLocalFileRef(t.Value) {
			problems = append(problems, fmt.Sprintf("day %d picture task is completed without a local file", day.ID))
		}
	}
	for _, dt := range models.DailyTasks {
		if count[dt.Type] != 1 {
			problems = append(problems, fmt.Sprintf("day %d has %d %s tasks, expected 1", day.ID, count[dt.Type], dt.Type))
		}
	}

	derived := DeriveStatus(tasks)
	switch {
	case day.Status == models.DayActive && derived == models.DayCompleted:
		problems = append(problems, fmt.Sprintf("day %d is active but every task is done", day.ID))
	case day.Status == models.DayCompleted && derived != models.DayCompleted:
		problems = append(problems, fmt.Sprintf("day %d is completed but has open tasks", day.ID))
	}
	return problems
}
