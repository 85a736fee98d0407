package challenge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/storage/sqlite"
	"github.com/julianstephens/hard75/internal/utils"
)

const startDate = "2024-01-01"

func setupTestEngine(t *testing.T) (*Engine, *sqlite.Store, *utils.FixedClock) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	clock := utils.NewFixedClock(startDate)
	return New(store, clock), store, clock
}

func startTestChallenge(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.StartChallenge(context.Background(), startDate); err != nil {
		t.Fatalf("StartChallenge failed: %v", err)
	}
}

func taskOfType(t *testing.T, e *Engine, dayID int, taskType models.TaskType) models.Task {
	t.Helper()
	tasks, err := e.TasksForDay(context.Background(), dayID)
	if err != nil {
		t.Fatalf("TasksForDay failed: %v", err)
	}
	for _, task := range tasks {
		if task.Type == taskType {
			return task
		}
	}
	t.Fatalf("day %d has no %s task", dayID, taskType)
	return models.Task{}
}

// finishTask marks task done the way a participant would: pictures need a
// file reference, everything else is ticked off.
func finishTask(t *testing.T, e *Engine, task models.Task) models.Day {
	t.Helper()
	ctx := context.Background()
	var (
		day models.Day
		err error
	)
	if task.Type == models.TaskPic {
		day, err = e.CompleteTaskWithValue(ctx, task.ID, fmt.Sprintf("file:///photos/day%d.jpg", task.DayID))
	} else {
		day, err = e.SetTaskCompleted(ctx, task.ID, true)
	}
	if err != nil {
		t.Fatalf("completing %s task %d failed: %v", task.Type, task.ID, err)
	}
	return day
}

// completeDay finishes every incomplete task of the day and returns the day.
func completeDay(t *testing.T, e *Engine, dayID int) models.Day {
	t.Helper()
	tasks, err := e.TasksForDay(context.Background(), dayID)
	if err != nil {
		t.Fatalf("TasksForDay failed: %v", err)
	}
	var day models.Day
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		day = finishTask(t, e, task)
	}
	return day
}

func dayStatus(t *testing.T, store storage.Queries, id int) models.DayStatus {
	t.Helper()
	day, err := store.GetDay(context.Background(), id)
	if err != nil {
		t.Fatalf("GetDay(%d) failed: %v", id, err)
	}
	return day.Status
}

func assertSingleActive(t *testing.T, e *Engine) {
	t.Helper()
	days, err := e.Days(context.Background())
	if err != nil {
		t.Fatalf("Days failed: %v", err)
	}
	active := 0
	for _, d := range days {
		if d.Status == models.DayActive {
			active++
		}
	}
	if active > 1 {
		t.Errorf("expected at most one active day, got %d", active)
	}
}

func TestStartChallengeSeeds(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	days, err := e.Days(ctx)
	if err != nil {
		t.Fatalf("Days failed: %v", err)
	}
	if len(days) != constants.ChallengeDays {
		t.Fatalf("expected %d days, got %d", constants.ChallengeDays, len(days))
	}

	totalTasks := 0
	for i, day := range days {
		if day.ID != i+1 {
			t.Errorf("expected day id %d, got %d", i+1, day.ID)
		}
		want, _ := utils.AddDays(startDate, i)
		if day.Date != want {
			t.Errorf("day %d: expected date %s, got %s", day.ID, want, day.Date)
		}
		wantStatus := models.DayLocked
		if day.ID == 1 {
			wantStatus = models.DayActive
		}
		if day.Status != wantStatus {
			t.Errorf("day %d: expected %s, got %s", day.ID, wantStatus, day.Status)
		}

		tasks, err := store.ListTasksByDay(ctx, day.ID)
		if err != nil {
			t.Fatalf("ListTasksByDay failed: %v", err)
		}
		types := map[models.TaskType]bool{}
		for _, task := range tasks {
			types[task.Type] = true
			if task.Completed {
				t.Errorf("day %d: task %s seeded as completed", day.ID, task.Type)
			}
		}
		if len(tasks) != len(models.DailyTasks) || len(types) != len(models.DailyTasks) {
			t.Errorf("day %d: expected the %d task types once each, got %d tasks", day.ID, len(models.DailyTasks), len(tasks))
		}
		totalTasks += len(tasks)
	}
	if totalTasks != 525 {
		t.Errorf("expected 525 tasks, got %d", totalTasks)
	}
	if e.CurrentDayID() != 1 {
		t.Errorf("expected current day 1, got %d", e.CurrentDayID())
	}
}

func TestStartChallengeRejectsInvalidDate(t *testing.T) {
	e, _, _ := setupTestEngine(t)
	for _, date := range []string{"", "2024-02-30", "Jan 1"} {
		if err := e.StartChallenge(context.Background(), date); !errors.Is(err, apperrors.ErrInvalidDate) {
			t.Errorf("StartChallenge(%q): expected ErrInvalidDate, got %v", date, err)
		}
	}
}

func TestStartChallengeIsAtomic(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)
	water := taskOfType(t, e, 1, models.TaskWater)
	if _, err := e.ToggleTask(ctx, water.ID); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}

	faulty := &faultyStore{Store: store, failInsertTaskAt: 300}
	broken := New(faulty, utils.NewFixedClock(startDate))
	if err := broken.StartChallenge(ctx, "2024-06-01"); !errors.Is(err, apperrors.ErrStorageFault) {
		t.Fatalf("expected ErrStorageFault, got %v", err)
	}

	days, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays failed: %v", err)
	}
	if len(days) != constants.ChallengeDays || days[0].Date != startDate {
		t.Fatalf("expected previous challenge to survive, got %d days starting %v", len(days), days)
	}
	task, err := store.GetTask(ctx, water.ID)
	if err != nil {
		t.Fatalf("expected previous task to survive: %v", err)
	}
	if !task.Completed {
		t.Error("expected previous task state to survive")
	}
}

func TestDerivedStatusScenario(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	water := taskOfType(t, e, 1, models.TaskWater)
	day, err := e.ToggleTask(ctx, water.ID)
	if err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if day.Status != models.DayActive {
		t.Errorf("expected day 1 active after one task, got %s", day.Status)
	}

	day = completeDay(t, e, 1)
	if day.Status != models.DayCompleted {
		t.Errorf("expected day 1 completed, got %s", day.Status)
	}
	if got := dayStatus(t, store, 1); got != models.DayCompleted {
		t.Errorf("expected stored day 1 completed, got %s", got)
	}
	if got := dayStatus(t, store, 2); got != models.DayLocked {
		t.Errorf("expected day 2 still locked, got %s", got)
	}
	if e.CurrentDayID() != 1 {
		t.Errorf("expected current day to stay 1, got %d", e.CurrentDayID())
	}
	assertSingleActive(t, e)

	// Completed the same day, the day stays open and can be undone.
	day, err = e.ToggleTask(ctx, water.ID)
	if err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if day.Status != models.DayActive {
		t.Errorf("expected day 1 active again, got %s", day.Status)
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	// Six of seven done: the last toggle pair crosses the completed boundary.
	for _, dt := range models.DailyTasks[1:] {
		finishTask(t, e, taskOfType(t, e, 1, dt.Type))
	}
	last := taskOfType(t, e, 1, models.DailyTasks[0].Type)

	before := dayStatus(t, store, 1)
	if _, err := e.ToggleTask(ctx, last.ID); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if dayStatus(t, store, 1) != models.DayCompleted {
		t.Fatal("expected day to complete after seventh task")
	}
	if _, err := e.ToggleTask(ctx, last.ID); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}

	task, err := store.GetTask(ctx, last.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Completed != last.Completed {
		t.Errorf("expected completed=%v, got %v", last.Completed, task.Completed)
	}
	if after := dayStatus(t, store, 1); after != before {
		t.Errorf("expected day status %s, got %s", before, after)
	}
}

func TestSetTaskCompletedIsIdempotent(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	read := taskOfType(t, e, 1, models.TaskRead)
	for i := 0; i < 3; i++ {
		if _, err := e.SetTaskCompleted(ctx, read.ID, true); err != nil {
			t.Fatalf("SetTaskCompleted failed: %v", err)
		}
	}
	task, _ := store.GetTask(ctx, read.ID)
	if !task.Completed {
		t.Error("expected task to be completed")
	}
}

func TestEvaluateOnResume(t *testing.T) {
	t.Run("no challenge", func(t *testing.T) {
		e, _, _ := setupTestEngine(t)
		if err := e.EvaluateOnResume(context.Background()); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if e.CurrentDayID() != 0 {
			t.Errorf("expected unset pointer, got %d", e.CurrentDayID())
		}
		if _, err := e.GetJournal(context.Background()); !errors.Is(err, apperrors.ErrNoActiveChallenge) {
			t.Errorf("expected ErrNoActiveChallenge, got %v", err)
		}
	})

	t.Run("same day keeps active day", func(t *testing.T) {
		e, store, _ := setupTestEngine(t)
		startTestChallenge(t, e)
		fresh := New(e.store, utils.NewFixedClock(startDate))
		if err := fresh.EvaluateOnResume(context.Background()); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if fresh.CurrentDayID() != 1 || dayStatus(t, store, 1) != models.DayActive {
			t.Errorf("expected day 1 active and current, got pointer %d", fresh.CurrentDayID())
		}
	})

	t.Run("missed day fails and stays failed", func(t *testing.T) {
		e, store, clock := setupTestEngine(t)
		ctx := context.Background()
		startTestChallenge(t, e)

		clock.Advance(1)
		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 1); got != models.DayFailed {
			t.Fatalf("expected day 1 failed, got %s", got)
		}
		if e.CurrentDayID() != 1 {
			t.Errorf("expected pointer on failed day, got %d", e.CurrentDayID())
		}

		day := completeDay(t, e, 1)
		if day.Status != models.DayFailed {
			t.Errorf("expected failed to override derivation, got %s", day.Status)
		}
		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 2); got != models.DayLocked {
			t.Errorf("expected no advance past a failed day, got %s", got)
		}
	})

	t.Run("completed day advances next calendar day", func(t *testing.T) {
		e, store, clock := setupTestEngine(t)
		ctx := context.Background()
		startTestChallenge(t, e)
		completeDay(t, e, 1)

		clock.Advance(1)
		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 2); got != models.DayActive {
			t.Fatalf("expected day 2 active, got %s", got)
		}
		if got := dayStatus(t, store, 1); got != models.DayCompleted {
			t.Errorf("expected day 1 still completed, got %s", got)
		}
		if e.CurrentDayID() != 2 {
			t.Errorf("expected pointer 2, got %d", e.CurrentDayID())
		}
		assertSingleActive(t, e)

		// Day 1 is closed now.
		water := taskOfType(t, e, 1, models.TaskWater)
		if _, err := e.ToggleTask(ctx, water.ID); !errors.Is(err, apperrors.ErrDayClosed) {
			t.Errorf("expected ErrDayClosed, got %v", err)
		}

		// Evaluating again is a no-op.
		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 2); got != models.DayActive {
			t.Errorf("expected day 2 to stay active, got %s", got)
		}
	})

	t.Run("skipped calendar day fails", func(t *testing.T) {
		e, store, clock := setupTestEngine(t)
		ctx := context.Background()
		startTestChallenge(t, e)
		completeDay(t, e, 1)

		clock.Advance(2)
		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 2); got != models.DayFailed {
			t.Errorf("expected day 2 failed, got %s", got)
		}
		if e.CurrentDayID() != 2 {
			t.Errorf("expected pointer 2, got %d", e.CurrentDayID())
		}
	})

	t.Run("same day completion does not advance", func(t *testing.T) {
		e, store, _ := setupTestEngine(t)
		ctx := context.Background()
		startTestChallenge(t, e)
		completeDay(t, e, 1)

		if err := e.EvaluateOnResume(ctx); err != nil {
			t.Fatalf("EvaluateOnResume failed: %v", err)
		}
		if got := dayStatus(t, store, 2); got != models.DayLocked {
			t.Errorf("expected day 2 locked, got %s", got)
		}
		if e.CurrentDayID() != 1 {
			t.Errorf("expected pointer 1, got %d", e.CurrentDayID())
		}
	})
}

func TestFinishingTheChallenge(t *testing.T) {
	e, store, clock := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	for id := 1; id < constants.ChallengeDays; id++ {
		if err := store.UpdateDayStatus(ctx, id, models.DayCompleted); err != nil {
			t.Fatalf("UpdateDayStatus failed: %v", err)
		}
	}
	if err := store.UpdateDayStatus(ctx, constants.ChallengeDays, models.DayActive); err != nil {
		t.Fatalf("UpdateDayStatus failed: %v", err)
	}
	last, _ := utils.AddDays(startDate, constants.ChallengeDays-1)
	clock.Set(last)

	day := completeDay(t, e, constants.ChallengeDays)
	if day.Status != models.DayCompleted {
		t.Fatalf("expected day 75 completed, got %s", day.Status)
	}

	clock.Advance(1)
	if err := e.EvaluateOnResume(ctx); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}
	if got := dayStatus(t, store, constants.ChallengeDays); got != models.DayCompleted {
		t.Errorf("expected day 75 to stay completed, got %s", got)
	}
	if e.CurrentDayID() != constants.ChallengeDays {
		t.Errorf("expected pointer 75, got %d", e.CurrentDayID())
	}

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.CompletedDays != constants.ChallengeDays || stats.Streak != constants.ChallengeDays {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestTaskWriteRejections(t *testing.T) {
	e, _, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	locked := taskOfType(t, e, 2, models.TaskDiet)
	if _, err := e.ToggleTask(ctx, locked.ID); !errors.Is(err, apperrors.ErrDayLocked) {
		t.Errorf("expected ErrDayLocked, got %v", err)
	}
	if _, err := e.ToggleTask(ctx, 999999); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteTaskWithValue(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	pic := taskOfType(t, e, 1, models.TaskPic)
	if _, err := e.CompleteTaskWithValue(ctx, pic.ID, "https://example.com/a.jpg"); !errors.Is(err, apperrors.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := e.CompleteTaskWithValue(ctx, pic.ID, "file:///photos/day1.jpg"); err != nil {
		t.Fatalf("CompleteTaskWithValue failed: %v", err)
	}
	task, _ := store.GetTask(ctx, pic.ID)
	if !task.Completed || task.Value != "file:///photos/day1.jpg" {
		t.Errorf("unexpected pic task: %+v", task)
	}

	workout := taskOfType(t, e, 1, models.TaskWorkoutOutdoor)
	if _, err := e.CompleteTaskWithValue(ctx, workout.ID, "5k run"); err != nil {
		t.Fatalf("CompleteTaskWithValue failed: %v", err)
	}
	task, _ = store.GetTask(ctx, workout.ID)
	if task.Value != "5k run" {
		t.Errorf("expected workout note, got %q", task.Value)
	}
}

func TestPictureTaskNeedsFileToComplete(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	for _, dt := range models.DailyTasks {
		if dt.Type != models.TaskPic {
			finishTask(t, e, taskOfType(t, e, 1, dt.Type))
		}
	}
	pic := taskOfType(t, e, 1, models.TaskPic)

	if _, err := e.ToggleTask(ctx, pic.ID); !errors.Is(err, apperrors.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue from ToggleTask, got %v", err)
	}
	if _, err := e.SetTaskCompleted(ctx, pic.ID, true); !errors.Is(err, apperrors.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue from SetTaskCompleted, got %v", err)
	}
	task, _ := store.GetTask(ctx, pic.ID)
	if task.Completed || task.Value != pic.Value {
		t.Errorf("expected picture task untouched, got %+v", task)
	}
	if got := dayStatus(t, store, 1); got != models.DayActive {
		t.Errorf("expected day 1 to stay active without a picture, got %s", got)
	}
	if images, _ := e.ComputeGallery(ctx); len(images) != 0 {
		t.Errorf("expected empty gallery, got %+v", images)
	}

	// Once a file is recorded the task can be unticked and ticked again.
	if _, err := e.CompleteTaskWithValue(ctx, pic.ID, "file:///photos/day1.jpg"); err != nil {
		t.Fatalf("CompleteTaskWithValue failed: %v", err)
	}
	if _, err := e.ToggleTask(ctx, pic.ID); err != nil {
		t.Fatalf("ToggleTask off failed: %v", err)
	}
	day, err := e.ToggleTask(ctx, pic.ID)
	if err != nil {
		t.Fatalf("ToggleTask on failed: %v", err)
	}
	if day.Status != models.DayCompleted {
		t.Errorf("expected day 1 completed, got %s", day.Status)
	}
	problems, err := e.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestComputeGallery(t *testing.T) {
	e, store, clock := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	pic1 := taskOfType(t, e, 1, models.TaskPic)
	if _, err := e.CompleteTaskWithValue(ctx, pic1.ID, "file:///p/1.jpg"); err != nil {
		t.Fatalf("CompleteTaskWithValue failed: %v", err)
	}
	completeDay(t, e, 1)
	clock.Advance(1)
	if err := e.EvaluateOnResume(ctx); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}

	// Written behind the engine's back: a pic without a local reference.
	pic2 := taskOfType(t, e, 2, models.TaskPic)
	if err := store.CompleteTask(ctx, pic2.ID, "content://media/2"); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	// An incomplete pic with a file value is excluded too.
	pic3 := taskOfType(t, e, 3, models.TaskPic)
	if err := store.CompleteTask(ctx, pic3.ID, "file:///p/3.jpg"); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if err := store.SetTaskCompleted(ctx, pic3.ID, false); err != nil {
		t.Fatalf("SetTaskCompleted failed: %v", err)
	}

	images, err := e.ComputeGallery(ctx)
	if err != nil {
		t.Fatalf("ComputeGallery failed: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %+v", images)
	}
	if images[0].DayID != 1 || images[0].URI != "file:///p/1.jpg" || images[0].TaskID != pic1.ID {
		t.Errorf("unexpected image: %+v", images[0])
	}
}

func TestJournal(t *testing.T) {
	e, _, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	note, err := e.GetJournal(ctx)
	if err != nil {
		t.Fatalf("GetJournal failed: %v", err)
	}
	if note != nil {
		t.Errorf("expected nil note, got %q", *note)
	}

	if err := e.SaveJournal(ctx, ""); err != nil {
		t.Fatalf("SaveJournal failed: %v", err)
	}
	note, _ = e.GetJournal(ctx)
	if note == nil || *note != "" {
		t.Errorf("expected empty non-nil note, got %v", note)
	}

	if err := e.SaveJournal(ctx, "Tough run today"); err != nil {
		t.Fatalf("SaveJournal failed: %v", err)
	}
	note, _ = e.GetJournal(ctx)
	if note == nil || *note != "Tough run today" {
		t.Errorf("unexpected note %v", note)
	}
}

func TestRestartChallenge(t *testing.T) {
	e, store, clock := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	if _, err := e.AddCustomTodo(ctx, "Meditate", nil); err != nil {
		t.Fatalf("AddCustomTodo failed: %v", err)
	}
	clock.Advance(1)
	if err := e.EvaluateOnResume(ctx); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}
	if dayStatus(t, store, 1) != models.DayFailed {
		t.Fatal("expected day 1 failed before restart")
	}

	if err := e.RestartChallenge(ctx); err != nil {
		t.Fatalf("RestartChallenge failed: %v", err)
	}
	days, _ := e.Days(ctx)
	if len(days) != constants.ChallengeDays || days[0].Date != clock.Today() || days[0].Status != models.DayActive {
		t.Errorf("expected fresh challenge starting today, got day 1 = %+v", days[0])
	}
	todos, err := e.CustomTodos(ctx, 1)
	if err != nil {
		t.Fatalf("CustomTodos failed: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected restart to wipe custom todos, got %d", len(todos))
	}
	if e.CurrentDayID() != 1 {
		t.Errorf("expected pointer 1, got %d", e.CurrentDayID())
	}
}

func TestCustomTodos(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()

	if _, err := e.AddCustomTodo(ctx, "Stretch", nil); !errors.Is(err, apperrors.ErrNoActiveChallenge) {
		t.Errorf("expected ErrNoActiveChallenge, got %v", err)
	}
	startTestChallenge(t, e)

	if _, err := e.AddCustomTodo(ctx, "   ", nil); !errors.Is(err, apperrors.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for blank title, got %v", err)
	}

	desc := "after the run"
	todoID, err := e.AddCustomTodo(ctx, "Stretch", &desc)
	if err != nil {
		t.Fatalf("AddCustomTodo failed: %v", err)
	}
	subID, err := e.AddSubtask(ctx, todoID, "hamstrings")
	if err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	if _, err := e.AddSubtask(ctx, todoID, "calves"); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	if _, err := e.AddSubtask(ctx, todoID, ""); !errors.Is(err, apperrors.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for blank subtask, got %v", err)
	}
	if _, err := e.AddSubtask(ctx, 4242, "x"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing todo, got %v", err)
	}

	if err := e.ToggleCustomTodo(ctx, todoID); err != nil {
		t.Fatalf("ToggleCustomTodo failed: %v", err)
	}
	if err := e.ToggleSubtask(ctx, subID); err != nil {
		t.Fatalf("ToggleSubtask failed: %v", err)
	}

	details, err := e.DayDetails(ctx, 1)
	if err != nil {
		t.Fatalf("DayDetails failed: %v", err)
	}
	if len(details.Tasks) != len(models.DailyTasks) {
		t.Errorf("expected %d tasks, got %d", len(models.DailyTasks), len(details.Tasks))
	}
	if len(details.CustomTodos) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(details.CustomTodos))
	}
	todo := details.CustomTodos[0]
	if !todo.Completed || len(todo.Subtasks) != 2 || !todo.Subtasks[0].Completed {
		t.Errorf("unexpected todo: %+v", todo)
	}
	if dayStatus(t, store, 1) != models.DayActive {
		t.Error("custom todos must not affect day status")
	}

	if err := e.DeleteSubtask(ctx, subID); err != nil {
		t.Fatalf("DeleteSubtask failed: %v", err)
	}
	if err := e.DeleteCustomTodo(ctx, todoID); err != nil {
		t.Fatalf("DeleteCustomTodo failed: %v", err)
	}
	subs, err := store.ListSubtasksByTodo(ctx, todoID)
	if err != nil {
		t.Fatalf("ListSubtasksByTodo failed: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected cascade delete, got %d subtasks", len(subs))
	}
	if err := e.ToggleCustomTodo(ctx, todoID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDayDetailsNotFound(t *testing.T) {
	e, _, _ := setupTestEngine(t)
	if _, err := e.DayDetails(context.Background(), 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInconsistentDerivedStateRollsBack(t *testing.T) {
	e, store, _ := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	tasks, _ := e.TasksForDay(ctx, 1)
	for _, task := range tasks[1:] {
		finishTask(t, e, task)
	}

	faulty := &faultyStore{Store: store, failStatus: true}
	broken := New(faulty, utils.NewFixedClock(startDate))
	_, err := broken.ToggleTask(ctx, tasks[0].ID)
	if !errors.Is(err, apperrors.ErrInconsistentDerivedState) {
		t.Fatalf("expected ErrInconsistentDerivedState, got %v", err)
	}
	if !apperrors.Retryable(err) {
		t.Error("expected derived state failure to be retryable")
	}

	task, _ := store.GetTask(ctx, tasks[0].ID)
	if task.Completed {
		t.Error("expected task write to roll back with the status update")
	}
	if dayStatus(t, store, 1) != models.DayActive {
		t.Error("expected day to stay active")
	}
}

func TestStats(t *testing.T) {
	e, _, clock := setupTestEngine(t)
	ctx := context.Background()
	startTestChallenge(t, e)

	pic := taskOfType(t, e, 1, models.TaskPic)
	if _, err := e.CompleteTaskWithValue(ctx, pic.ID, "file:///p/1.jpg"); err != nil {
		t.Fatalf("CompleteTaskWithValue failed: %v", err)
	}
	completeDay(t, e, 1)
	clock.Advance(1)
	if err := e.EvaluateOnResume(ctx); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}
	completeDay(t, e, 2)
	clock.Advance(2)
	if err := e.EvaluateOnResume(ctx); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := models.Stats{CompletedDays: 2, FailedDays: 1, TotalPhotos: 2, CurrentDay: 3, Streak: 0}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}

// faultyStore injects storage faults into transactions on top of a real store.
type faultyStore struct {
	*sqlite.Store
	failStatus       bool
	failInsertTaskAt int
}

func (f *faultyStore) Transaction(ctx context.Context, work func(q storage.Queries) error) error {
	return f.Store.Transaction(ctx, func(q storage.Queries) error {
		return work(&faultyQueries{Queries: q, store: f})
	})
}

type faultyQueries struct {
	storage.Queries
	store   *faultyStore
	inserts int
}

func (q *faultyQueries) UpdateDayStatus(ctx context.Context, id int, status models.DayStatus) error {
	if q.store.failStatus {
		return apperrors.StorageFault("update day status", errors.New("disk I/O error"))
	}
	return q.Queries.UpdateDayStatus(ctx, id, status)
}

func (q *faultyQueries) InsertTask(ctx context.Context, task models.Task) (int64, error) {
	q.inserts++
	if q.store.failInsertTaskAt > 0 && q.inserts >= q.store.failInsertTaskAt {
		return 0, apperrors.StorageFault("insert task", errors.New("disk I/O error"))
	}
	return q.Queries.InsertTask(ctx, task)
}
