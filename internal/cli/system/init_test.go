package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/hard75/internal/challenge"
	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage/sqlite"
	"github.com/julianstephens/hard75/internal/utils"
)

func setupTestInitDB(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	out := &bytes.Buffer{}
	ctx := cli.NewContext(sqlite.NewStore(dbPath), utils.NewFixedClock("2026-03-01"))
	ctx.Out = out
	ctx.Err = out
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return ctx, out, dbPath
}

// seedSource creates a started challenge with one custom todo in its own database.
func seedSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")
	store := sqlite.NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	defer store.Close()

	bg := context.Background()
	engine := challenge.New(store, utils.NewFixedClock("2026-02-01"))
	if err := engine.StartChallenge(bg, "2026-02-01"); err != nil {
		t.Fatalf("StartChallenge failed: %v", err)
	}
	if err := engine.EvaluateOnResume(bg); err != nil {
		t.Fatalf("EvaluateOnResume failed: %v", err)
	}
	tasks, err := engine.TasksForDay(bg, 1)
	if err != nil {
		t.Fatalf("TasksForDay failed: %v", err)
	}
	if _, err := engine.SetTaskCompleted(bg, tasks[0].ID, true); err != nil {
		t.Fatalf("SetTaskCompleted failed: %v", err)
	}
	todoID, err := engine.AddCustomTodo(bg, "Stretch", nil)
	if err != nil {
		t.Fatalf("AddCustomTodo failed: %v", err)
	}
	if _, err := engine.AddSubtask(bg, todoID, "Hamstrings"); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	return path
}

func TestInitCmd_Success(t *testing.T) {
	ctx, out, dbPath := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
	if !strings.Contains(out.String(), "Initialized hard75 storage") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, out, _ := setupTestInitDB(t)
	bg := context.Background()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	if err := ctx.Engine().StartChallenge(bg, "2026-03-01"); err != nil {
		t.Fatalf("StartChallenge failed: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted existing database") {
		t.Errorf("expected deletion message, got %q", out.String())
	}
	days, err := ctx.Store.ListDays(bg)
	if err != nil {
		t.Fatalf("ListDays failed: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("expected empty database after --force, got %d days", len(days))
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, _, dbPath := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}

	err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "source and destination are the same") {
		t.Errorf("expected same-source error, got %v", err)
	}
}

func TestInitCmd_CopiesFromSource(t *testing.T) {
	source := seedSource(t)
	ctx, out, _ := setupTestInitDB(t)
	bg := context.Background()

	if err := (&InitCmd{Source: source}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}
	if !strings.Contains(out.String(), "Copied 75 days, 525 tasks, 1 todos, 1 subtasks") {
		t.Errorf("unexpected copy summary: %q", out.String())
	}

	details, err := ctx.Engine().DayDetails(bg, 1)
	if err != nil {
		t.Fatalf("DayDetails failed: %v", err)
	}
	if details.Day.Date != "2026-02-01" || details.Day.Status != models.DayActive {
		t.Errorf("unexpected day 1: %+v", details.Day)
	}
	done := 0
	for _, task := range details.Tasks {
		if task.Completed {
			done++
		}
	}
	if done != 1 {
		t.Errorf("expected 1 completed task copied, got %d", done)
	}
	if len(details.CustomTodos) != 1 || len(details.CustomTodos[0].Subtasks) != 1 {
		t.Errorf("expected todo with subtask copied, got %+v", details.CustomTodos)
	}
}
