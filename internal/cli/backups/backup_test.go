package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/hard75/internal/challenge"
	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/storage/postgres"
	"github.com/julianstephens/hard75/internal/storage/sqlite"
	"github.com/julianstephens/hard75/internal/utils"
)

func setupTestBackupDB(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store, utils.NewFixedClock("2026-03-01"))
	ctx.Out = out
	ctx.Err = out
	t.Cleanup(func() { ctx.Close() })
	return ctx, out, dbPath
}

func firstDayDate(t *testing.T, dbPath string) string {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	defer store.Close()
	day, err := store.GetDay(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDay failed: %v", err)
	}
	return day.Date
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out, _ := setupTestBackupDB(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("expected empty list, got %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "Backup created: hard75-") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 total") {
		t.Errorf("expected one backup listed, got %q", out.String())
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, out, dbPath := setupTestBackupDB(t)
	bg := context.Background()

	engine := challenge.New(ctx.Store, ctx.Clock)
	if err := engine.StartChallenge(bg, "2026-03-01"); err != nil {
		t.Fatalf("StartChallenge failed: %v", err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created:"))

	if err := engine.StartChallenge(bg, "2026-05-01"); err != nil {
		t.Fatalf("StartChallenge failed: %v", err)
	}

	t.Run("declined", func(t *testing.T) {
		out.Reset()
		ctx.Confirm = func(string) (bool, error) { return false, nil }
		if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if !strings.Contains(out.String(), "Restore cancelled.") {
			t.Errorf("expected cancellation, got %q", out.String())
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		out.Reset()
		if err := (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(ctx); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if !strings.Contains(out.String(), "Database restored successfully") {
			t.Errorf("unexpected output: %q", out.String())
		}
		if got := firstDayDate(t, dbPath); got != "2026-03-01" {
			t.Errorf("expected restored start date 2026-03-01, got %s", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx)
		if err == nil || !strings.Contains(err.Error(), "backup file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

func TestBackupCmds_PostgresUnsupported(t *testing.T) {
	ctx := cli.NewContext(postgres.New("postgres://localhost/hard75"), utils.NewFixedClock("2026-03-01"))

	if err := (&BackupCreateCmd{}).Run(ctx); err != errNotSQLite {
		t.Errorf("expected errNotSQLite, got %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != errNotSQLite {
		t.Errorf("expected errNotSQLite, got %v", err)
	}
}
