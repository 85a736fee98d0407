package system

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/migration"
	"github.com/julianstephens/hard75/migrations"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(ctx *cli.Context) error
	warning bool
	needsDB bool
}

var errSkipped = errors.New("not applicable")

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", run: checkSchemaVersion, needsDB: true},
		{name: "Challenge integrity", run: checkIntegrity, needsDB: true},
		{name: "Backups present", run: checkBackupsPresent, warning: true},
	}

	failed := 0
	reachable := true
	for _, c := range checks {
		if c.needsDB && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			ctx.Printf("⊘ %s: SKIPPED (%v)\n", c.name, err)
		case c.warning:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   %s\n", strings.ReplaceAll(err.Error(), "\n", "\n   "))
			failed++
			if c.name == "Database reachable" {
				reachable = false
			}
		}
	}

	ctx.Println()
	if failed > 0 {
		return fmt.Errorf("%d diagnostic check(s) failed", failed)
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	_, err := ctx.Store.ListDays(context.Background())
	return err
}

func checkSchemaVersion(ctx *cli.Context) error {
	dbs, ok := ctx.Store.(interface{ GetDB() *sql.DB })
	if !ok || dbs.GetDB() == nil {
		return fmt.Errorf("%w: store does not expose its connection", errSkipped)
	}
	dir := "postgres"
	if ctx.IsSQLite() {
		dir = "sqlite"
	}
	sub, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return err
	}

	runner := migration.NewRunner(dbs.GetDB(), sub)
	current, err := runner.CurrentVersion(context.Background())
	if err != nil {
		return err
	}
	latest, err := runner.LatestVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema version %d, latest is %d", current, latest)
	}
	return nil
}

func checkIntegrity(ctx *cli.Context) error {
	problems, err := ctx.Engine().Verify(context.Background())
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "\n"))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return fmt.Errorf("%w: PostgreSQL store", errSkipped)
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	list, err := mgr.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.Dir())
	}
	return nil
}
