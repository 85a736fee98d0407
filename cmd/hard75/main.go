package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/cli/backups"
	"github.com/julianstephens/hard75/internal/cli/days"
	"github.com/julianstephens/hard75/internal/cli/system"
	"github.com/julianstephens/hard75/internal/cli/todos"
	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/storage/postgres"
	"github.com/julianstephens/hard75/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path, PostgreSQL connection string without a password, or 'keyring'." env:"HARD75_CONFIG" default:"${default_config}"`
	Timezone string `help:"IANA timezone that decides when a day ends." env:"HARD75_TIMEZONE" default:"Local"`
	Debug    bool   `help:"Log debug output to stderr." env:"HARD75_DEBUG"`

	Init     system.InitCmd   `cmd:"" help:"Initialize hard75 storage."`
	Doctor   system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Start    days.StartCmd    `cmd:"" help:"Start a new 75-day challenge."`
	Restart  days.RestartCmd  `cmd:"" help:"Start over from day 1 today."`
	Today    days.TodayCmd    `cmd:"" help:"Show the current day."`
	Toggle   days.ToggleCmd   `cmd:"" help:"Toggle one of today's tasks."`
	Complete days.CompleteCmd `cmd:"" help:"Complete one of today's tasks with a value."`
	Journal  struct {
		Show days.JournalShowCmd `cmd:"" help:"Show today's journal entry." default:"1"`
		Set  days.JournalSetCmd  `cmd:"" help:"Write today's journal entry."`
	} `cmd:"" help:"Read or write the current day's journal."`
	Path    days.PathCmd    `cmd:"" help:"Show all 75 days and their status."`
	Day     days.DayCmd     `cmd:"" help:"Show one day in full."`
	Gallery days.GalleryCmd `cmd:"" help:"List progress pictures."`
	Stats   days.StatsCmd   `cmd:"" help:"Show challenge statistics."`
	Todo    struct {
		Add    todos.TodoAddCmd    `cmd:"" help:"Add a custom todo to the current day."`
		List   todos.TodoListCmd   `cmd:"" help:"List custom todos." default:"1"`
		Toggle todos.TodoToggleCmd `cmd:"" help:"Toggle a custom todo."`
		Delete todos.TodoDeleteCmd `cmd:"" help:"Delete a custom todo and its subtasks."`
	} `cmd:"" help:"Manage custom todos."`
	Subtask struct {
		Add    todos.SubtaskAddCmd    `cmd:"" help:"Add a subtask to a custom todo."`
		Toggle todos.SubtaskToggleCmd `cmd:"" help:"Toggle a subtask."`
		Delete todos.SubtaskDeleteCmd `cmd:"" help:"Delete a subtask."`
	} `cmd:"" help:"Manage subtasks of custom todos."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check the OS keyring." default:"1"`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" help:"Manage PostgreSQL credentials in the OS keyring."`
}

// skipsLoad lists commands that open storage themselves or never touch it.
var skipsLoad = []string{"init", "doctor", "keyring", "backup restore"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("75-day challenge tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir(CLI.Config)}); err != nil {
		errors.Fatal(err)
	}

	clock, err := utils.NewSystemClock(CLI.Timezone)
	if err != nil {
		errors.Fatal(err)
	}
	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	appCtx := cli.NewContext(store, clock)
	command := ctx.Command()
	if !skips(command) {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); err == nil {
		err = cerr
	}
	errors.Fatal(err)
	_ = logger.Close()
}

func skips(command string) bool {
	for _, prefix := range skipsLoad {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}

// configDir is where logs go: next to a SQLite database, else the default
// config directory.
func configDir(config string) string {
	if config == cli.KeyringConfig || postgres.IsConnString(config) || strings.Contains(config, "host=") {
		return filepath.Dir(kong.ExpandPath(constants.DefaultConfigPath))
	}
	return filepath.Dir(kong.ExpandPath(config))
}
