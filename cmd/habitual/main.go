package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/settings"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/control"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	DB         string `name:"db" help:"SQLite file path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use the OS keyring or HABITUAL_DB_CONNECTION instead." type:"string"`
	ConfigFile string `name:"config-file" help:"Config file path." env:"HABITUAL_CONFIG" default:"${config_file}"`
	Verbose    bool   `name:"debug" help:"Log debug output to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize habitual storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Debug    system.DebugCmd      `cmd:"" help:"Debug commands for troubleshooting."`
	Validate habits.ValidateCmd   `cmd:"" help:"Validate habits and entries for conflicts."`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits."`
	Log      habits.LogCmd        `cmd:"" help:"Log a habit for a day."`
	Unlog    habits.UnlogCmd      `cmd:"" help:"Remove a logged entry."`
	Today    habits.TodayCmd      `cmd:"" help:"Show today's habits and progress." default:"1"`
	Insights habits.InsightsCmd   `cmd:"" help:"Show completion rates, averages and streaks."`
	Reminder habits.ReminderCmd   `cmd:"" help:"Manage habit reminders."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage secrets in the OS keyring."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the reminder daemon in the foreground."`
	Notify  system.NotifyCmd  `cmd:"" help:"Talk to the running reminder daemon."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with goals, streaks and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_file": constants.DefaultConfigFile,
		},
	)

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		errors.Fatal(err)
	}

	var command string
	if ctx.Selected() != nil {
		command = ctx.Selected().Name
	}
	configPath, err := config.ExpandPath(CLI.ConfigFile)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Verbose || cfg.Logging.Debug,
		ConfigDir: filepath.Dir(configPath),
		Stderr:    command == "serve",
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	store, err := cli.ResolveStore(cfg, CLI.DB)
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	runtimeDir := filepath.Dir(configPath)
	appCtx := &cli.Context{
		Store:      store,
		Config:     cfg,
		ConfigFile: CLI.ConfigFile,
		Ctx:        context.Background(),
		Out:        os.Stdout,
		In:         os.Stdin,
		Daemon:     control.NewClient(runtimeDir),
		RuntimeDir: runtimeDir,
	}

	// init creates the store and doctor reports a failed load itself.
	if command != "init" && command != "doctor" {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
