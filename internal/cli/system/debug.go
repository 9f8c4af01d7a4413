package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	herrors "github.com/julianstephens/habitual/internal/errors"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpHabit    *DebugDumpHabitCmd    `cmd:"" help:"Dump a habit and its entries as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
}

func (cmd *DebugCmd) print(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return (*DebugCmd)(nil).print(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpHabitCmd struct {
	Habit   string `arg:"" help:"Habit title or ID."`
	Entries bool   `help:"Include every entry." default:"true" negatable:""`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(cmd.Habit)
	if err != nil {
		if herrors.IsNotFound(err) {
			return fmt.Errorf("no habit found: %s", cmd.Habit)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	out := map[string]any{"habit": habit}
	if cmd.Entries {
		entries, err := ctx.Store.GetHabitEntriesForHabit(habit.ID)
		if err != nil {
			return fmt.Errorf("failed to get entries: %w", err)
		}
		out["entries"] = entries
	}
	return (*DebugCmd)(nil).print(ctx, out)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return (*DebugCmd)(nil).print(ctx, settings)
}
