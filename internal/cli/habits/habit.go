package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/validation"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Show    HabitShowCmd    `cmd:"" help:"Show a habit with its goal progress and streaks."`
	History HabitHistoryCmd `cmd:"" help:"Show habit history (ASCII grid)."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and all of its entries."`
}

type HabitAddCmd struct {
	Title     string  `arg:"" help:"Habit title."`
	Type      string  `help:"Habit kind: boolean, duration, rating or numeric." default:"boolean" enum:"boolean,duration,rating,numeric"`
	Target    string  `help:"Goal target per period. Durations accept 30m, 1h30m. Empty or 0 disables the goal."`
	Frequency string  `help:"Goal period: daily, weekly or monthly." default:"daily" enum:"daily,weekly,monthly"`
	Min       float64 `help:"Lowest rating or value."`
	Max       float64 `help:"Highest rating or value."`
	Unit      string  `help:"Unit label for numeric habits."`
	Color     string  `help:"Display color." default:"blue"`
	Icon      string  `help:"Display icon."`
	Reminder  string  `help:"Daily reminder time (HH:MM)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	title := strings.TrimSpace(c.Title)
	if _, err := ctx.Store.GetHabitByTitle(title); err == nil {
		return fmt.Errorf("habit with title %q already exists", title)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	habitType, err := cli.HabitTypeSpec{
		Kind:      c.Type,
		Target:    c.Target,
		Frequency: c.Frequency,
		Min:       c.Min,
		Max:       c.Max,
		Unit:      c.Unit,
	}.Build()
	if err != nil {
		return err
	}

	sortIndex, err := ctx.Store.NextSortIndex()
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:        uuid.New().String(),
		Title:     title,
		Type:      habitType,
		Color:     c.Color,
		Icon:      c.Icon,
		CreatedAt: ctx.Now(),
		SortIndex: sortIndex,
	}
	if c.Reminder != "" {
		t, err := models.ParseTimeOfDay(c.Reminder)
		if err != nil {
			return err
		}
		habit.Reminder = &t
	}
	if err := habit.Validate(); err != nil {
		return err
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}
	if habit.Reminder != nil {
		ctx.NotifyDaemon(resync)
	}

	ctx.Printf("Added habit: %s (%s, %s)\n", habit.Title, habit.Type.DisplayName(), cli.FormatGoal(habit))
	return nil
}

type HabitEditCmd struct {
	Habit     string   `arg:"" help:"Habit title or ID."`
	Title     string   `help:"New title."`
	Target    *string  `help:"New goal target. 0 disables the goal."`
	Frequency string   `help:"New goal period: daily, weekly or monthly."`
	Min       *float64 `help:"New lowest rating or value."`
	Max       *float64 `help:"New highest rating or value."`
	Unit      *string  `help:"New unit label for numeric habits."`
	Color     string   `help:"New display color."`
	Icon      *string  `help:"New display icon."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Title != "" && !strings.EqualFold(c.Title, habit.Title) {
		if _, err := ctx.Store.GetHabitByTitle(c.Title); err == nil {
			return fmt.Errorf("habit with title %q already exists", c.Title)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	if c.Title != "" {
		habit.Title = strings.TrimSpace(c.Title)
	}

	goal := habit.Goal()
	if c.Target != nil {
		target, err := cli.ParseTarget(habit.Type.Kind, *c.Target)
		if err != nil {
			return err
		}
		goal.Target = target
	}
	if c.Frequency != "" {
		freq, err := models.ParseFrequency(strings.ToLower(c.Frequency))
		if err != nil {
			return err
		}
		goal.Frequency = freq
	}
	habit.Type = habit.Type.WithGoal(goal)

	switch habit.Type.Kind {
	case models.KindRating:
		if c.Min != nil {
			habit.Type.Rating.Min = int(*c.Min)
		}
		if c.Max != nil {
			habit.Type.Rating.Max = int(*c.Max)
		}
	case models.KindNumeric:
		if c.Min != nil {
			habit.Type.Numeric.Min = *c.Min
		}
		if c.Max != nil {
			habit.Type.Numeric.Max = *c.Max
		}
		if c.Unit != nil {
			habit.Type.Numeric.Unit = *c.Unit
		}
	default:
		if c.Min != nil || c.Max != nil || c.Unit != nil {
			return fmt.Errorf("%s habits have no range or unit", habit.Type.Kind)
		}
	}

	if c.Color != "" {
		habit.Color = c.Color
	}
	if c.Icon != nil {
		habit.Icon = *c.Icon
	}

	if err := habit.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s\n", habit.Title)
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(c.Archived)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		reminder := "-"
		if h.Reminder != nil {
			reminder = h.Reminder.String()
		}
		title := h.Title
		if h.Archived {
			title += cli.MutedStyle.Render(" [ARCHIVED]")
		}
		rows = append(rows, []string{title, h.Type.DisplayName(), cli.FormatGoal(h), reminder, shortID(h.ID)})
	}
	ctx.Printf("%s", cli.RenderTable([]string{"Habit", "Type", "Goal", "Reminder", "ID"}, rows))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Days  int    `help:"Number of recent entries to show." default:"7"`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	entries, err := storage.NewEntryStore(ctx.Store).EntriesForHabit(habit.ID)
	if err != nil {
		return err
	}

	eval := ctx.Evaluator(cal)
	now := cal.Now()
	progress := eval.GoalProgress(habit, entries, now)

	ctx.Println(cli.TitleStyle.Render(habit.Title))
	ctx.Printf("  Type:      %s\n", habit.Type.DisplayName())
	ctx.Printf("  Goal:      %s\n", cli.FormatGoal(habit))
	if habit.Reminder != nil {
		ctx.Printf("  Reminder:  %s\n", habit.Reminder)
	}
	if habit.Archived {
		ctx.Printf("  Status:    %s\n", cli.WarningStyle.Render("archived"))
	}
	if progress.HasGoal {
		ctx.Printf("  Progress:  %s %s\n", cli.ProgressBar(progress.Rate), metrics.FormatPercent(progress.Rate))
		ctx.Printf("  Goal streak: %s\n", goals.StreakLabel(habit, eval.CurrentGoalStreak(habit, entries, now)))
	}
	ctx.Printf("  Day streak:  %d\n", eval.CurrentStreak(habit, entries, now))

	if len(entries) == 0 || c.Days <= 0 {
		return nil
	}
	ctx.Println()
	ctx.Println(cli.HeaderStyle.Render("Recent entries"))
	start := len(entries) - c.Days
	if start < 0 {
		start = 0
	}
	for i := len(entries) - 1; i >= start; i-- {
		e := entries[i]
		line := fmt.Sprintf("  %s  %s", e.Date.Format(constants.DateFormat), cli.FormatEntryValue(habit, e))
		if e.Note != "" {
			line += cli.MutedStyle.Render("  " + e.Note)
		}
		ctx.Println(line)
	}
	return nil
}

type HabitHistoryCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show history for a specific habit only."`
}

func (c *HabitHistoryCmd) Run(ctx *cli.Context) error {
	var selected []models.Habit
	if c.Habit != "" {
		h, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		habits, err := ctx.Store.GetAllHabits(false)
		if err != nil {
			return err
		}
		selected = habits
	}
	if len(selected) == 0 {
		ctx.Println("No habits found.")
		return nil
	}
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	endDay := cal.Today()
	startDay := cal.AddDays(endDay, -(c.Days - 1))

	ctx.Printf("Habit history (last %d days):\n\n", c.Days)

	const nameWidth = 20
	var header strings.Builder
	header.WriteString(strings.Repeat(" ", nameWidth))
	for i := 0; i < c.Days; i++ {
		fmt.Fprintf(&header, " %5s", cal.AddDays(startDay, i).Format("01/02"))
	}
	ctx.Println(header.String())
	ctx.Println(strings.Repeat("-", nameWidth+6*c.Days))

	for _, habit := range selected {
		name := habit.Title
		if len(name) > nameWidth {
			name = name[:nameWidth-3] + "..."
		}
		line := name + strings.Repeat(" ", nameWidth-len(name))

		entries, err := ctx.Store.GetHabitEntriesInRange(habit.ID, startDay, cal.AddDays(endDay, 1))
		if err != nil {
			return err
		}
		done := make(map[string]bool, len(entries))
		for _, e := range entries {
			done[e.Date.Format(constants.DateFormat)] = true
		}
		for i := 0; i < c.Days; i++ {
			if done[cal.AddDays(startDay, i).Format(constants.DateFormat)] {
				line += "  x   "
			} else {
				line += "  .   "
			}
		}
		ctx.Println(line)
	}
	return nil
}

type HabitArchiveCmd struct {
	Habit     string `arg:"" help:"Habit title or ID to archive."`
	Unarchive bool   `help:"Unarchive the habit instead."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Unarchive {
		if err := ctx.Store.UnarchiveHabit(habit.ID); err != nil {
			return err
		}
		ctx.NotifyDaemon(resync)
		ctx.Printf("Unarchived habit: %s\n", habit.Title)
		return nil
	}

	if err := ctx.Store.ArchiveHabit(habit.ID); err != nil {
		return err
	}
	ctx.NotifyDaemon(resync)
	ctx.Printf("Archived habit: %s\n", habit.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit title or ID to delete."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %q and all of its entries?", habit.Title))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}
	ctx.NotifyDaemon(resync)
	ctx.Printf("Deleted habit: %s\n", habit.Title)
	return nil
}

// ValidateCmd reports integrity problems in stored habits and entries.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true)
	if err != nil {
		return err
	}
	var entries []models.HabitEntry
	for _, h := range habits {
		es, err := ctx.Store.GetHabitEntriesForHabit(h.ID)
		if err != nil {
			return err
		}
		entries = append(entries, es...)
	}

	v := validation.New()
	result := v.ValidateHabits(habits)
	entryResult := v.ValidateEntries(habits, entries)
	result.Conflicts = append(result.Conflicts, entryResult.Conflicts...)

	ctx.Printf("%s", result.FormatReport())
	if !strings.HasSuffix(result.FormatReport(), "\n") {
		ctx.Println()
	}
	if result.HasConflicts() {
		return fmt.Errorf("found %d conflict(s)", len(result.Conflicts))
	}
	return nil
}
