package habits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/validation"
)

type LogCmd struct {
	Habit      string `arg:"" help:"Habit title or ID."`
	Value      string `arg:"" optional:"" help:"Value to log: a duration (45m), a rating, a number, or true/false."`
	Date       string `help:"Day to log: YYYY-MM-DD, today or yesterday." default:"today"`
	Note       string `help:"Optional note for this entry."`
	Incomplete bool   `help:"Record a checkmark habit as not done."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	if habit.Archived {
		return fmt.Errorf("habit %q is archived", habit.Title)
	}

	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	day, err := cli.ParseDay(cal, c.Date)
	if err != nil {
		return err
	}

	entry, err := cli.ParseEntryValue(habit, c.Value, c.Incomplete)
	if err != nil {
		return err
	}
	if err := validation.ValidateEntry(habit, entry); err != nil {
		return err
	}
	entry.ID = uuid.New().String()
	entry.HabitID = habit.ID
	entry.Date = day
	entry.Note = c.Note
	entry.UpdatedAt = ctx.Now()

	stored, err := ctx.Store.UpsertHabitEntry(entry)
	if err != nil {
		return fmt.Errorf("failed to log %q: %w", habit.Title, err)
	}

	if cal.SameDay(day, cal.Today()) {
		ctx.NotifyDaemon(func(c context.Context, d cli.Daemon) error { return d.Logged(c, habit.ID) })
	}

	ctx.Printf("Logged %s for %s: %s\n", habit.Title, day.Format(constants.DateFormat), cli.FormatEntryValue(habit, stored))

	entries, err := ctx.Store.GetHabitEntriesForHabit(habit.ID)
	if err != nil {
		return err
	}
	progress := ctx.Evaluator(cal).GoalProgress(habit, entries, cal.Now())
	if progress.HasGoal {
		ctx.Printf("Goal: %s / %s this %s (%s)\n",
			cli.FormatAmount(habit, progress.Raw),
			cli.FormatAmount(habit, progress.Target),
			habit.Goal().Frequency.Unit(1),
			metrics.FormatPercent(progress.Rate),
		)
	}
	return nil
}

type UnlogCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Date  string `help:"Day to clear: YYYY-MM-DD, today or yesterday." default:"today"`
}

func (c *UnlogCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	day, err := cli.ParseDay(cal, c.Date)
	if err != nil {
		return err
	}

	if err := ctx.Store.DeleteHabitEntry(habit.ID, day); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no entry for %q on %s", habit.Title, day.Format(constants.DateFormat))
		}
		return err
	}
	ctx.Printf("Removed entry for %s on %s\n", habit.Title, day.Format(constants.DateFormat))
	return nil
}

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(false)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	now := cal.Now()
	today, err := ctx.Store.GetHabitEntriesForDay(cal.Today())
	if err != nil {
		return err
	}
	todayByHabit := make(map[string]models.HabitEntry, len(today))
	for _, e := range today {
		todayByHabit[e.HabitID] = e
	}
	byHabit, err := storage.NewEntryStore(ctx.Store).EntriesByHabit(habits)
	if err != nil {
		return err
	}

	eval := ctx.Evaluator(cal)
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		status, value := "[ ]", cli.MutedStyle.Render("-")
		if e, ok := todayByHabit[h.ID]; ok {
			status = cli.SuccessStyle.Render("[x]")
			value = cli.FormatEntryValue(h, e)
		}

		goal := cli.MutedStyle.Render("no goal")
		progress := eval.GoalProgress(h, byHabit[h.ID], now)
		if progress.HasGoal {
			goal = fmt.Sprintf("%s %s / %s", cli.ProgressBar(progress.Rate),
				cli.FormatAmount(h, progress.Raw), cli.FormatAmount(h, progress.Target))
		}
		streak := goals.StreakLabel(h, eval.CurrentGoalStreak(h, byHabit[h.ID], now))
		if !progress.HasGoal {
			streak = fmt.Sprintf("%d days", eval.CurrentStreak(h, byHabit[h.ID], now))
		}
		rows = append(rows, []string{status, h.Title, value, goal, streak})
	}

	ctx.Println(cli.TitleStyle.Render("Habits for " + cal.Today().Format("Monday, Jan 2")))
	ctx.Println()
	ctx.Printf("%s", cli.RenderTable([]string{"", "Habit", "Today", "Goal", "Streak"}, rows))

	ov := ctx.Metrics(cal).TodayOverview(habits, today, now)
	ctx.Printf("\nLogged: %d/%d\n", ov.Logged, ov.Total)
	return nil
}
