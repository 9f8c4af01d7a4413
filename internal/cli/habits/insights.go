package habits

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

type InsightsCmd struct {
	Habit     string `arg:"" optional:"" help:"Limit insights to one habit (title or ID)."`
	Timeframe string `help:"Look-back window: week, month, quarter or year." default:"week" enum:"week,month,quarter,year"`
	Top       int    `help:"Number of habits in the streak leaderboard (0 for all)." default:"5"`
}

func (c *InsightsCmd) Run(ctx *cli.Context) error {
	tf, err := metrics.ParseTimeframe(c.Timeframe)
	if err != nil {
		return err
	}

	var habits []models.Habit
	if c.Habit != "" {
		h, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	} else if habits, err = ctx.Store.GetAllHabits(false); err != nil {
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
	byHabit, err := storage.NewEntryStore(ctx.Store).EntriesByHabit(habits)
	if err != nil {
		return err
	}

	now := cal.Now()
	days := tf.Days()
	fmtr := ctx.Metrics(cal)
	eval := ctx.Evaluator(cal)

	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		entries := byHabit[h.ID]
		summary := fmtr.Summarize(h, entries, days, now)
		rate := fmtr.CompletionRate(h, entries, days, now)
		streak := cli.MutedStyle.Render("-")
		if h.Goal().Enabled() {
			streak = goals.StreakLabel(h, eval.CurrentGoalStreak(h, entries, now))
		}
		rows = append(rows, []string{
			h.Title,
			summary.Value + " " + cli.MutedStyle.Render(summary.Caption),
			metrics.FormatPercent(rate),
			streak,
		})
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Insights for the last %d days", days)))
	ctx.Println()
	ctx.Printf("%s", cli.RenderTable([]string{"Habit", "Summary", "Completion", "Goal streak"}, rows))

	if len(habits) < 2 {
		return nil
	}
	ctx.Println()
	ctx.Println(cli.HeaderStyle.Render("Top streaks"))
	for i, s := range eval.Leaderboard(habits, byHabit, now, c.Top) {
		ctx.Printf("  %d. %s  %s, %d day(s)\n", i+1, s.Habit.Title, goals.StreakLabel(s.Habit, s.GoalStreak), s.DayStreak)
	}
	return nil
}
