package habits

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/control"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

type ReminderCmd struct {
	Set   ReminderSetCmd   `cmd:"" help:"Set a daily reminder for a habit."`
	Clear ReminderClearCmd `cmd:"" help:"Remove a habit's reminder."`
	List  ReminderListCmd  `cmd:"" help:"List habits with reminders." default:"1"`
}

type ReminderSetCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
	Time  string `arg:"" help:"Reminder time (HH:MM)."`
}

func (c *ReminderSetCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	t, err := models.ParseTimeOfDay(c.Time)
	if err != nil {
		return err
	}

	habit.Reminder = &t
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}
	ctx.NotifyDaemon(resync)

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	ctx.Printf("Reminder for %s set to %s (follow-up after %s)\n", habit.Title, t, settings.FollowUpDelay())
	if !settings.NotificationsEnabled {
		ctx.Println(cli.WarningStyle.Render("Notifications are disabled. Enable them with 'habitual settings set --notifications-enabled'."))
	}
	return nil
}

type ReminderClearCmd struct {
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *ReminderClearCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	if habit.Reminder == nil {
		ctx.Printf("%s has no reminder.\n", habit.Title)
		return nil
	}

	habit.Reminder = nil
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}
	ctx.NotifyDaemon(resync)
	ctx.Printf("Reminder for %s removed\n", habit.Title)
	return nil
}

type ReminderListCmd struct{}

func (c *ReminderListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(false)
	if err != nil {
		return err
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	now := cal.Now()
	states := daemonStates(ctx)

	var rows [][]string
	for _, h := range habits {
		if h.Reminder == nil {
			continue
		}
		next := h.Reminder.On(now, cal.Location())
		if !next.After(now) {
			next = h.Reminder.On(cal.AddDays(now, 1), cal.Location())
		}
		state, ok := states[h.ID]
		if !ok {
			state = "-"
		}
		rows = append(rows, []string{h.Title, h.Reminder.String(), humanize.RelTime(next, now, "ago", "from now"), state})
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		ctx.Println("No reminders set.")
	} else {
		headers := []string{"Habit", "Time", "Next", "State"}
		if states == nil {
			headers, rows = headers[:3], trimColumn(rows, 3)
		}
		ctx.Printf("%s", cli.RenderTable(headers, rows))
	}
	if settings.DailySummaryTime != "" {
		ctx.Printf("\nDaily summary at %s\n", settings.DailySummaryTime)
	}
	if !settings.NotificationsEnabled {
		ctx.Println(cli.WarningStyle.Render("Notifications are disabled."))
	}
	return nil
}

func trimColumn(rows [][]string, n int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r[:n]
	}
	return out
}

// resync asks a running daemon to reload reminders from the store.
func resync(c context.Context, d cli.Daemon) error {
	return d.Resync(c)
}

// daemonStates returns the reminder states reported by a running daemon,
// or nil when none answers.
func daemonStates(ctx *cli.Context) map[string]string {
	if ctx.Daemon == nil {
		return nil
	}
	states, err := ctx.Daemon.States(ctx.Context())
	if err != nil {
		if !errors.Is(err, control.ErrNotRunning) {
			logger.Warn("failed to read reminder states", "err", err)
		}
		return nil
	}
	if states == nil {
		states = map[string]string{}
	}
	return states
}
