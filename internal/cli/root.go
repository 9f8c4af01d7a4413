package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/control"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type Context struct {
	Store      storage.Provider
	Config     *config.Config
	ConfigFile string

	// Ctx is cancelled when the process is interrupted.
	Ctx context.Context

	// Out and In default to stdout and stdin.
	Out io.Writer
	In  io.Reader

	// Clock overrides the wall clock for the calendar.
	Clock func() time.Time

	// Daemon reaches a running `habitual serve`. RuntimeDir is where
	// serve publishes its lockfile.
	Daemon     Daemon
	RuntimeDir string
}

// Daemon is the client side of the serve control channel.
type Daemon interface {
	Logged(ctx context.Context, habitID string) error
	Resync(ctx context.Context) error
	Action(ctx context.Context, req control.ActionRequest) error
	States(ctx context.Context) (map[string]string, error)
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Writer is where command output goes, stdout unless Out is set.
func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// Confirm asks a yes/no question and reports whether the answer was yes.
func (c *Context) Confirm(prompt string) (bool, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	c.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "err", err)
	}
}

// NotifyDaemon passes a change to the running daemon. Without one the
// change is picked up when serve next starts.
func (c *Context) NotifyDaemon(fn func(ctx context.Context, d Daemon) error) {
	if c.Daemon == nil {
		return
	}
	if err := fn(c.Context(), c.Daemon); err != nil && !errors.Is(err, control.ErrNotRunning) {
		logger.Warn("failed to notify reminder daemon", "err", err)
	}
}

func (c *Context) Now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Calendar builds the calendar from the stored timezone and week start.
func (c *Context) Calendar() (*periods.Calendar, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	weekStart, err := models.ParseWeekday(settings.WeekStart)
	if err != nil {
		return nil, err
	}
	var opts []periods.Option
	if c.Clock != nil {
		opts = append(opts, periods.WithClock(c.Clock))
	}
	return periods.FromSettings(settings.Timezone, weekStart, opts...)
}

func (c *Context) Evaluator(cal *periods.Calendar) *goals.Evaluator {
	var opts []goals.Option
	if c.Config != nil {
		opts = append(opts, goals.WithMaxPeriods(c.Config.Reminders.MaxStreakPeriods))
	}
	return goals.New(cal, opts...)
}

func (c *Context) Metrics(cal *periods.Calendar) *metrics.Formatter {
	return metrics.New(cal)
}

// FindHabit resolves ref as a habit id first and then as a title.
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	h, err := c.Store.GetHabit(ref)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}
	h, err = c.Store.GetHabitByTitle(ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", ref, storage.ErrNotFound)
	}
	return h, err
}

// ParseDay accepts YYYY-MM-DD, "today" or "yesterday". Empty means today.
func ParseDay(cal *periods.Calendar, s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return cal.Today(), nil
	case "yesterday":
		return cal.AddDays(cal.Today(), -1), nil
	}
	day, err := periods.ParseDay(s, cal.Location())
	if err != nil {
		return time.Time{}, err
	}
	if day.After(cal.Today()) {
		return time.Time{}, fmt.Errorf("cannot log a future date: %s", s)
	}
	return day, nil
}
