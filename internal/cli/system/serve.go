package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/control"
	herrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/periods"
	"github.com/julianstephens/habitual/internal/reminders"
	"github.com/julianstephens/habitual/internal/storage"
)

var serveLog = logger.With("component", "serve")

var (
	notifyContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	}
	smtpPassword = func() (string, error) {
		if pw := os.Getenv(constants.EnvSMTPPassword); pw != "" {
			return pw, nil
		}
		return keyring.GetSMTPPassword()
	}
)

const stopTimeout = 10 * time.Second

type ServeCmd struct {
	DryRun bool   `help:"Print notifications to stdout instead of delivering them."`
	Resync string `help:"Cron spec for picking up changes made by other commands." default:"@every 1m"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	d, err := newDaemon(ctx, cmd.DryRun)
	if err != nil {
		return err
	}

	runCtx, stop := notifyContext(ctx.Context())
	defer stop()

	if ctx.RuntimeDir != "" {
		if _, err := control.NewClient(ctx.RuntimeDir).States(runCtx); err == nil {
			return errors.New("habitual serve is already running")
		}
	}

	if err := d.start(runCtx); err != nil {
		return err
	}

	resync := cron.New(cron.WithLocation(d.cal.Location()))
	if _, err := resync.AddFunc(cmd.Resync, func() {
		if err := d.reconcile(runCtx); err != nil {
			serveLog.Warn("resync failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", cmd.Resync, err)
	}

	var ctl *control.Server
	if ctx.RuntimeDir != "" {
		ctl, err = control.Listen(ctx.RuntimeDir, d)
		if err != nil {
			return err
		}
		ctl.Serve()
	}

	d.center.Start()
	resync.Start()
	ctx.Printf("Serving reminders via %s. Press Ctrl+C to stop.\n", d.sinkName)
	serveLog.Info("serving reminders", "sink", d.sinkName, "tz", d.cal.Location().String())

	<-runCtx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	select {
	case <-resync.Stop().Done():
	case <-stopCtx.Done():
	}
	if ctl != nil {
		if err := ctl.Close(stopCtx); err != nil {
			serveLog.Warn("failed to stop control server", "err", err)
		}
	}
	d.center.Stop(stopCtx)
	ctx.Println("Stopped.")
	return nil
}

// daemon owns the in-process notification center and the reminder
// scheduler that drives it. It answers control requests from other
// commands.
type daemon struct {
	mu       sync.Mutex
	store    storage.Provider
	cal      *periods.Calendar
	logged   *storage.LoggedToday
	center   *notifier.Center
	sched    *reminders.Scheduler
	sinkName string
}

func newDaemon(ctx *cli.Context, dryRun bool) (*daemon, error) {
	cal, err := ctx.Calendar()
	if err != nil {
		return nil, err
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	sink, name, err := newSink(ctx, dryRun)
	if err != nil {
		return nil, err
	}

	delay := settings.FollowUpDelay()
	if ctx.Config != nil {
		override, err := ctx.Config.Reminders.Delay()
		if err != nil {
			return nil, err
		}
		if override > 0 {
			delay = override
		}
	}

	logged := storage.NewLoggedToday(ctx.Store, cal)
	center := notifier.NewCenter(cal.Location(), sink)
	sched := reminders.New(center, logged, cal,
		reminders.WithFollowUpDelay(delay),
		reminders.WithRemainingCounter(logged),
		reminders.WithHabitWriter(logged),
	)

	d := &daemon{
		store:    ctx.Store,
		cal:      cal,
		logged:   logged,
		center:   center,
		sched:    sched,
		sinkName: name,
	}
	center.SetFireHandler(d.fire)
	return d, nil
}

func newSink(ctx *cli.Context, dryRun bool) (notifier.Sink, string, error) {
	kind := constants.NotificationSinkTray
	if ctx.Config != nil {
		kind = ctx.Config.Notify.Sink
	}
	if dryRun {
		kind = constants.NotificationSinkStdout
	}

	switch kind {
	case constants.NotificationSinkTray:
		return notifier.NewTraySink(), kind, nil
	case constants.NotificationSinkSMTP:
		smtp := ctx.Config.SMTP
		password, err := smtpPassword()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get smtp password (set it with 'habitual keyring set --smtp'): %w", err)
		}
		sink, err := notifier.NewMailSink(notifier.MailConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: password,
			From:     smtp.From,
			To:       smtp.To,
			UseTLS:   smtp.UseTLS,
		})
		if err != nil {
			return nil, "", fmt.Errorf("invalid smtp configuration: %w", err)
		}
		return sink, kind, nil
	default:
		return notifier.NewWriterSink(ctx.Writer()), constants.NotificationSinkStdout, nil
	}
}

// start registers every active reminder and the daily summary.
func (d *daemon) start(ctx context.Context) error {
	settings, err := d.store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.NotificationsEnabled {
		serveLog.Info("notifications disabled, waiting for them to be enabled")
		return nil
	}

	habits, err := d.store.GetAllHabits(false)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	if err := d.sched.Sync(ctx, habits); err != nil {
		serveLog.Warn("some reminders could not be scheduled", "err", err)
	}
	return d.syncSummary(ctx, settings)
}

func (d *daemon) syncSummary(ctx context.Context, settings models.Settings) error {
	var want *models.TimeOfDay
	if settings.NotificationsEnabled && settings.DailySummaryTime != "" {
		t, err := models.ParseTimeOfDay(settings.DailySummaryTime)
		if err != nil {
			return fmt.Errorf("daily summary time: %w", err)
		}
		want = &t
	}
	if sameTime(want, d.sched.DailySummary()) {
		return nil
	}
	return d.sched.ScheduleDailySummary(ctx, want)
}

// reconcile applies changes other processes made to the store: edited
// or removed reminders, archived or deleted habits, habits logged from
// the CLI while a follow-up is pending, and settings.
func (d *daemon) reconcile(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	settings, err := d.store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	habits, err := d.store.GetAllHabits(true)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}

	var errs []error
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
		want := h.Reminder
		if h.Archived || !settings.NotificationsEnabled {
			want = nil
		}
		if !sameTime(want, d.sched.Reminder(h.ID)) {
			errs = append(errs, d.sched.SetReminder(ctx, h, want))
			continue
		}
		if d.sched.State(h.ID) != reminders.FollowUpPending {
			continue
		}
		logged, err := d.logged.IsLoggedToday(ctx, h.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if logged {
			errs = append(errs, d.sched.OnHabitLogged(ctx, h.ID))
		}
	}

	pending, err := d.center.PendingRequestIDs(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, id := range pending {
		parsed, ok := reminders.ParseRequestID(id)
		if !ok || parsed.HabitID == "" || known[parsed.HabitID] {
			continue
		}
		known[parsed.HabitID] = true
		errs = append(errs, d.sched.CancelReminders(ctx, parsed.HabitID))
	}

	errs = append(errs, d.syncSummary(ctx, settings))
	return errors.Join(errs...)
}

// Logged cancels follow-ups for a habit logged by another command.
func (d *daemon) Logged(ctx context.Context, habitID string) error {
	return d.sched.OnHabitLogged(ctx, habitID)
}

func (d *daemon) Resync(ctx context.Context) error {
	return d.reconcile(ctx)
}

// Action applies a notification action to the habit named in its request
// id.
func (d *daemon) Action(ctx context.Context, req control.ActionRequest) error {
	parsed, ok := reminders.ParseRequestID(req.RequestID)
	if !ok || parsed.HabitID == "" {
		return fmt.Errorf("not a habit notification: %q", req.RequestID)
	}
	habit, err := d.store.GetHabit(parsed.HabitID)
	if err != nil {
		return fmt.Errorf("failed to load habit %s: %w", parsed.HabitID, err)
	}
	if habit.Archived {
		return fmt.Errorf("habit %q is archived", habit.Title)
	}
	if err := d.sched.HandleAction(ctx, habit, req.Action, req.Input); err != nil {
		return err
	}
	serveLog.Info("notification action applied", "habit", habit.ID, "action", req.Action)
	return nil
}

func (d *daemon) States(ctx context.Context) (map[string]string, error) {
	habits, err := d.store.GetAllHabits(true)
	if err != nil {
		return nil, fmt.Errorf("failed to get habits: %w", err)
	}
	states := make(map[string]string, len(habits))
	for _, h := range habits {
		states[h.ID] = d.sched.State(h.ID).String()
	}
	return states, nil
}

// fire decides whether a fired request is shown.
func (d *daemon) fire(ctx context.Context, requestID string, content reminders.Content) (reminders.Content, bool) {
	if requestID == constants.DailySummaryID {
		return d.sched.SummaryContent(ctx), true
	}

	parsed, ok := reminders.ParseRequestID(requestID)
	if !ok || parsed.HabitID == "" {
		return content, true
	}
	habit, err := d.store.GetHabit(parsed.HabitID)
	if herrors.IsNotFound(err) {
		serveLog.Debug("habit gone, cancelling its reminders", "habit", parsed.HabitID)
		if err := d.sched.CancelReminders(ctx, parsed.HabitID); err != nil {
			serveLog.Warn("failed to cancel reminders", "habit", parsed.HabitID, "err", err)
		}
		return content, false
	}
	if err != nil {
		serveLog.Warn("failed to load habit for notification", "habit", parsed.HabitID, "err", err)
		return content, true
	}

	present, err := d.sched.HandleFired(ctx, habit, requestID)
	if err != nil {
		serveLog.Warn("failed to handle fired notification", "request", requestID, "err", err)
	}
	return content, present
}

func sameTime(a, b *models.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
