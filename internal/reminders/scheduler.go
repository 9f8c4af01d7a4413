package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
)

var (
	// ErrNoReminder is returned for a delivery against a habit that has
	// no active reminder in this scheduler.
	ErrNoReminder = errors.New("habit has no active reminder")
	// ErrNoWriter is returned by HandleAction when no HabitWriter is set.
	ErrNoWriter = errors.New("no habit writer configured")
)

// minOneShot keeps a planned follow-up from being scheduled in the past.
const minOneShot = time.Second

var log = logger.With("component", "reminders")

// State is the notification state of one habit.
type State int

const (
	NoReminder State = iota
	Scheduled
	FollowUpPending
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case FollowUpPending:
		return "follow-up pending"
	default:
		return "no reminder"
	}
}

type habitState struct {
	mu       sync.Mutex
	reminder *models.TimeOfDay
	primary  string
	// planned is the follow-up computed when the reminder was set.
	planned string
	// followUps are follow-ups scheduled after a delivered reminder.
	followUps map[string]struct{}
}

func (st *habitState) state() State {
	switch {
	case st.primary == "":
		return NoReminder
	case len(st.followUps) > 0:
		return FollowUpPending
	default:
		return Scheduled
	}
}

func (st *habitState) clearFollowUps() {
	st.planned = ""
	st.followUps = nil
}

func (st *habitState) reset() {
	st.reminder = nil
	st.primary = ""
	st.clearFollowUps()
}

// Scheduler drives a NotificationPort for every habit with a reminder.
// Mutations for one habit are serialized; different habits proceed
// independently.
type Scheduler struct {
	port      NotificationPort
	logged    LoggedTodayQuery
	cal       *periods.Calendar
	delay     time.Duration
	newID     func() string
	remaining RemainingCounter
	writer    HabitWriter

	mu     sync.Mutex
	habits map[string]*habitState

	summaryMu sync.Mutex
	summary   *models.TimeOfDay
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFollowUpDelay sets how long after a reminder the follow-up fires.
func WithFollowUpDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithIDGenerator replaces the uuid source for follow-up nonces.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithRemainingCounter enables the remaining count in the daily summary.
func WithRemainingCounter(rc RemainingCounter) Option {
	return func(s *Scheduler) {
		s.remaining = rc
	}
}

// WithHabitWriter lets HandleAction log entries.
func WithHabitWriter(w HabitWriter) Option {
	return func(s *Scheduler) {
		s.writer = w
	}
}

func New(port NotificationPort, logged LoggedTodayQuery, cal *periods.Calendar, opts ...Option) *Scheduler {
	s := &Scheduler{
		port:   port,
		logged: logged,
		cal:    cal,
		delay:  constants.DefaultFollowUpDelay,
		newID:  uuid.NewString,
		habits: make(map[string]*habitState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock returns the habit's state with its mutex held.
func (s *Scheduler) lock(habitID string) *habitState {
	s.mu.Lock()
	st, ok := s.habits[habitID]
	if !ok {
		st = &habitState{}
		s.habits[habitID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	return st
}

// SetReminder replaces every request of h with a daily reminder at t and
// a follow-up after its next occurrence. A nil t only cancels.
func (s *Scheduler) SetReminder(ctx context.Context, h models.Habit, t *models.TimeOfDay) error {
	if t != nil {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid reminder time: %w", err)
		}
	}

	st := s.lock(h.ID)
	defer st.mu.Unlock()

	if err := s.cancelAllLocked(ctx, h.ID, st); err != nil {
		return err
	}
	if t == nil {
		return nil
	}

	primary := PrimaryID(h.ID)
	content := HabitContent(h, false, s.cal.Today())
	if err := s.port.Schedule(ctx, primary, RepeatingDaily(t.Hour, t.Minute), content); err != nil {
		log.Warn("failed to schedule reminder", "habit", h.ID, "request", primary, "err", err)
		return fmt.Errorf("scheduling reminder for %q: %w", h.Title, err)
	}
	reminder := *t
	st.reminder = &reminder
	st.primary = primary

	now := s.cal.Now()
	next := t.On(now, s.cal.Location())
	if !next.After(now) {
		next = t.On(s.cal.AddDays(now, 1), s.cal.Location())
	}
	wait := next.Add(s.delay).Sub(now)
	if wait < minOneShot {
		wait = minOneShot
	}

	planned := PlannedFollowUpID(h.ID, s.newID())
	if err := s.port.Schedule(ctx, planned, OneShotAfter(wait), HabitContent(h, true, s.cal.StartOfDay(next))); err != nil {
		log.Warn("failed to schedule follow-up", "habit", h.ID, "request", planned, "err", err)
		return fmt.Errorf("scheduling follow-up for %q: %w", h.Title, err)
	}
	st.planned = planned
	log.Debug("reminder scheduled", "habit", h.ID, "at", t.String(), "follow_up_in", wait)
	return nil
}

// OnPrimaryDelivered schedules a follow-up after the delay unless the
// habit is already logged today. Earlier follow-ups are cancelled first.
func (s *Scheduler) OnPrimaryDelivered(ctx context.Context, h models.Habit, requestID string) error {
	st := s.lock(h.ID)
	defer st.mu.Unlock()

	if st.primary == "" {
		return ErrNoReminder
	}

	logged, err := s.logged.IsLoggedToday(ctx, h.ID)
	if err != nil {
		log.Warn("failed to check today's entry", "habit", h.ID, "err", err)
		return fmt.Errorf("checking entry for %q: %w", h.Title, err)
	}
	if logged {
		return nil
	}

	if err := s.cancelFollowUpsLocked(ctx, h.ID, st); err != nil {
		return err
	}

	id := InteractionFollowUpID(h.ID, requestID, s.newID())
	if err := s.port.Schedule(ctx, id, OneShotAfter(s.delay), HabitContent(h, true, s.cal.Today())); err != nil {
		log.Warn("failed to schedule follow-up", "habit", h.ID, "request", id, "err", err)
		return fmt.Errorf("scheduling follow-up for %q: %w", h.Title, err)
	}
	if st.followUps == nil {
		st.followUps = make(map[string]struct{})
	}
	st.followUps[id] = struct{}{}
	return nil
}

// OnHabitLogged cancels every pending follow-up of the habit.
func (s *Scheduler) OnHabitLogged(ctx context.Context, habitID string) error {
	st := s.lock(habitID)
	defer st.mu.Unlock()
	return s.cancelFollowUpsLocked(ctx, habitID, st)
}

// CancelReminders cancels the primary reminder and every follow-up.
// It is safe to call for a habit with nothing scheduled.
func (s *Scheduler) CancelReminders(ctx context.Context, habitID string) error {
	st := s.lock(habitID)
	defer st.mu.Unlock()
	return s.cancelAllLocked(ctx, habitID, st)
}

// ShouldPresent decides, right before display, whether a fired request
// is still relevant. A follow-up for a habit logged today is suppressed
// and its follow-ups are cleared. If the check itself fails the
// follow-up is suppressed.
func (s *Scheduler) ShouldPresent(ctx context.Context, habitID, requestID string) bool {
	parsed, ok := ParseRequestID(requestID)
	if !ok || parsed.Stage != StageFollowUp {
		return true
	}

	st := s.lock(habitID)
	defer st.mu.Unlock()

	logged, err := s.logged.IsLoggedToday(ctx, habitID)
	if err != nil {
		log.Warn("suppressing follow-up, entry check failed", "habit", habitID, "request", requestID, "err", err)
		return false
	}
	if !logged {
		return true
	}

	if err := s.cancelFollowUpsLocked(ctx, habitID, st); err != nil {
		st.clearFollowUps()
	}
	return false
}

// HandleFired is called when a request fires. It reports whether the
// notification should be shown and performs the transition that
// delivery implies: a primary may spawn a follow-up, and a fired
// follow-up returns the habit to Scheduled.
func (s *Scheduler) HandleFired(ctx context.Context, h models.Habit, requestID string) (bool, error) {
	parsed, ok := ParseRequestID(requestID)
	if !ok {
		return true, nil
	}

	switch parsed.Stage {
	case StagePrimary:
		err := s.OnPrimaryDelivered(ctx, h, requestID)
		if errors.Is(err, ErrNoReminder) {
			// stale primary from a previous run
			return false, nil
		}
		return true, err
	case StageFollowUp:
		present := s.ShouldPresent(ctx, h.ID, requestID)
		st := s.lock(h.ID)
		delete(st.followUps, requestID)
		if st.planned == requestID {
			st.planned = ""
		}
		st.mu.Unlock()
		return present, nil
	default:
		return true, nil
	}
}

// Sync registers the reminder of every active habit and cancels the
// rest. Failures are collected and do not stop the remaining habits.
func (s *Scheduler) Sync(ctx context.Context, habits []models.Habit) error {
	var errs []error
	for _, h := range habits {
		reminder := h.Reminder
		if h.Archived {
			reminder = nil
		}
		if err := s.SetReminder(ctx, h, reminder); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CancelAll removes every habit request and the daily summary.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	if err := s.port.Cancel(ctx, constants.RequestIDPrefix); err != nil {
		return fmt.Errorf("cancelling reminders: %w", err)
	}
	s.mu.Lock()
	states := make([]*habitState, 0, len(s.habits))
	for _, st := range s.habits {
		states = append(states, st)
	}
	s.mu.Unlock()
	for _, st := range states {
		st.mu.Lock()
		st.reset()
		st.mu.Unlock()
	}
	return s.CancelDailySummary(ctx)
}

// State reports the notification state of a habit.
func (s *Scheduler) State(habitID string) State {
	st := s.lock(habitID)
	defer st.mu.Unlock()
	return st.state()
}

// Reminder returns the time the habit's reminder is set for, if any.
func (s *Scheduler) Reminder(habitID string) *models.TimeOfDay {
	st := s.lock(habitID)
	defer st.mu.Unlock()
	if st.reminder == nil {
		return nil
	}
	r := *st.reminder
	return &r
}

// Tracked lists the request ids the scheduler believes are live for a
// habit, sorted.
func (s *Scheduler) Tracked(habitID string) []string {
	st := s.lock(habitID)
	defer st.mu.Unlock()

	var ids []string
	if st.primary != "" {
		ids = append(ids, st.primary)
	}
	if st.planned != "" {
		ids = append(ids, st.planned)
	}
	for id := range st.followUps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Scheduler) cancelAllLocked(ctx context.Context, habitID string, st *habitState) error {
	prefix := HabitPrefix(habitID)
	if err := s.port.Cancel(ctx, prefix); err != nil {
		log.Warn("failed to cancel reminders", "habit", habitID, "request", prefix, "err", err)
		return fmt.Errorf("cancelling reminders: %w", err)
	}
	st.reset()
	return nil
}

func (s *Scheduler) cancelFollowUpsLocked(ctx context.Context, habitID string, st *habitState) error {
	prefix := FollowUpPrefix(habitID)
	if err := s.port.Cancel(ctx, prefix); err != nil {
		log.Warn("failed to cancel follow-ups", "habit", habitID, "request", prefix, "err", err)
		return fmt.Errorf("cancelling follow-ups: %w", err)
	}
	st.clearFollowUps()
	return nil
}
