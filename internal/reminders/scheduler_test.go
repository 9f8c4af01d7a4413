package reminders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
)

var clock = time.Date(2024, 5, 15, 19, 0, 0, 0, time.UTC)

type harness struct {
	port   *fakePort
	logged *fakeLogged
	sched  *Scheduler
}

func newHarness(opts ...Option) *harness {
	h := &harness{port: newFakePort(), logged: &fakeLogged{}}
	cal := periods.New(time.UTC, periods.WithClock(func() time.Time { return clock }))
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	h.sched = New(h.port, h.logged, cal, opts...)
	return h
}

func testHabit(id string, kind models.Kind) models.Habit {
	goal := models.Goal{Target: 1, Frequency: models.FrequencyDaily}
	var typ models.HabitType
	switch kind {
	case models.KindDuration:
		typ = models.NewDuration(goal)
	case models.KindRating:
		typ = models.NewRating(1, 5, goal)
	case models.KindNumeric:
		typ = models.NewNumeric(0, 10, "km", goal)
	default:
		typ = models.NewBoolean(goal)
	}
	return models.Habit{ID: id, Title: "Habit " + id, Type: typ}
}

func at(hour, minute int) *models.TimeOfDay {
	return &models.TimeOfDay{Hour: hour, Minute: minute}
}

func TestSetReminderSchedulesPrimaryAndPlannedFollowUp(t *testing.T) {
	tests := []struct {
		name     string
		reminder *models.TimeOfDay
		wantWait time.Duration
	}{
		{name: "later today", reminder: at(20, 0), wantWait: 90 * time.Minute},
		{name: "already passed", reminder: at(8, 0), wantWait: 13*time.Hour + 30*time.Minute},
		{name: "exactly now", reminder: at(19, 0), wantWait: 24*time.Hour + 30*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			habit := testHabit("a", models.KindBoolean)

			if err := h.sched.SetReminder(context.Background(), habit, tt.reminder); err != nil {
				t.Fatalf("SetReminder() error = %v", err)
			}

			primary, ok := h.port.get(PrimaryID("a"))
			if !ok {
				t.Fatal("primary reminder not scheduled")
			}
			if primary.trigger != RepeatingDaily(tt.reminder.Hour, tt.reminder.Minute) {
				t.Errorf("unexpected primary trigger %v", primary.trigger)
			}
			if primary.content.FollowUp || primary.content.Category != constants.CategoryBoolean {
				t.Errorf("unexpected primary content %+v", primary.content)
			}

			planned, ok := h.port.get(PlannedFollowUpID("a", "n1"))
			if !ok {
				t.Fatalf("planned follow-up not scheduled, pending: %v", h.port.forHabit("a"))
			}
			if planned.trigger.Kind != TriggerOneShot || planned.trigger.After != tt.wantWait {
				t.Errorf("planned trigger = %v, want once in %v", planned.trigger, tt.wantWait)
			}
			if !planned.content.FollowUp || !planned.content.TimeSensitive {
				t.Errorf("follow-up content not marked: %+v", planned.content)
			}
			if got := h.sched.State("a"); got != Scheduled {
				t.Errorf("State() = %v, want scheduled", got)
			}
		})
	}
}

func TestSetReminderNilCancels(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()

	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.sched.SetReminder(ctx, habit, nil); err != nil {
		t.Fatalf("SetReminder(nil) error = %v", err)
	}
	if ids := h.port.forHabit("a"); len(ids) != 0 {
		t.Errorf("expected nothing pending, got %v", ids)
	}
	if got := h.sched.State("a"); got != NoReminder {
		t.Errorf("State() = %v, want no reminder", got)
	}
	if h.sched.Reminder("a") != nil {
		t.Error("expected no reminder time")
	}
}

func TestSetReminderRejectsInvalidTime(t *testing.T) {
	h := newHarness()
	if err := h.sched.SetReminder(context.Background(), testHabit("a", models.KindBoolean), at(25, 0)); err == nil {
		t.Error("expected error for hour 25")
	}
	if len(h.port.cancels) != 0 {
		t.Error("invalid time should not touch the port")
	}
}

func TestSetReminderSupersedes(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()

	for _, r := range []*models.TimeOfDay{at(20, 0), at(21, 15), at(7, 5)} {
		if err := h.sched.SetReminder(ctx, habit, r); err != nil {
			t.Fatal(err)
		}
	}

	ids := h.port.forHabit("a")
	if len(ids) != 2 {
		t.Fatalf("expected primary and one follow-up, got %v", ids)
	}
	primary, _ := h.port.get(PrimaryID("a"))
	if primary.trigger.Hour != 7 || primary.trigger.Minute != 5 {
		t.Errorf("expected latest reminder time, got %v", primary.trigger)
	}
	if got := h.sched.Reminder("a"); got == nil || got.String() != "07:05" {
		t.Errorf("Reminder() = %v", got)
	}
}

func TestSetReminderConcurrentSameHabit(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.sched.SetReminder(context.Background(), habit, at(6+i%12, i))
		}(i)
	}
	wg.Wait()

	if got := h.port.followUps("a"); len(got) != 1 {
		t.Errorf("expected exactly one follow-up to survive, got %v", got)
	}
	if len(h.port.forHabit("a")) != 2 {
		t.Errorf("expected two requests, got %v", h.port.forHabit("a"))
	}
}

func TestCancelRemindersIsIdempotent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.sched.SetReminder(ctx, testHabit("a", models.KindBoolean), at(20, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.sched.SetReminder(ctx, testHabit("ab", models.KindBoolean), at(20, 0)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := h.sched.CancelReminders(ctx, "a"); err != nil {
			t.Fatalf("CancelReminders() call %d error = %v", i+1, err)
		}
		if ids := h.port.forHabit("a"); len(ids) != 0 {
			t.Errorf("call %d: expected nothing pending, got %v", i+1, ids)
		}
	}
	if len(h.port.forHabit("ab")) != 2 {
		t.Error("cancelling habit a must not touch habit ab")
	}
}

func TestNoFollowUpAfterLogging(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()

	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}

	present, err := h.sched.HandleFired(ctx, habit, PrimaryID("a"))
	if err != nil || !present {
		t.Fatalf("HandleFired(primary) = %v, %v", present, err)
	}
	followUps := h.port.followUps("a")
	if len(followUps) != 1 {
		t.Fatalf("expected the delivery follow-up only, got %v", followUps)
	}
	parsed, _ := ParseRequestID(followUps[0])
	if parsed.Origin != PrimaryID("a") {
		t.Errorf("expected follow-up to reference the primary, got %+v", parsed)
	}
	if got := h.sched.State("a"); got != FollowUpPending {
		t.Errorf("State() = %v, want follow-up pending", got)
	}
	if fu, _ := h.port.get(followUps[0]); fu.trigger != OneShotAfter(30*time.Minute) {
		t.Errorf("unexpected follow-up trigger %v", fu.trigger)
	}

	h.logged.set("a", true)
	if err := h.sched.OnHabitLogged(ctx, "a"); err != nil {
		t.Fatalf("OnHabitLogged() error = %v", err)
	}
	if got := h.port.followUps("a"); len(got) != 0 {
		t.Errorf("follow-ups still pending after logging: %v", got)
	}
	if _, ok := h.port.get(PrimaryID("a")); !ok {
		t.Error("primary reminder must survive logging")
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}
}

func TestOnPrimaryDeliveredWhenLogged(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindRating)
	ctx := context.Background()
	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}
	h.logged.set("a", true)

	if err := h.sched.OnPrimaryDelivered(ctx, habit, PrimaryID("a")); err != nil {
		t.Fatalf("OnPrimaryDelivered() error = %v", err)
	}
	for _, id := range h.port.followUps("a") {
		if parsed, _ := ParseRequestID(id); parsed.Origin != "" {
			t.Errorf("unexpected delivery follow-up %s", id)
		}
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}
}

func TestOnPrimaryDeliveredWithoutReminder(t *testing.T) {
	h := newHarness()
	err := h.sched.OnPrimaryDelivered(context.Background(), testHabit("a", models.KindBoolean), PrimaryID("a"))
	if !errors.Is(err, ErrNoReminder) {
		t.Errorf("expected ErrNoReminder, got %v", err)
	}
}

func TestOnPrimaryDeliveredQueryFailure(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()
	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}
	h.logged.err = errTransport

	if err := h.sched.OnPrimaryDelivered(ctx, habit, PrimaryID("a")); !errors.Is(err, errTransport) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}
}

func TestPrimaryScheduleFailureLeavesNoReminder(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()

	h.port.scheduleFn = func(string) error { return errTransport }
	err := h.sched.SetReminder(ctx, habit, at(20, 0))
	if !errors.Is(err, errTransport) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if got := h.sched.State("a"); got != NoReminder {
		t.Errorf("State() = %v, want no reminder", got)
	}
	if ids := h.sched.Tracked("a"); len(ids) != 0 {
		t.Errorf("expected nothing tracked, got %v", ids)
	}

	h.port.scheduleFn = nil
	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatalf("retry SetReminder() error = %v", err)
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() after retry = %v, want scheduled", got)
	}
}

func TestFollowUpScheduleFailureKeepsPrimary(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)

	h.port.scheduleFn = func(id string) error {
		if strings.Contains(id, ".followup") {
			return errTransport
		}
		return nil
	}
	if err := h.sched.SetReminder(context.Background(), habit, at(20, 0)); !errors.Is(err, errTransport) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}
	if got := h.sched.Tracked("a"); len(got) != 1 || got[0] != PrimaryID("a") {
		t.Errorf("Tracked() = %v", got)
	}
}

func TestCancelFailureIsReported(t *testing.T) {
	h := newHarness()
	h.port.cancelErr = errTransport
	if err := h.sched.CancelReminders(context.Background(), "a"); !errors.Is(err, errTransport) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestShouldPresentRechecksLoggedToday(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindBoolean)
	ctx := context.Background()
	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.sched.OnPrimaryDelivered(ctx, habit, PrimaryID("a")); err != nil {
		t.Fatal(err)
	}
	followUp := h.port.followUps("a")[0]

	if !h.sched.ShouldPresent(ctx, "a", followUp) {
		t.Error("follow-up for unlogged habit should be presented")
	}

	// Cancellation failed, so the follow-up is still pending in the port.
	h.logged.set("a", true)
	h.port.cancelErr = errTransport
	if h.sched.ShouldPresent(ctx, "a", followUp) {
		t.Error("follow-up must not be presented after logging")
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}

	if !h.sched.ShouldPresent(ctx, "a", PrimaryID("a")) {
		t.Error("primary reminders are always presented")
	}
}

func TestShouldPresentSuppressesOnQueryError(t *testing.T) {
	h := newHarness()
	h.logged.err = errTransport
	if h.sched.ShouldPresent(context.Background(), "a", PlannedFollowUpID("a", "x")) {
		t.Error("expected follow-up to be suppressed when the check fails")
	}
}

func TestHandleFiredFollowUpReturnsToScheduled(t *testing.T) {
	h := newHarness()
	habit := testHabit("a", models.KindNumeric)
	ctx := context.Background()
	if err := h.sched.SetReminder(ctx, habit, at(20, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.sched.OnPrimaryDelivered(ctx, habit, PrimaryID("a")); err != nil {
		t.Fatal(err)
	}
	followUp := h.port.followUps("a")[0]

	present, err := h.sched.HandleFired(ctx, habit, followUp)
	if err != nil || !present {
		t.Fatalf("HandleFired() = %v, %v", present, err)
	}
	if got := h.sched.State("a"); got != Scheduled {
		t.Errorf("State() = %v, want scheduled", got)
	}
}

func TestHandleFiredStalePrimary(t *testing.T) {
	h := newHarness()
	present, err := h.sched.HandleFired(context.Background(), testHabit("a", models.KindBoolean), PrimaryID("a"))
	if err != nil || present {
		t.Errorf("HandleFired() = %v, %v; want false, nil", present, err)
	}
}

func TestSync(t *testing.T) {
	h := newHarness()
	active := testHabit("a", models.KindBoolean)
	active.Reminder = at(20, 0)
	archived := testHabit("b", models.KindBoolean)
	archived.Reminder = at(9, 0)
	archived.Archived = true
	none := testHabit("c", models.KindBoolean)

	if err := h.sched.Sync(context.Background(), []models.Habit{active, archived, none}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if h.sched.State("a") != Scheduled || h.sched.State("b") != NoReminder || h.sched.State("c") != NoReminder {
		t.Errorf("unexpected states a=%v b=%v c=%v", h.sched.State("a"), h.sched.State("b"), h.sched.State("c"))
	}
}

func TestCancelAll(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_ = h.sched.SetReminder(ctx, testHabit("a", models.KindBoolean), at(20, 0))
	_ = h.sched.ScheduleDailySummary(ctx, at(21, 0))

	if err := h.sched.CancelAll(ctx); err != nil {
		t.Fatalf("CancelAll() error = %v", err)
	}
	if ids, _ := h.port.PendingRequestIDs(ctx); len(ids) != 0 {
		t.Errorf("expected nothing pending, got %v", ids)
	}
	if h.sched.State("a") != NoReminder || h.sched.DailySummary() != nil {
		t.Error("expected all state cleared")
	}
}

func TestDailySummary(t *testing.T) {
	h := newHarness(WithRemainingCounter(fakeRemaining{n: 3}))
	ctx := context.Background()

	if err := h.sched.ScheduleDailySummary(ctx, at(21, 30)); err != nil {
		t.Fatalf("ScheduleDailySummary() error = %v", err)
	}
	s, ok := h.port.get(constants.DailySummaryID)
	if !ok {
		t.Fatal("summary not scheduled")
	}
	if s.trigger != RepeatingDaily(21, 30) {
		t.Errorf("unexpected trigger %v", s.trigger)
	}
	if s.content.Body != "You have 3 habits remaining today." || s.content.Thread != constants.DailySummaryThread {
		t.Errorf("unexpected content %+v", s.content)
	}

	if err := h.sched.CancelDailySummary(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.port.get(constants.DailySummaryID); ok {
		t.Error("summary still pending after cancel")
	}
}

func TestSummaryContentFallback(t *testing.T) {
	h := newHarness(WithRemainingCounter(fakeRemaining{err: errTransport}))
	if got := h.sched.SummaryContent(context.Background()).Body; got != "Check your habits for today." {
		t.Errorf("unexpected fallback body %q", got)
	}
}
