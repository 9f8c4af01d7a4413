// Package reminders owns the per-habit notification lifecycle: a daily
// primary reminder and a conditional one-shot follow-up.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// NotificationPort delivers scheduled notifications. Cancel removes every
// pending or delivered request whose id matches prefix (see MatchesPrefix)
// and succeeds when nothing matches.
type NotificationPort interface {
	Schedule(ctx context.Context, requestID string, trigger Trigger, content Content) error
	Cancel(ctx context.Context, prefix string) error
	PendingRequestIDs(ctx context.Context) ([]string, error)
}

// LoggedTodayQuery reports whether a habit has an entry dated today.
type LoggedTodayQuery interface {
	IsLoggedToday(ctx context.Context, habitID string) (bool, error)
}

// RemainingCounter reports how many active habits are still unlogged
// today.
type RemainingCounter interface {
	RemainingToday(ctx context.Context) (int, error)
}

// HabitWriter records an entry produced by a notification action.
type HabitWriter interface {
	LogEntry(ctx context.Context, entry models.HabitEntry) error
}

type TriggerKind int

const (
	TriggerRepeatingDaily TriggerKind = iota + 1
	TriggerOneShot
)

// Trigger is either a repeating daily wall-clock time or a one-shot
// delay relative to the moment it is scheduled.
type Trigger struct {
	Kind   TriggerKind
	Hour   int
	Minute int
	After  time.Duration
}

func RepeatingDaily(hour, minute int) Trigger {
	return Trigger{Kind: TriggerRepeatingDaily, Hour: hour, Minute: minute}
}

func OneShotAfter(d time.Duration) Trigger {
	return Trigger{Kind: TriggerOneShot, After: d}
}

func (t Trigger) String() string {
	switch t.Kind {
	case TriggerRepeatingDaily:
		return fmt.Sprintf("daily at %02d:%02d", t.Hour, t.Minute)
	case TriggerOneShot:
		return fmt.Sprintf("once in %s", t.After.Round(time.Second))
	default:
		return "invalid trigger"
	}
}
