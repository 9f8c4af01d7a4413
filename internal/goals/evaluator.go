package goals

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
)

var log = logger.With("component", "goals")

// Progress is the state of one habit's goal in the current period.
type Progress struct {
	HasGoal  bool
	Raw      float64
	Target   float64
	Rate     float64
	Interval periods.Interval
	// Skipped counts entries ignored because they belong to another
	// habit or carry no date.
	Skipped int
}

// Evaluator computes goal progress and streaks against a calendar.
// It never mutates the entry slices it is given, so one Evaluator can
// serve concurrent readers.
type Evaluator struct {
	cal        *periods.Calendar
	maxPeriods int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxPeriods caps how far back streak walks go.
func WithMaxPeriods(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxPeriods = n
		}
	}
}

func New(cal *periods.Calendar, opts ...Option) *Evaluator {
	e := &Evaluator{cal: cal, maxPeriods: constants.DefaultMaxStreakPeriods}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Calendar() *periods.Calendar { return e.cal }

// EntriesIn returns the entries whose calendar day falls in iv.
func (e *Evaluator) EntriesIn(entries []models.HabitEntry, iv periods.Interval) []models.HabitEntry {
	var out []models.HabitEntry
	for _, entry := range entries {
		if iv.Contains(e.cal.StartOfDay(entry.Date)) {
			out = append(out, entry)
		}
	}
	return out
}

// GoalProgress evaluates the period containing ref. A habit without a
// positive target yields HasGoal false with zero raw and rate.
func (e *Evaluator) GoalProgress(h models.Habit, entries []models.HabitEntry, ref time.Time) Progress {
	owned, skipped := e.owned(h, entries)
	goal := h.Goal()
	if !goal.Enabled() {
		return Progress{Skipped: len(skipped)}
	}

	iv := e.cal.PeriodInterval(0, goal.Frequency, ref)
	raw := RawValue(e.EntriesIn(owned, iv), h.Type)
	rate := raw / goal.Target
	if rate > 1 {
		rate = 1
	} else if rate < 0 {
		rate = 0
	}

	return Progress{
		HasGoal:  true,
		Raw:      raw,
		Target:   goal.Target,
		Rate:     rate,
		Interval: iv,
		Skipped:  len(skipped),
	}
}

func (e *Evaluator) owned(h models.Habit, entries []models.HabitEntry) (owned, skipped []models.HabitEntry) {
	owned, skipped = Partition(h.ID, entries)
	if len(skipped) > 0 {
		log.Debug("skipping unattributable entries", "habit", h.ID, "skipped", len(skipped))
	}
	return owned, skipped
}
