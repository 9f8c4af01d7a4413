// Package periods maps reference dates onto daily, weekly and monthly
// period boundaries in an explicit location.
package periods

import (
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Calendar carries the location, first weekday and clock used for all
// period arithmetic. The zero value is not usable; call New.
type Calendar struct {
	loc          *time.Location
	firstWeekday time.Weekday
	now          func() time.Time
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithFirstWeekday sets the weekday on which weekly periods start.
func WithFirstWeekday(wd time.Weekday) Option {
	return func(c *Calendar) {
		c.firstWeekday = wd
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a calendar in loc. A nil loc means time.Local.
// Weeks start on Monday unless WithFirstWeekday says otherwise.
func New(loc *time.Location, opts ...Option) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	c := &Calendar{
		loc:          loc,
		firstWeekday: time.Monday,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calendar) Location() *time.Location { return c.loc }

func (c *Calendar) FirstWeekday() time.Weekday { return c.firstWeekday }

// Now returns the clock's current instant in the calendar location.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the start of the current calendar day.
func (c *Calendar) Today() time.Time {
	return c.StartOfDay(c.Now())
}

// StartOfDay returns midnight of t's calendar date, in the calendar
// location. See wallDate for how the date is read.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := c.wallDate(t)
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// wallDate returns the calendar date t falls on. Instants are read in the
// calendar location. A midnight in another location is a stored calendar
// day, such as an entry date kept as UTC midnight, and keeps its date.
func (c *Calendar) wallDate(t time.Time) (int, time.Month, int) {
	if t.Location() != c.loc {
		if h, m, sec := t.Clock(); h != 0 || m != 0 || sec != 0 || t.Nanosecond() != 0 {
			t = t.In(c.loc)
		}
	}
	return t.Date()
}

// SameDay reports whether a and b fall on the same calendar day.
func (c *Calendar) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// AddDays steps a calendar day forward or back by n days.
func (c *Calendar) AddDays(day time.Time, n int) time.Time {
	y, m, d := c.wallDate(day)
	return time.Date(y, m, d+n, 0, 0, 0, 0, c.loc)
}

// StartOfPeriod returns the first instant of the period containing ref.
func (c *Calendar) StartOfPeriod(ref time.Time, f models.Frequency) time.Time {
	y, m, d := c.wallDate(ref)
	switch f {
	case models.FrequencyWeekly:
		weekday := time.Date(y, m, d, 0, 0, 0, 0, c.loc).Weekday()
		back := (int(weekday) - int(c.firstWeekday) + 7) % 7
		return time.Date(y, m, d-back, 0, 0, 0, 0, c.loc)
	case models.FrequencyMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, c.loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	}
}

// NextPeriodStart returns the start of the period after the one
// beginning at start.
func (c *Calendar) NextPeriodStart(start time.Time, f models.Frequency) time.Time {
	return c.step(start, f, 1)
}

// PeriodInterval returns the period offset periods before the one
// containing ref. Negative offsets are treated as zero.
func (c *Calendar) PeriodInterval(offset int, f models.Frequency, ref time.Time) Interval {
	if offset < 0 {
		offset = 0
	}
	start := c.step(c.StartOfPeriod(ref, f), f, -offset)
	return Interval{Start: start, End: c.NextPeriodStart(start, f)}
}

// step moves a period start by n periods. Day fields are rebuilt with
// time.Date so DST days keep their local midnight.
func (c *Calendar) step(start time.Time, f models.Frequency, n int) time.Time {
	y, m, d := c.wallDate(start)
	switch f {
	case models.FrequencyWeekly:
		return time.Date(y, m, d+7*n, 0, 0, 0, 0, c.loc)
	case models.FrequencyMonthly:
		// start is always the 1st, so month stepping never overflows.
		return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, c.loc)
	default:
		return time.Date(y, m, d+n, 0, 0, 0, 0, c.loc)
	}
}
