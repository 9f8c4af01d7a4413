// Package metrics turns habit entries into display-ready summaries.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
)

const decimalFormat = "#,###.##"

// Timeframe is a named look-back window.
type Timeframe string

const (
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYear    Timeframe = "year"
)

// Days returns the window length. Unknown values fall back to a week.
func (t Timeframe) Days() int {
	switch t {
	case TimeframeMonth:
		return 30
	case TimeframeQuarter:
		return 90
	case TimeframeYear:
		return 365
	default:
		return 7
	}
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(s)); tf {
	case TimeframeWeek, TimeframeMonth, TimeframeQuarter, TimeframeYear:
		return tf, nil
	default:
		return "", fmt.Errorf("invalid timeframe %q (expected week, month, quarter or year)", s)
	}
}

// Summary is a value with a short caption, e.g. "1h 30m" / "avg".
type Summary struct {
	Value   string
	Caption string
}

// Overview counts today's logged and outstanding habits.
type Overview struct {
	Total     int
	Logged    int
	Remaining int
}

// Formatter computes windowed metrics against a calendar.
type Formatter struct {
	cal *periods.Calendar
}

func New(cal *periods.Calendar) *Formatter {
	return &Formatter{cal: cal}
}

// window indexes the entries of h that fall in the days most recent
// calendar days ending on ref's day.
func (f *Formatter) window(h models.Habit, entries []models.HabitEntry, days int, ref time.Time) map[int64]models.HabitEntry {
	owned, _ := goals.Partition(h.ID, entries)
	last := f.cal.StartOfDay(ref)
	iv := periods.Interval{Start: f.cal.AddDays(last, -(days - 1)), End: f.cal.AddDays(last, 1)}

	byDay := make(map[int64]models.HabitEntry, len(owned))
	for _, e := range owned {
		d := f.cal.StartOfDay(e.Date)
		if !iv.Contains(d) {
			continue
		}
		key := d.Unix()
		// keep a qualifying entry if the same day appears twice
		if prev, ok := byDay[key]; ok && goals.Qualifies(prev, h.Type) {
			continue
		}
		byDay[key] = e
	}
	return byDay
}

// CompletionRate is the share of the last days calendar days, today
// included, that have a qualifying entry.
func (f *Formatter) CompletionRate(h models.Habit, entries []models.HabitEntry, days int, ref time.Time) float64 {
	if days <= 0 {
		return 0
	}
	return float64(f.qualifyingDays(h, entries, days, ref)) / float64(days)
}

func (f *Formatter) qualifyingDays(h models.Habit, entries []models.HabitEntry, days int, ref time.Time) int {
	if days <= 0 {
		return 0
	}
	n := 0
	for _, e := range f.window(h, entries, days, ref) {
		if goals.Qualifies(e, h.Type) {
			n++
		}
	}
	return n
}

// HabitAverage is the completion rate for boolean habits. For the other
// kinds it is the mean value over the days that have a qualifying
// entry; days without one do not count toward the denominator.
func (f *Formatter) HabitAverage(h models.Habit, entries []models.HabitEntry, days int, ref time.Time) float64 {
	if days <= 0 {
		return 0
	}
	if h.Type.Kind == models.KindBoolean {
		return f.CompletionRate(h, entries, days, ref)
	}

	var sum float64
	var n int
	for _, e := range f.window(h, entries, days, ref) {
		if !goals.Qualifies(e, h.Type) {
			continue
		}
		switch h.Type.Kind {
		case models.KindDuration:
			sum += float64(*e.DurationSeconds)
		case models.KindRating:
			sum += float64(*e.RatingValue)
		case models.KindNumeric:
			sum += *e.NumericValue
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Summarize renders the habit's performance over days for display.
func (f *Formatter) Summarize(h models.Habit, entries []models.HabitEntry, days int, ref time.Time) Summary {
	switch h.Type.Kind {
	case models.KindBoolean:
		return Summary{
			Value:   fmt.Sprintf("%d", f.qualifyingDays(h, entries, days, ref)),
			Caption: "days",
		}
	case models.KindDuration:
		return Summary{
			Value:   FormatDuration(int64(f.HabitAverage(h, entries, days, ref))),
			Caption: "avg",
		}
	case models.KindRating:
		ratingMax := 0
		if h.Type.Rating != nil {
			ratingMax = h.Type.Rating.Max
		}
		return Summary{
			Value:   FormatDecimal(f.HabitAverage(h, entries, days, ref)),
			Caption: fmt.Sprintf("avg / %d", ratingMax),
		}
	case models.KindNumeric:
		caption := "avg"
		if h.Type.Numeric != nil && h.Type.Numeric.Unit != "" {
			caption += " " + h.Type.Numeric.Unit
		}
		return Summary{
			Value:   FormatDecimal(f.HabitAverage(h, entries, days, ref)),
			Caption: caption,
		}
	default:
		return Summary{Value: "-", Caption: ""}
	}
}

// TodayOverview counts active habits and how many have any entry on
// ref's day.
func (f *Formatter) TodayOverview(habits []models.Habit, entries []models.HabitEntry, ref time.Time) Overview {
	today := f.cal.StartOfDay(ref)
	logged := make(map[string]bool)
	for _, e := range entries {
		if !e.Date.IsZero() && f.cal.StartOfDay(e.Date).Equal(today) {
			logged[e.HabitID] = true
		}
	}

	var ov Overview
	for _, h := range habits {
		if h.Archived {
			continue
		}
		ov.Total++
		if logged[h.ID] {
			ov.Logged++
		}
	}
	ov.Remaining = ov.Total - ov.Logged
	return ov
}

// FormatDuration renders seconds as "1h 30m", "45m" or "30s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds) * time.Second
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatDecimal renders v with two decimals and thousands separators.
func FormatDecimal(v float64) string {
	return humanize.FormatFloat(decimalFormat, v)
}

// FormatPercent renders a rate in [0,1] as a whole percentage.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}
