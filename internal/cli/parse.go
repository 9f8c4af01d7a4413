package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
)

// HabitTypeSpec is the flag form of a habit type.
type HabitTypeSpec struct {
	Kind      string
	Target    string
	Frequency string
	Min       float64
	Max       float64
	Unit      string
}

// ParseTarget reads a goal target. Duration targets accept Go durations
// such as "30m" or a plain number of seconds.
func ParseTarget(kind models.Kind, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if kind == models.KindDuration {
		if d, err := time.ParseDuration(s); err == nil {
			return d.Seconds(), nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid goal target %q", s)
	}
	return v, nil
}

func (s HabitTypeSpec) Build() (models.HabitType, error) {
	kind, err := models.ParseKind(strings.ToLower(s.Kind))
	if err != nil {
		return models.HabitType{}, err
	}
	freq := models.FrequencyDaily
	if s.Frequency != "" {
		if freq, err = models.ParseFrequency(strings.ToLower(s.Frequency)); err != nil {
			return models.HabitType{}, err
		}
	}
	target, err := ParseTarget(kind, s.Target)
	if err != nil {
		return models.HabitType{}, err
	}
	goal := models.Goal{Target: target, Frequency: freq}

	var t models.HabitType
	switch kind {
	case models.KindBoolean:
		t = models.NewBoolean(goal)
	case models.KindDuration:
		t = models.NewDuration(goal)
	case models.KindRating:
		lo, hi := int(s.Min), int(s.Max)
		if lo == 0 && hi == 0 {
			lo, hi = 1, 5
		}
		t = models.NewRating(lo, hi, goal)
	case models.KindNumeric:
		t = models.NewNumeric(s.Min, s.Max, s.Unit, goal)
	}
	return t, t.Validate()
}

// ParseEntryValue builds the value fields of an entry for h from the
// command line. Boolean habits default to complete.
func ParseEntryValue(h models.Habit, value string, incomplete bool) (models.HabitEntry, error) {
	var e models.HabitEntry
	value = strings.TrimSpace(value)

	switch h.Type.Kind {
	case models.KindBoolean:
		done := !incomplete
		if value != "" {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return e, fmt.Errorf("invalid completion %q (expected true or false)", value)
			}
			done = b && !incomplete
		}
		e.Completed = models.BoolPtr(done)
	case models.KindDuration:
		if value == "" {
			return e, fmt.Errorf("%q needs a duration, e.g. 45m", h.Title)
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			secs, perr := strconv.ParseInt(value, 10, 64)
			if perr != nil {
				return e, fmt.Errorf("invalid duration %q: %w", value, err)
			}
			d = time.Duration(secs) * time.Second
		}
		e.DurationSeconds = models.Int64Ptr(int64(d / time.Second))
	case models.KindRating:
		if value == "" {
			return e, fmt.Errorf("%q needs a rating", h.Title)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return e, fmt.Errorf("invalid rating %q", value)
		}
		e.RatingValue = models.IntPtr(v)
	case models.KindNumeric:
		if value == "" {
			return e, fmt.Errorf("%q needs a value", h.Title)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return e, fmt.Errorf("invalid value %q", value)
		}
		e.NumericValue = models.Float64Ptr(v)
	default:
		return e, fmt.Errorf("unknown habit kind %q", h.Type.Kind)
	}
	return e, nil
}

// FormatAmount renders a goal-sized quantity of h: a duration, a value
// with its unit, or a plain count.
func FormatAmount(h models.Habit, v float64) string {
	switch h.Type.Kind {
	case models.KindDuration:
		return metrics.FormatDuration(int64(v))
	case models.KindNumeric:
		amount := humanize.Ftoa(v)
		if h.Type.Numeric != nil && h.Type.Numeric.Unit != "" {
			amount += " " + h.Type.Numeric.Unit
		}
		return amount
	default:
		return humanize.Ftoa(v)
	}
}

// FormatGoal renders a goal such as "3x per week" or "1h 30m per day".
func FormatGoal(h models.Habit) string {
	g := h.Goal()
	if !g.Enabled() {
		return "no goal"
	}
	amount := FormatAmount(h, g.Target)
	if h.Type.Kind == models.KindBoolean || h.Type.Kind == models.KindRating {
		amount += "x"
	}
	return fmt.Sprintf("%s per %s", amount, g.Frequency.Unit(1))
}

// FormatEntryValue renders the value an entry carries for h.
func FormatEntryValue(h models.Habit, e models.HabitEntry) string {
	switch h.Type.Kind {
	case models.KindBoolean:
		if e.Completed != nil && *e.Completed {
			return "done"
		}
		return "not done"
	case models.KindDuration:
		if e.DurationSeconds != nil {
			return metrics.FormatDuration(*e.DurationSeconds)
		}
	case models.KindRating:
		if e.RatingValue != nil && h.Type.Rating != nil {
			return fmt.Sprintf("%d/%d", *e.RatingValue, h.Type.Rating.Max)
		}
	case models.KindNumeric:
		if e.NumericValue != nil {
			v := metrics.FormatDecimal(*e.NumericValue)
			if h.Type.Numeric != nil && h.Type.Numeric.Unit != "" {
				v += " " + h.Type.Numeric.Unit
			}
			return v
		}
	}
	return "-"
}
