package models

import "fmt"

// Frequency is the length of a goal period.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency accepts daily, weekly or monthly.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("invalid frequency %q (expected daily, weekly or monthly)", s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// Plural returns the unit name used to label streaks, e.g. "weeks".
func (f Frequency) Plural() string {
	switch f {
	case FrequencyWeekly:
		return "weeks"
	case FrequencyMonthly:
		return "months"
	default:
		return "days"
	}
}

// Unit returns the singular or plural unit name for n periods.
func (f Frequency) Unit(n int) string {
	if n == 1 {
		switch f {
		case FrequencyWeekly:
			return "week"
		case FrequencyMonthly:
			return "month"
		default:
			return "day"
		}
	}
	return f.Plural()
}

// Goal is a target amount per period. The meaning of Target depends on the
// habit kind: completions for boolean and rating habits, seconds for duration
// habits and a summed value for numeric habits.
type Goal struct {
	Target    float64   `json:"target"`
	Frequency Frequency `json:"frequency"`
}

// Enabled reports whether the goal should be evaluated at all: a positive
// target over a known period.
func (g Goal) Enabled() bool {
	return g.Target > 0 && g.Frequency.Valid()
}

func (g Goal) Validate() error {
	if g.Target < 0 {
		return fmt.Errorf("goal target cannot be negative (got %g)", g.Target)
	}
	if !g.Frequency.Valid() {
		return fmt.Errorf("invalid goal frequency %q", g.Frequency)
	}
	return nil
}
