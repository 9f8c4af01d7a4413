// Package goals aggregates habit entries into goal progress and streaks.
package goals

import (
	"github.com/julianstephens/habitual/internal/models"
)

// RawValue reduces entries to the quantity a goal target is compared
// against. Boolean and rating habits count entries; duration and
// numeric habits sum magnitudes.
func RawValue(entries []models.HabitEntry, t models.HabitType) float64 {
	var raw float64
	switch t.Kind {
	case models.KindBoolean:
		for _, e := range entries {
			if e.Completed != nil && *e.Completed {
				raw++
			}
		}
	case models.KindDuration:
		for _, e := range entries {
			if e.DurationSeconds != nil {
				raw += float64(*e.DurationSeconds)
			}
		}
	case models.KindRating:
		// presence, not magnitude
		for _, e := range entries {
			if e.RatingValue != nil {
				raw++
			}
		}
	case models.KindNumeric:
		for _, e := range entries {
			if e.NumericValue != nil {
				raw += *e.NumericValue
			}
		}
	}
	return raw
}

// Qualifies reports whether a single day's entry counts toward a day
// streak or completion rate.
func Qualifies(e models.HabitEntry, t models.HabitType) bool {
	switch t.Kind {
	case models.KindBoolean:
		return e.Completed != nil && *e.Completed
	case models.KindDuration:
		return e.DurationSeconds != nil && *e.DurationSeconds > 0
	case models.KindRating:
		return e.RatingValue != nil
	case models.KindNumeric:
		return e.NumericValue != nil && *e.NumericValue > 0
	default:
		return false
	}
}

// Partition splits entries into those owned by habitID and those that
// cannot be attributed to it (foreign habit id or missing date).
func Partition(habitID string, entries []models.HabitEntry) (owned, skipped []models.HabitEntry) {
	for _, e := range entries {
		if e.HabitID != habitID || e.Date.IsZero() {
			skipped = append(skipped, e)
			continue
		}
		owned = append(owned, e)
	}
	return owned, skipped
}
