package models

import "time"

// HabitEntry is a single day's record of a habit. Only the value field that
// matches the owning habit's kind is meaningful; the others stay nil.
//
// Date is a calendar day. Its wall-clock year, month and day in its own
// location identify the day; the time of day is ignored.
type HabitEntry struct {
	ID              string    `json:"id"`
	HabitID         string    `json:"habit_id"`
	Date            time.Time `json:"date"`
	Completed       *bool     `json:"completed,omitempty"`
	DurationSeconds *int64    `json:"duration_seconds,omitempty"`
	RatingValue     *int      `json:"rating_value,omitempty"`
	NumericValue    *float64  `json:"numeric_value,omitempty"`
	Note            string    `json:"note,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Merge copies the non-nil value fields (and a non-empty note) from other
// into e. It is the upsert-by-day rule: logging twice on one day updates the
// existing entry instead of adding a second one.
func (e *HabitEntry) Merge(other HabitEntry) {
	if other.Completed != nil {
		e.Completed = other.Completed
	}
	if other.DurationSeconds != nil {
		e.DurationSeconds = other.DurationSeconds
	}
	if other.RatingValue != nil {
		e.RatingValue = other.RatingValue
	}
	if other.NumericValue != nil {
		e.NumericValue = other.NumericValue
	}
	if other.Note != "" {
		e.Note = other.Note
	}
	if !other.UpdatedAt.IsZero() {
		e.UpdatedAt = other.UpdatedAt
	}
}

func BoolPtr(v bool) *bool          { return &v }
func Int64Ptr(v int64) *int64       { return &v }
func IntPtr(v int) *int             { return &v }
func Float64Ptr(v float64) *float64 { return &v }
