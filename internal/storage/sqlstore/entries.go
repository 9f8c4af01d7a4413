package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const entryColumns = "id, habit_id, day, completed, duration_seconds, rating_value, numeric_value, note, updated_at"

func scanEntry(row scanner) (models.HabitEntry, error) {
	var e models.HabitEntry
	var day, updatedAt string
	var completed sql.NullBool
	var duration, rating sql.NullInt64
	var numeric sql.NullFloat64

	if err := row.Scan(&e.ID, &e.HabitID, &day, &completed, &duration, &rating, &numeric, &e.Note, &updatedAt); err != nil {
		return models.HabitEntry{}, err
	}

	var err error
	if e.Date, err = parseDay(day); err != nil {
		return models.HabitEntry{}, fmt.Errorf("failed to parse day for entry %s: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return models.HabitEntry{}, fmt.Errorf("failed to parse updated_at for entry %s: %w", e.ID, err)
	}
	if completed.Valid {
		e.Completed = models.BoolPtr(completed.Bool)
	}
	if duration.Valid {
		e.DurationSeconds = models.Int64Ptr(duration.Int64)
	}
	if rating.Valid {
		e.RatingValue = models.IntPtr(int(rating.Int64))
	}
	if numeric.Valid {
		e.NumericValue = models.Float64Ptr(numeric.Float64)
	}
	return e, nil
}

func entryArgs(e models.HabitEntry) []any {
	var completed sql.NullBool
	var duration, rating sql.NullInt64
	var numeric sql.NullFloat64
	if e.Completed != nil {
		completed = sql.NullBool{Bool: *e.Completed, Valid: true}
	}
	if e.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: *e.DurationSeconds, Valid: true}
	}
	if e.RatingValue != nil {
		rating = sql.NullInt64{Int64: int64(*e.RatingValue), Valid: true}
	}
	if e.NumericValue != nil {
		numeric = sql.NullFloat64{Float64: *e.NumericValue, Valid: true}
	}
	return []any{e.ID, e.HabitID, formatDay(e.Date), completed, duration, rating, numeric, e.Note,
		e.UpdatedAt.UTC().Format(time.RFC3339)}
}

// UpsertHabitEntry inserts the entry or merges its non-nil values into
// the existing entry for the same habit and day. The existing id is kept.
func (s *Store) UpsertHabitEntry(e models.HabitEntry) (models.HabitEntry, error) {
	if e.Date.IsZero() {
		return models.HabitEntry{}, errors.New("entry has no date")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = s.now()
	}
	_, err := s.exec(`
		INSERT INTO habit_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			completed = COALESCE(excluded.completed, habit_entries.completed),
			duration_seconds = COALESCE(excluded.duration_seconds, habit_entries.duration_seconds),
			rating_value = COALESCE(excluded.rating_value, habit_entries.rating_value),
			numeric_value = COALESCE(excluded.numeric_value, habit_entries.numeric_value),
			note = CASE WHEN excluded.note <> '' THEN excluded.note ELSE habit_entries.note END,
			updated_at = excluded.updated_at`, entryArgs(e)...)
	if err != nil {
		return models.HabitEntry{}, fmt.Errorf("failed to save entry for habit %s: %w", e.HabitID, err)
	}
	return s.GetHabitEntry(e.HabitID, e.Date)
}

func (s *Store) GetHabitEntry(habitID string, day time.Time) (models.HabitEntry, error) {
	e, err := scanEntry(s.queryRow("SELECT "+entryColumns+" FROM habit_entries WHERE habit_id = ? AND day = ?",
		habitID, formatDay(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.HabitEntry{}, fmt.Errorf("entry for habit %s on %s: %w", habitID, formatDay(day), storage.ErrNotFound)
	}
	return e, err
}

func (s *Store) listEntries(where string, args ...any) ([]models.HabitEntry, error) {
	rows, err := s.query("SELECT "+entryColumns+" FROM habit_entries WHERE "+where+" ORDER BY day, habit_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HabitEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetHabitEntriesForHabit(habitID string) ([]models.HabitEntry, error) {
	return s.listEntries("habit_id = ?", habitID)
}

// GetHabitEntriesInRange compares YYYY-MM-DD strings, which sort the
// same way as the days they name.
func (s *Store) GetHabitEntriesInRange(habitID string, start, end time.Time) ([]models.HabitEntry, error) {
	return s.listEntries("habit_id = ? AND day >= ? AND day < ?", habitID, formatDay(start), formatDay(end))
}

func (s *Store) GetHabitEntriesForDay(day time.Time) ([]models.HabitEntry, error) {
	return s.listEntries("day = ?", formatDay(day))
}

func (s *Store) DeleteHabitEntry(habitID string, day time.Time) error {
	res, err := s.exec("DELETE FROM habit_entries WHERE habit_id = ? AND day = ?", habitID, formatDay(day))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry for habit %s on %s: %w", habitID, formatDay(day), storage.ErrNotFound)
	}
	return nil
}
