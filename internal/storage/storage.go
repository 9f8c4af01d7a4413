package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
	"github.com/julianstephens/habitual/internal/reminders"
)

// ErrNotFound is returned (wrapped) when a habit, entry or the settings
// row set does not exist.
var ErrNotFound = errors.New("not found")

// EntryStore reads a habit's entries for evaluation.
type EntryStore struct {
	provider Provider
}

func NewEntryStore(p Provider) *EntryStore {
	return &EntryStore{provider: p}
}

func (s *EntryStore) EntriesForHabit(habitID string) ([]models.HabitEntry, error) {
	return s.provider.GetHabitEntriesForHabit(habitID)
}

// EntryForDay returns the habit's entry on day, or ok false when there is none.
func (s *EntryStore) EntryForDay(habitID string, day time.Time) (models.HabitEntry, bool, error) {
	e, err := s.provider.GetHabitEntry(habitID, day)
	if errors.Is(err, ErrNotFound) {
		return models.HabitEntry{}, false, nil
	}
	if err != nil {
		return models.HabitEntry{}, false, err
	}
	return e, true, nil
}

// EntriesByHabit loads entries for every habit, keyed by habit id.
func (s *EntryStore) EntriesByHabit(habits []models.Habit) (map[string][]models.HabitEntry, error) {
	out := make(map[string][]models.HabitEntry, len(habits))
	for _, h := range habits {
		entries, err := s.provider.GetHabitEntriesForHabit(h.ID)
		if err != nil {
			return nil, fmt.Errorf("loading entries for %s: %w", h.Title, err)
		}
		out[h.ID] = entries
	}
	return out, nil
}

// LoggedToday answers the reminder scheduler's questions about today
// using the calendar's notion of the current day.
type LoggedToday struct {
	provider Provider
	cal      *periods.Calendar
	newID    func() string
}

var (
	_ reminders.LoggedTodayQuery = (*LoggedToday)(nil)
	_ reminders.RemainingCounter = (*LoggedToday)(nil)
	_ reminders.HabitWriter      = (*LoggedToday)(nil)
)

func NewLoggedToday(p Provider, cal *periods.Calendar) *LoggedToday {
	return &LoggedToday{provider: p, cal: cal, newID: uuid.NewString}
}

func (l *LoggedToday) IsLoggedToday(ctx context.Context, habitID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := l.provider.GetHabitEntry(habitID, l.cal.Today())
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *LoggedToday) RemainingToday(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	habits, err := l.provider.GetAllHabits(false)
	if err != nil {
		return 0, err
	}
	entries, err := l.provider.GetHabitEntriesForDay(l.cal.Today())
	if err != nil {
		return 0, err
	}
	logged := make(map[string]bool, len(entries))
	for _, e := range entries {
		logged[e.HabitID] = true
	}
	remaining := 0
	for _, h := range habits {
		if !logged[h.ID] {
			remaining++
		}
	}
	return remaining, nil
}

// LogEntry upserts entry, filling in an id and timestamp when missing.
func (l *LoggedToday) LogEntry(ctx context.Context, entry models.HabitEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = l.newID()
	}
	if entry.Date.IsZero() {
		entry.Date = l.cal.Today()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = l.cal.Now()
	}
	_, err := l.provider.UpsertHabitEntry(entry)
	return err
}
