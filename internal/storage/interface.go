package storage

import (
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// Provider is the persistence boundary for habits, entries and settings.
// Entry days are calendar dates; returned entries carry midnight UTC of
// their day, which callers normalise through periods.Calendar.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByTitle(title string) (models.Habit, error)
	GetAllHabits(includeArchived bool) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	ArchiveHabit(id string) error
	UnarchiveHabit(id string) error
	// DeleteHabit removes the habit and all of its entries.
	DeleteHabit(id string) error
	NextSortIndex() (int, error)

	// Habit entries. One entry per habit per day; UpsertHabitEntry merges
	// non-nil values into an existing entry and returns the stored result.
	UpsertHabitEntry(models.HabitEntry) (models.HabitEntry, error)
	GetHabitEntry(habitID string, day time.Time) (models.HabitEntry, error)
	GetHabitEntriesForHabit(habitID string) ([]models.HabitEntry, error)
	// GetHabitEntriesInRange returns entries with start <= day < end.
	GetHabitEntriesInRange(habitID string, start, end time.Time) ([]models.HabitEntry, error)
	GetHabitEntriesForDay(day time.Time) ([]models.HabitEntry, error)
	DeleteHabitEntry(habitID string, day time.Time) error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by backends that apply embedded schema migrations.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion reports the applied and the latest embedded version.
	SchemaVersion() (current, latest int, err error)
}
