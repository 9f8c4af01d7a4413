package storage

import (
	"errors"
	"fmt"
)

// CopyStats reports what Copy transferred.
type CopyStats struct {
	Habits  int
	Entries int
}

// Copy transfers settings, habits and entries from src into dst. Both
// stores must already be loaded; dst is expected to be freshly initialised.
func Copy(dst, src Provider) (CopyStats, error) {
	var stats CopyStats

	settings, err := src.GetSettings()
	switch {
	case err == nil:
		if err := dst.SaveSettings(settings); err != nil {
			return stats, fmt.Errorf("failed to save settings to destination: %w", err)
		}
	case !errors.Is(err, ErrNotFound):
		return stats, fmt.Errorf("failed to get settings from source: %w", err)
	}

	habits, err := src.GetAllHabits(true)
	if err != nil {
		return stats, fmt.Errorf("failed to get habits from source: %w", err)
	}
	for _, h := range habits {
		if err := dst.AddHabit(h); err != nil {
			return stats, fmt.Errorf("failed to add habit %s: %w", h.ID, err)
		}
		stats.Habits++

		entries, err := src.GetHabitEntriesForHabit(h.ID)
		if err != nil {
			return stats, fmt.Errorf("failed to get entries for habit %s: %w", h.ID, err)
		}
		for _, e := range entries {
			if _, err := dst.UpsertHabitEntry(e); err != nil {
				return stats, fmt.Errorf("failed to add entry %s: %w", e.ID, err)
			}
			stats.Entries++
		}
	}
	return stats, nil
}
