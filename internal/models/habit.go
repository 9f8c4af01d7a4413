package models

import (
	"errors"
	"strings"
	"time"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      HabitType  `json:"type"`
	Color     string     `json:"color"`
	Icon      string     `json:"icon,omitempty"`
	Archived  bool       `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
	Reminder  *TimeOfDay `json:"reminder,omitempty"`
	SortIndex int        `json:"sort_index"`
}

func (h *Habit) IsActive() bool {
	return !h.Archived
}

func (h *Habit) Goal() Goal {
	return h.Type.Goal()
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return errors.New("habit title cannot be empty")
	}
	return h.Type.Validate()
}
