// Package validation checks habits and entries before they are written
// and reports integrity problems in stored data.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type ConflictType string

const (
	ConflictDuplicateTitle  ConflictType = "duplicate_title"
	ConflictInvalidHabit    ConflictType = "invalid_habit"
	ConflictInvalidReminder ConflictType = "invalid_reminder"
	ConflictOrphanedEntry   ConflictType = "orphaned_entry"
	ConflictKindMismatch    ConflictType = "kind_mismatch"
	ConflictOutOfRange      ConflictType = "out_of_range"
)

// Conflict is one detected problem.
type Conflict struct {
	Type        ConflictType
	Description string
	HabitIDs    []string
	EntryIDs    []string
}

type ValidationResult struct {
	Conflicts []Conflict
}

func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}
	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateHabits checks each habit's definition and that titles are
// unique ignoring case.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	var result ValidationResult

	byTitle := make(map[string][]models.Habit)
	for _, h := range habits {
		if err := h.Validate(); err != nil {
			result.add(Conflict{
				Type:        ConflictInvalidHabit,
				Description: fmt.Sprintf("Habit %q is invalid: %v", h.Title, err),
				HabitIDs:    []string{h.ID},
			})
		}
		if h.Reminder != nil {
			if err := h.Reminder.Validate(); err != nil {
				result.add(Conflict{
					Type:        ConflictInvalidReminder,
					Description: fmt.Sprintf("Habit %q has an invalid reminder: %v", h.Title, err),
					HabitIDs:    []string{h.ID},
				})
			}
		}
		key := strings.ToLower(strings.TrimSpace(h.Title))
		byTitle[key] = append(byTitle[key], h)
	}

	titles := make([]string, 0, len(byTitle))
	for title := range byTitle {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		group := byTitle[title]
		if len(group) < 2 || title == "" {
			continue
		}
		ids := make([]string, len(group))
		for i, h := range group {
			ids[i] = h.ID
		}
		result.add(Conflict{
			Type:        ConflictDuplicateTitle,
			Description: fmt.Sprintf("%d habits share the title %q", len(group), group[0].Title),
			HabitIDs:    ids,
		})
	}
	return result
}

// ValidateEntries checks stored entries against the habits they claim
// to belong to.
func (v *Validator) ValidateEntries(habits []models.Habit, entries []models.HabitEntry) ValidationResult {
	var result ValidationResult

	byID := make(map[string]models.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}
	for _, e := range entries {
		h, ok := byID[e.HabitID]
		if !ok {
			result.add(Conflict{
				Type:        ConflictOrphanedEntry,
				Description: fmt.Sprintf("Entry %s on %s references unknown habit %s", e.ID, e.Date.Format(constants.DateFormat), e.HabitID),
				EntryIDs:    []string{e.ID},
			})
			continue
		}
		if err := ValidateEntry(h, e); err != nil {
			ct := ConflictOutOfRange
			if _, mismatch := err.(*KindMismatchError); mismatch {
				ct = ConflictKindMismatch
			}
			result.add(Conflict{
				Type:        ct,
				Description: fmt.Sprintf("Entry for %q on %s: %v", h.Title, e.Date.Format(constants.DateFormat), err),
				HabitIDs:    []string{h.ID},
				EntryIDs:    []string{e.ID},
			})
		}
	}
	return result
}

// KindMismatchError reports an entry value that does not match the habit kind.
type KindMismatchError struct {
	Kind  models.Kind
	Field string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("%s habits do not record %s", e.Kind, e.Field)
}

// ValidateEntry checks that e only carries the value its habit's kind
// uses and that the value is in range.
func ValidateEntry(h models.Habit, e models.HabitEntry) error {
	k := h.Type.Kind
	if e.Completed != nil && k != models.KindBoolean {
		return &KindMismatchError{Kind: k, Field: "completion"}
	}
	if e.DurationSeconds != nil && k != models.KindDuration {
		return &KindMismatchError{Kind: k, Field: "a duration"}
	}
	if e.RatingValue != nil && k != models.KindRating {
		return &KindMismatchError{Kind: k, Field: "a rating"}
	}
	if e.NumericValue != nil && k != models.KindNumeric {
		return &KindMismatchError{Kind: k, Field: "a numeric value"}
	}

	switch k {
	case models.KindDuration:
		if e.DurationSeconds != nil && *e.DurationSeconds < 0 {
			return fmt.Errorf("duration cannot be negative (got %d seconds)", *e.DurationSeconds)
		}
	case models.KindRating:
		if e.RatingValue != nil && h.Type.Rating != nil {
			r := h.Type.Rating
			if *e.RatingValue < r.Min || *e.RatingValue > r.Max {
				return fmt.Errorf("rating %d is outside %d-%d", *e.RatingValue, r.Min, r.Max)
			}
		}
	case models.KindNumeric:
		if e.NumericValue != nil && (math.IsNaN(*e.NumericValue) || math.IsInf(*e.NumericValue, 0)) {
			return fmt.Errorf("value %g is not a finite number", *e.NumericValue)
		}
		if e.NumericValue != nil && h.Type.Numeric != nil {
			n := h.Type.Numeric
			// 0-0 means unbounded
			bounded := n.Min != 0 || n.Max != 0
			if bounded && (*e.NumericValue < n.Min || *e.NumericValue > n.Max) {
				return fmt.Errorf("value %g is outside %g-%g", *e.NumericValue, n.Min, n.Max)
			}
		}
	}
	return nil
}
