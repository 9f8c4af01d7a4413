package reminders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

// HandleAction turns a notification action into an entry for today and
// then cancels the habit's follow-ups. Actions that only open the app
// return without logging anything.
func (s *Scheduler) HandleAction(ctx context.Context, h models.Habit, actionID, input string) error {
	entry := models.HabitEntry{
		HabitID:   h.ID,
		Date:      s.cal.Today(),
		UpdatedAt: s.cal.Now(),
	}

	switch actionID {
	case constants.ActionBooleanComplete, constants.ActionBooleanIncomplete:
		if h.Type.Kind != models.KindBoolean {
			return fmt.Errorf("action %s does not apply to %s habits", actionID, h.Type.Kind)
		}
		entry.Completed = models.BoolPtr(actionID == constants.ActionBooleanComplete)
	case constants.ActionRatingEnter:
		if h.Type.Kind != models.KindRating || h.Type.Rating == nil {
			return fmt.Errorf("action %s does not apply to %s habits", actionID, h.Type.Kind)
		}
		v, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return fmt.Errorf("invalid rating %q: %w", input, err)
		}
		entry.RatingValue = models.IntPtr(v)
	case constants.ActionNumericEnter:
		if h.Type.Kind != models.KindNumeric {
			return fmt.Errorf("action %s does not apply to %s habits", actionID, h.Type.Kind)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", input, err)
		}
		entry.NumericValue = models.Float64Ptr(v)
	case constants.ActionDurationOpen, constants.ActionOpen:
		return nil
	default:
		return fmt.Errorf("unknown action %q", actionID)
	}

	if err := validation.ValidateEntry(h, entry); err != nil {
		return err
	}
	if s.writer == nil {
		return ErrNoWriter
	}
	if err := s.writer.LogEntry(ctx, entry); err != nil {
		return fmt.Errorf("logging %q from notification: %w", h.Title, err)
	}
	return s.OnHabitLogged(ctx, h.ID)
}
