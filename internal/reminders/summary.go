package reminders

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// ScheduleDailySummary replaces the daily summary with one at t. A nil
// t only cancels it.
func (s *Scheduler) ScheduleDailySummary(ctx context.Context, t *models.TimeOfDay) error {
	if t != nil {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid summary time: %w", err)
		}
	}

	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()

	if err := s.cancelSummaryLocked(ctx); err != nil {
		return err
	}
	if t == nil {
		return nil
	}

	trigger := RepeatingDaily(t.Hour, t.Minute)
	if err := s.port.Schedule(ctx, constants.DailySummaryID, trigger, s.SummaryContent(ctx)); err != nil {
		log.Warn("failed to schedule daily summary", "request", constants.DailySummaryID, "err", err)
		return fmt.Errorf("scheduling daily summary: %w", err)
	}
	at := *t
	s.summary = &at
	return nil
}

// CancelDailySummary removes the daily summary if one is scheduled.
func (s *Scheduler) CancelDailySummary(ctx context.Context) error {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	return s.cancelSummaryLocked(ctx)
}

// DailySummary returns the scheduled summary time, if any.
func (s *Scheduler) DailySummary() *models.TimeOfDay {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	if s.summary == nil {
		return nil
	}
	at := *s.summary
	return &at
}

// SummaryContent builds the summary with the current remaining count,
// falling back to a generic body when no count is available.
func (s *Scheduler) SummaryContent(ctx context.Context) Content {
	if s.remaining == nil {
		return SummaryContent(-1)
	}
	n, err := s.remaining.RemainingToday(ctx)
	if err != nil {
		log.Warn("failed to count remaining habits", "err", err)
		return SummaryContent(-1)
	}
	return SummaryContent(n)
}

func (s *Scheduler) cancelSummaryLocked(ctx context.Context) error {
	if err := s.port.Cancel(ctx, constants.DailySummaryID); err != nil {
		log.Warn("failed to cancel daily summary", "request", constants.DailySummaryID, "err", err)
		return fmt.Errorf("cancelling daily summary: %w", err)
	}
	s.summary = nil
	return nil
}
