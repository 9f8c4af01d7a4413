package reminders

import (
	"fmt"
	"net/url"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Content is what a notification shows and which actions it offers.
type Content struct {
	HabitID       string   `json:"habit_id,omitempty"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Category      string   `json:"category"`
	Thread        string   `json:"thread,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	FollowUp      bool     `json:"follow_up"`
	TimeSensitive bool     `json:"time_sensitive"`
	DeepLink      string   `json:"deep_link,omitempty"`
}

// HabitContent builds the reminder or follow-up for h. day is the
// calendar day a duration deep link should open.
func HabitContent(h models.Habit, followUp bool, day time.Time) Content {
	c := Content{
		HabitID:       h.ID,
		Title:         h.Title,
		FollowUp:      followUp,
		TimeSensitive: followUp,
	}

	switch h.Type.Kind {
	case models.KindBoolean:
		c.Category = constants.CategoryBoolean
		c.Actions = []string{constants.ActionBooleanComplete, constants.ActionBooleanIncomplete}
		c.Body = pick(followUp, "Still not logged. Mark it complete?", "Time to check this off.")
	case models.KindDuration:
		c.Category = constants.CategoryDuration
		c.Actions = []string{constants.ActionDurationOpen}
		c.Body = pick(followUp, "Still not logged. Open to log your time.", "Open to log your time.")
		c.DeepLink = EntryDeepLink(h.ID, day)
	case models.KindRating:
		c.Category = constants.CategoryRating
		c.Actions = []string{constants.ActionRatingEnter}
		c.Body = pick(followUp, "Still not logged. Enter a rating.", "Enter a quick rating.")
	case models.KindNumeric:
		c.Category = constants.CategoryNumeric
		c.Actions = []string{constants.ActionNumericEnter}
		c.Body = pick(followUp, "Still not logged. Enter a value.", "Enter a quick value.")
	}
	return c
}

// SummaryContent builds the daily summary. A negative remaining count
// means the count is unknown.
func SummaryContent(remaining int) Content {
	body := "Check your habits for today."
	if remaining >= 0 {
		noun := "habits"
		if remaining == 1 {
			noun = "habit"
		}
		body = fmt.Sprintf("You have %d %s remaining today.", remaining, noun)
	}
	return Content{
		Title:    "Daily Summary",
		Body:     body,
		Category: constants.CategoryDailySummary,
		Thread:   constants.DailySummaryThread,
		Actions:  []string{constants.ActionOpen},
	}
}

// EntryDeepLink points at the entry editor for a habit and day.
func EntryDeepLink(habitID string, day time.Time) string {
	q := url.Values{}
	q.Set("habitID", habitID)
	q.Set("date", day.Format(constants.DateFormat))
	return (&url.URL{Scheme: constants.DeepLinkScheme, Host: "entry", RawQuery: q.Encode()}).String()
}

func pick(followUp bool, later, first string) string {
	if followUp {
		return later
	}
	return first
}
