package reminders

import (
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
)

// Stage tells which kind of notification a request id names.
type Stage int

const (
	StageUnknown Stage = iota
	StagePrimary
	StageFollowUp
	StageSummary
)

// RequestID is a parsed notification request identifier.
//
//	habit.<id>                          primary
//	habit.<id>.followup[.<nonce>]       follow-up planned at schedule time
//	habit.<id>.followup.<origin>.<nonce> follow-up after a delivered reminder
//	summary.daily                       daily summary
type RequestID struct {
	HabitID string
	Stage   Stage
	Origin  string
	Nonce   string
}

// HabitPrefix matches every request of a habit.
func HabitPrefix(habitID string) string {
	return constants.RequestIDPrefix + "." + habitID
}

// PrimaryID is the id of a habit's repeating reminder.
func PrimaryID(habitID string) string {
	return HabitPrefix(habitID)
}

// FollowUpPrefix matches every follow-up of a habit.
func FollowUpPrefix(habitID string) string {
	return HabitPrefix(habitID) + "." + constants.FollowUpSegment
}

// PlannedFollowUpID names the follow-up computed when a reminder is set.
func PlannedFollowUpID(habitID, nonce string) string {
	return FollowUpPrefix(habitID) + "." + nonce
}

// InteractionFollowUpID names the follow-up scheduled after origin was
// delivered.
func InteractionFollowUpID(habitID, origin, nonce string) string {
	return FollowUpPrefix(habitID) + "." + origin + "." + nonce
}

// MatchesPrefix reports whether id equals prefix or extends it by a
// dot-separated segment, so habit.ab never matches habit.abc.
func MatchesPrefix(id, prefix string) bool {
	if prefix == "" {
		return true
	}
	return id == prefix || strings.HasPrefix(id, prefix+".")
}

// ParseRequestID splits a request id into its parts. The second return
// is false for ids not produced by this package.
func ParseRequestID(id string) (RequestID, bool) {
	if id == constants.DailySummaryID {
		return RequestID{Stage: StageSummary}, true
	}
	rest, ok := strings.CutPrefix(id, constants.RequestIDPrefix+".")
	if !ok || rest == "" {
		return RequestID{}, false
	}

	habitID, tail, hasTail := strings.Cut(rest, ".")
	if habitID == "" {
		return RequestID{}, false
	}
	if !hasTail {
		return RequestID{HabitID: habitID, Stage: StagePrimary}, true
	}

	tail, ok = strings.CutPrefix(tail, constants.FollowUpSegment)
	if !ok {
		return RequestID{}, false
	}
	parsed := RequestID{HabitID: habitID, Stage: StageFollowUp}
	if tail == "" {
		return parsed, true
	}
	tail, ok = strings.CutPrefix(tail, ".")
	if !ok || tail == "" {
		return RequestID{}, false
	}
	if i := strings.LastIndex(tail, "."); i >= 0 {
		parsed.Origin, parsed.Nonce = tail[:i], tail[i+1:]
	} else {
		parsed.Nonce = tail
	}
	return parsed, true
}
