package constants

// Notification categories, one per habit kind plus the daily summary.
const (
	CategoryBoolean      = "habit.boolean"
	CategoryDuration     = "habit.duration"
	CategoryRating       = "habit.rating"
	CategoryNumeric      = "habit.numeric"
	CategoryDailySummary = "habit.dailySummary"
)

// Notification actions offered by each category.
const (
	ActionBooleanComplete   = "action.boolean.complete"
	ActionBooleanIncomplete = "action.boolean.incomplete"
	ActionRatingEnter       = "action.rating.enter"
	ActionNumericEnter      = "action.numeric.enter"
	ActionDurationOpen      = "action.duration.open"
	ActionOpen              = "action.open"
)
