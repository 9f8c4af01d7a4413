package models

// Settings represents application-wide settings
type Settings struct {
	Timezone             string `json:"timezone"`              // IANA timezone name (e.g. "America/New_York", or "Local" for system timezone)
	WeekStart            string `json:"week_start"`            // first day of a weekly goal period, e.g. "monday"
	NotificationsEnabled bool   `json:"notifications_enabled"` // whether reminders are delivered at all
	FollowUpMinutes      int    `json:"follow_up_minutes"`     // delay of the conditional follow-up reminder
	DailySummaryTime     string `json:"daily_summary_time"`    // HH:MM for the daily summary, empty when disabled
}
