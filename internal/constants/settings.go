package constants

const (
	// General Settings
	SettingTimezone             = "timezone"
	SettingWeekStart            = "week_start"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingFollowUpMinutes      = "follow_up_minutes"
	SettingDailySummaryTime     = "daily_summary_time"

	// Default Settings Values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultWeekStart            = "monday"
	DefaultNotificationsEnabled = true
	DefaultFollowUpMinutes      = 30
	DefaultDailySummaryTime     = ""
)
