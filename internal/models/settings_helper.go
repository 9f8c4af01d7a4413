package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingWeekStart:
			settings.WeekStart = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingFollowUpMinutes:
			if _, err := fmt.Sscanf(value, "%d", &settings.FollowUpMinutes); err != nil {
				return Settings{}, fmt.Errorf("parsing follow_up_minutes: %w", err)
			}
		case constants.SettingDailySummaryTime:
			settings.DailySummaryTime = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingWeekStart:            settings.WeekStart,
		constants.SettingNotificationsEnabled: fmt.Sprintf("%v", settings.NotificationsEnabled),
		constants.SettingFollowUpMinutes:      fmt.Sprintf("%d", settings.FollowUpMinutes),
		constants.SettingDailySummaryTime:     settings.DailySummaryTime,
	}
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		WeekStart:            constants.DefaultWeekStart,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		FollowUpMinutes:      constants.DefaultFollowUpMinutes,
		DailySummaryTime:     constants.DefaultDailySummaryTime,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.WeekStart == "" {
		settings.WeekStart = constants.DefaultWeekStart
	}
	if settings.FollowUpMinutes == 0 {
		settings.FollowUpMinutes = constants.DefaultFollowUpMinutes
	}
}

// ParseWeekday maps a weekday name (full or three-letter) to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid weekday: %s", s)
	}
}

// FollowUpDelay returns the configured follow-up delay.
func (s Settings) FollowUpDelay() time.Duration {
	if s.FollowUpMinutes <= 0 {
		return constants.DefaultFollowUpDelay
	}
	return time.Duration(s.FollowUpMinutes) * time.Minute
}
