package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/periods"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
	Set  SettingsSetCmd  `cmd:"" help:"Update settings."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	summary := settings.DailySummaryTime
	if summary == "" {
		summary = "off"
	}

	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:              %s\n", settings.Timezone)
	ctx.Printf("  Week Start:            %s\n", settings.WeekStart)
	ctx.Println("\nNotification Settings:")
	ctx.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)
	ctx.Printf("  Follow-up Delay:       %d min\n", settings.FollowUpMinutes)
	ctx.Printf("  Daily Summary:         %s\n", summary)
	return nil
}

type SettingsSetCmd struct {
	Timezone             *string `help:"IANA timezone name, or Local for the system timezone."`
	WeekStart            *string `help:"First day of a weekly goal period, e.g. monday or sunday."`
	NotificationsEnabled *bool   `help:"Enable or disable notifications." negatable:""`
	FollowUpMinutes      *int    `help:"Minutes after a missed reminder before the follow-up."`
	DailySummaryTime     *string `help:"Daily summary time (HH:MM), or off."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	updated := false
	if c.Timezone != nil {
		if !periods.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.WeekStart != nil {
		wd, err := models.ParseWeekday(*c.WeekStart)
		if err != nil {
			return err
		}
		settings.WeekStart = strings.ToLower(wd.String())
		updated = true
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}
	if c.FollowUpMinutes != nil {
		if *c.FollowUpMinutes <= 0 {
			return fmt.Errorf("follow-up minutes must be positive (got %d)", *c.FollowUpMinutes)
		}
		settings.FollowUpMinutes = *c.FollowUpMinutes
		updated = true
	}
	if c.DailySummaryTime != nil {
		v := strings.TrimSpace(*c.DailySummaryTime)
		if strings.EqualFold(v, "off") {
			v = ""
		}
		if v != "" {
			t, err := models.ParseTimeOfDay(v)
			if err != nil {
				return err
			}
			v = t.String()
		}
		settings.DailySummaryTime = v
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use 'settings show' to view settings or flags to update them.")
		return nil
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.NotifyDaemon(func(c context.Context, d cli.Daemon) error { return d.Resync(c) })
	ctx.Println("Settings updated successfully.")
	return nil
}
