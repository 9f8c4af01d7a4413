package settings

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	var out bytes.Buffer
	return &cli.Context{Store: store, Out: &out}, &out
}

func ptr[T any](v T) *T { return &v }

func TestSettingsShow(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&SettingsShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("settings show failed: %v", err)
	}
	for _, want := range []string{"Timezone:              Local", "Week Start:            monday", "Daily Summary:         off"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSettingsSet(t *testing.T) {
	ctx, _ := setupTestDB(t)

	cmd := &SettingsSetCmd{
		Timezone:             ptr("America/New_York"),
		WeekStart:            ptr("Sun"),
		NotificationsEnabled: ptr(false),
		FollowUpMinutes:      ptr(45),
		DailySummaryTime:     ptr("8:05"),
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "America/New_York" || got.WeekStart != "sunday" || got.NotificationsEnabled ||
		got.FollowUpMinutes != 45 || got.DailySummaryTime != "08:05" {
		t.Errorf("settings = %+v", got)
	}

	if err := (&SettingsSetCmd{DailySummaryTime: ptr("off")}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = ctx.Store.GetSettings()
	if got.DailySummaryTime != "" {
		t.Errorf("DailySummaryTime = %q, want empty", got.DailySummaryTime)
	}
}

func TestSettingsSet_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		cmd  SettingsSetCmd
	}{
		{"timezone", SettingsSetCmd{Timezone: ptr("Mars/Olympus")}},
		{"week start", SettingsSetCmd{WeekStart: ptr("someday")}},
		{"follow-up", SettingsSetCmd{FollowUpMinutes: ptr(0)}},
		{"summary time", SettingsSetCmd{DailySummaryTime: ptr("25:00")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestDB(t)
			before, _ := ctx.Store.GetSettings()
			if err := tt.cmd.Run(ctx); err == nil {
				t.Fatal("expected error")
			}
			after, _ := ctx.Store.GetSettings()
			if after != before {
				t.Errorf("settings changed on invalid input: %+v", after)
			}
		})
	}
}

func TestSettingsSet_NoChanges(t *testing.T) {
	ctx, out := setupTestDB(t)
	if err := (&SettingsSetCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No changes specified") {
		t.Errorf("output = %q", out.String())
	}
}
