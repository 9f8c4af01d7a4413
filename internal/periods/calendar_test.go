package periods

import (
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

var allFrequencies = []models.Frequency{
	models.FrequencyDaily,
	models.FrequencyWeekly,
	models.FrequencyMonthly,
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s not available: %v", name, err)
	}
	return loc
}

func TestStartOfPeriod(t *testing.T) {
	cal := New(time.UTC)
	// Wednesday
	ref := time.Date(2024, 5, 15, 17, 42, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq models.Frequency
		want time.Time
	}{
		{"daily", models.FrequencyDaily, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"weekly starts monday", models.FrequencyWeekly, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"monthly", models.FrequencyMonthly, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.StartOfPeriod(ref, tt.freq)
			if !got.Equal(tt.want) {
				t.Errorf("StartOfPeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartOfPeriodWeekBoundaries(t *testing.T) {
	sunday := time.Date(2024, 5, 19, 9, 0, 0, 0, time.UTC)

	monday := New(time.UTC)
	if got := monday.StartOfPeriod(sunday, models.FrequencyWeekly); got.Day() != 13 {
		t.Errorf("monday-start week of sunday 19th should begin on 13th, got %v", got)
	}

	sundayStart := New(time.UTC, WithFirstWeekday(time.Sunday))
	if got := sundayStart.StartOfPeriod(sunday, models.FrequencyWeekly); got.Day() != 19 {
		t.Errorf("sunday-start week of sunday 19th should begin on 19th, got %v", got)
	}
}

func TestPeriodIntervalMonthEnds(t *testing.T) {
	cal := New(time.UTC)

	tests := []struct {
		name      string
		ref       time.Time
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "jan 31 one month back",
			ref:       time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			offset:    1,
			wantStart: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "mar 31 one month back lands in february",
			ref:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			offset:    1,
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap day current month",
			ref:       time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC),
			offset:    0,
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap day twelve months back",
			ref:       time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			offset:    12,
			wantStart: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.PeriodInterval(tt.offset, models.FrequencyMonthly, tt.ref)
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("PeriodInterval() = [%v, %v), want [%v, %v)", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPeriodIntervalAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	cal := New(ny)

	tests := []struct {
		name string
		ref  time.Time
		freq models.Frequency
		want time.Duration
	}{
		// DST starts 2024-03-10.
		{"spring forward day", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), models.FrequencyDaily, 23 * time.Hour},
		{"spring forward week", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), models.FrequencyWeekly, 7*24*time.Hour - time.Hour},
		// DST ends 2024-11-03.
		{"fall back day", time.Date(2024, 11, 3, 12, 0, 0, 0, ny), models.FrequencyDaily, 25 * time.Hour},
		{"fall back week", time.Date(2024, 11, 3, 12, 0, 0, 0, ny), models.FrequencyWeekly, 7*24*time.Hour + time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := cal.PeriodInterval(0, tt.freq, tt.ref)
			if iv.Start.Hour() != 0 || iv.End.Hour() != 0 {
				t.Errorf("expected local midnights, got [%v, %v)", iv.Start, iv.End)
			}
			if got := iv.End.Sub(iv.Start); got != tt.want {
				t.Errorf("interval length = %v, want %v", got, tt.want)
			}
			if !iv.Contains(tt.ref) {
				t.Errorf("interval [%v, %v) does not contain %v", iv.Start, iv.End, tt.ref)
			}
		})
	}
}

func TestWeeklyStepsKeepMidnightAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	cal := New(ny)
	ref := time.Date(2024, 3, 20, 8, 0, 0, 0, ny)

	for offset := 0; offset < 6; offset++ {
		iv := cal.PeriodInterval(offset, models.FrequencyWeekly, ref)
		if iv.Start.Hour() != 0 || iv.Start.Weekday() != time.Monday {
			t.Errorf("offset %d: expected monday midnight, got %v", offset, iv.Start)
		}
	}
}

func TestPeriodMonotonicity(t *testing.T) {
	cal := New(mustLoad(t, "Europe/Berlin"))
	refs := []time.Time{
		time.Date(2024, 1, 31, 10, 0, 0, 0, cal.Location()),
		time.Date(2024, 3, 31, 2, 30, 0, 0, cal.Location()),
		time.Date(2024, 10, 27, 23, 0, 0, 0, cal.Location()),
		time.Date(2025, 12, 31, 0, 0, 0, 0, cal.Location()),
	}

	for _, freq := range allFrequencies {
		for _, ref := range refs {
			prev := cal.PeriodInterval(0, freq, ref)
			for offset := 1; offset < 60; offset++ {
				cur := cal.PeriodInterval(offset, freq, ref)
				if !cur.Start.Before(prev.Start) {
					t.Fatalf("%s ref %v: offset %d start %v not before offset %d start %v",
						freq, ref, offset, cur.Start, offset-1, prev.Start)
				}
				if !cur.End.Equal(prev.Start) {
					t.Fatalf("%s ref %v: gap or overlap between offsets %d and %d", freq, ref, offset, offset-1)
				}
				prev = cur
			}
		}
	}
}

func TestPeriodCoverage(t *testing.T) {
	cal := New(mustLoad(t, "America/New_York"))
	anchor := time.Date(2024, 12, 31, 12, 0, 0, 0, cal.Location())

	for _, freq := range allFrequencies {
		var periods []Interval
		for offset := 0; offset < 420; offset++ {
			periods = append(periods, cal.PeriodInterval(offset, freq, anchor))
		}
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, cal.Location())
		for day.Year() == 2024 {
			matches := 0
			for _, iv := range periods {
				if iv.Contains(day) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("%s: day %s matched %d periods", freq, FormatDay(day), matches)
			}
			day = cal.AddDays(day, 1)
		}
	}
}

func TestStartOfDayKeepsWallClockDate(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	cal := New(tokyo)

	stored := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := cal.StartOfDay(stored)
	if got.Year() != 2024 || got.Month() != time.June || got.Day() != 1 || got.Location() != tokyo {
		t.Errorf("StartOfDay() = %v, want 2024-06-01 in Asia/Tokyo", got)
	}
}

func TestInstantsAreReadInCalendarLocation(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	cal := New(ny)
	// 22:00 on Wednesday Mar 13 in New York
	instant := time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		got  time.Time
		want time.Time
	}{
		{"start of day", cal.StartOfDay(instant), time.Date(2024, 3, 13, 0, 0, 0, 0, ny)},
		{"daily", cal.StartOfPeriod(instant, models.FrequencyDaily), time.Date(2024, 3, 13, 0, 0, 0, 0, ny)},
		{"weekly", cal.StartOfPeriod(instant, models.FrequencyWeekly), time.Date(2024, 3, 11, 0, 0, 0, 0, ny)},
		{"add days", cal.AddDays(instant, 1), time.Date(2024, 3, 14, 0, 0, 0, 0, ny)},
		{"stored day keeps its date", cal.StartOfPeriod(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), models.FrequencyDaily), time.Date(2024, 3, 14, 0, 0, 0, 0, ny)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if !cal.SameDay(instant, time.Date(2024, 3, 13, 9, 0, 0, 0, ny)) {
		t.Error("instant should fall on Mar 13 in New York")
	}
}

func TestTodayUsesClock(t *testing.T) {
	fixed := time.Date(2024, 7, 4, 23, 30, 0, 0, time.UTC)
	cal := New(mustLoad(t, "Asia/Tokyo"), WithClock(func() time.Time { return fixed }))

	if got := FormatDay(cal.Today()); got != "2024-07-05" {
		t.Errorf("Today() = %s, want 2024-07-05", got)
	}
}

func TestIntervalContainsIsHalfOpen(t *testing.T) {
	iv := Interval{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if !iv.Contains(iv.Start) {
		t.Error("start should be contained")
	}
	if iv.Contains(iv.End) {
		t.Error("end should be excluded")
	}
	if !iv.Contains(iv.End.Add(-time.Nanosecond)) {
		t.Error("last nanosecond should be contained")
	}
}
