package goals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// CurrentGoalStreak counts consecutive periods, ending with the one
// containing ref, whose raw value meets the goal target. The walk stops
// at the first miss, at the period holding the earliest entry, or after
// the configured maximum number of periods.
func (e *Evaluator) CurrentGoalStreak(h models.Habit, entries []models.HabitEntry, ref time.Time) int {
	goal := h.Goal()
	if !goal.Enabled() {
		return 0
	}
	owned, _ := e.owned(h, entries)
	if len(owned) == 0 {
		return 0
	}

	buckets := make(map[int64][]models.HabitEntry)
	earliest := e.cal.StartOfDay(owned[0].Date)
	for _, entry := range owned {
		day := e.cal.StartOfDay(entry.Date)
		if day.Before(earliest) {
			earliest = day
		}
		key := e.cal.StartOfPeriod(day, goal.Frequency).Unix()
		buckets[key] = append(buckets[key], entry)
	}

	streak := 0
	for offset := 0; offset < e.maxPeriods; offset++ {
		iv := e.cal.PeriodInterval(offset, goal.Frequency, ref)
		if !iv.End.After(earliest) {
			break
		}
		if RawValue(buckets[iv.Start.Unix()], h.Type) < goal.Target {
			break
		}
		streak++
	}
	return streak
}

// CurrentStreak counts consecutive qualifying calendar days ending with
// the day of ref. A day with no entry ends the streak.
func (e *Evaluator) CurrentStreak(h models.Habit, entries []models.HabitEntry, ref time.Time) int {
	owned, _ := e.owned(h, entries)

	qualifying := make(map[int64]bool, len(owned))
	for _, entry := range owned {
		if Qualifies(entry, h.Type) {
			qualifying[e.cal.StartOfDay(entry.Date).Unix()] = true
		}
	}

	streak := 0
	day := e.cal.StartOfDay(ref)
	for streak < e.maxPeriods && qualifying[day.Unix()] {
		streak++
		day = e.cal.AddDays(day, -1)
	}
	return streak
}

// StreakLabel renders a goal streak with its period unit, e.g. "3 weeks".
func StreakLabel(h models.Habit, n int) string {
	freq := h.Goal().Frequency
	if !freq.Valid() {
		freq = models.FrequencyDaily
	}
	return fmt.Sprintf("%d %s", n, freq.Unit(n))
}

// Standing is one row of a streak leaderboard.
type Standing struct {
	Habit      models.Habit
	GoalStreak int
	DayStreak  int
}

// Leaderboard ranks habits by goal streak, then day streak, then
// title. limit <= 0 returns every habit.
func (e *Evaluator) Leaderboard(habits []models.Habit, entriesByHabit map[string][]models.HabitEntry, ref time.Time, limit int) []Standing {
	rows := make([]Standing, 0, len(habits))
	for _, h := range habits {
		entries := entriesByHabit[h.ID]
		rows = append(rows, Standing{
			Habit:      h,
			GoalStreak: e.CurrentGoalStreak(h, entries, ref),
			DayStreak:  e.CurrentStreak(h, entries, ref),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GoalStreak != rows[j].GoalStreak {
			return rows[i].GoalStreak > rows[j].GoalStreak
		}
		if rows[i].DayStreak != rows[j].DayStreak {
			return rows[i].DayStreak > rows[j].DayStreak
		}
		return strings.ToLower(rows[i].Habit.Title) < strings.ToLower(rows[j].Habit.Title)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
