package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testHabit(id, title string) models.Habit {
	reminder := models.TimeOfDay{Hour: 8, Minute: 30}
	return models.Habit{
		ID:        id,
		Title:     title,
		Type:      models.NewNumeric(0, 50, "km", models.Goal{Target: 20, Frequency: models.FrequencyWeekly}),
		Color:     "teal",
		Icon:      "run",
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Reminder:  &reminder,
		SortIndex: 0,
	}
}

func TestInitWritesDefaultSettings(t *testing.T) {
	store := setupTestStore(t)

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults %+v", settings, models.DefaultSettings())
	}

	settings.Timezone = "America/New_York"
	settings.FollowUpMinutes = 45
	settings.DailySummaryTime = "20:00"
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err := store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got != settings {
		t.Errorf("GetSettings() after save = %+v, want %+v", got, settings)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Init(); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Error("Load() of a missing database should fail")
	}
}

func TestLoadAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	if err := store.AddHabit(testHabit("h1", "Run")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetHabit("h1"); err != nil {
		t.Errorf("GetHabit() after reopen error = %v", err)
	}
}

func TestHabitRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	want := testHabit("h1", "Run")

	if err := store.AddHabit(want); err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	got, err := store.GetHabit("h1")
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}

	if got.Title != want.Title || got.Color != want.Color || got.Icon != want.Icon {
		t.Errorf("GetHabit() = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.Type.Kind != models.KindNumeric || got.Type.Numeric == nil || got.Type.Numeric.Unit != "km" {
		t.Errorf("Type = %+v, want numeric km", got.Type)
	}
	if got.Goal() != want.Goal() {
		t.Errorf("Goal() = %+v, want %+v", got.Goal(), want.Goal())
	}
	if got.Reminder == nil || *got.Reminder != *want.Reminder {
		t.Errorf("Reminder = %v, want %v", got.Reminder, want.Reminder)
	}

	byTitle, err := store.GetHabitByTitle("run")
	if err != nil || byTitle.ID != "h1" {
		t.Errorf("GetHabitByTitle() = %v, %v", byTitle.ID, err)
	}
}

func TestHabitNotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetHabit("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabit() error = %v, want ErrNotFound", err)
	}
	if err := store.ArchiveHabit("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ArchiveHabit() error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteHabit("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteHabit() error = %v, want ErrNotFound", err)
	}
	if err := store.UpdateHabit(testHabit("nope", "Ghost")); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateHabit() error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateTitleRejected(t *testing.T) {
	store := setupTestStore(t)
	if err := store.AddHabit(testHabit("h1", "Run")); err != nil {
		t.Fatal(err)
	}
	if err := store.AddHabit(testHabit("h2", "Run")); err == nil {
		t.Error("AddHabit() with a duplicate title should fail")
	}
}

func TestUpdateAndArchive(t *testing.T) {
	store := setupTestStore(t)
	h := testHabit("h1", "Run")
	if err := store.AddHabit(h); err != nil {
		t.Fatal(err)
	}

	h.Title = "Jog"
	h.Reminder = nil
	h.Type = h.Type.WithGoal(models.Goal{Target: 30, Frequency: models.FrequencyMonthly})
	if err := store.UpdateHabit(h); err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	got, _ := store.GetHabit("h1")
	if got.Title != "Jog" || got.Reminder != nil || got.Goal().Frequency != models.FrequencyMonthly {
		t.Errorf("after update = %+v", got)
	}

	if err := store.ArchiveHabit("h1"); err != nil {
		t.Fatal(err)
	}
	active, _ := store.GetAllHabits(false)
	all, _ := store.GetAllHabits(true)
	if len(active) != 0 || len(all) != 1 || !all[0].Archived {
		t.Errorf("after archive: active=%d all=%d", len(active), len(all))
	}

	if err := store.UnarchiveHabit("h1"); err != nil {
		t.Fatal(err)
	}
	active, _ = store.GetAllHabits(false)
	if len(active) != 1 {
		t.Errorf("after unarchive: active=%d, want 1", len(active))
	}
}

func TestGetAllHabitsOrderAndSortIndex(t *testing.T) {
	store := setupTestStore(t)

	next, err := store.NextSortIndex()
	if err != nil || next != 0 {
		t.Fatalf("NextSortIndex() on empty store = %d, %v", next, err)
	}

	for i, title := range []string{"C", "A", "B"} {
		h := testHabit(title, title)
		h.SortIndex = 2 - i
		if err := store.AddHabit(h); err != nil {
			t.Fatal(err)
		}
	}

	habits, err := store.GetAllHabits(false)
	if err != nil {
		t.Fatal(err)
	}
	var order string
	for _, h := range habits {
		order += h.Title
	}
	if order != "BAC" {
		t.Errorf("habit order = %q, want BAC", order)
	}
	if next, _ := store.NextSortIndex(); next != 3 {
		t.Errorf("NextSortIndex() = %d, want 3", next)
	}
}

func TestUpsertMergesSameDay(t *testing.T) {
	store := setupTestStore(t)
	if err := store.AddHabit(testHabit("h1", "Run")); err != nil {
		t.Fatal(err)
	}

	first, err := store.UpsertHabitEntry(models.HabitEntry{
		ID: "e1", HabitID: "h1", Date: day(2024, 5, 15),
		NumericValue: models.Float64Ptr(5), Note: "morning",
		UpdatedAt: time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpsertHabitEntry() error = %v", err)
	}
	if first.ID != "e1" || first.NumericValue == nil || *first.NumericValue != 5 {
		t.Fatalf("first upsert = %+v", first)
	}

	second, err := store.UpsertHabitEntry(models.HabitEntry{
		ID: "e2", HabitID: "h1", Date: time.Date(2024, 5, 15, 21, 30, 0, 0, time.UTC),
		NumericValue: models.Float64Ptr(7.5),
		UpdatedAt:    time.Date(2024, 5, 15, 21, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != "e1" {
		t.Errorf("merged entry id = %q, want the original e1", second.ID)
	}
	if *second.NumericValue != 7.5 || second.Note != "morning" {
		t.Errorf("merged entry = value %v note %q", *second.NumericValue, second.Note)
	}

	entries, _ := store.GetHabitEntriesForHabit("h1")
	if len(entries) != 1 {
		t.Errorf("entries = %d, want one per day", len(entries))
	}
}

func TestUpsertKeepsFalseCompletion(t *testing.T) {
	store := setupTestStore(t)
	h := testHabit("h1", "Floss")
	h.Type = models.NewBoolean(models.Goal{Target: 1, Frequency: models.FrequencyDaily})
	if err := store.AddHabit(h); err != nil {
		t.Fatal(err)
	}

	if _, err := store.UpsertHabitEntry(models.HabitEntry{ID: "e1", HabitID: "h1", Date: day(2024, 5, 15), Completed: models.BoolPtr(true)}); err != nil {
		t.Fatal(err)
	}
	got, err := store.UpsertHabitEntry(models.HabitEntry{ID: "e2", HabitID: "h1", Date: day(2024, 5, 15), Completed: models.BoolPtr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Completed == nil || *got.Completed {
		t.Errorf("Completed = %v, want explicit false", got.Completed)
	}
	if got.RatingValue != nil || got.DurationSeconds != nil || got.NumericValue != nil {
		t.Errorf("unrelated values should stay nil: %+v", got)
	}
}

func TestEntryQueries(t *testing.T) {
	store := setupTestStore(t)
	for _, id := range []string{"h1", "h2"} {
		if err := store.AddHabit(testHabit(id, "Habit "+id)); err != nil {
			t.Fatal(err)
		}
	}
	add := func(habitID string, d time.Time) {
		t.Helper()
		_, err := store.UpsertHabitEntry(models.HabitEntry{
			ID: habitID + d.Format("0102"), HabitID: habitID, Date: d, NumericValue: models.Float64Ptr(1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	add("h1", day(2024, 4, 30))
	add("h1", day(2024, 5, 1))
	add("h1", day(2024, 5, 31))
	add("h1", day(2024, 6, 1))
	add("h2", day(2024, 5, 1))

	inMay, err := store.GetHabitEntriesInRange("h1", day(2024, 5, 1), day(2024, 6, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(inMay) != 2 {
		t.Errorf("entries in May = %d, want 2 (end is exclusive)", len(inMay))
	}
	for _, e := range inMay {
		if e.Date.Location() != time.UTC || e.Date.Hour() != 0 {
			t.Errorf("entry date %v should be midnight UTC", e.Date)
		}
	}

	onFirst, _ := store.GetHabitEntriesForDay(day(2024, 5, 1))
	if len(onFirst) != 2 {
		t.Errorf("entries on May 1 = %d, want 2", len(onFirst))
	}

	if err := store.DeleteHabitEntry("h1", day(2024, 5, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetHabitEntry("h1", day(2024, 5, 1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabitEntry() after delete error = %v", err)
	}
	if err := store.DeleteHabitEntry("h1", day(2024, 5, 1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteHabitEntry() error = %v", err)
	}
}

func TestDeleteHabitRemovesEntries(t *testing.T) {
	store := setupTestStore(t)
	if err := store.AddHabit(testHabit("h1", "Run")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpsertHabitEntry(models.HabitEntry{ID: "e1", HabitID: "h1", Date: day(2024, 5, 1), NumericValue: models.Float64Ptr(3)}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteHabit("h1"); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	entries, err := store.GetHabitEntriesForDay(day(2024, 5, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries left after DeleteHabit = %d", len(entries))
	}
}

func TestUpsertRejectsMissingDate(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.UpsertHabitEntry(models.HabitEntry{ID: "e1", HabitID: "h1"}); err == nil {
		t.Error("UpsertHabitEntry() without a date should fail")
	}
}

func TestMigrateIsNoOpAfterInit(t *testing.T) {
	store := setupTestStore(t)
	n, err := store.Migrate(nil)
	if err != nil || n != 0 {
		t.Errorf("Migrate() = %d, %v; want 0, nil", n, err)
	}
}

func TestSchemaVersionUpToDate(t *testing.T) {
	store := setupTestStore(t)

	current, latest, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if current != latest || latest < 2 {
		t.Errorf("SchemaVersion() = %d, %d; want equal and at least 2", current, latest)
	}
}
