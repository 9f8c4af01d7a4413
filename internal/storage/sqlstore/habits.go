package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const habitColumns = "id, title, type, color, icon, archived, created_at, reminder, sort_index"

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var typeJSON, createdAt string
	var reminder sql.NullString

	if err := row.Scan(&h.ID, &h.Title, &typeJSON, &h.Color, &h.Icon, &h.Archived, &createdAt, &reminder, &h.SortIndex); err != nil {
		return models.Habit{}, err
	}
	if err := json.Unmarshal([]byte(typeJSON), &h.Type); err != nil {
		return models.Habit{}, fmt.Errorf("failed to decode type for habit %s: %w", h.ID, err)
	}
	var err error
	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	if reminder.Valid {
		t, err := models.ParseTimeOfDay(reminder.String)
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse reminder for habit %s: %w", h.ID, err)
		}
		h.Reminder = &t
	}
	return h, nil
}

func habitArgs(h models.Habit) ([]any, error) {
	typeJSON, err := json.Marshal(h.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to encode habit type: %w", err)
	}
	var reminder sql.NullString
	if h.Reminder != nil {
		reminder = sql.NullString{String: h.Reminder.String(), Valid: true}
	}
	return []any{h.ID, h.Title, string(typeJSON), h.Color, h.Icon, h.Archived,
		h.CreatedAt.UTC().Format(time.RFC3339), reminder, h.SortIndex}, nil
}

func (s *Store) AddHabit(h models.Habit) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	args, err := habitArgs(h)
	if err != nil {
		return err
	}
	_, err = s.exec("INSERT INTO habits ("+habitColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", args...)
	if err != nil {
		return fmt.Errorf("failed to add habit %q: %w", h.Title, err)
	}
	return nil
}

func (s *Store) getHabitWhere(cond string, arg any) (models.Habit, error) {
	h, err := scanHabit(s.queryRow("SELECT "+habitColumns+" FROM habits WHERE "+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %v: %w", arg, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	return s.getHabitWhere("id = ?", id)
}

func (s *Store) GetHabitByTitle(title string) (models.Habit, error) {
	return s.getHabitWhere("LOWER(title) = LOWER(?)", title)
}

func (s *Store) GetAllHabits(includeArchived bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits"
	var args []any
	if !includeArchived {
		query += " WHERE archived = ?"
		args = append(args, false)
	}
	query += " ORDER BY sort_index, created_at"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(h models.Habit) error {
	args, err := habitArgs(h)
	if err != nil {
		return err
	}
	// id moves to the end for the WHERE clause
	args = append(args[1:], args[0])
	res, err := s.exec(`
		UPDATE habits SET title = ?, type = ?, color = ?, icon = ?, archived = ?,
			created_at = ?, reminder = ?, sort_index = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update habit %q: %w", h.Title, err)
	}
	return requireRow(res, h.ID)
}

func (s *Store) setArchived(id string, archived bool) error {
	res, err := s.exec("UPDATE habits SET archived = ? WHERE id = ?", archived, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (s *Store) ArchiveHabit(id string) error   { return s.setArchived(id, true) }
func (s *Store) UnarchiveHabit(id string) error { return s.setArchived(id, false) }

// DeleteHabit removes entries explicitly so the cascade does not depend
// on SQLite's foreign_keys pragma.
func (s *Store) DeleteHabit(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind("DELETE FROM habit_entries WHERE habit_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete entries for habit %s: %w", id, err)
	}
	res, err := tx.Exec(s.rebind("DELETE FROM habits WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) NextSortIndex() (int, error) {
	var next int
	if err := s.queryRow("SELECT COALESCE(MAX(sort_index), -1) + 1 FROM habits").Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
