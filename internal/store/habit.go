package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jswenson/ritual/internal/model"
)

type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

const habitCols = `id, title, category, target, unit, created_at, updated_at`

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	var target string
	err := scanner.Scan(&h.ID, &h.Title, &h.Category, &target, &h.Unit, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(target), &h.Target); err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}
	return &h, nil
}

func encodeTarget(target []float64) (string, error) {
	if target == nil {
		target = []float64{}
	}
	data, err := json.Marshal(target)
	if err != nil {
		return "", fmt.Errorf("encode target: %w", err)
	}
	return string(data), nil
}

func (s *HabitStore) Create(title, category string, target []float64, unit string) (*model.Habit, error) {
	encoded, err := encodeTarget(target)
	if err != nil {
		return nil, err
	}
	result, err := s.db.Exec(
		`INSERT INTO habits (title, category, target, unit) VALUES (?, ?, ?, ?)`,
		title, category, encoded, unit,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HabitStore) GetByID(id int64) (*model.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s *HabitStore) List() ([]model.Habit, error) {
	rows, err := s.db.Query(`SELECT ` + habitCols + ` FROM habits ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func (s *HabitStore) Update(id int64, title, category string, target []float64, unit string) (*model.Habit, error) {
	encoded, err := encodeTarget(target)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE habits SET title = ?, category = ?, target = ?, unit = ?, updated_at = ? WHERE id = ?`,
		title, category, encoded, unit, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return s.GetByID(id)
}

func (s *HabitStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}
