package store

import (
	"database/sql"
	"fmt"

	"github.com/jswenson/ritual/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionCols = `id, user_habit_id, completed_on, amount, created_at`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	err := scanner.Scan(&c.ID, &c.UserHabitID, &c.CompletedOn, &c.Amount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CompletionStore) Create(userHabitID int64, completedOn string, amount float64) (*model.Completion, error) {
	result, err := s.db.Exec(
		`INSERT INTO completions (user_habit_id, completed_on, amount) VALUES (?, ?, ?)`,
		userHabitID, completedOn, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	return scanCompletion(row)
}

func (s *CompletionStore) ListByUserHabit(userHabitID int64, since string) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions
		 WHERE user_habit_id = ? AND completed_on >= ? ORDER BY completed_on DESC`,
		userHabitID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *CompletionStore) Delete(id, userHabitID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM completions WHERE id = ? AND user_habit_id = ?`,
		id, userHabitID,
	)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}
