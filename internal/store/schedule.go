package store

import (
	"database/sql"
	"fmt"

	"github.com/jswenson/ritual/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// --- User habit methods ---

func scanUserHabit(scanner interface{ Scan(...any) error }) (*model.UserHabit, error) {
	var uh model.UserHabit
	var active int
	err := scanner.Scan(&uh.ID, &uh.UserID, &uh.HabitID, &active, &uh.CreatedAt)
	if err != nil {
		return nil, err
	}
	uh.Active = active != 0
	return &uh, nil
}

const userHabitCols = `id, user_id, habit_id, active, created_at`

func (s *ScheduleStore) CreateUserHabit(userID, habitID int64) (*model.UserHabit, error) {
	_, err := s.db.Exec(
		`INSERT INTO user_habits (user_id, habit_id) VALUES (?, ?)
		 ON CONFLICT(user_id, habit_id) DO UPDATE SET active = 1`,
		userID, habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user habit: %w", err)
	}

	// LastInsertId is unreliable after a conflict update; re-query by pair
	row := s.db.QueryRow(
		`SELECT `+userHabitCols+` FROM user_habits WHERE user_id = ? AND habit_id = ?`,
		userID, habitID,
	)
	uh, err := scanUserHabit(row)
	if err != nil {
		return nil, fmt.Errorf("get user habit after upsert: %w", err)
	}
	return uh, nil
}

func (s *ScheduleStore) GetUserHabit(id, userID int64) (*model.UserHabit, error) {
	row := s.db.QueryRow(
		`SELECT `+userHabitCols+` FROM user_habits WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	uh, err := scanUserHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user habit: %w", err)
	}
	return uh, nil
}

func (s *ScheduleStore) ListUserHabits(userID int64) ([]model.UserHabit, error) {
	rows, err := s.db.Query(
		`SELECT `+userHabitCols+` FROM user_habits WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user habits: %w", err)
	}
	defer rows.Close()

	var habits []model.UserHabit
	for rows.Next() {
		uh, err := scanUserHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user habit: %w", err)
		}
		habits = append(habits, *uh)
	}
	return habits, rows.Err()
}

func (s *ScheduleStore) SetActive(id, userID int64, active bool) (*model.UserHabit, error) {
	var activeInt int
	if active {
		activeInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE user_habits SET active = ? WHERE id = ? AND user_id = ?`,
		activeInt, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("set user habit active: %w", err)
	}
	return s.GetUserHabit(id, userID)
}

func (s *ScheduleStore) DeleteUserHabit(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM user_habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete user habit: %w", err)
	}
	return nil
}

// --- Schedule slot methods ---

func scanSlot(scanner interface{ Scan(...any) error }) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	err := scanner.Scan(&slot.ID, &slot.UserHabitID, &slot.DayOfWeek, &slot.EventTime, &slot.ReminderTime, &slot.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

const slotCols = `id, user_habit_id, day_of_week, event_time, reminder_time, created_at`

// ReplaceDaySlots replaces all slots for one day of a user habit's schedule
// in a single transaction.
func (s *ScheduleStore) ReplaceDaySlots(userHabitID int64, dayOfWeek int, slots []model.ScheduleSlot) ([]model.ScheduleSlot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM schedule_slots WHERE user_habit_id = ? AND day_of_week = ?`,
		userHabitID, dayOfWeek,
	); err != nil {
		return nil, fmt.Errorf("clear day slots: %w", err)
	}

	for _, slot := range slots {
		if _, err := tx.Exec(
			`INSERT INTO schedule_slots (user_habit_id, day_of_week, event_time, reminder_time)
			 VALUES (?, ?, ?, ?)`,
			userHabitID, dayOfWeek, slot.EventTime, slot.ReminderTime,
		); err != nil {
			return nil, fmt.Errorf("insert slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.ListDaySlots(userHabitID, dayOfWeek)
}

func (s *ScheduleStore) ListDaySlots(userHabitID int64, dayOfWeek int) ([]model.ScheduleSlot, error) {
	rows, err := s.db.Query(
		`SELECT `+slotCols+` FROM schedule_slots
		 WHERE user_habit_id = ? AND day_of_week = ? ORDER BY event_time ASC`,
		userHabitID, dayOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("list day slots: %w", err)
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (s *ScheduleStore) ListSlots(userHabitID int64) ([]model.ScheduleSlot, error) {
	rows, err := s.db.Query(
		`SELECT `+slotCols+` FROM schedule_slots
		 WHERE user_habit_id = ? ORDER BY day_of_week ASC, event_time ASC`,
		userHabitID,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows *sql.Rows) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// DueSlot is a schedule slot whose reminder or event time matches the
// current wall-clock minute, joined with its owning user and habit.
type DueSlot struct {
	SlotID  int64
	UserID  int64
	HabitID int64
	Kind    string // reminder | event
}

// ListDue returns slots on active user habits due at the given weekday and
// HH:MM clock value. Reminder times strictly precede event times, so a slot
// matches at most one kind per minute.
func (s *ScheduleStore) ListDue(dayOfWeek int, clock string) ([]DueSlot, error) {
	rows, err := s.db.Query(
		`SELECT sl.id, uh.user_id, uh.habit_id,
		        CASE WHEN sl.reminder_time = ? THEN 'reminder' ELSE 'event' END
		 FROM schedule_slots sl
		 JOIN user_habits uh ON uh.id = sl.user_habit_id
		 WHERE sl.day_of_week = ? AND uh.active = 1
		   AND (sl.reminder_time = ? OR sl.event_time = ?)`,
		clock, dayOfWeek, clock, clock,
	)
	if err != nil {
		return nil, fmt.Errorf("list due slots: %w", err)
	}
	defer rows.Close()

	var due []DueSlot
	for rows.Next() {
		var d DueSlot
		if err := rows.Scan(&d.SlotID, &d.UserID, &d.HabitID, &d.Kind); err != nil {
			return nil, fmt.Errorf("scan due slot: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}
