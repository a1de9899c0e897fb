package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrReminderNotBefore is returned when a slot's reminder time is not
// strictly earlier than its event time.
var ErrReminderNotBefore = errors.New("reminder_time must be before event_time")

// ScheduleSlot is one time slot on a user habit's weekly schedule.
// EventTime and ReminderTime are wall-clock times of day in "HH:MM".
type ScheduleSlot struct {
	ID           int64     `json:"id"`
	UserHabitID  int64     `json:"user_habit_id"`
	DayOfWeek    int       `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	EventTime    string    `json:"event_time"`
	ReminderTime *string   `json:"reminder_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ParseClock parses an "HH:MM" time-of-day string.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t, nil
}

// ValidateSlot checks a slot's times: event_time must be valid HH:MM, and
// reminder_time, when present, must parse and fall strictly before it.
func ValidateSlot(dayOfWeek int, eventTime string, reminderTime *string) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0..6", dayOfWeek)
	}
	ev, err := ParseClock(eventTime)
	if err != nil {
		return err
	}
	if reminderTime == nil {
		return nil
	}
	rem, err := ParseClock(*reminderTime)
	if err != nil {
		return err
	}
	if !rem.Before(ev) {
		return ErrReminderNotBefore
	}
	return nil
}
