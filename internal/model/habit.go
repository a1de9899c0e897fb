package model

import (
	"fmt"
	"time"
)

// Habit categories. The category set is fixed; anything else is rejected
// before persistence.
const (
	CategoryHealth    = "health"
	CategoryFitness   = "fitness"
	CategoryNutrition = "nutrition"
	CategorySleep     = "sleep"
	CategoryFocus     = "focus"
)

// Categories lists all valid habit categories.
var Categories = []string{
	CategoryHealth,
	CategoryFitness,
	CategoryNutrition,
	CategorySleep,
	CategoryFocus,
}

// Habit is a trackable habit definition. Target is an ordered sequence of
// numeric goals (e.g. progressive daily intake steps) displayed with Unit.
type Habit struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Target    []float64 `json:"target"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidCategory reports whether c is one of the fixed habit categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// UserHabit links a user to a habit they track, with an active flag
// controlling whether its schedule fires reminders.
type UserHabit struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Completion records one logged occurrence of a user habit on a given day.
type Completion struct {
	ID          int64     `json:"id"`
	UserHabitID int64     `json:"user_habit_id"`
	CompletedOn string    `json:"completed_on"` // YYYY-MM-DD
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// FormatTarget renders the target sequence for display, e.g. "80, 100, 120".
func (h *Habit) FormatTarget() string {
	out := ""
	for i, t := range h.Target {
		if i > 0 {
			out += ", "
		}
		out += trimFloat(t)
	}
	return out
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
