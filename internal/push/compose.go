package push

import (
	"fmt"

	"github.com/jswenson/ritual/internal/model"
)

// Compose builds the notification title and body. A caller-supplied title
// wins; otherwise the habit names the notification, falling back to a plain
// "Reminder". A habit with both a target sequence and a unit contributes a
// target clause: as the whole body when the body is empty, appended in
// parentheses otherwise.
func Compose(habit *model.Habit, title, body string) (string, string) {
	if title == "" {
		if habit != nil {
			title = "Time for: " + habit.Title
		} else {
			title = "Reminder"
		}
	}

	if habit != nil && len(habit.Target) > 0 && habit.Unit != "" {
		clause := fmt.Sprintf("Target: %s %s", habit.FormatTarget(), habit.Unit)
		if body == "" {
			body = clause
		} else {
			body = body + " (" + clause + ")"
		}
	}

	return title, body
}
