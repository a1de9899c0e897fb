package push

import (
	"testing"

	"github.com/jswenson/ritual/internal/model"
)

func TestCompose(t *testing.T) {
	protein := &model.Habit{
		Title:  "Protein target",
		Target: []float64{80, 100, 120, 140},
		Unit:   "g",
	}

	tests := []struct {
		name      string
		habit     *model.Habit
		title     string
		body      string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "habit fills title and body",
			habit:     protein,
			wantTitle: "Time for: Protein target",
			wantBody:  "Target: 80, 100, 120, 140 g",
		},
		{
			name:      "caller title wins",
			habit:     protein,
			title:     "Custom",
			wantTitle: "Custom",
			wantBody:  "Target: 80, 100, 120, 140 g",
		},
		{
			name:      "target clause appended to body",
			habit:     protein,
			body:      "Log your intake",
			wantTitle: "Time for: Protein target",
			wantBody:  "Log your intake (Target: 80, 100, 120, 140 g)",
		},
		{
			name:      "no habit falls back to reminder",
			wantTitle: "Reminder",
			wantBody:  "",
		},
		{
			name:      "no habit keeps caller body",
			title:     "Hey",
			body:      "Drink water",
			wantTitle: "Hey",
			wantBody:  "Drink water",
		},
		{
			name:      "habit without target adds no clause",
			habit:     &model.Habit{Title: "Meditate"},
			wantTitle: "Time for: Meditate",
			wantBody:  "",
		},
		{
			name:      "target without unit adds no clause",
			habit:     &model.Habit{Title: "Steps", Target: []float64{10000}},
			wantTitle: "Time for: Steps",
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := Compose(tt.habit, tt.title, tt.body)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
