package store

import (
	"testing"

	"github.com/jswenson/ritual/internal/database"
	"github.com/jswenson/ritual/internal/model"
)

func setupCompletionTestDB(t *testing.T) (*CompletionStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("test@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := NewHabitStore(db).Create("Water", model.CategoryHealth, []float64{2000}, "ml")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	uh, err := NewScheduleStore(db).CreateUserHabit(u.ID, h.ID)
	if err != nil {
		t.Fatalf("create user habit: %v", err)
	}

	return NewCompletionStore(db), uh.ID
}

func TestCompletionCreate(t *testing.T) {
	cs, uhID := setupCompletionTestDB(t)

	c, err := cs.Create(uhID, "2026-08-27", 1500)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if c.CompletedOn != "2026-08-27" {
		t.Errorf("completed_on = %q", c.CompletedOn)
	}
	if c.Amount != 1500 {
		t.Errorf("amount = %v, want 1500", c.Amount)
	}
}

func TestCompletionListSince(t *testing.T) {
	cs, uhID := setupCompletionTestDB(t)

	cs.Create(uhID, "2026-08-01", 1)
	cs.Create(uhID, "2026-08-15", 1)
	cs.Create(uhID, "2026-08-27", 1)

	list, err := cs.ListByUserHabit(uhID, "2026-08-10")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// Newest first
	if list[0].CompletedOn != "2026-08-27" || list[1].CompletedOn != "2026-08-15" {
		t.Errorf("order = %q, %q", list[0].CompletedOn, list[1].CompletedOn)
	}
}

func TestCompletionDelete(t *testing.T) {
	cs, uhID := setupCompletionTestDB(t)

	c, _ := cs.Create(uhID, "2026-08-27", 1)

	if err := cs.Delete(c.ID, uhID); err != nil {
		t.Fatalf("delete completion: %v", err)
	}

	list, _ := cs.ListByUserHabit(uhID, "2000-01-01")
	if len(list) != 0 {
		t.Errorf("len = %d, want 0 after delete", len(list))
	}
}

func TestCompletionDeleteWrongOwner(t *testing.T) {
	cs, uhID := setupCompletionTestDB(t)

	c, _ := cs.Create(uhID, "2026-08-27", 1)

	if err := cs.Delete(c.ID, uhID+1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, _ := cs.ListByUserHabit(uhID, "2000-01-01")
	if len(list) != 1 {
		t.Errorf("cross-owner delete should be a no-op, got %d completions", len(list))
	}
}
