package store

import (
	"errors"
	"testing"
	"time"

	"github.com/jswenson/ritual/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	u, err := us.Create("test@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return NewPushStore(db), u.ID
}

func TestUpsertSubscription(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub, err := ps.UpsertSubscription(uid, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestUpsertSubscriptionSameEndpoint(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub1, _ := ps.UpsertSubscription(uid, "https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.UpsertSubscription(uid, "https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}

	// Same endpoint must stay a single row with updated keys
	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}

	subs, _ := ps.ListByUser(uid)
	if len(subs) != 1 {
		t.Fatalf("len = %d, want 1 (no duplicate rows)", len(subs))
	}
}

func TestUpsertSubscriptionIncomplete(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	cases := []struct{ endpoint, p256dh, auth string }{
		{"", "k", "a"},
		{"https://push.example.com/x", "", "a"},
		{"https://push.example.com/x", "k", ""},
	}
	for _, c := range cases {
		_, err := ps.UpsertSubscription(uid, c.endpoint, c.p256dh, c.auth, "")
		if !errors.Is(err, ErrIncompleteSubscription) {
			t.Errorf("UpsertSubscription(%q,%q,%q): err = %v, want ErrIncompleteSubscription",
				c.endpoint, c.p256dh, c.auth, err)
		}
	}

	subs, _ := ps.ListByUser(uid)
	if len(subs) != 0 {
		t.Errorf("expected no rows persisted, got %d", len(subs))
	}
}

func TestListByUser(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	ps.UpsertSubscription(uid, "https://push.example.com/1", "k1", "a1", "Device 1")
	ps.UpsertSubscription(uid, "https://push.example.com/2", "k2", "a2", "Device 2")

	subs, err := ps.ListByUser(uid)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
}

func TestGetByIDOwnership(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub, _ := ps.UpsertSubscription(uid, "https://push.example.com/1", "k1", "a1", "D1")

	got, err := ps.GetByID(sub.ID, uid)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Endpoint != sub.Endpoint {
		t.Errorf("got = %+v, want endpoint %q", got, sub.Endpoint)
	}

	// Another user's id lookup misses
	other, err := ps.GetByID(sub.ID, uid+1)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if other != nil {
		t.Error("expected nil for other user's subscription")
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub, _ := ps.UpsertSubscription(uid, "https://push.example.com/1", "k1", "a1", "D1")

	if err := ps.DeleteSubscription(sub.ID, uid); err != nil {
		t.Fatalf("delete: %v", err)
	}

	subs, _ := ps.ListByUser(uid)
	if len(subs) != 0 {
		t.Errorf("expected 0 subs after delete, got %d", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	ps.UpsertSubscription(uid, "https://push.example.com/expired", "k1", "a1", "D1")

	if err := ps.DeleteByEndpoint("https://push.example.com/expired"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, _ := ps.ListByUser(uid)
	if len(subs) != 0 {
		t.Errorf("expected 0 subs, got %d", len(subs))
	}

	// Deleting an already-absent endpoint is a no-op
	if err := ps.DeleteByEndpoint("https://push.example.com/expired"); err != nil {
		t.Errorf("second delete should not error: %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	ps.UpsertSubscription(uid, "https://push.example.com/1", "k1", "a1", "D1")
	ps.UpsertSubscription(uid, "https://push.example.com/2", "k2", "a2", "D2")

	count, err := ps.DeleteAll()
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	subs, _ := ps.ListByUser(uid)
	if len(subs) != 0 {
		t.Errorf("expected empty store, got %d", len(subs))
	}
}

func TestSentNotificationDedup(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	sent, err := ps.WasSent(42, "reminder", "2025-06-01")
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("expected not sent")
	}

	if err := ps.RecordSent(42, "reminder", "2025-06-01"); err != nil {
		t.Fatalf("record sent: %v", err)
	}

	sent, _ = ps.WasSent(42, "reminder", "2025-06-01")
	if !sent {
		t.Error("expected sent after recording")
	}

	// Event kind for the same slot and day is separate
	sent, _ = ps.WasSent(42, "event", "2025-06-01")
	if sent {
		t.Error("expected not sent for different kind")
	}

	// Duplicate insert is ignored (INSERT OR IGNORE)
	if err := ps.RecordSent(42, "reminder", "2025-06-01"); err != nil {
		t.Fatalf("duplicate record sent should not error: %v", err)
	}
}

func TestCleanupSent(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	ps.RecordSent(1, "reminder", "2025-06-01")

	// Cutoff in the past deletes nothing
	if err := ps.CleanupSent(time.Now().UTC().Add(-1 * time.Hour)); err != nil {
		t.Fatalf("cleanup sent: %v", err)
	}
	sent, _ := ps.WasSent(1, "reminder", "2025-06-01")
	if !sent {
		t.Error("expected record to survive past cutoff")
	}

	// Cutoff in the future deletes everything
	if err := ps.CleanupSent(time.Now().UTC().Add(1 * time.Hour)); err != nil {
		t.Fatalf("cleanup sent: %v", err)
	}
	sent, _ = ps.WasSent(1, "reminder", "2025-06-01")
	if sent {
		t.Error("expected record to be cleaned up")
	}
}
