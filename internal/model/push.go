package model

import "time"

// Reminder kinds recorded in the sent-notification dedup table.
const (
	SentKindReminder = "reminder"
	SentKindEvent    = "event"
)

// PushSubscription is one browser/device push registration. Endpoint is
// unique across the store; a row is persisted only when endpoint and both
// keys are present.
type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
