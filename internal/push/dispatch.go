package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jswenson/ritual/internal/model"
	"github.com/jswenson/ritual/internal/store"
)

// Sender transmits one push message. Satisfied by *Service; tests substitute
// a fake.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) (int, error)
}

// Request describes one dispatch: deliver a message to every subscription on
// file for UserID. HabitID, Title, Body, and Data are optional overrides.
type Request struct {
	UserID  int64
	HabitID *int64
	Title   string
	Body    string
	Data    map[string]any
}

// Result is the outcome of one subscription's delivery attempt.
type Result struct {
	Success    bool   `json:"success"`
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Response aggregates the per-subscription results of one dispatch.
type Response struct {
	Message string   `json:"message"`
	Results []Result `json:"results,omitempty"`
}

// Dispatcher delivers a push message to every subscription of a user and
// prunes subscriptions the push service reports as permanently gone.
type Dispatcher struct {
	sender Sender
	subs   *store.PushStore
	habits *store.HabitStore
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(sender Sender, subs *store.PushStore, habits *store.HabitStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, subs: subs, habits: habits, logger: logger}
}

// Dispatch sends one message to every subscription of the requested user.
// An empty subscription set is a success with zero deliveries. Habit lookup
// failures are logged and the send proceeds without habit context. Each
// subscription is attempted independently and concurrently; all attempts
// settle before the aggregate is returned, and no delivery is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Response, error) {
	subs, err := d.subs.ListByUser(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return &Response{Message: "No subscriptions found for user"}, nil
	}

	var habit *model.Habit
	if req.HabitID != nil {
		habit, err = d.habits.GetByID(*req.HabitID)
		if err != nil {
			d.logger.Warn("habit lookup failed, sending without habit context",
				"habit_id", *req.HabitID, "error", err)
			habit = nil
		}
	}

	title, body := Compose(habit, req.Title, req.Body)

	data := make(map[string]any, len(req.Data)+2)
	for k, v := range req.Data {
		data[k] = v
	}
	data["timestamp"] = time.Now().UTC().UnixMilli()
	tag := "habit-general"
	if req.HabitID != nil {
		tag = fmt.Sprintf("habit-%d", *req.HabitID)
		data["habitId"] = *req.HabitID
	}

	payload := Payload{
		Title:              title,
		Body:               body,
		Data:               data,
		Tag:                tag,
		Renotify:           true,
		RequireInteraction: true,
	}

	results := make([]Result, len(subs))
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.deliver(&subs[i], payload)
		}(i)
	}
	wg.Wait()

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	failed := len(results) - successful

	return &Response{
		Message: fmt.Sprintf("Sent %d notifications, %d failed", successful, failed),
		Results: results,
	}, nil
}

func (d *Dispatcher) deliver(sub *model.PushSubscription, payload Payload) Result {
	if sub.Endpoint == "" || sub.P256dhKey == "" || sub.AuthKey == "" {
		return Result{Endpoint: sub.Endpoint, Error: "Invalid subscription format"}
	}

	status, err := d.sender.Send(sub, payload)
	if err != nil {
		if errors.Is(err, ErrExpired) {
			// Endpoint is permanently gone; prune the row. Deletion is
			// idempotent per-row, so concurrent prunes are safe.
			if derr := d.subs.DeleteByEndpoint(sub.Endpoint); derr != nil {
				d.logger.Error("prune expired subscription", "endpoint", sub.Endpoint, "error", derr)
			} else {
				d.logger.Info("pruned expired subscription", "endpoint", sub.Endpoint)
			}
			return Result{Endpoint: sub.Endpoint, StatusCode: status, Error: "subscription expired"}
		}
		return Result{Endpoint: sub.Endpoint, StatusCode: status, Error: err.Error()}
	}

	return Result{Success: true, Endpoint: sub.Endpoint, StatusCode: status}
}
