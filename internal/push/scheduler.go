package push

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jswenson/ritual/internal/store"
)

const sentRetention = 7 * 24 * time.Hour

// Scheduler fires habit reminders. Each minute it looks up schedule slots on
// active user habits whose reminder or event time matches the current
// wall-clock minute and dispatches a push for each, deduplicating per slot,
// kind, and day.
type Scheduler struct {
	mu         sync.RWMutex
	dispatcher *Dispatcher
	schedules  *store.ScheduleStore
	push       *store.PushStore
	interval   time.Duration
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(dispatcher *Dispatcher, schedules *store.ScheduleStore, pushStore *store.PushStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		schedules:  schedules,
		push:       pushStore,
		interval:   60 * time.Second,
		logger:     logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx, time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	clock := now.Format("15:04")
	day := int(now.Weekday())
	today := now.Format("2006-01-02")

	due, err := s.schedules.ListDue(day, clock)
	if err != nil {
		s.logger.Error("list due slots", "error", err)
		return
	}

	for _, d := range due {
		sent, err := s.push.WasSent(d.SlotID, d.Kind, today)
		if err != nil {
			s.logger.Error("check sent notification", "slot_id", d.SlotID, "error", err)
			continue
		}
		if sent {
			continue
		}

		habitID := d.HabitID
		req := Request{
			UserID:  d.UserID,
			HabitID: &habitID,
			Data:    map[string]any{"kind": d.Kind, "slotId": d.SlotID},
		}
		resp, err := s.dispatcher.Dispatch(ctx, req)
		if err != nil {
			s.logger.Error("dispatch reminder", "slot_id", d.SlotID, "error", err)
			continue
		}
		s.logger.Debug("reminder dispatched", "slot_id", d.SlotID, "kind", d.Kind, "result", resp.Message)

		if err := s.push.RecordSent(d.SlotID, d.Kind, today); err != nil {
			s.logger.Error("record sent notification", "slot_id", d.SlotID, "error", err)
		}
	}

	// Hourly housekeeping of the dedup table.
	if now.Minute() == 0 {
		if err := s.push.CleanupSent(now.Add(-sentRetention)); err != nil {
			s.logger.Error("cleanup sent notifications", "error", err)
		}
	}
}
