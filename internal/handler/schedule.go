package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jswenson/ritual/internal/auth"
	"github.com/jswenson/ritual/internal/model"
	"github.com/jswenson/ritual/internal/store"
	"github.com/jswenson/ritual/internal/websocket"
)

type ScheduleHandler struct {
	scheduleStore   *store.ScheduleStore
	habitStore      *store.HabitStore
	completionStore *store.CompletionStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewScheduleHandler(ss *store.ScheduleStore, hs *store.HabitStore, cs *store.CompletionStore, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleStore: ss, habitStore: hs, completionStore: cs, hub: hub, logger: logger}
}

func (h *ScheduleHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.BroadcastTo(userID, msg)
	}
}

type userHabitRequest struct {
	HabitID int64 `json:"habit_id"`
}

// CreateUserHabit handles POST /api/user-habits
func (h *ScheduleHandler) CreateUserHabit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req userHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	habit, err := h.habitStore.GetByID(req.HabitID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check habit"})
		return
	}
	if habit == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "habit not found"})
		return
	}

	uh, err := h.scheduleStore.CreateUserHabit(userID, req.HabitID)
	if err != nil {
		h.logger.Error("create user habit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to track habit"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("user_habit", "created", uh.ID, nil))

	writeJSON(w, http.StatusCreated, uh)
}

// ListUserHabits handles GET /api/user-habits
func (h *ScheduleHandler) ListUserHabits(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	habits, err := h.scheduleStore.ListUserHabits(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tracked habits"})
		return
	}
	if habits == nil {
		habits = []model.UserHabit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles PUT /api/user-habits/{id}
func (h *ScheduleHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	existing, err := h.scheduleStore.GetUserHabit(id, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracked habit"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracked habit not found"})
		return
	}

	uh, err := h.scheduleStore.SetActive(id, userID, req.Active)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update tracked habit"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("user_habit", "updated", uh.ID, nil))

	writeJSON(w, http.StatusOK, uh)
}

// DeleteUserHabit handles DELETE /api/user-habits/{id}
func (h *ScheduleHandler) DeleteUserHabit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.scheduleStore.DeleteUserHabit(id, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete tracked habit"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("user_habit", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type slotRequest struct {
	EventTime    string  `json:"event_time"`
	ReminderTime *string `json:"reminder_time"`
}

type replaceDayRequest struct {
	Slots []slotRequest `json:"slots"`
}

// ReplaceDaySlots handles PUT /api/user-habits/{id}/schedule/{day}
func (h *ScheduleHandler) ReplaceDaySlots(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || day < 0 || day > 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day must be 0 (Sunday) through 6 (Saturday)"})
		return
	}

	uh, err := h.scheduleStore.GetUserHabit(id, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracked habit"})
		return
	}
	if uh == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracked habit not found"})
		return
	}

	var req replaceDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	slots := make([]model.ScheduleSlot, 0, len(req.Slots))
	for _, s := range req.Slots {
		if err := model.ValidateSlot(day, s.EventTime, s.ReminderTime); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slots = append(slots, model.ScheduleSlot{
			UserHabitID:  id,
			DayOfWeek:    day,
			EventTime:    s.EventTime,
			ReminderTime: s.ReminderTime,
		})
	}

	saved, err := h.scheduleStore.ReplaceDaySlots(id, day, slots)
	if err != nil {
		h.logger.Error("replace day slots", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update schedule"})
		return
	}
	if saved == nil {
		saved = []model.ScheduleSlot{}
	}

	h.broadcast(userID, websocket.NewMessage("schedule", "updated", id, map[string]any{"day_of_week": day}))

	writeJSON(w, http.StatusOK, saved)
}

// ListSlots handles GET /api/user-habits/{id}/schedule
func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	uh, err := h.scheduleStore.GetUserHabit(id, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracked habit"})
		return
	}
	if uh == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracked habit not found"})
		return
	}

	slots, err := h.scheduleStore.ListSlots(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedule"})
		return
	}
	if slots == nil {
		slots = []model.ScheduleSlot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

type completeRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"` // YYYY-MM-DD, defaults to today
}

// Complete handles POST /api/user-habits/{id}/complete
func (h *ScheduleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	uh, err := h.scheduleStore.GetUserHabit(id, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracked habit"})
		return
	}
	if uh == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracked habit not found"})
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.Date == "" {
		req.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	completion, err := h.completionStore.Create(id, req.Date, req.Amount)
	if err != nil {
		h.logger.Error("create completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log completion"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("completion", "created", completion.ID, map[string]any{
		"user_habit_id": id,
		"completed_on":  completion.CompletedOn,
	}))

	writeJSON(w, http.StatusCreated, completion)
}
