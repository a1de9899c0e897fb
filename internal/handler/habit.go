package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/jswenson/ritual/internal/auth"
	"github.com/jswenson/ritual/internal/model"
	"github.com/jswenson/ritual/internal/store"
	"github.com/jswenson/ritual/internal/websocket"
)

type HabitHandler struct {
	habitStore *store.HabitStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHabitHandler(hs *store.HabitStore, hub *websocket.Hub, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habitStore: hs, hub: hub, logger: logger}
}

func (h *HabitHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.BroadcastTo(userID, msg)
	}
}

type habitRequest struct {
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Target   []float64 `json:"target"`
	Unit     string    `json:"unit"`
}

func (r *habitRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if !model.ValidCategory(r.Category) {
		return "category must be one of: " + strings.Join(model.Categories, ", ")
	}
	for _, t := range r.Target {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return "target values must be non-negative numbers"
		}
	}
	return ""
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	habit, err := h.habitStore.Create(req.Title, req.Category, req.Target, req.Unit)
	if err != nil {
		h.logger.Error("create habit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create habit"})
		return
	}

	h.broadcast(auth.UserID(r.Context()), websocket.NewMessage("habit", "created", habit.ID, nil))

	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habitStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list habits"})
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	habit, err := h.habitStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if habit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.habitStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	habit, err := h.habitStore.Update(id, req.Title, req.Category, req.Target, req.Unit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update habit"})
		return
	}

	h.broadcast(auth.UserID(r.Context()), websocket.NewMessage("habit", "updated", habit.ID, nil))

	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.habitStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete habit"})
		return
	}

	h.broadcast(auth.UserID(r.Context()), websocket.NewMessage("habit", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
