package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jswenson/ritual/internal/push"
)

// NotifyHandler exposes the push-send trigger. It is a server-to-server
// endpoint (cron jobs, automations) mounted outside the session-auth mux
// with permissive CORS.
type NotifyHandler struct {
	dispatcher *push.Dispatcher
	logger     *slog.Logger
}

func NewNotifyHandler(d *push.Dispatcher, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{dispatcher: d, logger: logger}
}

// flexID accepts a JSON string or number; existing clients send both.
type flexID string

func (v *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = flexID(n.String())
	return nil
}

type notifyRequest struct {
	UserID  flexID         `json:"userId"`
	HabitID flexID         `json:"habitId"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data"`
}

// Notify handles POST /api/notify
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId is required"})
		return
	}
	userID, err := strconv.ParseInt(string(req.UserID), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
		return
	}

	dreq := push.Request{
		UserID: userID,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
	}
	if req.HabitID != "" {
		habitID, err := strconv.ParseInt(string(req.HabitID), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid habitId"})
			return
		}
		dreq.HabitID = &habitID
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), dreq)
	if err != nil {
		h.logger.Error("dispatch notify", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
