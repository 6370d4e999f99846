package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/moderation"
	"github.com/gossip-stories/gossip/internal/service"
)

// EventHandler serves the owner's event endpoints under /api. Every route
// sits behind auth.RequireAuth.
type EventHandler struct {
	events *service.EventService
	guard  *service.Guard
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, guard *service.Guard, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, guard: guard, logger: logger}
}

// parseMode reads ?mode=, defaulting to management.
func parseMode(r *http.Request) (moderation.Mode, error) {
	mode, err := moderation.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		return "", apperror.ValidationFailed("mode", "mode must be management or reading")
	}
	return mode, nil
}

// HandleDashboard lists the caller's events with story counts.
//
// HTTP: GET /api/dashboard
func (h *EventHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	summaries, err := h.events.Dashboard(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleCreate creates an event.
//
// HTTP: POST /api/events  {"title", "description", "slug"?}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	event, err := h.events.Create(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// HandleGet returns the event with its stories for the requested mode.
//
// HTTP: GET /api/events/{eventID}?mode=management|reading
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	mode, err := parseMode(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.events.View(r.Context(), user, chi.URLParam(r, "eventID"), mode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleUpdate edits title, description and optionally the active flag.
//
// HTTP: PUT /api/events/{eventID}  {"title", "description", "isActive"?}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	event, err := h.events.Update(r.Context(), user, chi.URLParam(r, "eventID"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleToggle opens or closes the event for submissions.
//
// HTTP: PATCH /api/events/{eventID}/toggle  {"isActive": bool}
func (h *EventHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.IsActive == nil {
		writeError(w, apperror.ValidationFailed("isActive", "isActive must be a boolean"))
		return
	}

	event, err := h.events.SetActive(r.Context(), user, chi.URLParam(r, "eventID"), *body.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes the event and all of its stories.
//
// HTTP: DELETE /api/events/{eventID}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := h.events.Delete(r.Context(), user, chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deletedStories": n})
}
