package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/service"
)

// StoryHandler serves the moderation endpoints. Every route sits behind
// auth.RequireAuth.
type StoryHandler struct {
	stories *service.StoryService
	guard   *service.Guard
	logger  *slog.Logger
}

func NewStoryHandler(stories *service.StoryService, guard *service.Guard, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, guard: guard, logger: logger}
}

// HandleGet returns one story, submitter details included.
//
// HTTP: GET /api/stories/{storyID}
func (h *StoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	story, err := h.stories.Get(r.Context(), user, chi.URLParam(r, "storyID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, story)
}

// HandleSetStatus moves a story to a new review status.
//
// HTTP: PATCH /api/stories/{storyID}/status  {"status": "APPROVED"}
func (h *StoryHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	story, err := h.stories.SetStatus(r.Context(), user, chi.URLParam(r, "storyID"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, story)
}

// HandleSetTags replaces the story's tags.
//
// HTTP: PUT /api/stories/{storyID}/tags  {"tags": ["a", "b"]}
func (h *StoryHandler) HandleSetTags(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Tags []string `json:"tags"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Tags == nil {
		writeError(w, apperror.ValidationFailed("tags", "tags must be an array"))
		return
	}

	story, err := h.stories.SetTags(r.Context(), user, chi.URLParam(r, "storyID"), body.Tags)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, story)
}
