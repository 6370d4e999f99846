package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/moderation"
	"github.com/gossip-stories/gossip/internal/service"
)

// PublicHandler serves the unauthenticated JSON endpoints: submission target
// lookup, reading mode and story submission.
type PublicHandler struct {
	events  *service.EventService
	stories *service.StoryService
	guard   *service.Guard
	logger  *slog.Logger
}

func NewPublicHandler(events *service.EventService, stories *service.StoryService, guard *service.Guard, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{events: events, stories: stories, guard: guard, logger: logger}
}

// PublicEvent is what a visitor needs to fill in the submission form.
type PublicEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

func publicEvent(e *model.Event) PublicEvent {
	return PublicEvent{ID: e.ID, Title: e.Title, Description: e.Description, Slug: e.Slug}
}

// HandleEvent returns an event open for submissions. Closed and unknown
// events both answer 404.
//
// HTTP: GET /api/public/events/{slug}
func (h *PublicHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.guard.AuthorizePublicSubmissionBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, publicEvent(event))
}

// HandleStories returns the approved stories of an event.
//
// HTTP: GET /api/public/events/{slug}/stories
func (h *PublicHandler) HandleStories(w http.ResponseWriter, r *http.Request) {
	event, stories, err := h.events.PublicReading(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":   publicEvent(event),
		"stories": stories,
	})
}

// HandleSubmit accepts a story from an anonymous visitor.
//
// HTTP: POST /api/public/stories
func (h *PublicHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in moderation.Submission
	if !decodeJSON(w, r, &in) {
		return
	}

	story, err := h.stories.Submit(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"storyId": story.ID})
}
