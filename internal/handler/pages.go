// Package handler contains the HTTP handlers: JSON endpoints under /api,
// the sign-in flow under /auth and a few bare server-rendered pages.
//
// Handlers parse requests, call a service and write the response. Business
// rules live in the service and moderation packages.
package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/moderation"
	"github.com/gossip-stories/gossip/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"submit", "dashboard", "event"}

// PageHandler renders the server-side pages. Templates are parsed once at
// startup; each page is base.html plus its own "content" block.
type PageHandler struct {
	events    *service.EventService
	stories   *service.StoryService
	guard     *service.Guard
	templates map[string]*template.Template
	logger    *slog.Logger
}

func NewPageHandler(events *service.EventService, stories *service.StoryService, guard *service.Guard, logger *slog.Logger) (*PageHandler, error) {
	funcs := template.FuncMap{"join": strings.Join}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &PageHandler{
		events:    events,
		stories:   stories,
		guard:     guard,
		templates: templates,
		logger:    logger,
	}, nil
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// pageError turns a service error into a redirect or a plain error page.
func (h *PageHandler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	switch status := statusFor(err); status {
	case http.StatusUnauthorized:
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	case http.StatusInternalServerError:
		http.Error(w, "Internal Server Error", status)
	default:
		http.Error(w, err.Error(), status)
	}
}

// HandleSubmitForm shows the public submission form.
//
// HTTP: GET /submit/{slug}
func (h *PageHandler) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	event, err := h.guard.AuthorizePublicSubmissionBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderClosed(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "submit", map[string]any{
		"Title":  event.Title,
		"Event":  event,
		"Form":   moderation.Submission{},
		"Errors": apperror.FieldErrors{},
	})
}

// HandleSubmit is the form action. On validation failure the form is shown
// again with the visitor's input and a message next to each bad field.
//
// HTTP: POST /submit/{slug}
func (h *PageHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := submissionFromForm(r)

	_, err := h.stories.SubmitToSlug(r.Context(), slug, form)
	if err == nil {
		event, _ := h.guard.AuthorizePublicSubmissionBySlug(r.Context(), slug)
		if event == nil {
			event = &model.Event{Slug: slug}
		}
		h.render(w, http.StatusOK, "submit", map[string]any{
			"Title":     event.Title,
			"Event":     event,
			"Form":      moderation.Submission{},
			"Errors":    apperror.FieldErrors{},
			"Submitted": true,
		})
		return
	}

	fields := apperror.FieldsOf(err)
	if fields == nil {
		h.renderClosed(w, r, err)
		return
	}

	// Only a submission to an open event gets this far.
	event, evErr := h.guard.AuthorizePublicSubmissionBySlug(r.Context(), slug)
	if evErr != nil {
		h.renderClosed(w, r, evErr)
		return
	}
	h.render(w, http.StatusBadRequest, "submit", map[string]any{
		"Title":  event.Title,
		"Event":  event,
		"Form":   form,
		"Errors": fields,
	})
}

func (h *PageHandler) renderClosed(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, apperror.ErrNotFound) {
		h.pageError(w, r, err)
		return
	}
	h.render(w, http.StatusNotFound, "submit", map[string]any{
		"Title":  "Not found",
		"Closed": true,
	})
}

func submissionFromForm(r *http.Request) moderation.Submission {
	var tags []string
	if raw := r.PostForm.Get("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	return moderation.Submission{
		Title:             r.PostForm.Get("title"),
		Content:           r.PostForm.Get("content"),
		Anonymous:         r.PostForm.Get("anonymous") != "",
		SubmitterEmail:    r.PostForm.Get("submitterEmail"),
		SubmitterUsername: r.PostForm.Get("submitterUsername"),
		Tags:              tags,
	}
}

// HandleDashboard lists the owner's events.
//
// HTTP: GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	summaries, err := h.events.Dashboard(r.Context(), user)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "dashboard", map[string]any{
		"Title":     "Dashboard",
		"User":      user,
		"Summaries": summaries,
	})
}

// HandleEvent shows one owned event in management or reading mode.
//
// HTTP: GET /event/{slug}?mode=management|reading
func (h *PageHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	mode, err := parseMode(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	view, err := h.events.ViewBySlug(r.Context(), user, chi.URLParam(r, "slug"), mode)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "event", map[string]any{
		"Title":      view.Event.Title,
		"View":       view,
		"Management": mode == moderation.ModeManagement,
	})
}
