package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/moderation"
	"github.com/gossip-stories/gossip/internal/repository"
)

const slugTakenMessage = "an event with this slug already exists"

// EventInput is the owner-editable part of an event.
//
// Slug is only read on create; when empty it is derived from Title. IsActive
// is only read on update; nil leaves the flag unchanged.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// EventView is what the owner sees on the event page.
//
// Counts always cover every story of the event, whatever the mode.
type EventView struct {
	Event   model.Event       `json:"event"`
	Stories []model.Story     `json:"stories"`
	Counts  model.StoryCounts `json:"counts"`
	Mode    moderation.Mode   `json:"mode"`
}

// EventService manages events on behalf of their owners.
type EventService struct {
	store  repository.Store
	guard  *Guard
	logger *slog.Logger
}

func NewEventService(store repository.Store, guard *Guard, logger *slog.Logger) *EventService {
	return &EventService{store: store, guard: guard, logger: logger}
}

// Create validates in and stores a new, active event owned by principal.
func (s *EventService) Create(ctx context.Context, principal *model.User, in EventInput) (*model.Event, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}

	fields := moderation.ValidateEvent(in.Title, in.Description)

	source := in.Title
	if strings.TrimSpace(in.Slug) != "" {
		source = in.Slug
	}
	slug := moderation.Slugify(source)
	if slug == "" && (strings.TrimSpace(in.Slug) != "" || fields["title"] == "") {
		fields.Add("slug", "slug must contain at least one letter or digit")
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}

	event := &model.Event{
		UserID:      principal.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Slug:        slug,
		IsActive:    true,
	}
	if err := s.store.Events().Create(ctx, event); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("slug", slugTakenMessage)
		}
		return nil, persistenceError(s.logger, "creating event", err, "user_id", principal.ID)
	}

	s.logger.Info("event created", "event_id", event.ID, "slug", event.Slug, "user_id", principal.ID)
	return event, nil
}

// Update rewrites title and description and re-derives the slug from the
// new title.
func (s *EventService) Update(ctx context.Context, principal *model.User, eventID string, in EventInput) (*model.Event, error) {
	event, err := s.guard.AuthorizeEventAccess(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}

	fields := moderation.ValidateEvent(in.Title, in.Description)
	slug := moderation.Slugify(in.Title)
	if slug == "" && fields["title"] == "" {
		fields.Add("slug", "slug must contain at least one letter or digit")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	event.Title = strings.TrimSpace(in.Title)
	event.Description = strings.TrimSpace(in.Description)
	event.Slug = slug
	if in.IsActive != nil {
		event.IsActive = *in.IsActive
	}

	if err := s.save(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event updated", "event_id", event.ID, "slug", event.Slug)
	return event, nil
}

// SetActive opens or closes an event for public submissions.
func (s *EventService) SetActive(ctx context.Context, principal *model.User, eventID string, active bool) (*model.Event, error) {
	event, err := s.guard.AuthorizeEventAccess(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}

	event.IsActive = active
	if err := s.save(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event toggled", "event_id", event.ID, "is_active", active)
	return event, nil
}

func (s *EventService) save(ctx context.Context, event *model.Event) error {
	if err := s.store.Events().Update(ctx, event); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.ValidationFailed("slug", slugTakenMessage)
		}
		return persistenceError(s.logger, "updating event", err, "event_id", event.ID)
	}
	return nil
}

// Delete removes the event and every story in it in one transaction and
// reports how many stories went with it.
func (s *EventService) Delete(ctx context.Context, principal *model.User, eventID string) (int64, error) {
	var deleted int64

	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		if _, err := s.guard.authorizeEvent(ctx, r, principal, eventID); err != nil {
			return err
		}

		n, err := r.Stories().DeleteByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		deleted = n

		return r.Events().Delete(ctx, eventID)
	})
	if err != nil {
		return 0, persistenceError(s.logger, "deleting event", err, "event_id", eventID)
	}

	s.logger.Info("event deleted", "event_id", eventID, "deleted_stories", deleted)
	return deleted, nil
}

// Dashboard lists the principal's events, newest first, with story counts.
func (s *EventService) Dashboard(ctx context.Context, principal *model.User) ([]model.EventSummary, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}

	events, err := s.store.Events().ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, persistenceError(s.logger, "listing events", err, "user_id", principal.ID)
	}

	summaries := make([]model.EventSummary, 0, len(events))
	for _, e := range events {
		stories, err := s.store.Stories().ListByEvent(ctx, e.ID)
		if err != nil {
			return nil, persistenceError(s.logger, "listing stories", err, "event_id", e.ID)
		}
		summaries = append(summaries, model.EventSummary{Event: e, Counts: moderation.Count(stories)})
	}

	return summaries, nil
}

// View loads an owned event by id together with the stories visible in mode.
func (s *EventService) View(ctx context.Context, principal *model.User, eventID string, mode moderation.Mode) (*EventView, error) {
	event, err := s.guard.AuthorizeEventAccess(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, event, mode)
}

// ViewBySlug is View addressed by slug.
func (s *EventService) ViewBySlug(ctx context.Context, principal *model.User, slug string, mode moderation.Mode) (*EventView, error) {
	event, err := s.guard.AuthorizeEventAccessBySlug(ctx, principal, slug)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, event, mode)
}

func (s *EventService) view(ctx context.Context, event *model.Event, mode moderation.Mode) (*EventView, error) {
	stories, err := s.store.Stories().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, persistenceError(s.logger, "listing stories", err, "event_id", event.ID)
	}

	return &EventView{
		Event:   *event,
		Stories: moderation.VisibleStories(stories, mode),
		Counts:  moderation.Count(stories),
		Mode:    mode,
	}, nil
}

// PublicReading returns an event and its approved stories for anonymous
// readers. Submitter emails are not part of the result.
func (s *EventService) PublicReading(ctx context.Context, slug string) (*model.Event, []model.PublicStory, error) {
	event, err := s.store.Events().GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, persistenceError(s.logger, "loading event", err, "slug", slug)
	}

	stories, err := s.store.Stories().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, nil, persistenceError(s.logger, "listing stories", err, "event_id", event.ID)
	}

	visible := moderation.VisibleStories(stories, moderation.ModeReading)
	public := make([]model.PublicStory, 0, len(visible))
	for _, st := range visible {
		public = append(public, st.Public())
	}

	return event, public, nil
}
