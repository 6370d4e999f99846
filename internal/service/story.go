package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/moderation"
	"github.com/gossip-stories/gossip/internal/repository"
)

// StoryService accepts public submissions and runs the moderation actions.
type StoryService struct {
	store  repository.Store
	guard  *Guard
	logger *slog.Logger
}

func NewStoryService(store repository.Store, guard *Guard, logger *slog.Logger) *StoryService {
	return &StoryService{store: store, guard: guard, logger: logger}
}

// Submit stores a visitor's story for the event named by in.EventID.
//
// The event check comes first so a closed event never reveals validation
// details. All field errors are then reported together.
func (s *StoryService) Submit(ctx context.Context, in moderation.Submission) (*model.Story, error) {
	event, err := s.guard.AuthorizePublicSubmission(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, event, in)
}

// SubmitToSlug is Submit for the public form, which addresses events by slug.
func (s *StoryService) SubmitToSlug(ctx context.Context, slug string, in moderation.Submission) (*model.Story, error) {
	event, err := s.guard.AuthorizePublicSubmissionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, event, in)
}

func (s *StoryService) submit(ctx context.Context, event *model.Event, in moderation.Submission) (*model.Story, error) {
	if err := moderation.ValidateSubmission(in).Err(); err != nil {
		return nil, err
	}

	story := &model.Story{
		EventID:   event.ID,
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Anonymous: in.Anonymous,
		Tags:      moderation.NormalizeSubmissionTags(in.Tags),
		Status:    model.StatusPendingReview,
	}
	if !in.Anonymous {
		story.SubmitterEmail = strings.TrimSpace(in.SubmitterEmail)
		story.SubmitterUsername = strings.TrimSpace(in.SubmitterUsername)
	}

	if err := s.store.Stories().Create(ctx, story); err != nil {
		return nil, persistenceError(s.logger, "creating story", err, "event_id", event.ID)
	}

	s.logger.Info("story submitted",
		"story_id", story.ID,
		"event_id", event.ID,
		"anonymous", story.Anonymous,
		"tags", len(story.Tags),
	)
	return story, nil
}

// Get returns a story the principal owns through its event.
func (s *StoryService) Get(ctx context.Context, principal *model.User, storyID string) (*model.Story, error) {
	return s.guard.AuthorizeStoryAccess(ctx, principal, storyID)
}

// SetStatus moves a story to status. Every status may follow every other
// one, including itself.
func (s *StoryService) SetStatus(ctx context.Context, principal *model.User, storyID, status string) (*model.Story, error) {
	next, err := model.ParseStoryStatus(status)
	if err != nil {
		return nil, apperror.ValidationFailed("status",
			"status must be one of PENDING_REVIEW, APPROVED, REJECTED, READ")
	}

	story, err := s.guard.AuthorizeStoryAccess(ctx, principal, storyID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Stories().UpdateStatus(ctx, story.ID, next); err != nil {
		return nil, persistenceError(s.logger, "updating story status", err, "story_id", story.ID)
	}

	s.logger.Info("story status changed",
		"story_id", story.ID,
		"from", story.Status,
		"to", next,
	)
	return s.reload(ctx, story.ID)
}

// SetTags replaces the story's tags with the trimmed, non-empty entries of
// tags, keeping at most moderation.MaxTags in input order.
func (s *StoryService) SetTags(ctx context.Context, principal *model.User, storyID string, tags []string) (*model.Story, error) {
	story, err := s.guard.AuthorizeStoryAccess(ctx, principal, storyID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Stories().UpdateTags(ctx, story.ID, moderation.NormalizeTags(tags)); err != nil {
		return nil, persistenceError(s.logger, "updating story tags", err, "story_id", story.ID)
	}

	return s.reload(ctx, story.ID)
}

func (s *StoryService) reload(ctx context.Context, storyID string) (*model.Story, error) {
	story, err := s.store.Stories().GetByID(ctx, storyID)
	if err != nil {
		return nil, persistenceError(s.logger, "reloading story", err, "story_id", storyID)
	}
	return story, nil
}

// ListForEvent returns the stories of an owned event visible in mode.
func (s *StoryService) ListForEvent(ctx context.Context, principal *model.User, eventID string, mode moderation.Mode) ([]model.Story, error) {
	event, err := s.guard.AuthorizeEventAccess(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}

	stories, err := s.store.Stories().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, persistenceError(s.logger, "listing stories", err, "event_id", event.ID)
	}

	return moderation.VisibleStories(stories, mode), nil
}
