package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/auth"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// DefaultUsername is stored when the identity provider supplies no username.
const DefaultUsername = "user"

// Guard decides whether a principal may read or change a resource.
//
// A denial is reported as apperror.ErrNotFound, exactly like a missing
// record, so callers cannot tell someone else's event from no event.
type Guard struct {
	repos  repository.Repositories
	logger *slog.Logger
}

func NewGuard(repos repository.Repositories, logger *slog.Logger) *Guard {
	return &Guard{repos: repos, logger: logger}
}

// ResolvePrincipal maps an identity to a stored user, creating the user on
// first sight.
//
// A known subject id wins. Otherwise the email decides: an existing account
// with that email is repointed at the new subject (only when the provider
// verified the address), and a new account is created when none exists.
func (g *Guard) ResolvePrincipal(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil || id.Subject == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}

	user, err := g.repos.Users().GetByProviderID(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, persistenceError(g.logger, "looking up user by provider id", err, "subject", id.Subject)
	}

	if id.Email == "" {
		return nil, apperror.Unauthenticated("identity provider returned no email address")
	}

	user, err = g.repos.Users().GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		return g.repoint(ctx, user, id)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, persistenceError(g.logger, "looking up user by email", err, "subject", id.Subject)
	}

	username := id.Username
	if username == "" {
		username = DefaultUsername
	}

	user = &model.User{ProviderID: id.Subject, Email: id.Email, Username: username}
	if err := g.repos.Users().Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// A concurrent request created the same user first.
			if existing, lookupErr := g.repos.Users().GetByProviderID(ctx, id.Subject); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, persistenceError(g.logger, "creating user", err, "subject", id.Subject)
	}

	g.logger.Info("user created", "user_id", user.ID, "subject", id.Subject)
	return user, nil
}

func (g *Guard) repoint(ctx context.Context, user *model.User, id *auth.Identity) (*model.User, error) {
	if !id.EmailVerified {
		g.logger.Warn("refusing to link account by unverified email",
			"user_id", user.ID,
			"subject", id.Subject,
		)
		return nil, apperror.Unauthenticated("email address is not verified with the identity provider")
	}

	if err := g.repos.Users().UpdateProviderID(ctx, user.ID, id.Subject); err != nil {
		return nil, persistenceError(g.logger, "repointing user", err, "user_id", user.ID)
	}

	g.logger.Info("user linked to new identity", "user_id", user.ID, "subject", id.Subject)
	user.ProviderID = id.Subject
	return user, nil
}

// AuthorizeEventAccess returns the event when principal owns it.
func (g *Guard) AuthorizeEventAccess(ctx context.Context, principal *model.User, eventID string) (*model.Event, error) {
	return g.authorizeEvent(ctx, g.repos, principal, eventID)
}

func (g *Guard) authorizeEvent(ctx context.Context, repos repository.Repositories, principal *model.User, eventID string) (*model.Event, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}
	event, err := repos.Events().FindByIDAndOwner(ctx, eventID, principal.ID)
	if err != nil {
		return nil, persistenceError(g.logger, "authorizing event", err, "event_id", eventID)
	}
	return event, nil
}

// AuthorizeEventAccessBySlug is AuthorizeEventAccess for the owner event page.
func (g *Guard) AuthorizeEventAccessBySlug(ctx context.Context, principal *model.User, slug string) (*model.Event, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}
	event, err := g.repos.Events().FindBySlugAndOwner(ctx, slug, principal.ID)
	if err != nil {
		return nil, persistenceError(g.logger, "authorizing event", err, "slug", slug)
	}
	return event, nil
}

// AuthorizeStoryAccess returns the story when principal owns its event.
func (g *Guard) AuthorizeStoryAccess(ctx context.Context, principal *model.User, storyID string) (*model.Story, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}
	story, err := g.repos.Stories().FindByIDAndOwner(ctx, storyID, principal.ID)
	if err != nil {
		return nil, persistenceError(g.logger, "authorizing story", err, "story_id", storyID)
	}
	return story, nil
}

// AuthorizePublicSubmission allows anyone to submit to an existing, active
// event. Missing and inactive events fail with the same error.
func (g *Guard) AuthorizePublicSubmission(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := g.repos.Events().GetByID(ctx, eventID)
	return g.acceptingSubmissions(event, err, eventID)
}

// AuthorizePublicSubmissionBySlug is AuthorizePublicSubmission for the
// public submission page.
func (g *Guard) AuthorizePublicSubmissionBySlug(ctx context.Context, slug string) (*model.Event, error) {
	event, err := g.repos.Events().GetBySlug(ctx, slug)
	return g.acceptingSubmissions(event, err, slug)
}

func (g *Guard) acceptingSubmissions(event *model.Event, err error, key string) (*model.Event, error) {
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("event", key)
		}
		return nil, persistenceError(g.logger, "loading event for submission", err, "event", key)
	}
	if !event.IsActive {
		return nil, apperror.NotFound("event", key)
	}
	return event, nil
}
