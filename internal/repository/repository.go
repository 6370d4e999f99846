// Package repository declares the storage contracts the service layer depends
// on. Implementations live in the sqlite and postgres subpackages.
//
// Lookups that find nothing return an error wrapping apperror.ErrNotFound;
// unique-constraint violations wrap apperror.ErrConflict.
package repository

import (
	"context"

	"github.com/gossip-stories/gossip/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProviderID repoints an existing user at a new identity-provider subject.
	UpdateProviderID(ctx context.Context, id, providerID string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// FindByIDAndOwner returns NotFound both when the event is missing and
	// when it belongs to another user.
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Event, error)
	FindBySlugAndOwner(ctx context.Context, slug, ownerID string) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	// ListByOwner returns the owner's events newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string) error
}

type StoryRepository interface {
	Create(ctx context.Context, story *model.Story) error
	GetByID(ctx context.Context, id string) (*model.Story, error)
	// FindByIDAndOwner matches only when the story's parent event is owned by ownerID.
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Story, error)
	// ListByEvent returns every story of the event, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]model.Story, error)
	UpdateStatus(ctx context.Context, id string, status model.StoryStatus) error
	UpdateTags(ctx context.Context, id string, tags []string) error
	// DeleteByEvent removes all stories of an event and reports how many went.
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// Repositories groups the three repositories bound to one connection or
// transaction.
type Repositories interface {
	Users() UserRepository
	Events() EventRepository
	Stories() StoryRepository
}

// Store is a Repositories bound to the connection pool plus a transaction
// boundary. Repositories handed to fn share one transaction, which commits
// when fn returns nil and rolls back otherwise.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
	Close() error
}
