package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

type EventDB struct {
	q querier
}

var _ repository.EventRepository = (*EventDB)(nil)

const eventColumns = `id, user_id, title, description, slug, is_active, created_at, updated_at`

func scanEvent(row pgx.Row, e *model.Event) error {
	return row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Slug, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventDB) Create(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()
	event.ID = uuid.New().String()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.q.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.UserID, event.Title, event.Description, event.Slug, event.IsActive,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fmt.Errorf("postgres: creating event: %w", err)
	}
	return nil
}

func (r *EventDB) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.getOne(ctx, id, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *EventDB) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Event, error) {
	return r.getOne(ctx, id, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND user_id = $2`, id, ownerID)
}

func (r *EventDB) FindBySlugAndOwner(ctx context.Context, slug, ownerID string) (*model.Event, error) {
	return r.getOne(ctx, slug, `SELECT `+eventColumns+` FROM events WHERE slug = $1 AND user_id = $2`, slug, ownerID)
}

func (r *EventDB) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return r.getOne(ctx, slug, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
}

func (r *EventDB) getOne(ctx context.Context, key, query string, args ...any) (*model.Event, error) {
	var e model.Event
	if err := scanEvent(r.q.QueryRow(ctx, query, args...), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("event", key)
		}
		return nil, fmt.Errorf("postgres: getting event %s: %w", key, err)
	}
	return &e, nil
}

func (r *EventDB) ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("postgres: scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventDB) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tag, err := r.q.Exec(ctx,
		`UPDATE events
		 SET title = $1, description = $2, slug = $3, is_active = $4, updated_at = $5
		 WHERE id = $6`,
		event.Title, event.Description, event.Slug, event.IsActive, event.UpdatedAt, event.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fmt.Errorf("postgres: updating event %s: %w", event.ID, err)
	}
	return requireAffected(tag, "event", event.ID)
}

func (r *EventDB) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting event %s: %w", id, err)
	}
	return requireAffected(tag, "event", id)
}
