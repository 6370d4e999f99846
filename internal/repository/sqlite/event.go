package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// EventDB implements repository.EventRepository.
type EventDB struct {
	q querier
}

var _ repository.EventRepository = (*EventDB)(nil)

const eventColumns = `id, user_id, title, description, slug, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, e *model.Event) error {
	return row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.Slug,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

// Create inserts event, filling in ID and timestamps. A taken slug returns
// apperror.ErrConflict.
func (r *EventDB) Create(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()
	event.ID = xid.New().String()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.Slug,
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	return nil
}

func (r *EventDB) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.getOne(ctx, id, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
}

func (r *EventDB) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Event, error) {
	return r.getOne(ctx, id, `SELECT `+eventColumns+` FROM events WHERE id = ? AND user_id = ?`, id, ownerID)
}

func (r *EventDB) FindBySlugAndOwner(ctx context.Context, slug, ownerID string) (*model.Event, error) {
	return r.getOne(ctx, slug, `SELECT `+eventColumns+` FROM events WHERE slug = ? AND user_id = ?`, slug, ownerID)
}

func (r *EventDB) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return r.getOne(ctx, slug, `SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug)
}

func (r *EventDB) getOne(ctx context.Context, key, query string, args ...any) (*model.Event, error) {
	var e model.Event
	if err := scanEvent(r.q.QueryRowContext(ctx, query, args...), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", key)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", key, err)
	}
	return &e, nil
}

func (r *EventDB) ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}

// Update writes title, description, slug and the active flag.
func (r *EventDB) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()

	result, err := r.q.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, slug = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Description,
		event.Slug,
		event.IsActive,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}

	return requireAffected(result, "event", event.ID)
}

// Delete removes the event row. Its stories must already be gone or the
// foreign key check fails.
func (r *EventDB) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
	}

	return requireAffected(result, "event", id)
}
