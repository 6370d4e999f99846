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

// StoryDB implements repository.StoryRepository. Tags live in a TEXT[] column.
type StoryDB struct {
	q querier
}

var _ repository.StoryRepository = (*StoryDB)(nil)

const storyColumns = `s.id, s.event_id, s.title, s.content, s.submitter_email, s.submitter_username,
	s.anonymous, s.tags, s.status, s.created_at, s.updated_at`

func scanStory(row pgx.Row, s *model.Story) error {
	var status string
	if err := row.Scan(
		&s.ID, &s.EventID, &s.Title, &s.Content, &s.SubmitterEmail, &s.SubmitterUsername,
		&s.Anonymous, &s.Tags, &status, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return err
	}
	s.Status = model.StoryStatus(status)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return nil
}

// nonNilTags keeps pgx from encoding a nil slice as NULL.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (r *StoryDB) Create(ctx context.Context, story *model.Story) error {
	now := time.Now().UTC()
	story.ID = uuid.New().String()
	story.CreatedAt = now
	story.UpdatedAt = now

	_, err := r.q.Exec(ctx,
		`INSERT INTO stories (id, event_id, title, content, submitter_email, submitter_username,
		                      anonymous, tags, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		story.ID, story.EventID, story.Title, story.Content, story.SubmitterEmail, story.SubmitterUsername,
		story.Anonymous, nonNilTags(story.Tags), string(story.Status), story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating story: %w", err)
	}
	return nil
}

func (r *StoryDB) GetByID(ctx context.Context, id string) (*model.Story, error) {
	return r.getOne(ctx, id, `SELECT `+storyColumns+` FROM stories s WHERE s.id = $1`, id)
}

func (r *StoryDB) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Story, error) {
	return r.getOne(ctx, id,
		`SELECT `+storyColumns+`
		 FROM stories s
		 JOIN events e ON e.id = s.event_id
		 WHERE s.id = $1 AND e.user_id = $2`,
		id, ownerID)
}

func (r *StoryDB) getOne(ctx context.Context, id, query string, args ...any) (*model.Story, error) {
	var s model.Story
	if err := scanStory(r.q.QueryRow(ctx, query, args...), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("story", id)
		}
		return nil, fmt.Errorf("postgres: getting story %s: %w", id, err)
	}
	return &s, nil
}

func (r *StoryDB) ListByEvent(ctx context.Context, eventID string) ([]model.Story, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+storyColumns+`
		 FROM stories s
		 WHERE s.event_id = $1
		 ORDER BY s.created_at DESC, s.id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing stories: %w", err)
	}
	defer rows.Close()

	stories := []model.Story{}
	for rows.Next() {
		var s model.Story
		if err := scanStory(rows, &s); err != nil {
			return nil, fmt.Errorf("postgres: scanning story row: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *StoryDB) UpdateStatus(ctx context.Context, id string, status model.StoryStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stories SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating status of story %s: %w", id, err)
	}
	return requireAffected(tag, "story", id)
}

func (r *StoryDB) UpdateTags(ctx context.Context, id string, tags []string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stories SET tags = $1, updated_at = $2 WHERE id = $3`,
		nonNilTags(tags), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating tags of story %s: %w", id, err)
	}
	return requireAffected(tag, "story", id)
}

func (r *StoryDB) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM stories WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("postgres: deleting stories of event %s: %w", eventID, err)
	}
	return tag.RowsAffected(), nil
}
