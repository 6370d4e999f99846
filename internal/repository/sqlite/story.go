package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// StoryDB implements repository.StoryRepository. Tags are stored as a JSON
// array in a TEXT column.
type StoryDB struct {
	q querier
}

var _ repository.StoryRepository = (*StoryDB)(nil)

const storyColumns = `s.id, s.event_id, s.title, s.content, s.submitter_email, s.submitter_username,
	s.anonymous, s.tags, s.status, s.created_at, s.updated_at`

func scanStory(row rowScanner, s *model.Story) error {
	var tags string
	if err := row.Scan(
		&s.ID,
		&s.EventID,
		&s.Title,
		&s.Content,
		&s.SubmitterEmail,
		&s.SubmitterUsername,
		&s.Anonymous,
		&tags,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return err
	}
	return decodeTags(tags, &s.Tags)
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string, dst *[]string) error {
	*dst = []string{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("sqlite: decoding tags: %w", err)
	}
	return nil
}

// Create inserts story, filling in ID and timestamps.
func (r *StoryDB) Create(ctx context.Context, story *model.Story) error {
	tags, err := encodeTags(story.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	story.ID = xid.New().String()
	story.CreatedAt = now
	story.UpdatedAt = now

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO stories (id, event_id, title, content, submitter_email, submitter_username,
		                      anonymous, tags, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID,
		story.EventID,
		story.Title,
		story.Content,
		story.SubmitterEmail,
		story.SubmitterUsername,
		story.Anonymous,
		tags,
		story.Status,
		story.CreatedAt,
		story.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating story: %w", err)
	}

	return nil
}

func (r *StoryDB) GetByID(ctx context.Context, id string) (*model.Story, error) {
	return r.getOne(ctx, id,
		`SELECT `+storyColumns+` FROM stories s WHERE s.id = ?`, id)
}

func (r *StoryDB) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Story, error) {
	return r.getOne(ctx, id,
		`SELECT `+storyColumns+`
		 FROM stories s
		 JOIN events e ON e.id = s.event_id
		 WHERE s.id = ? AND e.user_id = ?`,
		id, ownerID)
}

func (r *StoryDB) getOne(ctx context.Context, id, query string, args ...any) (*model.Story, error) {
	var s model.Story
	if err := scanStory(r.q.QueryRowContext(ctx, query, args...), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("story", id)
		}
		return nil, fmt.Errorf("sqlite: getting story %s: %w", id, err)
	}
	return &s, nil
}

func (r *StoryDB) ListByEvent(ctx context.Context, eventID string) ([]model.Story, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+storyColumns+`
		 FROM stories s
		 WHERE s.event_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing stories: %w", err)
	}
	defer rows.Close()

	stories := []model.Story{}
	for rows.Next() {
		var s model.Story
		if err := scanStory(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning story row: %w", err)
		}
		stories = append(stories, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating stories: %w", err)
	}

	return stories, nil
}

func (r *StoryDB) UpdateStatus(ctx context.Context, id string, status model.StoryStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE stories SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating status of story %s: %w", id, err)
	}

	return requireAffected(result, "story", id)
}

func (r *StoryDB) UpdateTags(ctx context.Context, id string, tags []string) error {
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE stories SET tags = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating tags of story %s: %w", id, err)
	}

	return requireAffected(result, "story", id)
}

func (r *StoryDB) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM stories WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting stories of event %s: %w", eventID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
