package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// newTestDB connects to GOSSIP_TEST_DATABASE_URL and empties every table.
// Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("GOSSIP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GOSSIP_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.pool.Exec(ctx, `TRUNCATE stories, events, users`)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *DB) (*model.User, *model.Event) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ProviderID: "github|1", Email: "owner@example.com", Username: "owner"}
	require.NoError(t, db.Users().Create(ctx, user))

	event := &model.Event{UserID: user.ID, Title: "Party", Slug: "party", IsActive: true}
	require.NoError(t, db.Events().Create(ctx, event))

	return user, event
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, _ := seed(t, db)

	got, err := db.Users().GetByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	dup := &model.User{ProviderID: "github|2", Email: "owner@example.com", Username: "x"}
	assert.ErrorIs(t, db.Users().Create(ctx, dup), apperror.ErrConflict)

	require.NoError(t, db.Users().UpdateProviderID(ctx, user.ID, "github|9"))
	got, err = db.Users().GetByProviderID(ctx, "github|9")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, event := seed(t, db)

	_, err := db.Events().FindByIDAndOwner(ctx, event.ID, "someone-else")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	dup := &model.Event{UserID: user.ID, Title: "Party", Slug: "party"}
	assert.ErrorIs(t, db.Events().Create(ctx, dup), apperror.ErrConflict)

	event.IsActive = false
	require.NoError(t, db.Events().Update(ctx, event))

	events, err := db.Events().ListByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsActive)
}

func TestStories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, event := seed(t, db)

	story := &model.Story{EventID: event.ID, Title: "t", Content: "c", Status: model.StatusPendingReview}
	require.NoError(t, db.Stories().Create(ctx, story))

	got, err := db.Stories().FindByIDAndOwner(ctx, story.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Tags)

	require.NoError(t, db.Stories().UpdateTags(ctx, story.ID, []string{"a", "b"}))
	require.NoError(t, db.Stories().UpdateStatus(ctx, story.ID, model.StatusApproved))

	got, err = db.Stories().GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, model.StatusApproved, got.Status)
}

func TestWithTx_DeletesEventAndStories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, event := seed(t, db)

	for _, title := range []string{"one", "two"} {
		s := &model.Story{EventID: event.ID, Title: title, Content: "c", Status: model.StatusPendingReview}
		require.NoError(t, db.Stories().Create(ctx, s))
	}

	var deleted int64
	err := db.WithTx(ctx, func(r repository.Repositories) error {
		n, err := r.Stories().DeleteByEvent(ctx, event.ID)
		if err != nil {
			return err
		}
		deleted = n
		return r.Events().Delete(ctx, event.ID)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = db.Events().GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestWithTx_RollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, event := seed(t, db)

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Events().Delete(ctx, event.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.Events().GetByID(ctx, event.ID)
	assert.NoError(t, err)
}
