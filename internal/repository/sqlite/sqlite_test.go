package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, providerID, email string) *model.User {
	t.Helper()
	user := &model.User{ProviderID: providerID, Email: email, Username: "owner"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestEvent(t *testing.T, db *DB, ownerID, slug string) *model.Event {
	t.Helper()
	event := &model.Event{UserID: ownerID, Title: slug, Description: "d", Slug: slug, IsActive: true}
	if err := db.Events().Create(context.Background(), event); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

func createTestStory(t *testing.T, db *DB, eventID, title string) *model.Story {
	t.Helper()
	story := &model.Story{
		EventID: eventID,
		Title:   title,
		Content: "content of " + title,
		Tags:    []string{"a", "b"},
		Status:  model.StatusPendingReview,
	}
	if err := db.Stories().Create(context.Background(), story); err != nil {
		t.Fatalf("failed to create test story: %v", err)
	}
	return story
}

func TestNew_RunsMigrationsIdempotently(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "github|1", "owner@example.com")

	var created *model.Event
	err := db.WithTx(ctx, func(r repository.Repositories) error {
		created = &model.Event{UserID: owner.ID, Title: "Tx", Description: "d", Slug: "tx", IsActive: true}
		return r.Events().Create(ctx, created)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	if _, err := db.Events().GetByID(ctx, created.ID); err != nil {
		t.Errorf("event not visible after commit: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "github|1", "owner@example.com")
	event := createTestEvent(t, db, owner.ID, "keep-me")
	createTestStory(t, db, event.ID, "one")

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Stories().DeleteByEvent(ctx, event.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	stories, err := db.Stories().ListByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(stories) != 1 {
		t.Errorf("stories after rollback = %d, want 1", len(stories))
	}
}
