package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
)

func TestEventCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "github|1", "o@example.com")

	event := createTestEvent(t, db, owner.ID, "summer-wedding")
	if event.ID == "" {
		t.Fatal("Create() did not set event.ID")
	}

	got, err := db.Events().GetByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Slug != "summer-wedding" || !got.IsActive || got.UserID != owner.ID {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestEventCreate_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, "github|1", "a@example.com")
	b := createTestUser(t, db, "github|2", "b@example.com")
	createTestEvent(t, db, a.ID, "party")

	dup := &model.Event{UserID: b.ID, Title: "Party", Description: "d", Slug: "party"}
	err := db.Events().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestEventCreate_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	orphan := &model.Event{UserID: "ghost", Title: "x", Description: "d", Slug: "x"}
	if err := db.Events().Create(context.Background(), orphan); err == nil {
		t.Fatal("Create() should fail the foreign key check for a missing owner")
	}
}

func TestEventFindByIDAndOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "github|1", "a@example.com")
	other := createTestUser(t, db, "github|2", "b@example.com")
	event := createTestEvent(t, db, owner.ID, "mine")

	if _, err := db.Events().FindByIDAndOwner(ctx, event.ID, owner.ID); err != nil {
		t.Errorf("owner lookup error = %v", err)
	}
	if _, err := db.Events().FindByIDAndOwner(ctx, event.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("non-owner lookup error = %v, want ErrNotFound", err)
	}
	if _, err := db.Events().FindBySlugAndOwner(ctx, "mine", other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("non-owner slug lookup error = %v, want ErrNotFound", err)
	}
	if _, err := db.Events().GetBySlug(ctx, "mine"); err != nil {
		t.Errorf("GetBySlug() error = %v", err)
	}
}

func TestEventListByOwner_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "github|1", "a@example.com")
	other := createTestUser(t, db, "github|2", "b@example.com")
	first := createTestEvent(t, db, owner.ID, "first")
	second := createTestEvent(t, db, owner.ID, "second")
	createTestEvent(t, db, other.ID, "not-mine")

	events, err := db.Events().ListByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListByOwner() returned %d events, want 2", len(events))
	}
	if events[0].ID != second.ID || events[1].ID != first.ID {
		t.Errorf("order = [%s %s], want [%s %s]", events[0].ID, events[1].ID, second.ID, first.ID)
	}
}

func TestEventUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "github|1", "a@example.com")
	event := createTestEvent(t, db, owner.ID, "before")

	event.Title = "After"
	event.Slug = "after"
	event.IsActive = false
	if err := db.Events().Update(ctx, event); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := db.Events().GetByID(ctx, event.ID)
	if got.Slug != "after" || got.IsActive {
		t.Errorf("after Update() = %+v", got)
	}
}

func TestEventUpdate_SlugTaken(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "github|1", "a@example.com")
	createTestEvent(t, db, owner.ID, "taken")
	event := createTestEvent(t, db, owner.ID, "free")

	event.Slug = "taken"
	if err := db.Events().Update(context.Background(), event); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() error = %v, want ErrConflict", err)
	}
}

func TestEventDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "github|1", "a@example.com")
	event := createTestEvent(t, db, owner.ID, "gone")

	if err := db.Events().Delete(ctx, event.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Events().GetByID(ctx, event.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Events().Delete(ctx, event.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestEventDelete_WithStoriesFailsForeignKey(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "github|1", "a@example.com")
	event := createTestEvent(t, db, owner.ID, "has-stories")
	createTestStory(t, db, event.ID, "s")

	if err := db.Events().Delete(context.Background(), event.ID); err == nil {
		t.Fatal("Delete() should fail while stories still reference the event")
	}
}
