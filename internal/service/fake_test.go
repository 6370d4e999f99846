package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements repository.Store with maps. Records are stored and
// returned as copies so tests cannot reach into its state by accident.
// Every create advances a fake clock by one second, which makes "newest
// first" ordering deterministic.

type fakeStore struct {
	users   map[string]model.User
	events  map[string]model.Event
	stories map[string]model.Story

	seq   int
	clock time.Time

	// failStories makes every story repository call return this error.
	failStories error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]model.User{},
		events:  map[string]model.Event{},
		stories: map[string]model.Story{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) Users() repository.UserRepository     { return fakeUsers{f} }
func (f *fakeStore) Events() repository.EventRepository   { return fakeEvents{f} }
func (f *fakeStore) Stories() repository.StoryRepository { return fakeStories{f} }
func (f *fakeStore) Close() error                         { return nil }

// WithTx snapshots the maps and restores them when fn fails.
func (f *fakeStore) WithTx(_ context.Context, fn func(repository.Repositories) error) error {
	users, events, stories := clone(f.users), clone(f.events), clone(f.stories)
	if err := fn(f); err != nil {
		f.users, f.events, f.stories = users, events, stories
		return err
	}
	return nil
}

func clone[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fakeUsers struct{ f *fakeStore }

func (r fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.f.users {
		if existing.ProviderID == u.ProviderID || existing.Email == u.Email {
			return apperror.Conflict("user", u.ProviderID)
		}
	}
	u.ID = r.f.nextID("user")
	u.CreatedAt = r.f.tick()
	u.UpdatedAt = u.CreatedAt
	r.f.users[u.ID] = *u
	return nil
}

func (r fakeUsers) find(match func(model.User) bool, key string) (*model.User, error) {
	for _, u := range r.f.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (r fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id }, id)
}

func (r fakeUsers) GetByProviderID(_ context.Context, providerID string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ProviderID == providerID }, providerID)
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email }, email)
}

func (r fakeUsers) UpdateProviderID(_ context.Context, id, providerID string) error {
	u, ok := r.f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.ProviderID = providerID
	r.f.users[id] = u
	return nil
}

type fakeEvents struct{ f *fakeStore }

func (r fakeEvents) slugTaken(slug, exceptID string) bool {
	for _, e := range r.f.events {
		if e.Slug == slug && e.ID != exceptID {
			return true
		}
	}
	return false
}

func (r fakeEvents) Create(_ context.Context, e *model.Event) error {
	if r.slugTaken(e.Slug, "") {
		return apperror.Conflict("event", e.Slug)
	}
	e.ID = r.f.nextID("event")
	e.CreatedAt = r.f.tick()
	e.UpdatedAt = e.CreatedAt
	r.f.events[e.ID] = *e
	return nil
}

func (r fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := r.f.events[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	return &e, nil
}

func (r fakeEvents) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Event, error) {
	e, ok := r.f.events[id]
	if !ok || e.UserID != ownerID {
		return nil, apperror.NotFound("event", id)
	}
	return &e, nil
}

func (r fakeEvents) FindBySlugAndOwner(_ context.Context, slug, ownerID string) (*model.Event, error) {
	for _, e := range r.f.events {
		if e.Slug == slug && e.UserID == ownerID {
			return &e, nil
		}
	}
	return nil, apperror.NotFound("event", slug)
}

func (r fakeEvents) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
	for _, e := range r.f.events {
		if e.Slug == slug {
			return &e, nil
		}
	}
	return nil, apperror.NotFound("event", slug)
}

func (r fakeEvents) ListByOwner(_ context.Context, ownerID string) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range r.f.events {
		if e.UserID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeEvents) Update(_ context.Context, e *model.Event) error {
	if _, ok := r.f.events[e.ID]; !ok {
		return apperror.NotFound("event", e.ID)
	}
	if r.slugTaken(e.Slug, e.ID) {
		return apperror.Conflict("event", e.Slug)
	}
	e.UpdatedAt = r.f.tick()
	r.f.events[e.ID] = *e
	return nil
}

func (r fakeEvents) Delete(_ context.Context, id string) error {
	if _, ok := r.f.events[id]; !ok {
		return apperror.NotFound("event", id)
	}
	for _, s := range r.f.stories {
		if s.EventID == id {
			return fmt.Errorf("fake: foreign key violation: story %s references event %s", s.ID, id)
		}
	}
	delete(r.f.events, id)
	return nil
}

type fakeStories struct{ f *fakeStore }

func (r fakeStories) Create(_ context.Context, s *model.Story) error {
	if r.f.failStories != nil {
		return r.f.failStories
	}
	if _, ok := r.f.events[s.EventID]; !ok {
		return fmt.Errorf("fake: foreign key violation: event %s", s.EventID)
	}
	s.ID = r.f.nextID("story")
	s.CreatedAt = r.f.tick()
	s.UpdatedAt = s.CreatedAt
	s.Tags = append([]string{}, s.Tags...)
	r.f.stories[s.ID] = *s
	return nil
}

func (r fakeStories) GetByID(_ context.Context, id string) (*model.Story, error) {
	if r.f.failStories != nil {
		return nil, r.f.failStories
	}
	s, ok := r.f.stories[id]
	if !ok {
		return nil, apperror.NotFound("story", id)
	}
	return &s, nil
}

func (r fakeStories) FindByIDAndOwner(_ context.Context, id, ownerID string) (*model.Story, error) {
	if r.f.failStories != nil {
		return nil, r.f.failStories
	}
	s, ok := r.f.stories[id]
	if !ok || r.f.events[s.EventID].UserID != ownerID {
		return nil, apperror.NotFound("story", id)
	}
	return &s, nil
}

func (r fakeStories) ListByEvent(_ context.Context, eventID string) ([]model.Story, error) {
	if r.f.failStories != nil {
		return nil, r.f.failStories
	}
	out := []model.Story{}
	for _, s := range r.f.stories {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeStories) UpdateStatus(_ context.Context, id string, status model.StoryStatus) error {
	s, ok := r.f.stories[id]
	if !ok {
		return apperror.NotFound("story", id)
	}
	s.Status = status
	s.UpdatedAt = r.f.tick()
	r.f.stories[id] = s
	return nil
}

func (r fakeStories) UpdateTags(_ context.Context, id string, tags []string) error {
	s, ok := r.f.stories[id]
	if !ok {
		return apperror.NotFound("story", id)
	}
	s.Tags = append([]string{}, tags...)
	s.UpdatedAt = r.f.tick()
	r.f.stories[id] = s
	return nil
}

func (r fakeStories) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	if r.f.failStories != nil {
		return 0, r.f.failStories
	}
	var n int64
	for id, s := range r.f.stories {
		if s.EventID == eventID {
			delete(r.f.stories, id)
			n++
		}
	}
	return n, nil
}

// =========================================================================
// FIXTURES
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *fakeStore
	guard   *Guard
	events  *EventService
	stories *StoryService
}

func newFixture() *fixture {
	store := newFakeStore()
	logger := discardLogger()
	guard := NewGuard(store, logger)
	return &fixture{
		store:   store,
		guard:   guard,
		events:  NewEventService(store, guard, logger),
		stories: NewStoryService(store, guard, logger),
	}
}

func (fx *fixture) user(email string) *model.User {
	u := &model.User{ProviderID: "github|" + email, Email: email, Username: "u"}
	if err := fx.store.Users().Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (fx *fixture) event(owner *model.User, title string) *model.Event {
	e, err := fx.events.Create(context.Background(), owner, EventInput{Title: title, Description: "desc"})
	if err != nil {
		panic(err)
	}
	return e
}

func (fx *fixture) story(eventID, title string, status model.StoryStatus) *model.Story {
	s := &model.Story{EventID: eventID, Title: title, Content: "c", Status: status, Tags: []string{}}
	if err := fx.store.Stories().Create(context.Background(), s); err != nil {
		panic(err)
	}
	return s
}
