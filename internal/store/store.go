// Package store owns the event collection: it answers day-bucketed queries
// for the visible week and applies create, update and delete, mirroring
// the full collection to its Repository after every mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"weekcal/internal/calendar"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

var ErrDuplicateID = errors.New("store: generated id already in use")

// ChangeKind names the mutation a listener is told about.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Change is delivered to listeners after a successful mutation. For
// Deleted, Event is the record that was removed.
type Change struct {
	Kind  ChangeKind
	Event model.Event
}

// Bucket is one day of a week window with the events starting on it.
type Bucket struct {
	Day    time.Time
	Events []model.Event
}

// Store is the single owner of the event collection. Safe for concurrent
// use; mutations are applied one at a time.
type Store struct {
	mu     sync.Mutex
	events []model.Event // creation order
	repo   Repository
	newID  IDGenerator

	listenersMu sync.Mutex
	listeners   map[int]func(Change)
	nextL       int
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New loads the collection from repo and returns a ready Store.
func New(ctx context.Context, repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		newID:     UUIDGenerator,
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded := repo.LoadEvents(ctx)
	s.events = append(make([]model.Event, 0, len(loaded)), loaded...)
	return s
}

// Subscribe registers fn to be called after every successful mutation.
// Listeners run synchronously on the mutating goroutine, after the store
// lock is released. The returned func unregisters fn.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextL
	s.nextL++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// BucketByDay returns one bucket per requested day, in request order.
// An event lands in the bucket whose calendar day matches the date of its
// Start in that day's location; events spanning midnight are not repeated
// on later days. Each bucket is sorted by Start, ties in creation order.
func (s *Store) BucketByDay(days []time.Time) []Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := make([]Bucket, len(days))
	for i, day := range days {
		buckets[i] = Bucket{Day: day, Events: []model.Event{}}
		for _, e := range s.events {
			if calendar.SameDay(e.Start, day) {
				buckets[i].Events = append(buckets[i].Events, e)
			}
		}
		evs := buckets[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			return evs[a].Start.Before(evs[b].Start)
		})
	}
	return buckets
}

// Get returns the event with id.
func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.events[i], true
	}
	return model.Event{}, false
}

// List returns a copy of the collection in creation order.
func (s *Store) List() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Create stores d under a fresh id and persists the collection.
//
// A persistence error is returned wrapped; the event stays in memory and
// the returned Event is still valid.
func (s *Store) Create(ctx context.Context, d model.Draft) (model.Event, error) {
	s.mu.Lock()
	id := s.newID()
	if s.indexOf(id) >= 0 {
		s.mu.Unlock()
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	e := d.WithID(id)
	s.events = append(s.events, e)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	appLog.Debug("event created", "id", e.ID, "start", e.Start.Format(time.RFC3339))
	s.notify(Change{Kind: Created, Event: e})
	return e, err
}

// Update replaces the stored record sharing e.ID. It reports false, and
// changes nothing, when no such record exists.
func (s *Store) Update(ctx context.Context, e model.Event) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(e.ID)
	if i < 0 {
		s.mu.Unlock()
		appLog.Debug("update for unknown event ignored", "id", e.ID)
		return false, nil
	}
	s.events[i] = e
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	appLog.Debug("event updated", "id", e.ID)
	s.notify(Change{Kind: Updated, Event: e})
	return true, err
}

// Delete removes the event with id. It reports false when absent.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		appLog.Debug("delete for unknown event ignored", "id", id)
		return false, nil
	}
	removed := s.events[i]
	s.events = append(s.events[:i], s.events[i+1:]...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	appLog.Debug("event deleted", "id", id)
	s.notify(Change{Kind: Deleted, Event: removed})
	return true, err
}

// persistLocked writes the whole collection. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	snapshot := append([]model.Event(nil), s.events...)
	if err := s.repo.SaveEvents(ctx, snapshot); err != nil {
		appLog.Error("persisting events failed", err, "count", len(snapshot))
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
