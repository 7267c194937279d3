package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lexacademy/checkout/internal/checkout"
)

var (
	ErrDraftNotFound = errors.New("checkout not found")
)

// SessionStore holds checkout drafts. Every mutation goes through Update,
// which runs under the store lock so one draft never sees two writers.
type SessionStore interface {
	Save(ctx context.Context, d *checkout.Draft) error
	Get(ctx context.Context, id string) (*checkout.Draft, error)
	Update(ctx context.Context, id string, fn func(d *checkout.Draft) error) (*checkout.Draft, error)
}

// InMemorySessionStore keeps drafts in memory and forgets drafts that have
// not been touched for ttl.
type InMemorySessionStore struct {
	mu     sync.Mutex
	drafts map[string]*checkout.Draft
	ttl    time.Duration
	now    func() time.Time
}

func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	return &InMemorySessionStore{
		drafts: make(map[string]*checkout.Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *InMemorySessionStore) Save(ctx context.Context, d *checkout.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	s.drafts[d.ID] = d.Clone()
	return nil
}

// Get returns a copy of the draft
func (s *InMemorySessionStore) Get(ctx context.Context, id string) (*checkout.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok || s.expiredLocked(d) {
		return nil, ErrDraftNotFound
	}
	return d.Clone(), nil
}

// Update applies fn to the stored draft. The draft is changed only if fn
// succeeds; the returned copy reflects the stored state either way.
func (s *InMemorySessionStore) Update(ctx context.Context, id string, fn func(d *checkout.Draft) error) (*checkout.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok || s.expiredLocked(d) {
		return nil, ErrDraftNotFound
	}

	working := d.Clone()
	if err := fn(working); err != nil {
		return d.Clone(), err
	}
	s.drafts[id] = working
	return working.Clone(), nil
}

func (s *InMemorySessionStore) expiredLocked(d *checkout.Draft) bool {
	return s.ttl > 0 && s.now().Sub(d.UpdatedAt) > s.ttl
}

func (s *InMemorySessionStore) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	for id, d := range s.drafts {
		if s.expiredLocked(d) {
			delete(s.drafts, id)
		}
	}
}
