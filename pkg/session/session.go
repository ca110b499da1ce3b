// Package session keeps live editor sessions for the HTTP API.
//
// Sessions live in memory only and expire after a period without access.
// A Get refreshes the idle timer; Cleanup (or RunCleanup in the background)
// drops sessions whose timer ran out.
//
// # Usage
//
//	store := session.NewStore[*editor.Editor](session.DefaultTTL)
//	id := store.Create(editor.New(client))
//	ed, err := store.Get(id)
//	if errors.Is(err, session.ErrExpired) {
//	    // gone after inactivity
//	}
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session exceeded its idle TTL.
	ErrExpired = errors.New("expired")
)

// DefaultTTL is the default idle lifetime of a session.
const DefaultTTL = time.Hour

// Session is one stored value with its bookkeeping.
type Session[T any] struct {
	ID        uuid.UUID
	Value     T
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store holds sessions keyed by random UUIDs. A zero or negative TTL
// disables expiry. Safe for concurrent use.
type Store[T any] struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Session[T]
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		items: make(map[uuid.UUID]*Session[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store[T]) expired(sess *Session[T], now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeen) > s.ttl
}

// Create stores v under a new id.
func (s *Store[T]) Create(v T) uuid.UUID {
	now := s.now()
	sess := &Session[T]{ID: uuid.New(), Value: v, CreatedAt: now, LastSeen: now}
	s.mu.Lock()
	s.items[sess.ID] = sess
	s.mu.Unlock()
	return sess.ID
}

// Get returns the value for id and refreshes its idle timer. An expired
// session is removed and reported as ErrExpired.
func (s *Store[T]) Get(id uuid.UUID) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.items, id)
		return zero, ErrExpired
	}
	sess.LastSeen = now
	return sess.Value, nil
}

// Delete removes a session. ErrNotFound if it did not exist.
func (s *Store[T]) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// the next Cleanup.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Cleanup removes expired sessions and returns how many it removed.
func (s *Store[T]) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.items {
		if s.expired(sess, now) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx ends. onRemove, if not
// nil, receives the count of each non-empty sweep.
func (s *Store[T]) RunCleanup(ctx context.Context, interval time.Duration, onRemove func(int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 && onRemove != nil {
				onRemove(n)
			}
		}
	}
}
