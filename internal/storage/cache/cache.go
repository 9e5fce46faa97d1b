// Package cache implements a read-through, time-expiring cache in front
// of any script store. Entries live in a bounded LRU map and expire
// lazily after a fixed TTL; an expired entry behaves exactly like a
// miss. The cache is advisory: every path falls back to the wrapped
// backend, so removing the cache changes latency, never results.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// DefaultTTL matches the original service's five-minute entry lifetime.
const DefaultTTL = 5 * time.Minute

// DefaultSize bounds the number of cached records.
const DefaultSize = 1024

type entry struct {
	rec      *storage.ScriptRecord
	cachedAt time.Time
}

// Store wraps a backend with a read-through cache. Writes pass through
// to the backend and refresh the entry, so the cache never serves a
// pre-mutation body.
type Store struct {
	backend storage.ScriptStore
	entries *lru.Cache // id -> entry
	ttl     time.Duration

	now func() time.Time // injectable for tests
}

// New wraps backend with a cache of up to size entries expiring after
// ttl. Zero values fall back to DefaultTTL and DefaultSize.
func New(backend storage.ScriptStore, ttl time.Duration, size int) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, entries: entries, ttl: ttl, now: time.Now}, nil
}

// Len reports the number of live cache entries, expired or not.
func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) lookup(id string) *storage.ScriptRecord {
	v, ok := s.entries.Get(id)
	if !ok {
		return nil
	}
	e := v.(entry)
	if s.now().Sub(e.cachedAt) > s.ttl {
		s.entries.Remove(id)
		return nil
	}
	return e.rec.Clone()
}

func (s *Store) put(rec *storage.ScriptRecord) {
	s.entries.Add(rec.ID, entry{rec: rec.Clone(), cachedAt: s.now()})
}

// Get returns the cached record if present and fresh, otherwise reads
// through to the backend and stores the result.
func (s *Store) Get(ctx context.Context, id string) (*storage.ScriptRecord, error) {
	if rec := s.lookup(id); rec != nil {
		return rec, nil
	}
	rec, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(rec)
	return rec, nil
}

// Create persists through the backend and primes the cache.
func (s *Store) Create(ctx context.Context, rec *storage.ScriptRecord) error {
	if err := s.backend.Create(ctx, rec); err != nil {
		return err
	}
	s.put(rec)
	return nil
}

// Update persists through the backend and refreshes the entry with the
// post-mutation record.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (*storage.ScriptRecord, error) {
	rec, err := s.backend.Update(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	s.put(rec)
	return rec, nil
}

// Delete removes the record from the backend and invalidates the entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return err
	}
	s.entries.Remove(id)
	return nil
}

// ListByOwner passes through to the backend; owner scans are not cached.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*storage.ScriptRecord, error) {
	return s.backend.ListByOwner(ctx, ownerID)
}

// ListAll passes through to the backend.
func (s *Store) ListAll(ctx context.Context) ([]*storage.ScriptRecord, error) {
	return s.backend.ListAll(ctx)
}
