// Package mem implements an in-memory script store. It is the reference
// backend for tests and for running the server without durable storage.
package mem

import (
	"context"
	"sync"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// Store holds all records in a map guarded by a single RWMutex. Records
// are cloned on the way in and out, so callers never share memory with
// the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.ScriptRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]*storage.ScriptRecord)}
}

// Create persists a new record.
func (s *Store) Create(_ context.Context, rec *storage.ScriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return storage.ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(_ context.Context, id string) (*storage.ScriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update applies mutate to the stored record under the store lock, which
// serializes concurrent updates of the same ID.
func (s *Store) Update(_ context.Context, id string, mutate storage.Mutator) (*storage.ScriptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	updated := rec.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	s.records[id] = updated
	return updated.Clone(), nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// ListByOwner returns all records created under ownerID.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]*storage.ScriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*storage.ScriptRecord{}
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// ListAll returns every record in the store.
func (s *Store) ListAll(_ context.Context) ([]*storage.ScriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.ScriptRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}
