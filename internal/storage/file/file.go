// Package file implements a script store persisted as a single JSON
// file holding a map of ID to record. The whole collection is kept in
// memory and rewritten to disk after every mutation, which is the right
// trade-off at the scale this service runs at (tens of records per
// owner, one small file).
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// Store is a file-backed script store. A single mutex serializes all
// mutations, which also serializes concurrent updates per ID.
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]*storage.ScriptRecord
}

// New opens (or creates) the store backed by the JSON file at path. A
// missing file starts an empty collection; a missing parent directory
// is created.
func New(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]*storage.ScriptRecord)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for id, rec := range s.records {
		// The map key is authoritative for older files written
		// without the id field.
		rec.ID = id
	}
	return s, nil
}

// persist rewrites the whole collection. Caller must hold the write lock.
// The write goes through a temp file and a rename so a crash mid-write
// never leaves a truncated database behind.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Create persists a new record.
func (s *Store) Create(_ context.Context, rec *storage.ScriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return storage.ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	if err := s.persist(); err != nil {
		delete(s.records, rec.ID)
		return err
	}
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

// Update applies mutate to the stored record and rewrites the file.
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
	if err := s.persist(); err != nil {
		s.records[id] = rec
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	if err := s.persist(); err != nil {
		s.records[id] = rec
		return err
	}
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
