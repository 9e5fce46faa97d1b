// Package storage defines the script storage contract shared by every
// backend implementation. The vault talks to storage only through the
// ScriptStore interface, so backends (in-memory, file, sqlite, postgres,
// github) are interchangeable.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for the requested ID.
	ErrNotFound = errors.New("script not found")
	// ErrConflict is returned by Create when a record with the same ID
	// already exists.
	ErrConflict = errors.New("script id already exists")
	// ErrUnavailable is returned when the backend is temporarily
	// unreachable. The caller decides whether to retry; the store does not.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// Mutator applies an in-place change to the currently stored record.
// Backends call it with their latest copy of the record and persist the
// result atomically with respect to concurrent updates of the same ID.
// Returning an error aborts the update without persisting anything.
type Mutator func(*ScriptRecord) error

// ScriptStore is the capability set every storage backend provides.
type ScriptStore interface {
	// Create persists a new record. Returns ErrConflict if the ID is taken.
	Create(ctx context.Context, rec *ScriptRecord) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*ScriptRecord, error)

	// Update applies mutate to the stored record and returns the new
	// version. The read-modify-write is atomic per ID. Returns ErrNotFound
	// if the ID is unknown.
	Update(ctx context.Context, id string, mutate Mutator) (*ScriptRecord, error)

	// Delete removes the record with the given ID, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns all records created under ownerID, in no
	// particular order. An owner with no records yields an empty slice.
	ListByOwner(ctx context.Context, ownerID string) ([]*ScriptRecord, error)

	// ListAll returns every record in the store, in no particular order.
	ListAll(ctx context.Context) ([]*ScriptRecord, error)
}
