// Package vault implements the script vault: the service that creates,
// fetches, lists, updates, and deletes protected scripts on top of any
// storage backend, with per-owner duplicate detection and access
// accounting.
package vault

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks -mock_names=Service=MockService scriptvault/internal/vault Service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"scriptvault/internal/contextutil"
	"scriptvault/internal/storage"
)

// Limits bounds what a single owner may store.
type Limits struct {
	// MaxScriptLength is the maximum body length in bytes.
	MaxScriptLength int
	// MaxScriptsPerOwner caps how many records one owner may hold.
	MaxScriptsPerOwner int
}

// DefaultLimits matches the original service's configuration.
var DefaultLimits = Limits{
	MaxScriptLength:    50000,
	MaxScriptsPerOwner: 50,
}

// Owner IDs are opaque caller-supplied strings within these bounds.
const (
	minOwnerIDLength = 10
	maxOwnerIDLength = 100
)

// Service is the vault's public surface, defined here so the HTTP layer
// can be tested against a mock.
type Service interface {
	// CreateScript validates and stores a new script for ownerID,
	// returning the created record. A submission whose normalized body
	// matches one of the owner's existing scripts yields a
	// *DuplicateError carrying the existing ID instead of a new record.
	CreateScript(ctx context.Context, ownerID, body string) (*storage.ScriptRecord, error)

	// FetchScript returns the stored body for id and records the access.
	FetchScript(ctx context.Context, id string) (string, error)

	// ListOwnerScripts returns ownerID's records, newest first.
	ListOwnerScripts(ctx context.Context, ownerID string) ([]*storage.ScriptRecord, error)

	// UpdateScript replaces the body of an owned script.
	UpdateScript(ctx context.Context, id, ownerID, newBody string) (*storage.ScriptRecord, error)

	// DeleteScript removes an owned script.
	DeleteScript(ctx context.Context, id, ownerID string) error

	// CountScripts reports the total number of stored records.
	CountScripts(ctx context.Context) (int, error)
}

// Vault implements Service over a ScriptStore. Wrap the store with the
// cache package to add read-through caching; the vault is oblivious to
// whether one is present.
type Vault struct {
	store  storage.ScriptStore
	limits Limits
	logger *slog.Logger

	// Injectable for tests.
	newID func() (string, error)
	now   func() time.Time
}

// New creates a vault over store. Zero-valued limits fields fall back to
// DefaultLimits.
func New(store storage.ScriptStore, limits Limits) *Vault {
	if limits.MaxScriptLength <= 0 {
		limits.MaxScriptLength = DefaultLimits.MaxScriptLength
	}
	if limits.MaxScriptsPerOwner <= 0 {
		limits.MaxScriptsPerOwner = DefaultLimits.MaxScriptsPerOwner
	}
	return &Vault{
		store:  store,
		limits: limits,
		logger: slog.Default(),
		newID:  NewID,
		now:    time.Now,
	}
}

var _ Service = &Vault{}

func (v *Vault) validateOwnerID(ownerID string) error {
	if ownerID == "" {
		return &ValidationError{Field: "userId", Message: "invalid user ID"}
	}
	if len(ownerID) < minOwnerIDLength || len(ownerID) > maxOwnerIDLength {
		return &ValidationError{
			Field:   "userId",
			Message: fmt.Sprintf("user ID must be between %d and %d characters", minOwnerIDLength, maxOwnerIDLength),
		}
	}
	return nil
}

func (v *Vault) validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return &ValidationError{Field: "script", Message: "script cannot be empty"}
	}
	if len(body) > v.limits.MaxScriptLength {
		return &ValidationError{
			Field:   "script",
			Message: fmt.Sprintf("script too long, maximum %d characters allowed", v.limits.MaxScriptLength),
		}
	}
	return nil
}

// findDuplicate scans ownerID's records for one whose normalized body
// equals normalized, skipping excludeID (empty to scan all).
func (v *Vault) findDuplicate(ctx context.Context, ownerID, normalized, excludeID string) (*storage.ScriptRecord, error) {
	existing, err := v.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing owner scripts for duplicate scan: %w", err)
	}
	for _, rec := range existing {
		if rec.ID == excludeID {
			continue
		}
		if Normalize(rec.Body) == normalized {
			return rec, nil
		}
	}
	return nil, nil
}

// CreateScript implements Service.
func (v *Vault) CreateScript(ctx context.Context, ownerID, body string) (*storage.ScriptRecord, error) {
	if err := v.validateOwnerID(ownerID); err != nil {
		return nil, err
	}
	if err := v.validateBody(body); err != nil {
		return nil, err
	}

	existing, err := v.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing owner scripts: %w", err)
	}
	if len(existing) >= v.limits.MaxScriptsPerOwner {
		return nil, &LimitError{Max: v.limits.MaxScriptsPerOwner}
	}

	normalized := Normalize(body)
	for _, rec := range existing {
		if Normalize(rec.Body) == normalized {
			return nil, &DuplicateError{ExistingID: rec.ID}
		}
	}

	rec := &storage.ScriptRecord{
		OwnerID:   ownerID,
		Body:      strings.TrimSpace(body),
		CreatedAt: v.now().UTC(),
	}

	// A generated ID colliding with a live record is close to impossible
	// but the backend still detects it; regenerate once, then give up.
	for attempt := 0; attempt < 2; attempt++ {
		rec.ID, err = v.newID()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		err = v.store.Create(ctx, rec)
		if err == nil {
			return rec.Clone(), nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("storing script: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: script id collided twice", ErrInternal)
}

// FetchScript implements Service. The body it returns is the one read
// before the access counters move. Recording the access is best-effort:
// a failed counter update is logged as a warning and never fails the
// fetch.
func (v *Vault) FetchScript(ctx context.Context, id string) (string, error) {
	rec, err := v.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading script: %w", err)
	}

	now := v.now().UTC()
	if _, err := v.store.Update(ctx, id, func(r *storage.ScriptRecord) error {
		r.AccessCount++
		r.LastAccessedAt = &now
		return nil
	}); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to record script access", "id", id, "error", err)
	}

	return rec.Body, nil
}

// ListOwnerScripts implements Service.
func (v *Vault) ListOwnerScripts(ctx context.Context, ownerID string) ([]*storage.ScriptRecord, error) {
	if err := v.validateOwnerID(ownerID); err != nil {
		return nil, err
	}
	records, err := v.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing owner scripts: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// UpdateScript implements Service.
func (v *Vault) UpdateScript(ctx context.Context, id, ownerID, newBody string) (*storage.ScriptRecord, error) {
	rec, err := v.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading script: %w", err)
	}
	if rec.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if err := v.validateBody(newBody); err != nil {
		return nil, err
	}

	dup, err := v.findDuplicate(ctx, ownerID, Normalize(newBody), id)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, &DuplicateError{ExistingID: dup.ID}
	}

	now := v.now().UTC()
	updated, err := v.store.Update(ctx, id, func(r *storage.ScriptRecord) error {
		r.Body = strings.TrimSpace(newBody)
		r.UpdatedAt = &now
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating script: %w", err)
	}
	return updated, nil
}

// DeleteScript implements Service.
func (v *Vault) DeleteScript(ctx context.Context, id, ownerID string) error {
	rec, err := v.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading script: %w", err)
	}
	if rec.OwnerID != ownerID {
		return ErrForbidden
	}

	err = v.store.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting script: %w", err)
	}
	return nil
}

// CountScripts implements Service.
func (v *Vault) CountScripts(ctx context.Context) (int, error) {
	all, err := v.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting scripts: %w", err)
	}
	return len(all), nil
}
