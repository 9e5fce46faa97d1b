// Package postgres implements a script store on a hosted PostgreSQL
// database, one row per record. Connect with the pgx stdlib driver:
//
//	db, err := sql.Open("pgx", databaseURL)
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// Schema is the SQL that New executes. It creates the scripts table if
// it does not exist; if it does, it must have these columns.
const Schema = `
CREATE TABLE IF NOT EXISTS scripts (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ,
	access_count BIGINT NOT NULL DEFAULT 0,
	last_accessed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_scripts_owner ON scripts (owner_id);
`

// Store is a PostgreSQL-backed script store.
type Store struct {
	db *sql.DB
}

// New applies Schema and returns a store bound to db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

const selectColumns = `id, owner_id, body, created_at, updated_at, access_count, last_accessed_at`

// Create persists a new record. The insert is conditional on the ID not
// existing, so a collision reports ErrConflict instead of a driver error.
func (s *Store) Create(ctx context.Context, rec *storage.ScriptRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scripts (id, owner_id, body, created_at, updated_at, access_count, last_accessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.OwnerID, rec.Body, rec.CreatedAt, nullTime(rec.UpdatedAt), rec.AccessCount, nullTime(rec.LastAccessedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting script: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.ScriptRecord, error) {
	return scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM scripts WHERE id = $1`, id))
}

// Update applies mutate inside a transaction holding a row lock, so the
// read-modify-write is atomic with respect to concurrent updates of the
// same ID.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (*storage.ScriptRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning update transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM scripts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE scripts SET body = $1, updated_at = $2, access_count = $3, last_accessed_at = $4 WHERE id = $5`,
		rec.Body, nullTime(rec.UpdatedAt), rec.AccessCount, nullTime(rec.LastAccessedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating script: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return rec, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting script: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByOwner returns all records created under ownerID.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*storage.ScriptRecord, error) {
	return s.queryRecords(ctx, `SELECT `+selectColumns+` FROM scripts WHERE owner_id = $1`, ownerID)
}

// ListAll returns every record in the store.
func (s *Store) ListAll(ctx context.Context) ([]*storage.ScriptRecord, error) {
	return s.queryRecords(ctx, `SELECT `+selectColumns+` FROM scripts`)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*storage.ScriptRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scripts: %w", err)
	}
	defer rows.Close()

	out := []*storage.ScriptRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scripts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*storage.ScriptRecord, error) {
	var (
		rec          storage.ScriptRecord
		updatedAt    sql.NullTime
		lastAccessed sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Body, &rec.CreatedAt, &updatedAt, &rec.AccessCount, &lastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning script row: %w", err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		rec.UpdatedAt = &t
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		rec.LastAccessedAt = &t
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
