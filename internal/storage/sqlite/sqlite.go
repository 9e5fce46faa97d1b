// Package sqlite implements a script store on an embedded SQLite
// database, one row per record.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// Store is a SQLite-backed script store.
type Store struct {
	db *sql.DB
}

// New opens the database at path, applies the schema, and returns the
// store. The schema statements are idempotent.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Serialize writers at the pool level; SQLite allows one writer at
	// a time anyway, and a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	const schema = `CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME,
		access_count INTEGER NOT NULL DEFAULT 0,
		last_accessed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_scripts_owner ON scripts (owner_id);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Create persists a new record.
func (s *Store) Create(ctx context.Context, rec *storage.ScriptRecord) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM scripts WHERE id = ?", rec.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking for existing id: %w", err)
	}
	if exists > 0 {
		return storage.ErrConflict
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scripts (id, owner_id, body, created_at, updated_at, access_count, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Body, rec.CreatedAt, nullTime(rec.UpdatedAt), rec.AccessCount, nullTime(rec.LastAccessedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting script: %w", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.ScriptRecord, error) {
	return scanRecord(s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, body, created_at, updated_at, access_count, last_accessed_at
		 FROM scripts WHERE id = ?`, id))
}

// Update applies mutate inside a transaction so the read-modify-write is
// atomic with respect to concurrent updates of the same ID.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (*storage.ScriptRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning update transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT id, owner_id, body, created_at, updated_at, access_count, last_accessed_at
		 FROM scripts WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE scripts SET body = ?, updated_at = ?, access_count = ?, last_accessed_at = ? WHERE id = ?`,
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
	res, err := s.db.ExecContext(ctx, "DELETE FROM scripts WHERE id = ?", id)
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
	return s.queryRecords(ctx,
		`SELECT id, owner_id, body, created_at, updated_at, access_count, last_accessed_at
		 FROM scripts WHERE owner_id = ?`, ownerID)
}

// ListAll returns every record in the store.
func (s *Store) ListAll(ctx context.Context) ([]*storage.ScriptRecord, error) {
	return s.queryRecords(ctx,
		`SELECT id, owner_id, body, created_at, updated_at, access_count, last_accessed_at
		 FROM scripts`)
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

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
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
