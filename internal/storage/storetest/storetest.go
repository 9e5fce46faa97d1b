// Package storetest provides a conformance suite every ScriptStore
// implementation must pass. Backend test files call Run with a factory
// for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scriptvault/internal/storage"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.ScriptStore

func record(id, ownerID, body string) *storage.ScriptRecord {
	return &storage.ScriptRecord{
		ID:        id,
		OwnerID:   ownerID,
		Body:      body,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Run exercises the full ScriptStore contract against stores built by
// factory.
func Run(t *testing.T, factory Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := factory(t)
		rec := record("id-1", "owner_0123456789", "print(1)")
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != rec.ID || got.OwnerID != rec.OwnerID || got.Body != rec.Body {
			t.Errorf("Get() = %+v, want %+v", got, rec)
		}
		if got.AccessCount != 0 {
			t.Errorf("Get() AccessCount = %d, want 0", got.AccessCount)
		}
		if got.UpdatedAt != nil || got.LastAccessedAt != nil {
			t.Errorf("Get() UpdatedAt/LastAccessedAt should be nil before update/fetch")
		}
	})

	t.Run("create conflict", func(t *testing.T) {
		s := factory(t)
		if err := s.Create(ctx, record("id-1", "owner_0123456789", "a")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		err := s.Create(ctx, record("id-1", "owner_0123456789", "b"))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Create() duplicate id error = %v, want ErrConflict", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := factory(t)
		_, err := s.Get(ctx, "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		s := factory(t)
		if err := s.Create(ctx, record("id-1", "owner_0123456789", "old body")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		now := time.Now().UTC().Truncate(time.Second)
		got, err := s.Update(ctx, "id-1", func(r *storage.ScriptRecord) error {
			r.Body = "new body"
			r.UpdatedAt = &now
			return nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Body != "new body" {
			t.Errorf("Update() Body = %q, want %q", got.Body, "new body")
		}
		if got.UpdatedAt == nil {
			t.Error("Update() UpdatedAt = nil, want set")
		}
		stored, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("Get() after update error = %v", err)
		}
		if stored.Body != "new body" {
			t.Errorf("stored Body = %q, want %q", stored.Body, "new body")
		}
	})

	t.Run("update missing", func(t *testing.T) {
		s := factory(t)
		_, err := s.Update(ctx, "nope", func(r *storage.ScriptRecord) error { return nil })
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update mutator error aborts", func(t *testing.T) {
		s := factory(t)
		if err := s.Create(ctx, record("id-1", "owner_0123456789", "keep me")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		boom := errors.New("boom")
		_, err := s.Update(ctx, "id-1", func(r *storage.ScriptRecord) error {
			r.Body = "discarded"
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want boom", err)
		}
		got, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Body != "keep me" {
			t.Errorf("Body after aborted update = %q, want %q", got.Body, "keep me")
		}
	})

	t.Run("concurrent updates", func(t *testing.T) {
		s := factory(t)
		if err := s.Create(ctx, record("id-1", "owner_0123456789", "body")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		const workers = 20
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "id-1", func(r *storage.ScriptRecord) error {
					r.AccessCount++
					return nil
				})
				if err != nil {
					t.Errorf("Update() error = %v", err)
				}
			}()
		}
		wg.Wait()
		got, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.AccessCount != workers {
			t.Errorf("AccessCount after %d concurrent updates = %d, want %d", workers, got.AccessCount, workers)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := factory(t)
		if err := s.Create(ctx, record("id-1", "owner_0123456789", "body")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := s.Delete(ctx, "id-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, "id-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "id-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list by owner", func(t *testing.T) {
		s := factory(t)
		for _, rec := range []*storage.ScriptRecord{
			record("id-1", "owner_aaaaaaaaaa", "a"),
			record("id-2", "owner_aaaaaaaaaa", "b"),
			record("id-3", "owner_bbbbbbbbbb", "c"),
		} {
			if err := s.Create(ctx, rec); err != nil {
				t.Fatalf("Create(%s) error = %v", rec.ID, err)
			}
		}
		got, err := s.ListByOwner(ctx, "owner_aaaaaaaaaa")
		if err != nil {
			t.Fatalf("ListByOwner() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("ListByOwner() returned %d records, want 2", len(got))
		}
		for _, rec := range got {
			if rec.OwnerID != "owner_aaaaaaaaaa" {
				t.Errorf("ListByOwner() returned record owned by %q", rec.OwnerID)
			}
		}
		empty, err := s.ListByOwner(ctx, "owner_cccccccccc")
		if err != nil {
			t.Fatalf("ListByOwner() empty owner error = %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("ListByOwner() unknown owner returned %d records, want 0", len(empty))
		}
	})

	t.Run("list all", func(t *testing.T) {
		s := factory(t)
		for _, rec := range []*storage.ScriptRecord{
			record("id-1", "owner_aaaaaaaaaa", "a"),
			record("id-2", "owner_bbbbbbbbbb", "b"),
		} {
			if err := s.Create(ctx, rec); err != nil {
				t.Fatalf("Create(%s) error = %v", rec.ID, err)
			}
		}
		got, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("ListAll() returned %d records, want 2", len(got))
		}
	})
}
