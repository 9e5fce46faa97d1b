package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(time.Minute, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("Allow() #%d = false, want true", i)
		}
	}
	if l.Allow("client") {
		t.Error("Allow() over limit = true, want false")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(time.Minute, 1)
	if !l.Allow("a") {
		t.Fatal("Allow(a) = false, want true")
	}
	if !l.Allow("b") {
		t.Error("Allow(b) = false, want true")
	}
	if l.Allow("a") {
		t.Error("Allow(a) second = true, want false")
	}
}

func TestWindowSlides(t *testing.T) {
	l := New(time.Minute, 2)
	base := time.Unix(1000, 0)
	now := base
	l.now = func() time.Time { return now }

	if !l.Allow("client") || !l.Allow("client") {
		t.Fatal("Allow() within limit = false, want true")
	}
	if l.Allow("client") {
		t.Fatal("Allow() at limit = true, want false")
	}

	// Just past the window, the first request ages out.
	now = base.Add(time.Minute + time.Second)
	if !l.Allow("client") {
		t.Error("Allow() after window = false, want true")
	}
}

func TestRejectedAttemptsNotRecorded(t *testing.T) {
	l := New(time.Minute, 1)
	base := time.Unix(1000, 0)
	now := base
	l.now = func() time.Time { return now }

	if !l.Allow("client") {
		t.Fatal("Allow() = false, want true")
	}
	// Hammering while blocked must not extend the block.
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		if l.Allow("client") {
			t.Fatalf("Allow() while blocked = true, want false")
		}
	}
	now = base.Add(time.Minute + time.Second)
	if !l.Allow("client") {
		t.Error("Allow() after original request aged out = false, want true")
	}
}

func TestPruneDropsIdleKeys(t *testing.T) {
	l := New(time.Minute, 5)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.Allow("stale")
	now = now.Add(30 * time.Second)
	l.Allow("fresh")

	now = now.Add(45 * time.Second)
	l.Prune()

	if l.Len() != 1 {
		t.Errorf("Len() after prune = %d, want 1", l.Len())
	}
	if !l.Allow("stale") {
		t.Error("Allow(stale) after prune = false, want true")
	}
}

func TestDefaults(t *testing.T) {
	l := New(0, 0)
	if l.window != DefaultWindow {
		t.Errorf("window = %v, want %v", l.window, DefaultWindow)
	}
	if l.limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", l.limit, DefaultLimit)
	}
}
