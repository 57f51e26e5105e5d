package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(store Store) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewLimiter(store, WithClock(clock.Now), WithMaxAttempts(5), WithWindow(15*time.Minute)), clock
}

func TestCheckSixthAttemptDenied(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(NewMemoryStore())

	for i := 1; i <= 5; i++ {
		res, err := l.Check(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
		clock.Advance(time.Second)
	}

	res, err := l.Check(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Fatalf("6th attempt should be denied")
	}
	// window started 5s ago
	want := Result{Allowed: false, RetryAfterSeconds: 15*60 - 5}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckWindowResets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l, clock := newTestLimiter(store)

	for i := 0; i < 6; i++ {
		_, _ = l.Check(ctx, "k")
	}

	clock.Advance(15 * time.Minute)

	res, err := l.Check(ctx, "k")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected attempt after window to be allowed")
	}

	entry, found, _ := store.Get(ctx, "k")
	if !found {
		t.Fatalf("expected entry after reset")
	}
	if entry.Count != 1 {
		t.Fatalf("expected count reset to 1, got %d", entry.Count)
	}
}

func TestCheckRetryAfterRoundsUp(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(NewMemoryStore())

	for i := 0; i < 5; i++ {
		_, _ = l.Check(ctx, "k")
	}
	clock.Advance(15*time.Minute - 1500*time.Millisecond)

	res, _ := l.Check(ctx, "k")
	if res.Allowed || res.RetryAfterSeconds != 2 {
		t.Fatalf("expected retry after 2s, got %+v", res)
	}
}

func TestCheckKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(NewMemoryStore())

	for i := 0; i < 5; i++ {
		_, _ = l.Check(ctx, "a")
	}
	if res, _ := l.Check(ctx, "a"); res.Allowed {
		t.Fatalf("key a should be limited")
	}
	if res, _ := l.Check(ctx, "b"); !res.Allowed {
		t.Fatalf("key b should not be limited")
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(NewMemoryStore())

	for i := 0; i < 6; i++ {
		_, _ = l.Check(ctx, "k")
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if res, _ := l.Check(ctx, "k"); !res.Allowed {
		t.Fatalf("expected key to be allowed after reset")
	}
}

type countingStore struct {
	*MemoryStore
	purges int
}

func (s *countingStore) Purge(ctx context.Context, now time.Time) (int, error) {
	s.purges++
	return s.MemoryStore.Purge(ctx, now)
}

func TestCheckPurgesAtMostOncePerWindow(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	l, clock := newTestLimiter(store)

	for i := 0; i < 10; i++ {
		_, _ = l.Check(ctx, "k")
		clock.Advance(time.Minute)
	}
	if store.purges != 0 {
		t.Fatalf("expected no purge inside the first window, got %d", store.purges)
	}

	clock.Advance(5 * time.Minute)
	_, _ = l.Check(ctx, "k")
	_, _ = l.Check(ctx, "k")
	if store.purges != 1 {
		t.Fatalf("expected exactly one purge, got %d", store.purges)
	}
}

func TestMemoryStorePurge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)

	_ = store.Set(ctx, "short", Entry{Count: 1, ResetAt: future}, time.Millisecond)
	_ = store.Set(ctx, "long", Entry{Count: 1, ResetAt: future}, time.Hour)
	time.Sleep(10 * time.Millisecond)

	removed, err := store.Purge(ctx, time.Now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 || store.Len() != 1 {
		t.Fatalf("expected one expired entry removed, removed=%d len=%d", removed, store.Len())
	}
}

func TestMemoryStorePurgeUsesGivenTime(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// the cache TTL is far away; only ResetAt decides
	_ = store.Set(ctx, "closed", Entry{Count: 5, ResetAt: now.Add(-time.Second)}, time.Hour)
	_ = store.Set(ctx, "edge", Entry{Count: 2, ResetAt: now}, time.Hour)
	_ = store.Set(ctx, "open", Entry{Count: 1, ResetAt: now.Add(time.Minute)}, time.Hour)

	removed, err := store.Purge(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 || store.Len() != 1 {
		t.Fatalf("expected two closed windows removed, removed=%d len=%d", removed, store.Len())
	}
	if _, found, _ := store.Get(ctx, "open"); !found {
		t.Fatalf("open window should survive the purge")
	}
}

func TestCheckPurgeFollowsInjectedClock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l, clock := newTestLimiter(store)

	for _, key := range []string{"a", "b", "c"} {
		if _, err := l.Check(ctx, key); err != nil {
			t.Fatalf("check %s: %v", key, err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Len())
	}

	// wall clock has barely moved, the limiter clock has passed every window
	clock.Advance(15 * time.Minute)
	if _, err := l.Check(ctx, "d"); err != nil {
		t.Fatalf("check d: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the fresh entry after purge, got %d", store.Len())
	}
}

func TestMemcachedKey(t *testing.T) {
	if got := memcachedKey("site:10.0.0.1 x"); got != "ratelimit:site:10.0.0.1_x" {
		t.Fatalf("unexpected key %q", got)
	}
}
