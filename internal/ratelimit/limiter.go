// Package ratelimit counts attempts per key inside a fixed window.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Entry is the attempt counter stored for a key.
type Entry struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Result is the outcome of a single Check.
type Result struct {
	Allowed           bool
	RetryAfterSeconds int
}

// Store keeps entries between checks. Implementations may drop an entry once
// its ResetAt has passed.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context, now time.Time) (int, error)
}

type Limiter struct {
	mu          sync.Mutex
	store       Store
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	lastPurge   time.Time
}

type Option func(*Limiter)

func WithMaxAttempts(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		window:      DefaultWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastPurge = l.now()
	return l
}

// Check records an attempt for key and reports whether it is allowed.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) >= l.window {
		if _, err := l.store.Purge(ctx, now); err != nil {
			return Result{}, errors.Wrap(err, "Limiter.Check: purge")
		}
		l.lastPurge = now
	}

	entry, found, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, errors.Wrap(err, "Limiter.Check: get")
	}

	if !found || !now.Before(entry.ResetAt) {
		entry = Entry{Count: 1, ResetAt: now.Add(l.window)}
		if err := l.store.Set(ctx, key, entry, l.window); err != nil {
			return Result{}, errors.Wrap(err, "Limiter.Check: set")
		}
		return Result{Allowed: true}, nil
	}

	if entry.Count >= l.maxAttempts {
		return Result{
			Allowed:           false,
			RetryAfterSeconds: retryAfter(entry.ResetAt.Sub(now)),
		}, nil
	}

	entry.Count++
	if err := l.store.Set(ctx, key, entry, entry.ResetAt.Sub(now)); err != nil {
		return Result{}, errors.Wrap(err, "Limiter.Check: set")
	}
	return Result{Allowed: true}, nil
}

// Reset forgets all attempts recorded for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, key)
}

func (l *Limiter) MaxAttempts() int {
	return l.maxAttempts
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

func retryAfter(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
