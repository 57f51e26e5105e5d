package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory. Expired entries are only
// removed by Purge; the cache janitor is disabled.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(DefaultWindow, 0),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	cached, found := s.cache.Get(key)
	if !found {
		return Entry{}, false, nil
	}
	return cached.(Entry), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	s.cache.Set(key, entry, ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Purge removes entries whose window has closed at now, along with anything
// the cache itself considers expired.
func (s *MemoryStore) Purge(ctx context.Context, now time.Time) (int, error) {
	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	removed := before - s.cache.ItemCount()

	for key, item := range s.cache.Items() {
		entry, ok := item.Object.(Entry)
		if ok && !now.Before(entry.ResetAt) {
			s.cache.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
