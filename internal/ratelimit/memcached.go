package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// MemcachedStore shares entries between instances through memcached.
type MemcachedStore struct {
	client *memcache.Client
}

func NewMemcachedStore(client *memcache.Client) *MemcachedStore {
	return &MemcachedStore{client: client}
}

func (s *MemcachedStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	item, err := s.client.Get(memcachedKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "MemcachedStore.Get")
	}
	entry, err := decodeEntry(item.Value)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *MemcachedStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = s.client.Set(&memcache.Item{
		Key:        memcachedKey(key),
		Value:      raw,
		Expiration: int32(math.Ceil(ttl.Seconds())),
	})
	return errors.Wrap(err, "MemcachedStore.Set")
}

func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	err := s.client.Delete(memcachedKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return errors.Wrap(err, "MemcachedStore.Delete")
}

func (s *MemcachedStore) Purge(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// memcached keys may not contain whitespace or control characters.
func memcachedKey(key string) string {
	return keyPrefix + strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, key)
}
