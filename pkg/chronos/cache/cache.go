// Package cache provides a TTL cache keyed by string with a pluggable backing
// store. Concurrent misses on one key share a single load.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long fetched series stay fresh.
const DefaultTTL = time.Hour

// Entry is a cached value and the time it was stored.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// Store holds entries. Implementations must be safe for concurrent use.
type Store[V any] interface {
	Get(key string) (Entry[V], bool)
	Set(key string, e Entry[V])
	Delete(key string)
}

// MemoryStore is an in-process map store.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]Entry[V]
}

func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{items: make(map[string]Entry[V])}
}

func (m *MemoryStore[V]) Get(key string) (Entry[V], bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	return e, ok
}

func (m *MemoryStore[V]) Set(key string, e Entry[V]) {
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
}

func (m *MemoryStore[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (m *MemoryStore[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Cache serves values from a Store while they are younger than the TTL.
type Cache[V any] struct {
	store Store[V]
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces time.Now, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// WithStore replaces the default memory store.
func WithStore[V any](s Store[V]) Option[V] {
	return func(c *Cache[V]) { c.store = s }
}

// New builds a cache. A non-positive ttl falls back to DefaultTTL.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache[V]{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewMemoryStore[V]()
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Get returns a fresh value for key. Expired entries are dropped.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.store.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.StoredAt) > c.ttl {
		c.store.Delete(key)
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Set stores v under key with the current time.
func (c *Cache[V]) Set(key string, v V) {
	c.store.Set(key, Entry[V]{Value: v, StoredAt: c.now()})
}

// Invalidate removes key.
func (c *Cache[V]) Invalidate(key string) { c.store.Delete(key) }

// GetOrLoad returns the cached value for key or calls load once to fill it.
// Callers that miss on the same key at the same time wait for one load.
// The loaded value is always stored; load reports failures inside V. The
// only error returned is ctx's, when the caller gives up before the load ends.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) V) (V, error) {
	if v, ok := c.Get(key); ok {
		log.Debug().Str("key", key).Msg("cache hit")
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		// another caller may have filled the entry while we queued
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		log.Debug().Str("key", key).Msg("cache miss")
		v := load(context.WithoutCancel(ctx))
		c.Set(key, v)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
