package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/telemetry"
)

// Config holds the settings for a single cache instance
type Config struct {
	// Name labels the cache in metrics and logs
	Name string
	// TTL is the age at which an entry stops being served
	TTL time.Duration
	// MaxEntries bounds the map; 0 means unbounded
	MaxEntries int
	// Now overrides the clock (tests)
	Now func() time.Time
}

// cacheItem represents a single item in the cache with its write time
type cacheItem[V any] struct {
	Value     V
	WrittenAt time.Time
}

// MemoryCache is a thread-safe in-memory TTL cache. Concurrent misses for
// the same key through GetOrFetch share one fetch.
type MemoryCache[V any] struct {
	name       string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	data  map[string]cacheItem[V]
	mutex sync.RWMutex
	group singleflight.Group
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache[V any](cfg Config) *MemoryCache[V] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	name := cfg.Name
	if name == "" {
		name = "default"
	}

	return &MemoryCache[V]{
		name:       name,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        now,
		data:       make(map[string]cacheItem[V]),
	}
}

// Name returns the cache label
func (c *MemoryCache[V]) Name() string {
	return c.name
}

// Get retrieves a fresh value from the cache. Expired entries are reported as
// a miss but stay in the map until Sweep or an overwrite.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	v, ok := c.peek(key)
	if ok {
		telemetry.CacheOperations.WithLabelValues(c.name, "hit").Inc()
	} else {
		telemetry.CacheOperations.WithLabelValues(c.name, "miss").Inc()
	}
	return v, ok
}

func (c *MemoryCache[V]) peek(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || !c.fresh(item) {
		var zero V
		return zero, false
	}
	return item.Value, true
}

func (c *MemoryCache[V]) fresh(item cacheItem[V]) bool {
	return c.now().Sub(item.WrittenAt) < c.ttl
}

// Set stores a value, stamping it with the current time
func (c *MemoryCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.sweepLocked()
		if len(c.data) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	c.data[key] = cacheItem[V]{
		Value:     value,
		WrittenAt: c.now(),
	}
	telemetry.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.data)))
}

// Evict removes a key regardless of freshness
func (c *MemoryCache[V]) Evict(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	telemetry.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.data)))
}

// Sweep removes every expired entry and returns how many were dropped
func (c *MemoryCache[V]) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := c.sweepLocked()
	telemetry.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.data)))
	return removed
}

func (c *MemoryCache[V]) sweepLocked() int {
	removed := 0
	for key, item := range c.data {
		if !c.fresh(item) {
			delete(c.data, key)
			removed++
		}
	}
	if removed > 0 {
		telemetry.CacheOperations.WithLabelValues(c.name, "evict").Add(float64(removed))
	}
	return removed
}

func (c *MemoryCache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, item := range c.data {
		if !found || item.WrittenAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, item.WrittenAt, true
		}
	}
	if found {
		delete(c.data, oldestKey)
		telemetry.CacheOperations.WithLabelValues(c.name, "evict").Inc()
	}
}

// GetOrFetch returns the cached value for key, or runs fetch once for all
// concurrent callers of the same key. Only successful results are stored.
// The shared fetch is detached from the first caller's cancellation so that
// one disconnecting client does not fail the others.
func (c *MemoryCache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// a previous flight may have filled the key while we waited for the lock
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if shared {
		telemetry.CacheOperations.WithLabelValues(c.name, "shared").Inc()
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Len returns the number of stored entries, fresh or stale
func (c *MemoryCache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}
