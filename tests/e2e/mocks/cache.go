package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// InMemoryCache satisfies the handler Cacher with a map. Values round-trip
// through JSON the way they do in Redis.
type InMemoryCache struct {
	mu       sync.Mutex
	getCalls int
	setCalls int
	data     map[string]CacheEntry
	counters map[string]int64
}

type CacheEntry struct {
	Value  []byte
	Expiry time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data:     make(map[string]CacheEntry),
		counters: make(map[string]int64),
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.Expiry) {
		return redis.Nil
	}
	return json.Unmarshal(entry.Value, dest)
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	c.data[key] = CacheEntry{Value: b, Expiry: time.Now().Add(exp)}
	return nil
}

func (c *InMemoryCache) Counter(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

func (c *InMemoryCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *InMemoryCache) Close() error {
	return nil
}

// Stats returns how many Get and Set calls the cache has seen.
func (c *InMemoryCache) Stats() (gets, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls, c.setCalls
}
