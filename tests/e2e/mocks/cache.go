package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// InMemoryCache is a trivial map-backed cache for end-to-end tests, so the
// full stack can run without a redis instance. Expiration is ignored.
type InMemoryCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{store: make(map[string][]byte)}
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.store[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(data, dest)
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	return nil
}

func (c *InMemoryCache) Close() error {
	return nil
}
