package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	nowFn   func() time.Time
}

func NewCache() *Cache {
	return &Cache{entries: map[string]cacheEntry{}, nowFn: time.Now}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	if !e.expiresAt.IsZero() && c.nowFn().After(e.expiresAt) {
		delete(c.entries, key)
		return "", domain.ErrNotFound
	}
	return e.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.nowFn().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}
