package redis

import (
	"github.com/redis/go-redis/v9"
)

// Cache wraps the shared redis client for cross-cutting concerns (rate
// limiting, idempotent replay). Seat state itself is never cached here; the
// seat store stays the single source of truth.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}
