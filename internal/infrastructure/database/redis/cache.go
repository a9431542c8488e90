package redis

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
)

// Cache is a memo.Store backed by Redis.  Values are JSON-encoded and written
// with SET EX so expiry is enforced server-side.  Store errors degrade to a
// miss on read and are dropped on write; both are logged.
type Cache[V any] struct {
	client *Client
	ttl    time.Duration
	logger logging.Logger
}

var _ memo.Store[string] = (*Cache[string])(nil)

// NewCache stores entries for ttl.  A non-positive ttl stores without expiry.
func NewCache[V any](client *Client, ttl time.Duration, log logging.Logger) *Cache[V] {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Cache[V]{client: client, ttl: ttl, logger: log.Named("redis-cache")}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.client.isClosed() {
		return zero, false
	}
	ctx, cancel := c.client.opContext()
	defer cancel()

	raw, err := c.client.rdb.Get(ctx, c.client.Key(key)).Bytes()
	if err == redis.Nil {
		return zero, false
	}
	if err != nil {
		c.logger.Warn("cache get failed", logging.String("key", key), logging.Err(err))
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("cache entry undecodable", logging.String("key", key), logging.Err(err))
		return zero, false
	}
	return v, true
}

func (c *Cache[V]) Set(key string, value V) {
	if c.client.isClosed() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value unencodable", logging.String("key", key), logging.Err(err))
		return
	}
	ctx, cancel := c.client.opContext()
	defer cancel()

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.rdb.Set(ctx, c.client.Key(key), raw, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", logging.String("key", key), logging.Err(err))
	}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	if c.client.isClosed() {
		return
	}
	ctx, cancel := c.client.opContext()
	defer cancel()
	if err := c.client.rdb.Del(ctx, c.client.Key(key)).Err(); err != nil {
		c.logger.Warn("cache delete failed", logging.String("key", key), logging.Err(err))
	}
}

// Close is a no-op; the shared Client owns the connection.
func (c *Cache[V]) Close() error { return nil }

//Personal.AI order the ending
