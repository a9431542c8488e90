// Package memo provides the in-process memoization cache and request
// throttle shared by the screening and generation services.  Both are
// constructed explicitly and injected; nothing here is a package-level
// singleton.
package memo

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds a Cache when WithCapacity is not given.
const DefaultCapacity = 4096

// KeyPrefix namespaces every memoization key.
const KeyPrefix = "molecule:"

// Store is the contract both the in-process Cache and the Redis-backed cache
// satisfy.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Close() error
}

// Clock returns the current time.  Tests inject a fake.
type Clock func() time.Time

// Key builds a memoization key: the parts are joined with ':', trimmed and
// lower-cased, then prefixed with KeyPrefix.
func Key(parts ...string) string {
	return KeyPrefix + strings.ToLower(strings.TrimSpace(strings.Join(parts, ":")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

type options struct {
	clock    Clock
	capacity int
	window   time.Duration
}

// Option configures a Cache or a Throttle.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCapacity bounds the number of cache entries.  Non-positive values keep
// the default.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithWindow sets the throttle window.  Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now, capacity: DefaultCapacity, window: DefaultWindow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

type entry[V any] struct {
	value V
	ts    time.Time
}

// Cache is a TTL cache over a bounded LRU.  An entry older than the TTL is
// evicted on read and reported as a miss.
type Cache[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock
	items *lru.Cache[string, entry[V]]
}

var _ Store[string] = (*Cache[string])(nil)

// New creates a cache whose entries live for ttl.  A non-positive ttl means
// entries never expire and only LRU pressure evicts them.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := buildOptions(opts)
	items, err := lru.New[string, entry[V]](o.capacity)
	if err != nil {
		// capacity is always positive after buildOptions
		panic(err)
	}
	return &Cache[V]{ttl: ttl, clock: o.clock, items: items}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && c.clock().Sub(e.ts) > c.ttl {
		c.items.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any previous entry and restarting
// its TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, entry[V]{value: value, ts: c.clock()})
}

// Delete drops key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

// Len reports the number of stored entries, expired ones included until they
// are read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// TTL returns the configured entry lifetime.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Close purges every entry.
func (c *Cache[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
	return nil
}

//Personal.AI order the ending
