package redis

import (
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
)

// allowScript admits a call while the window counter is below the limit.  A
// denied call leaves the counter untouched.  The window starts on the first
// increment and ends when the key expires.
//
// KEYS[1] counter key, ARGV[1] limit, ARGV[2] window in milliseconds.
// Returns {allowed, count, pttl}.
var allowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= limit then
  return {0, current, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current, redis.call('PTTL', KEYS[1])}
`)

// Throttle is a memo.Limiter shared across processes through Redis.  When
// Redis is unreachable it admits the call and logs a warning.
type Throttle struct {
	client *Client
	max    int
	window time.Duration
	logger logging.Logger
}

var _ memo.Limiter = (*Throttle)(nil)

// NewThrottle admits max calls per key per window.  A non-positive window
// uses memo.DefaultWindow.
func NewThrottle(client *Client, max int, window time.Duration, log logging.Logger) *Throttle {
	if window <= 0 {
		window = memo.DefaultWindow
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Throttle{client: client, max: max, window: window, logger: log.Named("redis-throttle")}
}

func (t *Throttle) key(k string) string { return t.client.Key("throttle:" + k) }

func (t *Throttle) Allow(key string) bool {
	if t.client.isClosed() {
		return true
	}
	ctx, cancel := t.client.opContext()
	defer cancel()

	res, err := allowScript.Run(ctx, t.client.rdb, []string{t.key(key)}, t.max, t.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) == 0 {
		t.logger.Warn("throttle check failed, admitting", logging.String("key", key), logging.Err(err))
		return true
	}
	return res[0] == 1
}

func (t *Throttle) Remaining(key string) int {
	if t.client.isClosed() {
		return t.max
	}
	ctx, cancel := t.client.opContext()
	defer cancel()

	raw, err := t.client.rdb.Get(ctx, t.key(key)).Result()
	if err != nil {
		return t.max
	}
	used, err := strconv.Atoi(raw)
	if err != nil {
		return t.max
	}
	if left := t.max - used; left > 0 {
		return left
	}
	return 0
}

func (t *Throttle) ResetAt(key string) time.Time {
	if t.client.isClosed() {
		return time.Time{}
	}
	ctx, cancel := t.client.opContext()
	defer cancel()

	ttl, err := t.client.rdb.PTTL(ctx, t.key(key)).Result()
	if err != nil || ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (t *Throttle) Limit() int { return t.max }

// Close is a no-op; the shared Client owns the connection.
func (t *Throttle) Close() error { return nil }

//Personal.AI order the ending
