package memo

import (
	"sync"
	"time"
)

// DefaultWindow is the throttle window length.
const DefaultWindow = 60 * time.Second

// sweepThreshold is the key count above which Allow drops expired windows.
const sweepThreshold = 1024

// Limiter is the contract both the in-process Throttle and the Redis-backed
// throttle satisfy.
type Limiter interface {
	// Allow records one call for key and reports whether it is admitted.
	// A denied call does not consume quota.
	Allow(key string) bool
	// Remaining reports how many calls key may still make in its window.
	Remaining(key string) int
	// ResetAt reports when key's current window ends.  The zero time means
	// key has no open window.
	ResetAt(key string) time.Time
	// Limit is the per-window maximum.
	Limit() int
	Close() error
}

type window struct {
	count int
	start time.Time
}

// Throttle is a fixed-window counter per key.
type Throttle struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clock   Clock
	windows map[string]*window
}

var _ Limiter = (*Throttle)(nil)

// NewThrottle admits up to max calls per key per window (DefaultWindow unless
// WithWindow is given).
func NewThrottle(max int, opts ...Option) *Throttle {
	o := buildOptions(opts)
	return &Throttle{
		max:     max,
		window:  o.window,
		clock:   o.clock,
		windows: make(map[string]*window),
	}
}

// Allow opens a fresh window when the previous one has lapsed, admits while
// the count is below max, and otherwise denies without counting the call.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	if len(t.windows) > sweepThreshold {
		t.sweep(now)
	}

	w, ok := t.windows[key]
	if !ok {
		w = &window{start: now}
		t.windows[key] = w
	}
	if now.Sub(w.start) > t.window {
		w.count = 1
		w.start = now
		return true
	}
	if w.count < t.max {
		w.count++
		return true
	}
	return false
}

// Remaining reports the calls left in key's window.
func (t *Throttle) Remaining(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[key]
	if !ok || t.clock().Sub(w.start) > t.window {
		return t.max
	}
	if left := t.max - w.count; left > 0 {
		return left
	}
	return 0
}

// ResetAt reports when key's window ends.
func (t *Throttle) ResetAt(key string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[key]
	if !ok || t.clock().Sub(w.start) > t.window {
		return time.Time{}
	}
	return w.start.Add(t.window)
}

// Limit returns the per-window maximum.
func (t *Throttle) Limit() int { return t.max }

// Window returns the window length.
func (t *Throttle) Window() time.Duration { return t.window }

// Close forgets every window.
func (t *Throttle) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows = make(map[string]*window)
	return nil
}

func (t *Throttle) sweep(now time.Time) {
	for k, w := range t.windows {
		if now.Sub(w.start) > t.window {
			delete(t.windows, k)
		}
	}
}

//Personal.AI order the ending
