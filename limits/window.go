package limits

import (
	"sync"
	"time"
)

// WindowedRateLimiter admits at most MaxRequests per key inside a
// trailing time window. Distinct keys have fully independent budgets;
// an unseen key starts with a full quota. It is safe for concurrent use.
type WindowedRateLimiter struct {
	config WindowConfig

	mu      sync.Mutex
	hits    map[string][]time.Time
	nowFunc func() time.Time // for testing
}

// NewWindowedRateLimiter creates a limiter with the given config.
// Non-positive MaxRequests or Window fall back to 1 request per second.
func NewWindowedRateLimiter(cfg WindowConfig) *WindowedRateLimiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	return &WindowedRateLimiter{
		config:  cfg,
		hits:    map[string][]time.Time{},
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key is admitted right now.
// Admission appends the current timestamp; rejection records nothing.
// Stale timestamps are purged lazily on each call, so the cost is
// proportional to the number of entries that aged out since the last
// access for that key.
func (w *WindowedRateLimiter) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowFunc()
	recent := w.prune(key, now)

	if len(recent) >= w.config.MaxRequests {
		return false
	}

	w.hits[key] = append(recent, now)
	return true
}

// prune drops timestamps older than the window and stores the survivors.
// An idle key is removed from the map entirely. Caller holds the lock.
func (w *WindowedRateLimiter) prune(key string, now time.Time) []time.Time {
	stamps := w.hits[key]
	cutoff := now.Add(-w.config.Window)

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	recent := stamps[i:]

	if len(recent) == 0 {
		delete(w.hits, key)
		return nil
	}
	w.hits[key] = recent
	return recent
}

// KeyStats reports the in-window count and remaining quota for key.
// It applies the same cutoff as Allow but does not mutate stored state.
func (w *WindowedRateLimiter) KeyStats(key string) KeyStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.nowFunc().Add(-w.config.Window)
	count := 0
	for _, ts := range w.hits[key] {
		if ts.After(cutoff) {
			count++
		}
	}

	return KeyStats{
		Key:       key,
		Count:     count,
		Limit:     w.config.MaxRequests,
		Remaining: w.config.MaxRequests - count,
		Window:    w.config.Window,
	}
}

// ActiveKeys returns the number of keys with at least one in-window
// admission. Keys whose entries have all aged out may still be counted
// until their next Allow purges them.
func (w *WindowedRateLimiter) ActiveKeys() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.hits)
}
