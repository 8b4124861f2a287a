package limits

import (
	"context"
	"sync"
	"time"
)

// AdmissionLimiter bounds how many operations run simultaneously.
// It is a counting semaphore with acquire timeouts and wait statistics,
// safe for concurrent use.
//
// The slot channel is the only wait primitive; the mutex guards the
// statistics and is never held across a wait.
type AdmissionLimiter struct {
	config AdmissionConfig
	slots  chan struct{}

	mu        sync.Mutex
	current   int
	peak      int
	acquired  uint64
	released  uint64
	waited    uint64
	timedOut  uint64
	totalWait time.Duration
}

// NewAdmissionLimiter creates a limiter with the given config.
// A non-positive MaxConcurrent is treated as 1.
func NewAdmissionLimiter(cfg AdmissionConfig) *AdmissionLimiter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &AdmissionLimiter{
		config: cfg,
		slots:  make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Acquire blocks until a slot is free, the configured acquire timeout
// elapses, or ctx ends. It returns true when a slot was taken. A false
// return means no slot was consumed: the select on the slot channel is
// atomic, so losing the timer race cannot leak a slot.
func (l *AdmissionLimiter) Acquire(ctx context.Context) bool {
	return l.acquire(ctx, l.config.AcquireTimeout)
}

// AcquireTimeout is Acquire with an explicit timeout overriding the
// configured one.
func (l *AdmissionLimiter) AcquireTimeout(timeout time.Duration) bool {
	return l.acquire(context.Background(), timeout)
}

func (l *AdmissionLimiter) acquire(ctx context.Context, timeout time.Duration) bool {
	// Fast path: a free slot, no waiting.
	select {
	case l.slots <- struct{}{}:
		l.admitted(0)
		return true
	default:
	}

	l.mu.Lock()
	l.waited++
	l.mu.Unlock()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	start := time.Now()
	select {
	case l.slots <- struct{}{}:
		l.admitted(time.Since(start))
		return true
	case <-timer:
		l.mu.Lock()
		l.timedOut++
		l.mu.Unlock()
		return false
	case <-ctx.Done():
		l.mu.Lock()
		l.timedOut++
		l.mu.Unlock()
		return false
	}
}

func (l *AdmissionLimiter) admitted(waited time.Duration) {
	l.mu.Lock()
	l.current++
	if l.current > l.peak {
		l.peak = l.current
	}
	l.acquired++
	l.totalWait += waited
	l.mu.Unlock()
}

// Release returns a slot. It must be called exactly once per successful
// Acquire; an unmatched Release corrupts the slot count. This is a
// documented precondition, not a checked error.
func (l *AdmissionLimiter) Release() {
	<-l.slots
	l.mu.Lock()
	l.current--
	l.released++
	l.mu.Unlock()
}

// Do runs fn under an admission slot, releasing on every exit path
// including panic. Returns ErrSaturated when no slot was granted in time.
func (l *AdmissionLimiter) Do(ctx context.Context, fn func() error) error {
	if !l.Acquire(ctx) {
		return ErrSaturated
	}
	defer l.Release()
	return fn()
}

// Stats returns a snapshot of the limiter's counters.
func (l *AdmissionLimiter) Stats() AdmissionStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := AdmissionStats{
		MaxConcurrent: l.config.MaxConcurrent,
		Current:       l.current,
		Peak:          l.peak,
		Acquired:      l.acquired,
		Released:      l.released,
		Waited:        l.waited,
		TimedOut:      l.timedOut,
		TotalWait:     l.totalWait,
	}
	if l.acquired > 0 {
		s.AverageWait = l.totalWait / time.Duration(l.acquired)
	}
	return s
}
