// Package limits provides admission control and per-key rate limiting
// for single-process orchestrators.
//
// # Admission Control
//
// AdmissionLimiter is a counting semaphore with acquire timeouts and
// wait statistics. No more than MaxConcurrent holders exist at any
// point, and a timed-out acquire never consumes a slot:
//
//	limiter := limits.NewAdmissionLimiter(limits.AdmissionConfig{
//	    MaxConcurrent:  4,
//	    AcquireTimeout: 5 * time.Second,
//	})
//
//	if !limiter.Acquire(ctx) {
//	    return limits.ErrSaturated
//	}
//	defer limiter.Release()
//
// Or scoped, with the release guaranteed on every exit path:
//
//	err := limiter.Do(ctx, func() error { return work() })
//
// # Sliding-Window Rate Limiting
//
// WindowedRateLimiter counts admissions per key over a trailing window.
// Rejected requests are not recorded against the quota:
//
//	rl := limits.NewWindowedRateLimiter(limits.WindowConfig{
//	    MaxRequests: 60,
//	    Window:      time.Minute,
//	})
//	if !rl.Allow(caller) {
//	    // throttled
//	}
//
// # Named Instances
//
// Registry caches limiters by name for components that share them.
// The first config registered under a name wins; later registrations
// return the existing instance and report it:
//
//	l, existed := reg.Admission("dispatch", cfg)
//	if existed {
//	    // cfg was ignored, l predates this call
//	}
package limits
