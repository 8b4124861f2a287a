package limits

import "sync"

// Registry is a named-instance factory and cache for limiters.
// Both getters are idempotent on name: the first caller's config wins
// and later callers get the existing instance back with existed=true,
// their config ignored. That first-writer-wins behavior is deliberate
// and surfaced through the return value so callers (and tests) can
// observe it.
type Registry struct {
	mu         sync.Mutex
	admissions map[string]*AdmissionLimiter
	windows    map[string]*WindowedRateLimiter
	closed     bool
}

// NewRegistry creates an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{
		admissions: make(map[string]*AdmissionLimiter),
		windows:    make(map[string]*WindowedRateLimiter),
	}
}

// Admission returns the named admission limiter, creating it with cfg on
// first use. existed is true when a prior instance was returned and cfg
// was ignored. Returns nil after Close.
func (r *Registry) Admission(name string, cfg AdmissionConfig) (limiter *AdmissionLimiter, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}
	if l, ok := r.admissions[name]; ok {
		return l, true
	}
	l := NewAdmissionLimiter(cfg)
	r.admissions[name] = l
	return l, false
}

// Window returns the named window limiter, creating it with cfg on first
// use. Semantics mirror Admission.
func (r *Registry) Window(name string, cfg WindowConfig) (limiter *WindowedRateLimiter, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}
	if w, ok := r.windows[name]; ok {
		return w, true
	}
	w := NewWindowedRateLimiter(cfg)
	r.windows[name] = w
	return w, false
}

// AllStats returns a name-keyed snapshot of every managed limiter.
func (r *Registry) AllStats() RegistryStats {
	r.mu.Lock()
	admissions := make(map[string]*AdmissionLimiter, len(r.admissions))
	for name, l := range r.admissions {
		admissions[name] = l
	}
	windows := make(map[string]*WindowedRateLimiter, len(r.windows))
	for name, w := range r.windows {
		windows[name] = w
	}
	r.mu.Unlock()

	// Snapshot each limiter outside the registry lock; every limiter
	// takes its own lock internally.
	stats := RegistryStats{
		Admissions: make(map[string]AdmissionStats, len(admissions)),
		WindowKeys: make(map[string]int, len(windows)),
	}
	for name, l := range admissions {
		stats.Admissions[name] = l.Stats()
	}
	for name, w := range windows {
		stats.WindowKeys[name] = w.ActiveKeys()
	}
	return stats
}

// Close drops all managed instances. Waiters currently suspended inside
// a dropped limiter are not notified; they resume against an orphaned
// object. Callers must stop using a registry's limiters before closing.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.admissions = nil
	r.windows = nil
}
