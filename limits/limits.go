package limits

import (
	"errors"
	"time"
)

// Common errors.
var (
	// ErrSaturated indicates the admission limiter stayed at capacity for
	// the whole acquire timeout.
	ErrSaturated = errors.New("limiter at capacity")

	// ErrClosed indicates the registry has been closed.
	ErrClosed = errors.New("registry closed")
)

// AdmissionConfig configures an AdmissionLimiter.
type AdmissionConfig struct {
	// MaxConcurrent is the number of admission slots. Must be positive.
	MaxConcurrent int

	// AcquireTimeout bounds how long Acquire waits for a slot.
	// Zero means wait until the context ends.
	AcquireTimeout time.Duration
}

// WindowConfig configures a WindowedRateLimiter.
type WindowConfig struct {
	// MaxRequests is the per-key admission quota inside the window.
	MaxRequests int

	// Window is the trailing duration the quota is measured over.
	Window time.Duration
}

// AdmissionStats is a point-in-time snapshot of an admission limiter.
type AdmissionStats struct {
	MaxConcurrent int `json:"max_concurrent"`
	Current       int `json:"current"`
	Peak          int `json:"peak"`

	Acquired uint64 `json:"acquired"`
	Released uint64 `json:"released"`
	Waited   uint64 `json:"waited"`
	TimedOut uint64 `json:"timed_out"`

	TotalWait   time.Duration `json:"total_wait"`
	AverageWait time.Duration `json:"average_wait"`
}

// KeyStats reports the window state for a single key.
type KeyStats struct {
	Key       string        `json:"key"`
	Count     int           `json:"count"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	Window    time.Duration `json:"window"`
}

// RegistryStats aggregates statistics over every managed limiter.
type RegistryStats struct {
	// Admissions maps limiter name to its snapshot.
	Admissions map[string]AdmissionStats `json:"admissions"`

	// WindowKeys maps window limiter name to the number of keys with
	// in-window activity.
	WindowKeys map[string]int `json:"window_keys"`
}
