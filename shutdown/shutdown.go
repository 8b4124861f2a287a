package shutdown

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the timeout is reached. Implementations should stop
	// accepting new work, drain what they can, and release resources.
	OnShutdown(ctx context.Context) error
}

// Func adapts a plain function into a Handler.
type Func func(ctx context.Context) error

// OnShutdown implements Handler.
func (f Func) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// Result describes one handler's shutdown outcome.
type Result struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Config configures the coordinator.
type Config struct {
	// DefaultTimeout is used when ShutdownWithTimeout is called with zero.
	// Default: 30 seconds.
	DefaultTimeout time.Duration

	// DefaultPhase is assigned to handlers registered without a phase.
	// Default: 100.
	DefaultPhase int

	// OnProgress is called as each handler completes. Can be used for logging.
	OnProgress func(Result)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
		DefaultPhase:   100,
	}
}
