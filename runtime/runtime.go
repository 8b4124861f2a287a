// Package runtime composes the admission, rate-limiting, supervision and
// event pieces into one dispatch surface.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wardenkit/warden/errors"
	"github.com/wardenkit/warden/events"
	"github.com/wardenkit/warden/limits"
	"github.com/wardenkit/warden/logging"
	"github.com/wardenkit/warden/shutdown"
	"github.com/wardenkit/warden/tasks"
)

// ErrRuntimeClosed is returned by Dispatch after Close.
var ErrRuntimeClosed = fmt.Errorf("runtime closed")

// Job is one unit of work submitted to Dispatch.
type Job struct {
	// Name identifies the task; dispatching the same name again replaces
	// the previous record.
	Name string

	// Caller attributes the job for per-caller rate limiting.
	Caller string

	// Metadata is attached to the task record.
	Metadata map[string]string

	// Work is the function to supervise.
	Work tasks.Work
}

// Stats aggregates a snapshot across all composed components.
type Stats struct {
	Admission limits.AdmissionStats `json:"admission"`
	Tasks     tasks.Stats           `json:"tasks"`
	Events    events.Stats          `json:"events"`
}

// Runtime wires the governance components together. Construction takes
// explicit instances; there are no package-level singletons.
type Runtime struct {
	cfg Config

	registry   *limits.Registry
	admission  *limits.AdmissionLimiter
	window     *limits.WindowedRateLimiter
	supervisor *tasks.Supervisor
	broker     *events.Broker
	logger     *logging.Logger
	coord      *shutdown.Coordinator

	mu     sync.Mutex
	closed bool

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New builds a runtime from the configuration. The logger's output is
// routed into the event broker so every rendered line becomes an
// observable event.
func New(cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	broker := events.NewBroker(cfg.eventsConfig())
	if cfg.Events.MinLevel != "" {
		if lvl, ok := events.ParseLevel(cfg.Events.MinLevel); ok {
			broker.SetMinLevel(lvl)
		}
	}

	logger := logging.New().WithComponent("runtime")
	logger.SetLevel(logging.Level(cfg.Logging.Level))
	logger.SetOutput(logging.NewBrokerSink(broker, "runtime"))

	registry := limits.NewRegistry()
	admission, _ := registry.Admission("dispatch", cfg.admissionConfig())
	var window *limits.WindowedRateLimiter
	if cfg.Window.MaxRequests > 0 {
		window, _ = registry.Window("callers", cfg.windowConfig())
	}

	r := &Runtime{
		cfg:        cfg,
		registry:   registry,
		admission:  admission,
		window:     window,
		supervisor: tasks.NewSupervisor(),
		broker:     broker,
		logger:     logger,
		coord:      shutdown.NewCoordinator(shutdown.DefaultConfig()),
	}

	r.coord.RegisterFuncWithPhase("dispatch", r.stopDispatch, 10)
	r.coord.RegisterFuncWithPhase("supervisor", r.stopSupervisor, 20)
	r.coord.RegisterFuncWithPhase("registry", func(ctx context.Context) error {
		registry.Close()
		return nil
	}, 30)
	r.coord.RegisterFuncWithPhase("broker", func(ctx context.Context) error {
		broker.Close()
		return nil
	}, 30)

	if cfg.Cleanup.Interval > 0 {
		r.sweepStop = make(chan struct{})
		r.sweepDone = make(chan struct{})
		go r.sweep()
	}

	return r, nil
}

// Dispatch admits, rate-limits and supervises one job. The returned handle
// resolves when the work reaches a terminal state. Denials are reported
// as classified errors without blocking beyond the configured acquire
// timeout.
func (r *Runtime) Dispatch(ctx context.Context, job Job) (*tasks.Handle, error) {
	if job.Name == "" {
		return nil, errors.InvalidInput("job name is required")
	}
	if job.Work == nil {
		return nil, errors.InvalidInput("job work is required")
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRuntimeClosed
	}

	if r.window != nil && job.Caller != "" && !r.window.Allow(job.Caller) {
		r.logger.Rejected("callers", job.Caller, "rate limited")
		return nil, errors.Throttled(
			fmt.Sprintf("caller %s exceeded the request window", job.Caller),
			errors.WithMetadata("caller", job.Caller),
		)
	}

	if !r.admission.Acquire(ctx) {
		r.logger.Rejected("dispatch", job.Caller, "saturated")
		return nil, errors.Capacity("no admission slot available",
			errors.WithCause(limits.ErrSaturated))
	}

	work := job.Work
	handle := r.supervisor.Wrap(ctx, job.Name, job.Metadata, func(ctx context.Context) error {
		defer r.admission.Release()
		return work(ctx)
	})

	r.logger.TaskStart(job.Name, handle.RunID())
	go r.observe(handle)

	return handle, nil
}

// observe logs the terminal outcome of a dispatched job.
func (r *Runtime) observe(h *tasks.Handle) {
	err := h.Wait()

	// The record is terminal once Wait returns, so its timestamps give
	// the supervised duration rather than this goroutine's own clock.
	var elapsed time.Duration
	if rec := r.supervisor.Get(h.Name()); rec != nil {
		elapsed = rec.Duration()
	}

	switch {
	case err == nil:
		r.logger.TaskComplete(h.Name(), elapsed, tasks.StatusCompleted.String())
	case errors.IsCancellation(err):
		r.logger.TaskComplete(h.Name(), elapsed, tasks.StatusCancelled.String())
	default:
		r.logger.TaskFailed(h.Name(), string(errors.KindOf(err)), err.Error())
	}
}

// Cancel requests cooperative cancellation of a named task.
func (r *Runtime) Cancel(name string) bool {
	return r.supervisor.Cancel(name)
}

// Task returns the record for a named task, or nil.
func (r *Runtime) Task(name string) *tasks.Record {
	return r.supervisor.Get(name)
}

// Subscribe attaches an event consumer with the configured queue capacity.
func (r *Runtime) Subscribe() <-chan events.Entry {
	return r.broker.Subscribe(0)
}

// Broker exposes the event broker for observers such as a search index.
func (r *Runtime) Broker() *events.Broker {
	return r.broker
}

// Logger returns the component logger.
func (r *Runtime) Logger() *logging.Logger {
	return r.logger
}

// Stats returns a snapshot across all components.
func (r *Runtime) Stats() Stats {
	return Stats{
		Admission: r.admission.Stats(),
		Tasks:     r.supervisor.Stats(),
		Events:    r.broker.Stats(),
	}
}

// Close shuts the runtime down in phases: no new dispatches, cancel
// supervised work, then close the registry and broker.
func (r *Runtime) Close() error {
	return r.coord.ShutdownWithTimeout(0)
}

func (r *Runtime) stopDispatch(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	if r.sweepStop != nil {
		close(r.sweepStop)
		<-r.sweepDone
	}
	return nil
}

func (r *Runtime) stopSupervisor(ctx context.Context) error {
	r.supervisor.CancelAll()

	// Give cancelled work until the shutdown deadline to settle.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if len(r.supervisor.List(tasks.StatusRunning)) == 0 &&
			len(r.supervisor.List(tasks.StatusPending)) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweep periodically removes old terminal task records.
func (r *Runtime) sweep() {
	defer close(r.sweepDone)
	ticker := time.NewTicker(r.cfg.Cleanup.Interval.Std())
	defer ticker.Stop()
	for {
		select {
		case <-r.sweepStop:
			return
		case <-ticker.C:
			if n := r.supervisor.Cleanup(r.cfg.Cleanup.MaxAge.Std()); n > 0 {
				r.logger.Debug("cleanup", map[string]interface{}{"removed": n})
			}
		}
	}
}
