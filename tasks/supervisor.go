package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wardenkit/warden/errors"
)

// Work is a cancellable unit of work. Implementations must honor ctx
// for cancellation to be observed; the supervisor never preempts.
type Work func(ctx context.Context) error

// Handle is the awaiter side of a wrapped task.
type Handle struct {
	name  string
	runID string
	done  chan struct{}
	err   error // written once before done is closed
}

// Name returns the task name.
func (h *Handle) Name() string {
	return h.name
}

// RunID returns the unique ID of this wrap.
func (h *Handle) RunID() string {
	return h.runID
}

// Done returns a channel closed when the work reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the work finishes and returns its error unchanged:
// nil on success, the original application error on failure, the
// context's cancellation error when cancelled. The supervisor records
// the outcome but never swallows or converts it.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Supervisor wraps asynchronous units of work, tracks their lifecycle,
// captures outcomes, and supports cooperative cancellation and
// age-based cleanup. Safe for concurrent use.
type Supervisor struct {
	mu      sync.Mutex
	records map[string]*Record
	cancels map[string]context.CancelFunc
	nowFunc func() time.Time // for testing
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		records: make(map[string]*Record),
		cancels: make(map[string]context.CancelFunc),
		nowFunc: time.Now,
	}
}

// Wrap records the task and starts fn concurrently under a context
// derived from ctx. Re-using a name overwrites the prior record; the
// overwritten run keeps executing but its outcome lands on the orphaned
// record, not the new one.
func (s *Supervisor) Wrap(ctx context.Context, name string, metadata map[string]string, fn Work) *Handle {
	runCtx, cancel := context.WithCancel(ctx)

	rec := &Record{
		Name:      name,
		RunID:     uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: s.nowFunc(),
		Metadata:  metadata,
	}
	h := &Handle{
		name:  name,
		runID: rec.RunID,
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.records[name] = rec
	s.cancels[name] = cancel
	s.mu.Unlock()

	go s.run(runCtx, cancel, rec, h, fn)
	return h
}

func (s *Supervisor) run(ctx context.Context, cancel context.CancelFunc, rec *Record, h *Handle, fn Work) {
	defer cancel()

	s.mu.Lock()
	started := s.nowFunc()
	rec.Status = StatusRunning
	rec.StartedAt = &started
	s.mu.Unlock()

	err := s.invoke(ctx, fn)

	s.mu.Lock()
	completed := s.nowFunc()
	rec.CompletedAt = &completed
	switch {
	case err == nil:
		rec.Status = StatusCompleted
	case errors.IsCancellation(err):
		rec.Status = StatusCancelled
	default:
		rec.Status = StatusFailed
		rec.Failure = failureFrom(err)
	}
	// Drop the cancel func unless a newer run already overwrote the name.
	if s.records[rec.Name] == rec {
		delete(s.cancels, rec.Name)
	}
	s.mu.Unlock()

	h.err = err
	close(h.done)
}

// invoke runs fn and converts a panic into a structured failure at this
// single catch point.
func (s *Supervisor) invoke(ctx context.Context, fn Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Capture(r)
		}
	}()
	return fn(ctx)
}

// Cancel requests cooperative cancellation of the named task. Returns
// false for unknown names and for records already in a terminal state.
// The work transitions to cancelled only once it observes the signal.
func (s *Supervisor) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	if !ok || rec.Status.IsTerminal() {
		return false
	}
	cancel, ok := s.cancels[name]
	if !ok {
		return false
	}
	cancel()
	return true
}

// CancelAll requests cancellation for every non-terminal record and
// returns how many were signaled.
func (s *Supervisor) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for name, cancel := range s.cancels {
		if rec, ok := s.records[name]; ok && !rec.Status.IsTerminal() {
			cancel()
			count++
		}
	}
	return count
}

// Cleanup removes terminal records whose completion time is older than
// now minus maxAge and returns how many were removed. In-flight records
// are never removed regardless of age.
func (s *Supervisor) Cleanup(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFunc().Add(-maxAge)
	removed := 0
	for name, rec := range s.records {
		if rec.CompletedAt == nil {
			continue
		}
		if rec.CompletedAt.Before(cutoff) {
			delete(s.records, name)
			delete(s.cancels, name)
			removed++
		}
	}
	return removed
}

// Get returns a copy of the named record, or nil if unknown.
func (s *Supervisor) Get(name string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	if !ok {
		return nil
	}
	return rec.Clone()
}

// List returns copies of all records, optionally filtered by status.
// An empty status returns everything.
func (s *Supervisor) List(status Status) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, rec := range s.records {
		if status == "" || rec.Status == status {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Stats summarizes the current record set.
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:    len(s.records),
		ByStatus: make(map[Status]int),
	}
	var totalDuration time.Duration
	var measured int
	for _, rec := range s.records {
		stats.ByStatus[rec.Status]++
		if rec.Status == StatusFailed {
			stats.Failed++
		}
		if rec.StartedAt != nil && rec.CompletedAt != nil {
			totalDuration += rec.CompletedAt.Sub(*rec.StartedAt)
			measured++
		}
	}
	if measured > 0 {
		stats.AverageDuration = totalDuration / time.Duration(measured)
	}
	return stats
}
