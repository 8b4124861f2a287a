package tasks

import (
	"time"

	"github.com/wardenkit/warden/errors"
)

// Status represents the lifecycle state of a supervised task.
type Status string

const (
	// StatusPending indicates the record exists but the work has not
	// been scheduled onto a goroutine yet.
	StatusPending Status = "pending"

	// StatusRunning indicates the work is executing.
	StatusRunning Status = "running"

	// StatusCompleted indicates the work returned without error.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the work returned an application error
	// or panicked.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the work observed cooperative
	// cancellation. Never conflated with StatusFailed.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can occur.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Failure captures why a task failed: a kind tag from the error
// taxonomy, the message, and the stack trace formatted at the catch
// point (present for panics).
type Failure struct {
	Kind    errors.Kind `json:"kind"`
	Message string      `json:"message"`
	Trace   string      `json:"trace,omitempty"`
}

// failureFrom builds a Failure from the error a unit of work returned.
func failureFrom(err error) *Failure {
	f := &Failure{
		Kind:    errors.KindOf(err),
		Message: err.Error(),
	}
	var werr *errors.Error
	if errors.As(err, &werr) {
		f.Trace = werr.Trace()
	}
	return f
}

// Record tracks one supervised unit of work. Names are unique within a
// Supervisor; wrapping work under an existing name overwrites the prior
// record (documented contract, the old record is simply forgotten).
type Record struct {
	// Name identifies the task within its supervisor.
	Name string `json:"name"`

	// RunID uniquely identifies this wrap, even across name reuse.
	RunID string `json:"run_id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// CreatedAt is when the work was wrapped.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the work began executing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the work reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Failure is present only when Status is StatusFailed.
	Failure *Failure `json:"failure,omitempty"`

	// Metadata is an opaque bag attached by the caller at wrap time.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Duration returns how long the work ran, or zero if it has not both
// started and finished.
func (r *Record) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := &Record{
		Name:      r.Name,
		RunID:     r.RunID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
	if r.StartedAt != nil {
		started := *r.StartedAt
		clone.StartedAt = &started
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		clone.CompletedAt = &completed
	}
	if r.Failure != nil {
		failure := *r.Failure
		clone.Failure = &failure
	}
	if r.Metadata != nil {
		clone.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// Stats summarizes a supervisor's records.
type Stats struct {
	// Total is the number of records currently held.
	Total int `json:"total"`

	// ByStatus counts records per lifecycle state.
	ByStatus map[Status]int `json:"by_status"`

	// Failed is the number of records in StatusFailed.
	Failed int `json:"failed"`

	// AverageDuration is the mean duration over records that have both
	// a start and a completion time.
	AverageDuration time.Duration `json:"average_duration"`
}
