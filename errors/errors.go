package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Error is a structured error carrying a kind tag, a category, and
// optional context. The zero value is not useful; construct errors
// through New or one of the kind helpers.
type Error struct {
	kind      Kind
	category  Category
	message   string
	cause     error
	trace     string
	metadata  map[string]string
	retryable *bool // nil means use the category default
	timestamp time.Time
}

var (
	_ error            = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Kind returns the kind tag.
func (e *Error) Kind() Kind {
	return e.kind
}

// Category returns the error category.
func (e *Error) Category() Category {
	return e.category
}

// Message returns the message without the cause chain.
func (e *Error) Message() string {
	return e.message
}

// Trace returns the formatted stack trace captured at the catch point,
// or the empty string if none was recorded.
func (e *Error) Trace() string {
	return e.trace
}

// Retryable reports whether the operation may succeed on retry.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns a copy of the metadata key-value pairs.
func (e *Error) Metadata() map[string]string {
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error was constructed.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

type errorJSON struct {
	Kind      Kind              `json:"kind"`
	Category  Category          `json:"category"`
	Message   string            `json:"message"`
	Cause     string            `json:"cause,omitempty"`
	Trace     string            `json:"trace,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Retryable bool              `json:"retryable"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Kind:      e.kind,
		Category:  e.category,
		Message:   e.message,
		Trace:     e.trace,
		Metadata:  e.metadata,
		Retryable: e.Retryable(),
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.kind = j.Kind
	e.category = j.Category
	e.message = j.Message
	e.trace = j.Trace
	e.metadata = j.Metadata
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option configures an Error under construction.
type Option func(*Error)

// WithCategory overrides the kind's default category.
func WithCategory(cat Category) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// WithTrace attaches a formatted stack trace.
func WithTrace(trace string) Option {
	return func(e *Error) {
		e.trace = trace
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string, opts ...Option) *Error {
	e := &Error{
		kind:      kind,
		category:  kind.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// FromKind creates an error carrying the default description for the kind.
func FromKind(kind Kind, opts ...Option) *Error {
	return New(kind, kind.Description(), opts...)
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(KindTimeout, message, opts...)
}

// Canceled creates a cancellation error.
func Canceled(message string, opts ...Option) *Error {
	return New(KindCanceled, message, opts...)
}

// Throttled creates a rate-limit error.
func Throttled(message string, opts ...Option) *Error {
	return New(KindThrottled, message, opts...)
}

// Capacity creates an at-capacity error.
func Capacity(message string, opts ...Option) *Error {
	return New(KindCapacity, message, opts...)
}

// NotFound creates a not-found error.
func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

// InvalidInput creates an invalid-input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(KindInvalidInput, message, opts...)
}

// Forbidden creates a permission-denied error.
func Forbidden(message string, opts ...Option) *Error {
	return New(KindForbidden, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(KindInternal, message, opts...)
}

// TaskFailed creates a task-failure error for the named task.
func TaskFailed(name, reason string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("task", name)}, opts...)
	return New(KindTaskFailed, fmt.Sprintf("task %s failed: %s", name, reason), opts...)
}
