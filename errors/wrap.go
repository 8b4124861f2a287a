package errors

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// Wrap wraps an error with additional context while preserving the chain.
// A nil err yields nil. An existing *Error keeps its kind, category, and
// trace; anything else is classified by KindOf.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var werr *Error
	if errors.As(err, &werr) {
		wrapped := &Error{
			kind:      werr.kind,
			category:  werr.category,
			message:   message,
			cause:     err,
			trace:     werr.trace,
			metadata:  werr.Metadata(),
			retryable: werr.retryable,
			timestamp: werr.timestamp,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	return New(KindOf(err), message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// KindOf classifies an arbitrary error into a kind tag. Context
// cancellation and deadline errors get their own kinds so that callers
// can tell cooperative cancellation apart from real failures; everything
// else defaults to KindTaskFailed.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return Kind("")
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		var werr *Error
		if errors.As(err, &werr) {
			return werr.kind
		}
		return KindTaskFailed
	}
}

// IsCancellation reports whether err represents observed cooperative
// cancellation rather than an application failure.
func IsCancellation(err error) bool {
	return KindOf(err) == KindCanceled
}

// Capture converts a value recovered from a panic into a structured
// error tagged KindPanic, with the stack formatted at this single
// catch point.
func Capture(recovered interface{}) *Error {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	return New(KindPanic, "recovered from panic",
		WithCause(cause),
		WithTrace(string(debug.Stack())))
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers need not import both error packages.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
