// Package errors provides the structured error taxonomy used across
// warden. Every failure carries a Kind tag and a Category that decide
// retry semantics, and optionally a cause chain, metadata, and a stack
// trace formatted at the one place the failure was caught.
//
// # Categories
//
//   - Transient: retry may succeed (timeouts, momentary unavailability)
//   - Permanent: retry will not help (invalid input, not found, canceled)
//   - Resource: a governed resource is exhausted (throttled, at capacity)
//   - Internal: bugs and unexpected failures (panics)
//
// # Usage
//
// Create a tagged error:
//
//	err := errors.Throttled("caller over quota",
//	    errors.WithMetadata("key", caller))
//
// Classify an arbitrary error, e.g. when recording a task outcome:
//
//	if errors.IsCancellation(err) {
//	    // cooperative cancellation, not a failure
//	}
//
// Convert a recovered panic into a structured failure with a trace:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        failure = errors.Capture(r)
//	    }
//	}()
package errors
