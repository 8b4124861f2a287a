package errors

// Category classifies errors by their nature and retry semantics.
type Category string

const (
	// CategoryTransient covers temporary failures where retry may succeed,
	// such as timeouts and momentary saturation.
	CategoryTransient Category = "transient"

	// CategoryPermanent covers failures where retry will not help,
	// such as invalid input or a missing resource.
	CategoryPermanent Category = "permanent"

	// CategoryResource covers exhaustion of a governed resource,
	// such as an admission limiter at capacity or a throttled key.
	CategoryResource Category = "resource"

	// CategoryInternal covers bugs and unexpected failures,
	// such as recovered panics.
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsRetryable reports whether errors in this category may succeed on retry.
func (c Category) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// Kind identifies the specific failure type within a category.
// It is the tag recorded against failed task records and carried on
// every structured error produced by this module.
type Kind string

const (
	// Transient kinds.
	KindTimeout     Kind = "TIMEOUT"     // operation timed out
	KindUnavailable Kind = "UNAVAILABLE" // collaborator temporarily unavailable

	// Permanent kinds.
	KindNotFound     Kind = "NOT_FOUND"     // named resource does not exist
	KindConflict     Kind = "CONFLICT"      // conflicting operation or state
	KindInvalidInput Kind = "INVALID_INPUT" // malformed or invalid input
	KindForbidden    Kind = "FORBIDDEN"     // permission gate denied access
	KindUnsupported  Kind = "UNSUPPORTED"   // operation not supported
	KindCanceled     Kind = "CANCELED"      // cooperative cancellation observed

	// Resource kinds.
	KindThrottled Kind = "THROTTLED" // sliding-window quota exceeded
	KindCapacity  Kind = "CAPACITY"  // admission limiter at capacity

	// Internal kinds.
	KindInternal   Kind = "INTERNAL"    // unexpected internal error
	KindPanic      Kind = "PANIC"       // recovered from panic
	KindTaskFailed Kind = "TASK_FAILED" // supervised work returned an error
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// DefaultCategory returns the category a kind belongs to.
func (k Kind) DefaultCategory() Category {
	switch k {
	case KindTimeout, KindUnavailable:
		return CategoryTransient
	case KindNotFound, KindConflict, KindInvalidInput, KindForbidden,
		KindUnsupported, KindCanceled:
		return CategoryPermanent
	case KindThrottled, KindCapacity:
		return CategoryResource
	default:
		return CategoryInternal
	}
}

// DefaultRetryable reports whether this kind is typically retryable.
func (k Kind) DefaultRetryable() bool {
	return k.DefaultCategory().IsRetryable()
}

var kindDescriptions = map[Kind]string{
	KindTimeout:      "operation timed out",
	KindUnavailable:  "temporarily unavailable",
	KindNotFound:     "not found",
	KindConflict:     "conflicting operation",
	KindInvalidInput: "invalid input",
	KindForbidden:    "access denied",
	KindUnsupported:  "operation not supported",
	KindCanceled:     "operation canceled",
	KindThrottled:    "rate limit exceeded",
	KindCapacity:     "at capacity",
	KindInternal:     "internal error",
	KindPanic:        "recovered from panic",
	KindTaskFailed:   "task execution failed",
}

// Description returns a human-readable description for the kind.
func (k Kind) Description() string {
	if desc, ok := kindDescriptions[k]; ok {
		return desc
	}
	return "unknown error"
}
