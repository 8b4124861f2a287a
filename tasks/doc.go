// Package tasks supervises asynchronous units of work.
//
// A Supervisor wraps a function, runs it on its own goroutine under a
// cancellable context, and records the outcome on a named Record:
// completed, failed (with the error kind, message, and any captured
// stack trace), or cancelled. Cancellation is cooperative — the
// supervisor marks intent through the context, and the work transitions
// to cancelled only when it observes the signal. Cancellation is never
// recorded as a failure, and errors are re-delivered to the awaiter
// unchanged.
//
//	sup := tasks.NewSupervisor()
//	h := sup.Wrap(ctx, "ingest", map[string]string{"caller": "api"},
//	    func(ctx context.Context) error {
//	        return ingest(ctx)
//	    })
//
//	if err := h.Wait(); err != nil {
//	    // the original error, exactly as the work returned it
//	}
//
//	sup.Cancel("ingest")          // request cooperative cancellation
//	sup.Cleanup(24 * time.Hour)   // drop old terminal records
//
// Names are unique per supervisor; wrapping under an existing name
// overwrites the prior record. In-flight records are never removed by
// Cleanup regardless of age.
package tasks
