package runtime

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/wardenkit/warden/errors"
	"github.com/wardenkit/warden/tasks"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Admission.MaxConcurrent = 4
	cfg.Admission.AcquireTimeout = Duration(50 * time.Millisecond)
	cfg.Events.CacheSize = 64
	return cfg
}

func waitTask(t *testing.T, r *Runtime, name string, status tasks.Status) *tasks.Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rec := r.Task(name); rec != nil && rec.Status == status {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec := r.Task(name)
	t.Fatalf("task %s never reached %s, last: %+v", name, status, rec)
	return nil
}

func TestRuntime_DispatchCompletes(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	handle, err := r.Dispatch(context.Background(), Job{
		Name:   "ingest",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			return nil
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := handle.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	rec := waitTask(t, r, "ingest", tasks.StatusCompleted)
	if rec.RunID == "" {
		t.Error("record should carry a run ID")
	}
}

func TestRuntime_DispatchValidation(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	if _, err := r.Dispatch(context.Background(), Job{Name: "", Work: func(ctx context.Context) error { return nil }}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := r.Dispatch(context.Background(), Job{Name: "x"}); err == nil {
		t.Error("expected error for missing work")
	}
}

func TestRuntime_WindowThrottles(t *testing.T) {
	cfg := testConfig()
	cfg.Window.MaxRequests = 1
	cfg.Window.Window = Duration(time.Minute)

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	ok := func(ctx context.Context) error { return nil }

	h, err := r.Dispatch(context.Background(), Job{Name: "first", Caller: "alice", Work: ok})
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	h.Wait()

	_, err = r.Dispatch(context.Background(), Job{Name: "second", Caller: "alice", Work: ok})
	if errors.KindOf(err) != errors.KindThrottled {
		t.Errorf("expected KindThrottled, got %v", err)
	}
	var gerr *errors.Error
	if !stderrors.As(err, &gerr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if got := gerr.Metadata()["caller"]; got != "alice" {
		t.Errorf("throttle error should name the caller, got %q", got)
	}

	// A different caller has its own window.
	if _, err := r.Dispatch(context.Background(), Job{Name: "third", Caller: "bob", Work: ok}); err != nil {
		t.Errorf("other caller should not be throttled: %v", err)
	}
}

func TestRuntime_CompletionLogsRecordDuration(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	h, err := r.Dispatch(context.Background(), Job{
		Name:   "timed",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	h.Wait()
	rec := waitTask(t, r, "timed", tasks.StatusCompleted)

	// The completion line reports the record's own duration, not the
	// observer's clock.
	want := "duration=" + rec.Duration().String()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, entry := range r.Broker().Cached() {
			if strings.Contains(entry.Message, "task_complete") && strings.Contains(entry.Message, "task=timed") {
				if !strings.Contains(entry.Message, want) {
					t.Errorf("completion line %q should contain %q", entry.Message, want)
				}
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task_complete entry never reached the broker")
}

func TestRuntime_AdmissionSaturated(t *testing.T) {
	cfg := testConfig()
	cfg.Admission.MaxConcurrent = 1
	cfg.Admission.AcquireTimeout = Duration(20 * time.Millisecond)

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	release := make(chan struct{})
	h, err := r.Dispatch(context.Background(), Job{
		Name:   "holder",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			<-release
			return nil
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	_, err = r.Dispatch(context.Background(), Job{
		Name:   "rejected",
		Caller: "bob",
		Work:   func(ctx context.Context) error { return nil },
	})
	if errors.KindOf(err) != errors.KindCapacity {
		t.Errorf("expected KindCapacity, got %v", err)
	}

	close(release)
	h.Wait()

	// The slot is released once the holder finishes.
	h2, err := r.Dispatch(context.Background(), Job{
		Name:   "after",
		Caller: "bob",
		Work:   func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("dispatch after release: %v", err)
	}
	h2.Wait()
}

func TestRuntime_FailureRecorded(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	handle, err := r.Dispatch(context.Background(), Job{
		Name:   "broken",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			return stderrors.New("boom")
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := handle.Wait(); err == nil {
		t.Fatal("expected failure")
	}

	rec := waitTask(t, r, "broken", tasks.StatusFailed)
	if rec.Failure == nil {
		t.Fatal("failed record should carry failure details")
	}
	if rec.Failure.Message != "boom" {
		t.Errorf("expected failure message 'boom', got %q", rec.Failure.Message)
	}
}

func TestRuntime_Cancel(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	_, err = r.Dispatch(context.Background(), Job{
		Name:   "slow",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	waitTask(t, r, "slow", tasks.StatusRunning)

	if !r.Cancel("slow") {
		t.Fatal("cancel should succeed for a running task")
	}

	rec := waitTask(t, r, "slow", tasks.StatusCancelled)
	if rec.Failure != nil {
		t.Errorf("cancellation must not be recorded as failure: %+v", rec.Failure)
	}
}

func TestRuntime_EventsObservable(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	h, err := r.Dispatch(context.Background(), Job{
		Name:   "observed",
		Caller: "alice",
		Work:   func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	h.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, e := range r.Broker().Cached() {
			if strings.Contains(e.Message, "task_start") &&
				strings.Contains(e.Message, "task=observed") {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("dispatch should emit a task_start event into the broker")
}

func TestRuntime_CloseRejectsDispatch(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = r.Dispatch(context.Background(), Job{
		Name:   "late",
		Caller: "alice",
		Work:   func(ctx context.Context) error { return nil },
	})
	if !stderrors.Is(err, ErrRuntimeClosed) {
		t.Errorf("expected ErrRuntimeClosed, got %v", err)
	}
}

func TestRuntime_CloseCancelsRunning(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	_, err = r.Dispatch(context.Background(), Job{
		Name:   "stuck",
		Caller: "alice",
		Work: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	waitTask(t, r, "stuck", tasks.StatusRunning)

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rec := r.Task("stuck")
	if rec == nil || rec.Status != tasks.StatusCancelled {
		t.Errorf("close should cancel running work, got %+v", rec)
	}
}

func TestRuntime_Stats(t *testing.T) {
	r, err := New(testConfig())
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer r.Close()

	h, _ := r.Dispatch(context.Background(), Job{
		Name:   "counted",
		Caller: "alice",
		Work:   func(ctx context.Context) error { return nil },
	})
	h.Wait()
	waitTask(t, r, "counted", tasks.StatusCompleted)

	s := r.Stats()
	if s.Admission.Acquired != 1 {
		t.Errorf("expected 1 admission, got %d", s.Admission.Acquired)
	}
	if s.Tasks.Total != 1 {
		t.Errorf("expected 1 task, got %d", s.Tasks.Total)
	}
}
