package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

func submitted() *event.Event {
	return event.NewEvent(event.TypeRequestSubmitted, 1, 1)
}

func counter(n *atomic.Int32) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		n.Add(1)
		return nil
	}
}

func TestDispatchAsync_RunsMatchingHandlers(t *testing.T) {
	d := NewDispatcher()

	var submittedCount, approvedCount atomic.Int32
	d.SubscribeNamed(event.TypeRequestSubmitted, "first", counter(&submittedCount))
	d.SubscribeNamed(event.TypeRequestSubmitted, "second", counter(&submittedCount))
	d.SubscribeNamed(event.TypeRequestApproved, "other type", counter(&approvedCount))

	d.DispatchAsync(context.Background(), submitted())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if submittedCount.Load() != 2 {
		t.Errorf("submitted handlers ran %d times, want 2", submittedCount.Load())
	}
	if approvedCount.Load() != 0 {
		t.Errorf("handler for another type ran %d times", approvedCount.Load())
	}
}

func TestDispatchAsync_RecoversPanics(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	var ran atomic.Int32
	d.SubscribeNamed(event.TypeRequestSubmitted, "exploding", func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})
	d.SubscribeNamed(event.TypeRequestSubmitted, "healthy", counter(&ran))

	d.DispatchAsync(context.Background(), submitted())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !logger.HasError("Handler panic recovered") {
		t.Error("panic should be logged")
	}
	if ran.Load() != 1 {
		t.Error("a panicking handler should not stop the others")
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()

	var removed, kept atomic.Int32
	d.SubscribeNamed(event.TypeRequestSubmitted, "removed", counter(&removed))
	d.SubscribeNamed(event.TypeRequestSubmitted, "kept", counter(&kept))
	d.Unsubscribe(event.TypeRequestSubmitted, "removed")

	d.DispatchAsync(context.Background(), submitted())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if removed.Load() != 0 {
		t.Errorf("unsubscribed handler ran %d times", removed.Load())
	}
	if kept.Load() != 1 {
		t.Errorf("remaining handler ran %d times, want 1", kept.Load())
	}
}

func TestDispatchAsync_SurvivesCallerCancellation(t *testing.T) {
	d := NewDispatcher()

	done := make(chan error, 1)
	d.SubscribeNamed(event.TypeRequestSubmitted, "slow", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(10 * time.Millisecond)
		done <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, submitted())
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("handler context error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("async handler did not run")
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDispatchAsync_LogsHandlerErrors(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	d.SubscribeNamed(event.TypeRequestSubmitted, "lark", func(ctx context.Context, evt *event.Event) error {
		return errors.New("lark unavailable")
	})

	d.DispatchAsync(context.Background(), submitted())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !logger.HasError("Async handler error") {
		t.Error("async handler error should be logged")
	}
}

func TestDispatchAsync_MaxConcurrent(t *testing.T) {
	d := NewDispatcher(WithMaxConcurrent(2))

	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		d.SubscribeNamed(event.TypeRequestSubmitted, name, func(ctx context.Context, evt *event.Event) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}

	d.DispatchAsync(context.Background(), submitted())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	var ran atomic.Int32
	d.SubscribeNamed(event.TypeRequestSubmitted, "counter", counter(&ran))

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}

	d.DispatchAsync(context.Background(), submitted())
	if !logger.HasError("Cannot dispatch async event, dispatcher is closed") {
		t.Error("DispatchAsync() after Close() should log an error")
	}
	if ran.Load() != 0 {
		t.Error("handler should not run after Close()")
	}
}

// Every handler that starts must finish before Close returns,
// even when dispatches race with Close.
func TestClose_WaitsForHandlersStartedConcurrently(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := NewDispatcher()

		var started, finished atomic.Int32
		d.SubscribeNamed(event.TypeRequestSubmitted, "tracked", func(ctx context.Context, evt *event.Event) error {
			started.Add(1)
			time.Sleep(time.Millisecond)
			finished.Add(1)
			return nil
		})

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.DispatchAsync(context.Background(), submitted())
			}()
		}

		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if s, f := started.Load(), finished.Load(); s != f {
			t.Fatalf("iteration %d: Close() returned with %d of %d handlers unfinished", i, s-f, s)
		}
		wg.Wait()

		// dispatches that lost the race must not have started anything
		if s := started.Load(); s != finished.Load() {
			t.Fatalf("iteration %d: handler started after Close()", i)
		}
	}
}
