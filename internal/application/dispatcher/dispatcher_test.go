package dispatcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keystonepm/approvalflow/internal/domain/event"
)

type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func waitDone(t *testing.T, o *Outcome) {
	t.Helper()
	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for side-effect tasks")
	}
}

func testEvent(eventType event.Type) *event.Event {
	return event.New(eventType, "doc-1", "org-1", map[string]interface{}{
		"new_status": "APPROVED",
	})
}

func TestDispatchRunsAllHandlers(t *testing.T) {
	d := New(&mockLogger{})
	defer d.Close()

	var calls atomic.Int32
	d.Subscribe(event.TypeDocumentApproved, "first", func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	})
	d.Subscribe(event.TypeDocumentApproved, "second", func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	})
	d.Subscribe(event.TypeDocumentRejected, "other", func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	})

	outcome := d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentApproved))
	waitDone(t, outcome)

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 handler calls, got %d", got)
	}
	if ws := outcome.Warnings(); len(ws) != 0 {
		t.Errorf("expected no warnings, got %v", ws)
	}
}

func TestDispatchWithoutHandlers(t *testing.T) {
	d := New(&mockLogger{})
	defer d.Close()

	outcome := d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentPaid))
	waitDone(t, outcome)

	if ws := outcome.Warnings(); len(ws) != 0 {
		t.Errorf("expected no warnings, got %v", ws)
	}
}

func TestFailureIsIsolatedPerTask(t *testing.T) {
	logger := &mockLogger{}
	d := New(logger)
	defer d.Close()

	var succeeded atomic.Bool
	d.Subscribe(event.TypeDocumentApproved, "failing", func(ctx context.Context, evt *event.Event) error {
		return errors.New("smtp unreachable")
	})
	d.Subscribe(event.TypeDocumentApproved, "succeeding", func(ctx context.Context, evt *event.Event) error {
		succeeded.Store(true)
		return nil
	})

	outcome := d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentApproved))
	waitDone(t, outcome)

	if !succeeded.Load() {
		t.Error("sibling task must run despite another task failing")
	}
	ws := outcome.Warnings()
	if len(ws) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(ws))
	}
	if ws[0].Task != "failing" {
		t.Errorf("warning names task %q, want %q", ws[0].Task, "failing")
	}
	if !logger.contains("Side-effect task failed") {
		t.Error("expected task failure to be logged")
	}
}

func TestPanicRecovery(t *testing.T) {
	d := New(&mockLogger{})
	defer d.Close()

	var sibling atomic.Bool
	d.Subscribe(event.TypeDocumentApproved, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("nil template")
	})
	d.Subscribe(event.TypeDocumentApproved, "sibling", func(ctx context.Context, evt *event.Event) error {
		sibling.Store(true)
		return nil
	})

	outcome := d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentApproved))
	waitDone(t, outcome)

	if !sibling.Load() {
		t.Error("sibling task must survive a panicking handler")
	}
	ws := outcome.Warnings()
	if len(ws) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(ws))
	}
	if !strings.Contains(ws[0].Err.Error(), "handler panic") {
		t.Errorf("expected panic to surface as a warning, got %v", ws[0].Err)
	}
}

func TestClosedDispatcherDropsEvents(t *testing.T) {
	logger := &mockLogger{}
	d := New(logger)

	var called atomic.Bool
	d.Subscribe(event.TypeDocumentApproved, "handler", func(ctx context.Context, evt *event.Event) error {
		called.Store(true)
		return nil
	})

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	outcome := d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentApproved))
	waitDone(t, outcome)

	if called.Load() {
		t.Error("closed dispatcher must not run handlers")
	}
	if !logger.contains("Dropping event") {
		t.Error("expected dropped event to be logged")
	}
	if err := d.Close(); err == nil {
		t.Error("expected error on double close")
	}
}

func TestCloseWaitsForInflightTasks(t *testing.T) {
	d := New(&mockLogger{})

	release := make(chan struct{})
	var finished atomic.Bool
	d.Subscribe(event.TypeDocumentApproved, "slow", func(ctx context.Context, evt *event.Event) error {
		<-release
		finished.Store(true)
		return nil
	})

	d.DispatchAsync(context.Background(), testEvent(event.TypeDocumentApproved))

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a task was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after tasks finished")
	}
	if !finished.Load() {
		t.Error("in-flight task must finish before Close returns")
	}
}

func TestConcurrentDispatch(t *testing.T) {
	d := New(&mockLogger{})
	defer d.Close()

	var calls atomic.Int32
	d.Subscribe(event.TypeStatusChanged, "counter", func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	})

	const n = 50
	outcomes := make([]*Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = d.DispatchAsync(context.Background(), testEvent(event.TypeStatusChanged))
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		waitDone(t, o)
	}
	if got := calls.Load(); got != n {
		t.Errorf("expected %d handler calls, got %d", n, got)
	}
}
