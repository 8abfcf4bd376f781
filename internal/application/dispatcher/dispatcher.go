// Package dispatcher fans domain events out to side-effect handlers. Handlers
// run as independent fire-and-forget tasks: no ordering, no automatic retry,
// no cross-task cancellation. A failing task is logged, recorded as a
// warning, and never affects its siblings or the committed transition.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Outcome tracks the side-effect tasks launched for one event. Warnings
// accumulate as tasks fail; Done closes when every task has finished.
type Outcome struct {
	mu       sync.Mutex
	warnings []*approval.SideEffectWarning
	done     chan struct{}
}

func newOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// Done is closed once all tasks for the event have completed.
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// Warnings returns the failures recorded so far.
func (o *Outcome) Warnings() []*approval.SideEffectWarning {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*approval.SideEffectWarning(nil), o.warnings...)
}

func (o *Outcome) record(task string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warnings = append(o.warnings, &approval.SideEffectWarning{Task: task, Err: err})
}

// Dispatcher routes events to registered side-effect handlers.
type Dispatcher interface {
	// Subscribe registers a named handler for an event type.
	Subscribe(eventType event.Type, name string, handler Handler)

	// DispatchAsync launches all handlers for the event in parallel and
	// returns immediately. The returned Outcome observes their completion.
	DispatchAsync(ctx context.Context, evt *event.Event) *Outcome

	// Close stops accepting events and waits for in-flight tasks.
	Close() error
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an event dispatcher.
func New(logger Logger) Dispatcher {
	return &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		logger:   logger,
	}
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	if d.logger != nil {
		d.logger.Info("Handler registered", "event_type", eventType, "handler_name", name)
	}
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) *Outcome {
	outcome := newOutcome()

	if d.closed.Load() {
		if d.logger != nil {
			d.logger.Error("Dropping event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		}
		close(outcome.done)
		return outcome
	}

	d.mu.RLock()
	handlers := d.handlers[evt.Type]
	d.mu.RUnlock()

	if d.logger != nil {
		d.logger.Info("Dispatching event",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"document_id", evt.DocumentID,
			"handler_count", len(handlers),
		)
	}

	var pending sync.WaitGroup
	for _, info := range handlers {
		d.wg.Add(1)
		pending.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()
			defer pending.Done()

			if err := d.safeExecute(ctx, evt, h); err != nil {
				outcome.record(h.Name, err)
				if d.logger != nil {
					d.logger.Error("Side-effect task failed",
						"event_type", evt.Type,
						"event_id", evt.ID,
						"handler_name", h.Name,
						"error", err,
					)
				}
			}
		}(info)
	}

	go func() {
		pending.Wait()
		close(outcome.done)
	}()

	return outcome
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}

	if d.logger != nil {
		d.logger.Info("Closing dispatcher, waiting for in-flight tasks")
	}
	d.wg.Wait()
	return nil
}

// safeExecute runs a handler with panic recovery so one task cannot take the
// process or its siblings down.
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.Handler(ctx, evt)
}
