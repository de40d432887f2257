package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/travel-approval/internal/domain/event"
)

// Dispatcher routes committed workflow events to registered handlers
type Dispatcher interface {
	// SubscribeNamed registers a handler under a name used in logs and by Unsubscribe
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// DispatchAsync runs handlers on background goroutines.
	// Handlers see ctx values but not its cancellation.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Close stops accepting events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	// mu guards handlers and closed, and orders wg.Add before Close's wg.Wait
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	closed   bool
	logger   Logger

	wg    sync.WaitGroup
	slots chan struct{}
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithMaxConcurrent bounds the number of async handlers running at once
func WithMaxConcurrent(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.mu.Unlock()

	d.info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	handlers := d.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered
	d.mu.Unlock()

	d.info("Handler unregistered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.error("Cannot dispatch async event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}
	handlers := append([]HandlerInfo(nil), d.handlers[evt.Type]...)
	d.wg.Add(len(handlers))
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	d.info("Dispatching event asynchronously",
		"event_type", evt.Type,
		"event_id", evt.ID,
		"request_id", evt.RequestID,
		"handler_count", len(handlers),
	)

	// the caller's request usually ends before delivery does
	detached := context.WithoutCancel(ctx)

	for _, info := range handlers {
		go func(h HandlerInfo) {
			defer d.wg.Done()

			if d.slots != nil {
				d.slots <- struct{}{}
				defer func() { <-d.slots }()
			}

			if err := d.safeExecute(detached, evt, h); err != nil {
				d.error("Async handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(info)
	}
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.closed = true
	d.mu.Unlock()

	d.info("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.info("Dispatcher closed")

	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.error("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"panic", r,
			)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) error(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
