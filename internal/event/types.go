package event

import (
	"context"
	"time"

	"github.com/dshills/evbus/internal/event/dispatch"
	"github.com/dshills/evbus/internal/event/topic"
)

// Priority determines handler execution order.
// Higher values execute first.
type Priority int

const (
	// PriorityCritical is for handlers that must observe an event before anyone else.
	PriorityCritical Priority = 100

	// PriorityHigh is for handlers that others depend on.
	PriorityHigh Priority = 50

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 0

	// PriorityLow is for metrics, auditing, and logging handlers that run last.
	PriorityLow Priority = -50
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p >= PriorityCritical:
		return "critical"
	case p >= PriorityHigh:
		return "high"
	case p >= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler is the interface for event handlers.
//
// A Handler is invoked on the publishing goroutine and should honor ctx.
// Wrap long-running or context-unaware work with BlockingFunc or Offload so
// it runs on the bus worker pool instead.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// BlockingFunc is a context-unaware callback. The bus runs it on its worker
// pool and waits for it to finish.
type BlockingFunc func(evt Event) error

// Handle implements the Handler interface.
func (f BlockingFunc) Handle(_ context.Context, evt Event) error {
	return f(evt)
}

// offloaded marks a Handler for execution on the worker pool.
type offloaded struct {
	Handler
}

// Offload returns a Handler that the bus runs on its worker pool.
func Offload(h Handler) Handler {
	if h == nil {
		return nil
	}
	return offloaded{h}
}

// isBlocking reports whether h must be offloaded to the worker pool.
func isBlocking(h Handler) bool {
	switch h.(type) {
	case BlockingFunc, offloaded:
		return true
	default:
		return false
	}
}

// Typed adapts a function that expects a payload of type T.
// Events whose payload is not a T are skipped without error.
func Typed[T any](fn func(ctx context.Context, evt Event, payload T) error) HandlerFunc {
	return func(ctx context.Context, evt Event) error {
		payload, ok := evt.Payload.(T)
		if !ok {
			return nil
		}
		return fn(ctx, evt, payload)
	}
}

// FilterFunc is a predicate for filtering events.
// Return true to allow the event, false to filter it out.
type FilterFunc func(evt Event) bool

// SubscriberInfo is a read-only view of one registration.
type SubscriberInfo struct {
	ID         string
	Pattern    topic.Topic
	Priority   Priority
	Once       bool
	MaxRetries int
}

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the total number of events dispatched, dead letters included.
	EventsPublished uint64

	// EventsDelivered is the number of handler deliveries that eventually succeeded.
	EventsDelivered uint64

	// HandlersExecuted is the total number of handler attempts that ran.
	HandlersExecuted uint64

	// HandlerErrors is the number of attempts that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of attempts that panicked.
	HandlerPanics uint64

	// Retries is the number of retry attempts scheduled.
	Retries uint64

	// DeadLettered is the number of deliveries that exhausted their retries.
	DeadLettered uint64

	// AvgDeliveryTime is the average handler attempt duration.
	AvgDeliveryTime time.Duration

	// ActiveSubscribers is the current number of registrations.
	ActiveSubscribers int

	// Inline and Pool are the counters of the two handler runners. Pool's
	// QueueDepth is the number of blocking handlers waiting for a worker.
	Inline dispatch.RunnerStats
	Pool   dispatch.RunnerStats
}
