package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/evbus/internal/event/dispatch"
	"github.com/dshills/evbus/internal/event/topic"
)

// Bus is an in-process publish/subscribe event bus.
//
// Handlers matching a published topic run one at a time in priority order.
// Failed deliveries are retried with exponential backoff and, once retries
// are exhausted, reported on DeadLetterTopic. A Bus is safe for concurrent
// use; independent publishes may interleave.
type Bus struct {
	registry *Registry

	// Runners: inline for context-aware handlers, pool for blocking ones.
	inline *dispatch.Inline
	pool   *dispatch.Pool

	backoff dispatch.Backoff
	logger  *slog.Logger

	// closeMu orders inflight.Add against Close's inflight.Wait.
	closeMu  sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	// Stats; per-attempt counters live in the runners.
	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	retries         atomic.Uint64
	deadLettered    atomic.Uint64
}

// New creates a bus and starts its worker pool. Call Close to stop it.
func New(opts ...Option) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evbus")

	panicHandler := func(v any, stack []byte) {
		logger.Error("event handler panicked", "panic", v, "stack", string(stack))
		if config.panicHandler != nil {
			config.panicHandler(v, stack)
		}
	}

	b := &Bus{
		registry: NewRegistry(),
		inline:   dispatch.NewInline(dispatch.WithPanicHandler(panicHandler)),
		pool: dispatch.NewPool(
			dispatch.WithWorkerCount(config.workerCount),
			dispatch.WithQueueSize(config.queueSize),
			dispatch.WithPoolPanicHandler(panicHandler),
		),
		backoff: dispatch.Backoff{Base: config.retryBaseDelay, Max: config.maxRetryDelay},
		logger:  logger,
	}

	// A freshly built pool cannot already be running.
	_ = b.pool.Start()

	return b
}

// Subscribe registers a handler for a topic pattern and returns its
// identifier. Handlers of type BlockingFunc, or wrapped with Offload, run on
// the worker pool; all others run on the publishing goroutine.
// Subscribe panics if h is nil.
func (b *Bus) Subscribe(pattern topic.Topic, h Handler, opts ...SubscriptionOption) string {
	if h == nil {
		panic("event: nil handler")
	}

	var runner dispatch.Runner = b.inline
	if isBlocking(h) {
		runner = b.pool
	}

	reg := newRegistration(pattern, h, runner, opts...)
	b.registry.add(reg)

	b.logger.Debug("subscribed",
		"pattern", pattern,
		"subscription_id", reg.id,
		"priority", reg.config.Priority,
		"once", reg.config.Once,
		"max_retries", reg.config.MaxRetries,
	)
	return reg.id
}

// SubscribeFunc is a convenience method for subscribing a context-aware function.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn func(ctx context.Context, evt Event) error, opts ...SubscriptionOption) string {
	return b.Subscribe(pattern, HandlerFunc(fn), opts...)
}

// SubscribeBlocking is a convenience method for subscribing a function that
// runs on the worker pool.
func (b *Bus) SubscribeBlocking(pattern topic.Topic, fn func(evt Event) error, opts ...SubscriptionOption) string {
	return b.Subscribe(pattern, BlockingFunc(fn), opts...)
}

// Unsubscribe removes the registration id from pattern. It reports whether
// anything was removed; unknown patterns or ids return false.
func (b *Bus) Unsubscribe(pattern topic.Topic, id string) bool {
	removed := b.registry.Remove(pattern, id)
	if removed {
		b.logger.Debug("unsubscribed", "pattern", pattern, "subscription_id", id)
	}
	return removed
}

// ListSubscribers returns a snapshot of registrations per pattern. With
// arguments, only those exact patterns are listed.
func (b *Bus) ListSubscribers(patterns ...topic.Topic) map[topic.Topic][]SubscriberInfo {
	return b.registry.List(patterns...)
}

// Clear removes every registration.
func (b *Bus) Clear() {
	b.registry.Clear()
}

// Publish dispatches an event to every matching handler and returns when all
// of them have finished, including retries. Handler failures never surface
// here; they are reported on DeadLetterTopic.
//
// Publish returns ErrReentrantPublish when called from a handler of this
// bus, either through the handler's ctx or from a worker running a blocking
// handler. Handlers should use PublishAsync instead.
func (b *Bus) Publish(ctx context.Context, t topic.Topic, payload any, opts ...PublishOption) error {
	if inDispatch(ctx, b) || b.pool.OnWorker() {
		return ErrReentrantPublish
	}
	if !b.begin() {
		return ErrBusClosed
	}
	defer b.inflight.Done()

	b.dispatch(ctx, buildEvent(t, payload, opts))
	return nil
}

// PublishAsync dispatches an event in the background. The returned Delivery
// completes once every matching handler has finished. It is safe to call
// from inside a handler.
func (b *Bus) PublishAsync(ctx context.Context, t topic.Topic, payload any, opts ...PublishOption) *Delivery {
	evt := buildEvent(t, payload, opts)
	d := newDelivery(evt.ID)

	if !b.begin() {
		d.finish(ErrBusClosed)
		return d
	}

	go func() {
		defer b.inflight.Done()
		b.dispatch(ctx, evt)
		d.finish(nil)
	}()
	return d
}

// begin registers an in-flight dispatch unless the bus is closed.
func (b *Bus) begin() bool {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()

	if b.closed {
		return false
	}
	b.inflight.Add(1)
	return true
}

// Close stops accepting publishes, waits for in-flight dispatches (dead
// letters included) to finish, and stops the worker pool. If ctx ends first,
// the pool is stopped anyway and ctx.Err() is returned.
func (b *Bus) Close(ctx context.Context) error {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return ErrBusClosed
	}
	b.closed = true
	b.closeMu.Unlock()

	drained := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return b.pool.Stop(ctx)
	case <-ctx.Done():
		_ = b.pool.Stop(ctx)
		return ctx.Err()
	}
}

// Stats returns current bus statistics. Handler attempt counts are the sums
// of the inline and pool runner counters.
func (b *Bus) Stats() Stats {
	inline, pool := b.inline.Stats(), b.pool.Stats()

	executed := inline.Executed() + pool.Executed()
	var avg time.Duration
	if executed > 0 {
		avg = (inline.TotalDuration + pool.TotalDuration) / time.Duration(executed)
	}

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		HandlersExecuted:  executed,
		HandlerErrors:     inline.Failed + pool.Failed,
		HandlerPanics:     inline.Panicked + pool.Panicked,
		Retries:           b.retries.Load(),
		DeadLettered:      b.deadLettered.Load(),
		AvgDeliveryTime:   avg,
		ActiveSubscribers: b.registry.Count(),
		Inline:            inline,
		Pool:              pool,
	}
}

// dispatchKey marks contexts handed to handlers.
type dispatchKey struct{}

func withDispatch(ctx context.Context, b *Bus) context.Context {
	return context.WithValue(ctx, dispatchKey{}, b)
}

func inDispatch(ctx context.Context, b *Bus) bool {
	owner, _ := ctx.Value(dispatchKey{}).(*Bus)
	return owner == b
}

// dispatch delivers evt to every matching registration in order, then
// removes the one-shot registrations that fired.
func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.eventsPublished.Add(1)

	regs := b.registry.match(evt.Topic)
	if len(regs) == 0 {
		return
	}

	deadLetter := evt.Topic == DeadLetterTopic
	hctx := withDispatch(ctx, b)
	var fired []*registration

	for _, reg := range regs {
		if !b.accepts(reg, evt) || !reg.claim() {
			continue
		}
		if reg.config.Once {
			fired = append(fired, reg)
		}

		maxRetries := reg.config.MaxRetries
		if deadLetter {
			maxRetries = 0
		}

		result, attempts := b.deliver(hctx, reg, evt, maxRetries)
		switch {
		case result.IsSuccess():
			b.eventsDelivered.Add(1)
		case result.Skipped && attempts == 1:
			b.logger.Debug("delivery skipped",
				"topic", evt.Topic,
				"event_id", evt.ID,
				"subscription_id", reg.id,
				"error", result.Error,
			)
		case deadLetter:
			b.logger.Error("dead letter delivery failed",
				"event_id", evt.ID,
				"subscription_id", reg.id,
				"error", result.Error,
			)
		default:
			b.publishDeadLetter(ctx, evt, &HandlerError{
				SubscriptionID: reg.id,
				Pattern:        reg.pattern,
				Topic:          evt.Topic,
				Attempts:       attempts,
				Err:            result.Error,
			})
		}
	}

	if len(fired) > 0 {
		b.registry.removeAll(fired)
	}
}

// accepts runs the registration filter. A panicking filter rejects the event.
func (b *Bus) accepts(reg *registration, evt Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event filter panicked",
				"topic", evt.Topic,
				"event_id", evt.ID,
				"subscription_id", reg.id,
				"panic", r,
			)
			ok = false
		}
	}()
	return reg.accepts(evt)
}

// deliver invokes one registration, retrying failures with backoff.
// It returns the last result and the number of attempts made.
func (b *Bus) deliver(ctx context.Context, reg *registration, evt Event, maxRetries int) (dispatch.Result, int) {
	task := func(ctx context.Context) error {
		return reg.handler.Handle(ctx, evt)
	}

	var last dispatch.Result
	for attempt := 1; ; attempt++ {
		result := reg.runner.Run(ctx, task)

		// A retry cut short by ctx keeps the handler's own error.
		if result.Skipped && attempt > 1 {
			return last, attempt - 1
		}
		last = result

		switch dispatch.Classify(result, attempt, maxRetries) {
		case dispatch.OutcomeRetry:
			delay := b.backoff.Delay(attempt)
			b.retries.Add(1)
			b.logger.Debug("retrying event handler",
				"topic", evt.Topic,
				"event_id", evt.ID,
				"subscription_id", reg.id,
				"attempt", attempt,
				"delay", delay,
				"error", result.Error,
			)
			if err := dispatch.Sleep(ctx, delay); err != nil {
				return last, attempt
			}
		default:
			return last, attempt
		}
	}
}
