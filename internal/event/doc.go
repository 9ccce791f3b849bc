// Package event provides an in-process publish/subscribe event bus.
//
// Callers register handlers against topic patterns; publishers emit events
// that are dispatched to every matching handler in priority order, with
// per-handler retries and a dead-letter fallback.
//
// # Architecture
//
//	                    ┌──────────────────────────────────────────┐
//	                    │                  Bus                      │
//	                    │  - Registry (pattern -> registrations)    │
//	                    │  - Topic matching (anchored wildcards)    │
//	                    │  - Retry with backoff, dead letter        │
//	                    └──────────────────────────────────────────┘
//	                                      │
//	          ┌───────────────────────────┼───────────────────────────┐
//	          ▼                           ▼                           ▼
//	┌─────────────────┐         ┌─────────────────┐         ┌─────────────────┐
//	│ dispatch.Inline │         │ dispatch.Pool   │         │     Filter      │
//	│  - HandlerFunc  │         │  - BlockingFunc │         │  - Metadata     │
//	│    on caller    │         │    on workers   │         │  - JSON (gjson) │
//	└─────────────────┘         └─────────────────┘         └─────────────────┘
//
// # Topics and Patterns
//
// Topics are dot-separated strings such as "orders.created". Patterns may use
// two wildcards:
//
//	orders.*     - matches orders.created but not orders.eu.created
//	orders.#     - matches orders., orders.created, orders.eu.created
//	#            - matches every topic
//
// Matching is case-sensitive and anchored at both ends.
//
// # Ordering
//
// All registrations matching a topic are pooled and invoked one at a time,
// highest priority first. Equal priorities run in registration order.
//
// # Failures
//
// A handler fails by returning an error or panicking. Failed deliveries are
// retried up to the registration's MaxRetries, sleeping base*2^(n-1) between
// attempts. When retries run out, a DeadLetter is published on
// DeadLetterTopic without blocking the original publish. Failures while
// delivering dead letters are only logged.
//
// # Basic Usage
//
//	bus := event.New(event.WithLogger(logger))
//	defer bus.Close(context.Background())
//
//	bus.SubscribeFunc("orders.*", func(ctx context.Context, evt event.Event) error {
//	    return ship(ctx, evt.Payload)
//	}, event.WithPriority(event.PriorityHigh), event.WithMaxRetries(3))
//
//	bus.SubscribeBlocking(event.DeadLetterTopic, func(evt event.Event) error {
//	    dl := evt.Payload.(event.DeadLetter)
//	    log.Printf("dropped %s: %s", dl.OriginalTopic, dl.Error)
//	    return nil
//	})
//
//	err := bus.Publish(ctx, "orders.created", order)
//
// Handlers must not call Publish with the context they were given; it
// returns ErrReentrantPublish. Use PublishAsync there instead.
package event
