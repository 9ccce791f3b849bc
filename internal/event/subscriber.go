package event

import (
	"context"
	"slices"
	"sync"

	"github.com/dshills/evbus/internal/event/topic"
)

// Subscription identifies one registration on a bus.
type Subscription struct {
	ID      string
	Pattern topic.Topic
}

// Subscriber provides a simplified API for subscribing to events.
// It tracks the subscriptions it creates and removes them all on Close.
type Subscriber struct {
	bus           *Bus
	subscriptions []Subscription
	mu            sync.Mutex
	closed        bool
}

// NewSubscriber creates a new Subscriber wrapping the given bus.
func NewSubscriber(bus *Bus) *Subscriber {
	return &Subscriber{bus: bus}
}

// Subscribe creates a subscription for the given topic pattern.
// The subscription is tracked for cleanup when Close is called.
func (s *Subscriber) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Subscription{}, ErrSubscriberClosed
	}

	sub := Subscription{
		ID:      s.bus.Subscribe(pattern, handler, opts...),
		Pattern: pattern,
	}
	s.subscriptions = append(s.subscriptions, sub)
	return sub, nil
}

// SubscribeFunc creates a subscription with a function handler.
func (s *Subscriber) SubscribeFunc(pattern topic.Topic, fn func(ctx context.Context, evt Event) error, opts ...SubscriptionOption) (Subscription, error) {
	return s.Subscribe(pattern, HandlerFunc(fn), opts...)
}

// SubscribePayload creates a subscription that handles payloads of type T.
// Events with any other payload type are skipped.
func SubscribePayload[T any](s *Subscriber, pattern topic.Topic, handler func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	return s.Subscribe(pattern, Typed(func(ctx context.Context, _ Event, payload T) error {
		return handler(ctx, payload)
	}), opts...)
}

// SubscribeOnce creates a one-time subscription that is removed after the first event.
func (s *Subscriber) SubscribeOnce(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithOnce())
	return s.Subscribe(pattern, handler, opts...)
}

// SubscribeCritical creates a critical-priority subscription.
func (s *Subscriber) SubscribeCritical(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithPriority(PriorityCritical))
	return s.Subscribe(pattern, handler, opts...)
}

// SubscribeLow creates a low-priority subscription.
// Low-priority handlers execute last and are intended for metrics/logging.
func (s *Subscriber) SubscribeLow(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithPriority(PriorityLow))
	return s.Subscribe(pattern, handler, opts...)
}

// Unsubscribe removes a specific subscription.
func (s *Subscriber) Unsubscribe(sub Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = slices.DeleteFunc(s.subscriptions, func(tracked Subscription) bool {
		return tracked.ID == sub.ID
	})
	return s.bus.Unsubscribe(sub.Pattern, sub.ID)
}

// UnsubscribeAll removes all subscriptions managed by this subscriber.
// One-shot subscriptions that already fired are skipped silently.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		s.bus.Unsubscribe(sub.Pattern, sub.ID)
	}
	s.subscriptions = nil
}

// Subscriptions returns a copy of the tracked subscriptions.
func (s *Subscriber) Subscriptions() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subscriptions)
}

// Close unsubscribes everything and rejects further subscriptions.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.UnsubscribeAll()
}
