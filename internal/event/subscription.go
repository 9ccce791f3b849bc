package event

import (
	"sync/atomic"

	"github.com/dshills/evbus/internal/event/dispatch"
	"github.com/dshills/evbus/internal/event/topic"
)

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Priority determines execution order (higher values execute first).
	Priority Priority

	// Once removes the subscription after its first delivery, whether that
	// delivery succeeded or exhausted its retries.
	Once bool

	// MaxRetries is how many times a failed delivery is retried.
	MaxRetries int

	// Filter is an optional predicate. Events it rejects are not delivered
	// and do not count as a delivery for Once.
	Filter FilterFunc
}

// DefaultSubscriptionConfig returns a default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		Priority: PriorityNormal,
	}
}

// SubscriptionOption is a function that configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithOnce makes the subscription one-shot.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// WithMaxRetries sets how many times a failed delivery is retried.
// Negative values are treated as zero.
func WithMaxRetries(n int) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.MaxRetries = max(n, 0)
	}
}

// WithFilter sets a filter predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// registration is one subscription held by the Registry.
type registration struct {
	id      string
	pattern topic.Topic
	seq     uint64 // assigned by the registry; orders equal priorities
	handler Handler
	runner  dispatch.Runner
	config  SubscriptionConfig

	// fired latches the first delivery of a one-shot registration.
	fired atomic.Bool
}

func newRegistration(pattern topic.Topic, h Handler, runner dispatch.Runner, opts ...SubscriptionOption) *registration {
	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &registration{
		id:      generateID(),
		pattern: pattern,
		handler: h,
		runner:  runner,
		config:  config,
	}
}

// accepts applies the subscription filter.
func (r *registration) accepts(evt Event) bool {
	return r.config.Filter == nil || r.config.Filter(evt)
}

// claim reports whether this delivery may proceed. A one-shot registration
// is claimed by exactly one delivery, even across concurrent publishes.
func (r *registration) claim() bool {
	if !r.config.Once {
		return true
	}
	return r.fired.CompareAndSwap(false, true)
}

func (r *registration) info() SubscriberInfo {
	return SubscriberInfo{
		ID:         r.id,
		Pattern:    r.pattern,
		Priority:   r.config.Priority,
		Once:       r.config.Once,
		MaxRetries: r.config.MaxRetries,
	}
}
