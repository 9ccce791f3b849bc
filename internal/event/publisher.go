package event

import (
	"context"
	"maps"

	"github.com/dshills/evbus/internal/event/topic"
)

// MetaSource is the metadata key a Publisher stamps on its events.
const MetaSource = "source"

// Publisher provides a simplified API for publishing events.
// Every event it publishes carries its source and default metadata.
type Publisher struct {
	bus      *Bus
	source   string
	defaults map[string]any
}

// NewPublisher creates a new Publisher wrapping the given bus.
// The source parameter identifies where events originate (e.g., "orders", "billing").
func NewPublisher(bus *Bus, source string) *Publisher {
	return &Publisher{
		bus:    bus,
		source: source,
	}
}

// With returns a copy of the publisher that adds key to every event.
func (p *Publisher) With(key string, value any) *Publisher {
	defaults := maps.Clone(p.defaults)
	if defaults == nil {
		defaults = make(map[string]any, 1)
	}
	defaults[key] = value
	return &Publisher{bus: p.bus, source: p.source, defaults: defaults}
}

// Publish sends an event and waits for all handlers.
// Per-call options override the publisher defaults.
func (p *Publisher) Publish(ctx context.Context, t topic.Topic, payload any, opts ...PublishOption) error {
	return p.bus.Publish(ctx, t, payload, p.options(opts)...)
}

// PublishAsync sends an event without waiting for handlers.
func (p *Publisher) PublishAsync(ctx context.Context, t topic.Topic, payload any, opts ...PublishOption) *Delivery {
	return p.bus.PublishAsync(ctx, t, payload, p.options(opts)...)
}

func (p *Publisher) options(opts []PublishOption) []PublishOption {
	all := make([]PublishOption, 0, len(opts)+2)
	all = append(all, WithMeta(MetaSource, p.source), WithMetadata(p.defaults))
	return append(all, opts...)
}
