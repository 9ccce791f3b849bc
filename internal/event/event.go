package event

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/evbus/internal/event/topic"
)

// timeNow is a variable to allow testing with fixed timestamps.
var timeNow = time.Now

// Event is one published occurrence. The bus creates it once per publish and
// hands the same value to every matching handler; handlers must treat it,
// Metadata included, as read-only.
type Event struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Topic is the concrete topic the event was published to.
	Topic topic.Topic

	// Payload contains the event-specific data.
	Payload any

	// Metadata holds caller-defined key/values.
	Metadata map[string]any

	// Timestamp is when the event was created.
	Timestamp time.Time
}

// newEvent builds an event. The metadata map is copied so later changes by
// the publisher are not visible to handlers.
func newEvent(t topic.Topic, payload any, meta map[string]any) Event {
	if meta == nil {
		meta = map[string]any{}
	} else {
		meta = maps.Clone(meta)
	}
	return Event{
		ID:        generateID(),
		Topic:     t,
		Payload:   payload,
		Metadata:  meta,
		Timestamp: timeNow(),
	}
}

// Meta returns a metadata value.
func (e Event) Meta(key string) (any, bool) {
	v, ok := e.Metadata[key]
	return v, ok
}

// MetaString returns a metadata value if it is a string, or "".
func (e Event) MetaString(key string) string {
	s, _ := e.Metadata[key].(string)
	return s
}

// generateID generates a unique identifier for events and registrations.
func generateID() string {
	return uuid.NewString()
}

// PublishOption configures a single publish call.
type PublishOption func(*publishConfig)

type publishConfig struct {
	metadata map[string]any
}

// WithMetadata merges the given key/values into the event metadata.
func WithMetadata(meta map[string]any) PublishOption {
	return func(c *publishConfig) {
		if len(meta) == 0 {
			return
		}
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(meta))
		}
		maps.Copy(c.metadata, meta)
	}
}

// WithMeta sets one metadata key.
func WithMeta(key string, value any) PublishOption {
	return func(c *publishConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]any)
		}
		c.metadata[key] = value
	}
}

func buildEvent(t topic.Topic, payload any, opts []PublishOption) Event {
	var cfg publishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	// cfg.metadata is already private to this call.
	evt := newEvent(t, payload, nil)
	if cfg.metadata != nil {
		evt.Metadata = cfg.metadata
	}
	return evt
}
