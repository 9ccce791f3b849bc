package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/evbus/internal/event/topic"
)

// Common filter predicates for event subscription.

// FilterByMetadata creates a filter that only allows events whose metadata
// has key set to value. Values are compared with reflect.DeepEqual, so slices
// and maps are allowed on either side.
func FilterByMetadata(key string, value any) FilterFunc {
	return func(evt Event) bool {
		v, ok := evt.Metadata[key]
		return ok && reflect.DeepEqual(v, value)
	}
}

// FilterHasMetadata creates a filter that only allows events carrying key.
func FilterHasMetadata(key string) FilterFunc {
	return func(evt Event) bool {
		_, ok := evt.Metadata[key]
		return ok
	}
}

// FilterByTopic creates a filter that only allows events matching the topic pattern.
// This is useful when subscribing to a wildcard but wanting finer-grained control.
func FilterByTopic(pattern topic.Topic) FilterFunc {
	p := topic.Compile(pattern)
	return func(evt Event) bool {
		return p.Match(evt.Topic)
	}
}

// FilterByTopicPrefix creates a filter for events with topics starting with prefix.
func FilterByTopicPrefix(prefix string) FilterFunc {
	return func(evt Event) bool {
		return strings.HasPrefix(string(evt.Topic), prefix)
	}
}

// FilterExcludeTopic creates a filter that excludes events matching the topic pattern.
func FilterExcludeTopic(pattern topic.Topic) FilterFunc {
	return FilterNot(FilterByTopic(pattern))
}

// FilterByJSON creates a filter on a JSON view of the payload. path uses
// gjson syntax ("order.total", "items.#", "tags.0"). The event passes when the
// value at path, rendered as a string, equals want.
//
// Payloads of type []byte, json.RawMessage and string are treated as JSON
// documents; anything else is marshaled first.
func FilterByJSON(path string, want any) FilterFunc {
	wantStr := fmt.Sprint(want)
	return func(evt Event) bool {
		res, ok := lookupJSON(evt.Payload, path)
		return ok && res.String() == wantStr
	}
}

// FilterJSONExists creates a filter that allows events whose JSON payload
// has a value at path.
func FilterJSONExists(path string) FilterFunc {
	return func(evt Event) bool {
		_, ok := lookupJSON(evt.Payload, path)
		return ok
	}
}

// FilterJSON creates a filter from a predicate on the gjson result at path.
// Events without a value at path are rejected.
func FilterJSON(path string, predicate func(gjson.Result) bool) FilterFunc {
	return func(evt Event) bool {
		res, ok := lookupJSON(evt.Payload, path)
		return ok && predicate(res)
	}
}

func lookupJSON(payload any, path string) (gjson.Result, bool) {
	var doc []byte
	switch p := payload.(type) {
	case nil:
		return gjson.Result{}, false
	case json.RawMessage:
		doc = p
	case []byte:
		doc = p
	case string:
		doc = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return gjson.Result{}, false
		}
		doc = b
	}
	if !gjson.ValidBytes(doc) {
		return gjson.Result{}, false
	}
	res := gjson.GetBytes(doc, path)
	return res, res.Exists()
}

// FilterPayload creates a filter based on the payload.
// Events whose payload is not a T are rejected.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(evt Event) bool {
		payload, ok := evt.Payload.(T)
		return ok && predicate(payload)
	}
}

// FilterAnd combines multiple filters with AND logic.
// All filters must pass for the event to be delivered.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(evt Event) bool {
		for _, f := range filters {
			if !f(evt) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines multiple filters with OR logic.
// At least one filter must pass for the event to be delivered.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(evt Event) bool {
		for _, f := range filters {
			if f(evt) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(evt Event) bool {
		return !filter(evt)
	}
}
