// Package topic provides dot-delimited topic types and wildcard pattern
// matching for the event bus.
//
// # Topic Format
//
// Topics use dot notation to build hierarchical namespaces:
//
//	orders.created
//	orders.created.eu
//	payments.refund.requested
//
// # Wildcards
//
// Two wildcards are supported in subscription patterns:
//
//   - "*" matches exactly one segment (one or more characters, no dots)
//   - "#" matches zero or more characters, crossing segment boundaries
//     and newlines
//
// A pattern matches a topic when the whole topic is matched end to end.
// Everything other than a wildcard is compared literally and case-sensitively.
//
// Examples:
//
//	orders.*          matches orders.created (not orders.created.eu, not orders)
//	orders.#          matches orders.created, orders.created.eu, orders.
//	*.created         matches orders.created, users.created
//	#                 matches everything, including the empty topic
//	orders.created    matches only orders.created
//
// # Usage
//
//	m := topic.NewMatcher()
//	m.Add(topic.Topic("orders.*"))
//	m.Add(topic.Topic("orders.created"))
//
//	matches := m.Match(topic.Topic("orders.created"))
//	// matches contains both patterns
package topic
