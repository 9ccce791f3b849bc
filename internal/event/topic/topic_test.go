package topic

import (
	"testing"
)

func TestTopic_IsWildcard(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected bool
	}{
		{Topic("orders.created"), false},
		{Topic("orders.*"), true},
		{Topic("orders.#"), true},
		{Topic("#"), true},
		{Topic("*.created"), true},
		{Topic(""), false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsWildcard(); got != tt.expected {
			t.Errorf("%q.IsWildcard() = %v, want %v", tt.topic, got, tt.expected)
		}
	}
}

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		pattern Topic
		want    bool
	}{
		// Exact
		{"exact match", "orders.created", "orders.created", true},
		{"exact mismatch", "orders.created", "orders.deleted", false},
		{"exact is case sensitive", "orders.created", "Orders.created", false},
		{"exact prefix only", "orders.created.eu", "orders.created", false},

		// Single wildcard
		{"star one segment", "orders.created", "orders.*", true},
		{"star not two segments", "orders.created.eu", "orders.*", false},
		{"star not zero segments", "orders", "orders.*", false},
		{"star needs non-empty segment", "orders.", "orders.*", false},
		{"star leading", "orders.created", "*.created", true},
		{"star middle", "orders.created.eu", "orders.*.eu", true},
		{"star middle mismatch", "orders.created.us", "orders.*.eu", false},
		{"star alone", "orders", "*", true},
		{"star alone rejects dotted", "orders.created", "*", false},
		{"star inside segment", "orders.created", "orders.cre*", true},

		// Multi wildcard
		{"hash one segment", "orders.created", "orders.#", true},
		{"hash many segments", "orders.created.eu.x", "orders.#", true},
		{"hash keeps literal dot", "orders", "orders.#", false},
		{"hash empty tail", "orders.", "orders.#", true},
		{"hash alone matches all", "anything.at.all", "#", true},
		{"hash alone matches empty", "", "#", true},
		{"hash leading", "a.b.created", "#.created", true},
		{"hash leading mismatch", "a.b.deleted", "#.created", false},
		{"hash inside segment", "orders.created", "ord#", true},
		{"hash middle zero", "orders..eu", "orders.#.eu", true},
		{"hash middle many", "orders.a.b.eu", "orders.#.eu", true},

		// Mixed
		{"star and hash", "orders.created.eu.north", "*.created.#", true},
		{"plus is literal", "orderscreated", "orders+*", false},
		{"regex metachar exact", "a+b.c", "a+b.*", true},
		{"dot is literal", "ordersXcreated", "orders.*", false},
		{"hash crosses newline", "orders.a\nb", "orders.#", true},
		{"star crosses newline", "orders.a\nb", "orders.*", true},

		// Bytes that are not valid UTF-8
		{"invalid utf8 literal", "orders.\xff.created", "orders.\xff.*", true},
		{"invalid utf8 literal mismatch", "orders.\xfe.created", "orders.\xff.*", false},
		{"invalid utf8 star keeps segment", "orders.\xff.created.eu", "orders.\xff.*", false},
		{"invalid utf8 hash", "orders.\xff.created.eu", "orders.\xff.#", true},
		{"invalid utf8 topic under star", "orders.\xff", "orders.*", true},
		{"multibyte literal", "caf\u00e9.\xff", "caf\u00e9.*", true},
		{"invalid utf8 pattern with multibyte literal", "caf\u00e9.\xff.x", "caf\u00e9.\xff.*", true},
		{"invalid utf8 exact", "orders.\xff", "orders.\xff", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compile(tt.pattern).Match(tt.topic); got != tt.want {
				t.Errorf("Compile(%q).Match(%q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	p := Compile(Topic("orders.created"))
	if p.re != nil {
		t.Error("expected exact pattern to skip the regexp")
	}
	if !p.Match("orders.created") || p.Match("orders.created.eu") {
		t.Error("exact pattern must match only itself")
	}

	w := Compile(Topic("orders.*"))
	if w.re == nil {
		t.Error("expected wildcard pattern to compile a regexp")
	}
	if !w.Match("orders.created") {
		t.Error("expected orders.* to match orders.created")
	}
}

func TestCompile_InvalidUTF8DoesNotPanic(t *testing.T) {
	for _, pattern := range []Topic{"orders.\xff.*", "\xc3#", "#\x80", "*.\xed\xa0\x80"} {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Compile(%q) panicked: %v", pattern, r)
				}
			}()
			if p := Compile(pattern); !p.bytewise {
				t.Errorf("Compile(%q) expected a bytewise pattern", pattern)
			}
		}()
	}
}
