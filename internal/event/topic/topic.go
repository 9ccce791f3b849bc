package topic

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Topic is a dot-delimited event subject or subscription pattern.
// Examples: "orders.created", "orders.*", "payments.#".
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments, including separators.
	WildcardMulti = "#"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// IsWildcard returns true if the topic contains any wildcard characters.
func (t Topic) IsWildcard() bool {
	return strings.ContainsAny(string(t), WildcardSingle+WildcardMulti)
}

// Pattern is a compiled subscription pattern.
type Pattern struct {
	source Topic
	re     *regexp.Regexp // nil for exact patterns

	// bytewise patterns were compiled from invalid UTF-8 and match topics
	// byte by byte.
	bytewise bool
}

// Compile converts a pattern into its matcher form. "*" becomes "[^.]+",
// "#" becomes ".*" (newlines included), every other byte is literal, and the
// expression is anchored at both ends.
//
// Patterns that are not valid UTF-8 are compiled over their bytes, each byte
// standing for the rune of the same value, and topics are read the same way
// when matched.
func Compile(pattern Topic) Pattern {
	if !pattern.IsWildcard() {
		return Pattern{source: pattern}
	}

	s := string(pattern)
	bytewise := !utf8.ValidString(s)
	if bytewise {
		s = widen(s)
	}

	var b strings.Builder
	b.WriteString(`(?s)^`)
	lit := 0
	for i := 0; i < len(s); i++ {
		var repl string
		switch s[i] {
		case '*':
			repl = `[^.]+`
		case '#':
			repl = `.*`
		default:
			continue
		}
		b.WriteString(regexp.QuoteMeta(s[lit:i]))
		b.WriteString(repl)
		lit = i + 1
	}
	b.WriteString(regexp.QuoteMeta(s[lit:]))
	b.WriteString(`$`)

	return Pattern{
		source:   pattern,
		re:       regexp.MustCompile(b.String()),
		bytewise: bytewise,
	}
}

// Match reports whether the concrete topic is matched by the pattern.
func (p Pattern) Match(t Topic) bool {
	if p.re == nil {
		return t == p.source
	}
	if p.bytewise {
		return p.re.MatchString(widen(string(t)))
	}
	return p.re.MatchString(string(t))
}

// widen maps every byte of s to the rune with the same value, so arbitrary
// bytes become valid UTF-8 while '.', '*' and '#' keep their meaning.
func widen(s string) string {
	var b strings.Builder
	b.Grow(2 * len(s))
	for i := 0; i < len(s); i++ {
		b.WriteRune(rune(s[i]))
	}
	return b.String()
}
