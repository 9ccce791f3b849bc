package topic

import "sync"

// Matcher resolves a concrete topic to the set of registered patterns that
// match it. Exact patterns are looked up directly; wildcard patterns are
// compiled once on Add and tested in turn. It is safe for concurrent use.
type Matcher struct {
	mu       sync.RWMutex
	exact    map[Topic]struct{}
	wildcard map[Topic]Pattern
}

// NewMatcher creates a new topic matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		exact:    make(map[Topic]struct{}),
		wildcard: make(map[Topic]Pattern),
	}
}

// Add adds a pattern to the matcher. Adding an existing pattern is a no-op.
func (m *Matcher) Add(pattern Topic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !pattern.IsWildcard() {
		m.exact[pattern] = struct{}{}
		return
	}
	if _, ok := m.wildcard[pattern]; ok {
		return
	}
	m.wildcard[pattern] = Compile(pattern)
}

// Remove removes a pattern from the matcher.
func (m *Matcher) Remove(pattern Topic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.exact, pattern)
	delete(m.wildcard, pattern)
}

// Match returns all patterns that match the given topic.
// The topic is treated literally, wildcard characters in it have no meaning.
func (m *Matcher) Match(eventTopic Topic) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Topic
	if _, ok := m.exact[eventTopic]; ok {
		matches = append(matches, eventTopic)
	}
	for src, p := range m.wildcard {
		if p.Match(eventTopic) {
			matches = append(matches, src)
		}
	}
	return matches
}

// Clear removes all patterns from the matcher.
func (m *Matcher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exact = make(map[Topic]struct{})
	m.wildcard = make(map[Topic]Pattern)
}
