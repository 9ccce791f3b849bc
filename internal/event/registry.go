package event

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dshills/evbus/internal/event/topic"
)

// Registry maps topic patterns to their registrations.
//
// Every read and write takes the same exclusive lock, and only for the map
// access itself; the lock is never held while a handler runs.
type Registry struct {
	mu      sync.Mutex
	subs    map[topic.Topic][]*registration
	byID    map[string]*registration
	matcher *topic.Matcher
	seq     uint64
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		subs:    make(map[topic.Topic][]*registration),
		byID:    make(map[string]*registration),
		matcher: topic.NewMatcher(),
	}
}

// add appends a registration under its pattern.
func (r *Registry) add(reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	reg.seq = r.seq

	if len(r.subs[reg.pattern]) == 0 {
		r.matcher.Add(reg.pattern)
	}
	r.subs[reg.pattern] = append(r.subs[reg.pattern], reg)
	r.byID[reg.id] = reg
}

// Remove removes the registration with the given ID from the given pattern.
// It returns false if the pattern has no such registration.
func (r *Registry) Remove(pattern topic.Topic, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(pattern, id)
}

// removeLocked drops one registration and the pattern key if it empties.
// r.mu must be held.
func (r *Registry) removeLocked(pattern topic.Topic, id string) bool {
	subs, ok := r.subs[pattern]
	if !ok {
		return false
	}

	i := slices.IndexFunc(subs, func(s *registration) bool { return s.id == id })
	if i < 0 {
		return false
	}

	subs = slices.Delete(subs, i, i+1)
	if len(subs) == 0 {
		delete(r.subs, pattern)
		r.matcher.Remove(pattern)
	} else {
		r.subs[pattern] = subs
	}
	delete(r.byID, id)
	return true
}

// removeAll removes a batch of registrations in one critical section.
// Registrations already gone are ignored.
func (r *Registry) removeAll(regs []*registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range regs {
		r.removeLocked(reg.pattern, reg.id)
	}
}

// match returns every registration whose pattern matches the topic, pooled
// across patterns and sorted into dispatch order: priority descending, then
// registration order.
func (r *Registry) match(eventTopic topic.Topic) []*registration {
	r.mu.Lock()
	patterns := r.matcher.Match(eventTopic)
	var all []*registration
	for _, p := range patterns {
		all = append(all, r.subs[p]...)
	}
	r.mu.Unlock()

	sortForDispatch(all)
	return all
}

func sortForDispatch(regs []*registration) {
	slices.SortFunc(regs, func(a, b *registration) int {
		if c := cmp.Compare(b.config.Priority, a.config.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

// List returns a snapshot of the registrations per pattern, each list in
// dispatch order. With arguments, only those exact patterns are included.
func (r *Registry) List(patterns ...topic.Topic) map[topic.Topic][]SubscriberInfo {
	r.mu.Lock()
	selected := make(map[topic.Topic][]*registration)
	if len(patterns) == 0 {
		for p, subs := range r.subs {
			selected[p] = slices.Clone(subs)
		}
	} else {
		for _, p := range patterns {
			if subs, ok := r.subs[p]; ok {
				selected[p] = slices.Clone(subs)
			}
		}
	}
	r.mu.Unlock()

	out := make(map[topic.Topic][]SubscriberInfo, len(selected))
	for p, subs := range selected {
		sortForDispatch(subs)
		infos := make([]SubscriberInfo, len(subs))
		for i, s := range subs {
			infos[i] = s.info()
		}
		out[p] = infos
	}
	return out
}

// Count returns the total number of registrations.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byID)
}

// Clear removes all registrations.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = make(map[topic.Topic][]*registration)
	r.byID = make(map[string]*registration)
	r.matcher.Clear()
}
