package utils

import "sync"

// IDSet is a thread-safe set for tracking processed listing identifiers.
type IDSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewIDSet creates an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{seen: make(map[string]struct{})}
}

// Add returns true if the id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Contains returns true if the id is in the set.
func (s *IDSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[id]
	return exists
}

// Size returns the number of unique ids tracked.
func (s *IDSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Values returns a snapshot of the ids in the set.
func (s *IDSet) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	return out
}

// Intersect returns a new set holding the ids present in every given set.
// An empty input yields an empty set.
func Intersect(sets ...*IDSet) *IDSet {
	result := NewIDSet()
	if len(sets) == 0 {
		return result
	}

	for _, id := range sets[0].Values() {
		inAll := true
		for _, other := range sets[1:] {
			if !other.Contains(id) {
				inAll = false
				break
			}
		}
		if inAll {
			result.Add(id)
		}
	}
	return result
}
