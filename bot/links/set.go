package links

import (
	"sort"
	"sync"
)

// Set holds the invite links seen during this run. It only grows and is never
// persisted.
type Set struct {
	mu    sync.RWMutex
	links map[string]struct{}
}

// NewSet creates an empty link set.
func NewSet() *Set {
	return &Set{links: make(map[string]struct{})}
}

// Add stores link and reports whether it was new.
func (s *Set) Add(link string) bool {
	if link == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[link]; ok {
		return false
	}
	s.links[link] = struct{}{}
	return true
}

// Contains reports whether link has been captured.
func (s *Set) Contains(link string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[link]
	return ok
}

// Len returns the number of distinct links.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// List returns the links in lexical order.
func (s *Set) List() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.links))
	for l := range s.links {
		out = append(out, l)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
