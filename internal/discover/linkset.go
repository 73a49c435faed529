package discover

import (
	"sort"
	"sync"

	"github.com/law-makers/immocrawl/pkg/models"
)

// LinkSet is the deduplicated set of discovered listing links
type LinkSet struct {
	mu    sync.RWMutex
	links map[models.ListingLink]struct{}
}

// NewLinkSet creates a set holding links
func NewLinkSet(links ...models.ListingLink) *LinkSet {
	s := &LinkSet{links: make(map[models.ListingLink]struct{}, len(links))}
	for _, l := range links {
		s.links[l] = struct{}{}
	}
	return s
}

// Add inserts link and reports whether it was new
func (s *LinkSet) Add(link models.ListingLink) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[link]; ok {
		return false
	}
	s.links[link] = struct{}{}
	return true
}

// Merge adds every link and returns how many were not already present
func (s *LinkSet) Merge(links []models.ListingLink) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, l := range links {
		if _, ok := s.links[l]; ok {
			continue
		}
		s.links[l] = struct{}{}
		added++
	}
	return added
}

func (s *LinkSet) Contains(link models.ListingLink) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[link]
	return ok
}

func (s *LinkSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// Sorted returns the links in ascending order
func (s *LinkSet) Sorted() []models.ListingLink {
	s.mu.RLock()
	out := make([]models.ListingLink, 0, len(s.links))
	for l := range s.links {
		out = append(out, l)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}
