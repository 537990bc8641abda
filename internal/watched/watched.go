// Package watched tracks the items a user has marked as watched. Keys are
// composite "{mediaType}:{id}" strings: movie and TV IDs may collide
// numerically, so the numeric ID alone is never used as a key.
package watched

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

// Key builds the composite set key for one item.
func Key(mediaType tmdb.MediaType, id int) string {
	return fmt.Sprintf("%s:%d", mediaType, id)
}

// Set is an in-memory watched set. It is not safe for concurrent use; the
// session confines it to one request flow at a time.
type Set struct {
	keys map[string]struct{}
}

// NewSet returns an empty watched set.
func NewSet() *Set {
	return &Set{keys: make(map[string]struct{})}
}

// Mark adds an item to the set and reports whether the set changed. Marking
// an already-watched item is a no-op, so callers can skip the storage write.
func (s *Set) Mark(mediaType tmdb.MediaType, id int) bool {
	k := Key(mediaType, id)
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

// Toggle adds the item if absent, removes it otherwise, and reports whether
// the item is watched afterwards.
func (s *Set) Toggle(mediaType tmdb.MediaType, id int) bool {
	k := Key(mediaType, id)
	if _, ok := s.keys[k]; ok {
		delete(s.keys, k)
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

// IsWatched reports membership for one item.
func (s *Set) IsWatched(mediaType tmdb.MediaType, id int) bool {
	_, ok := s.keys[Key(mediaType, id)]
	return ok
}

// Len returns the number of watched items.
func (s *Set) Len() int { return len(s.keys) }

// Keys returns the sorted composite keys, for serialization and listing.
func (s *Set) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a JSON array of composite keys.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// ParseSet decodes a stored JSON array of composite keys. Malformed input
// degrades to an empty set rather than failing: a corrupt store must never
// break the session.
func ParseSet(raw string) *Set {
	s := NewSet()
	if raw == "" {
		return s
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return NewSet()
	}
	for _, k := range keys {
		if k != "" {
			s.keys[k] = struct{}{}
		}
	}
	return s
}
