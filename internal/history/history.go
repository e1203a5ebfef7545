// Package history keeps the most recently visited locations, newest
// first.
package history

// DefaultCapacity bounds the list; the oldest entry is evicted when a
// new location would exceed it.
const DefaultCapacity = 100

type Store struct {
	entries  []string
	capacity int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Record moves location to the front, dropping any earlier occurrence.
// Empty locations are ignored.
func (s *Store) Record(location string) {
	if location == "" {
		return
	}
	for i, e := range s.entries {
		if e == location {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.entries = append([]string{location}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
}

// List returns the entries newest first. The caller owns the returned
// slice.
func (s *Store) List() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int { return len(s.entries) }

// Replace swaps in a previously saved snapshot, trimming to capacity.
func (s *Store) Replace(entries []string) {
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	s.entries = make([]string, len(entries))
	copy(s.entries, entries)
}
