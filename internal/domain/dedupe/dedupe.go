// Package dedupe tracks which keys have already been seen.
package dedupe

import "strings"

// keySep joins composite key parts. It is the ASCII unit separator, which
// cannot appear in a CSV cell read by the loader without quoting tricks.
const keySep = "\x1f"

// Key builds a composite key from parts.
func Key(parts ...string) string {
	return strings.Join(parts, keySep)
}

// Set records seen keys. It is not safe for concurrent use; every
// pipeline stage owns its own Set.
type Set struct {
	seen       map[string]struct{}
	duplicates int
}

// New creates an empty Set.
func New(opts ...Option) *Set {
	o := options{capacity: 0}
	for _, opt := range opts {
		opt(&o)
	}
	return &Set{seen: make(map[string]struct{}, o.capacity)}
}

// SeenAndRecord reports whether key was already seen and records it if not.
func (s *Set) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		s.duplicates++
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Size returns the number of distinct keys recorded.
func (s *Set) Size() int {
	return len(s.seen)
}

// Duplicates returns how many SeenAndRecord calls hit an existing key.
func (s *Set) Duplicates() int {
	return s.duplicates
}
