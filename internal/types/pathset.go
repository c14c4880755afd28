package types

import "sort"

// PathSet is an unordered set of media-root relative paths using '/'
// separators.
type PathSet map[string]struct{}

// NewPathSet builds a set from the given paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p.
func (s PathSet) Add(p string) {
	s[p] = struct{}{}
}

// Has reports whether p is a member.
func (s PathSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of members.
func (s PathSet) Len() int {
	return len(s)
}

// Difference returns the members of s that are not in other.
func (s PathSet) Difference(other PathSet) PathSet {
	out := make(PathSet)
	for p := range s {
		if !other.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order. Callers use it for stable
// batching and output only; set semantics never depend on order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
