package precheck

import "sort"

// Set is an unordered collection of device paths or names.
type Set map[string]struct{}

// NewSet returns a Set holding items. Duplicates collapse.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Contains reports whether item is in s.
func (s Set) Contains(item string) bool {
	_, ok := s[item]
	return ok
}

// Add inserts item.
func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// Difference returns the members of s not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for item := range s {
		if !other.Contains(item) {
			out.Add(item)
		}
	}
	return out
}

// Intersection returns the members of s also in other.
func (s Set) Intersection(other Set) Set {
	out := make(Set)
	for item := range s {
		if other.Contains(item) {
			out.Add(item)
		}
	}
	return out
}

// Equal reports whether s and other have the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for item := range s {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
