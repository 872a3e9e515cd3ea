// Package result defines the set of values a group of actions produces.
// Expressions compare these sets; members are plain strings, so two
// actions yielding equal values count as one member.
package result

import "sort"

// Set is an unordered collection of distinct result values.
type Set map[string]struct{}

// New builds a Set from the given members.
func New(members ...string) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Add inserts members into the set.
func (s Set) Add(members ...string) {
	for _, m := range members {
		s[m] = struct{}{}
	}
}

// Contains reports whether m is a member.
func (s Set) Contains(m string) bool {
	_, ok := s[m]
	return ok
}

// Len returns the member count.
func (s Set) Len() int { return len(s) }

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool { return len(s) == 0 }

// Members returns the members in sorted order.
func (s Set) Members() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Union returns s ∪ t.
func (s Set) Union(t Set) Set {
	out := make(Set, len(s)+len(t))
	for m := range s {
		out[m] = struct{}{}
	}
	for m := range t {
		out[m] = struct{}{}
	}
	return out
}

// Intersect returns s ∩ t.
func (s Set) Intersect(t Set) Set {
	out := make(Set)
	for m := range s {
		if t.Contains(m) {
			out[m] = struct{}{}
		}
	}
	return out
}

// Difference returns s \ t.
func (s Set) Difference(t Set) Set {
	out := make(Set)
	for m := range s {
		if !t.Contains(m) {
			out[m] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference returns the members in exactly one of s and t.
func (s Set) SymmetricDifference(t Set) Set {
	out := make(Set)
	for m := range s {
		if !t.Contains(m) {
			out[m] = struct{}{}
		}
	}
	for m := range t {
		if !s.Contains(m) {
			out[m] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and t have the same members.
func (s Set) Equal(t Set) bool {
	if len(s) != len(t) {
		return false
	}
	for m := range s {
		if !t.Contains(m) {
			return false
		}
	}
	return true
}

// SubsetOf reports s ⊆ t.
func (s Set) SubsetOf(t Set) bool {
	for m := range s {
		if !t.Contains(m) {
			return false
		}
	}
	return true
}

// ProperSubsetOf reports s ⊂ t.
func (s Set) ProperSubsetOf(t Set) bool {
	return len(s) < len(t) && s.SubsetOf(t)
}
