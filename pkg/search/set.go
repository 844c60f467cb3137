package search

import "fmt"

// SetSpace is a set of discrete values with a polarity: an allow set is a
// whitelist the candidate must stay inside, a deny set is a blacklist the
// candidate must avoid. Items keep insertion order so check reasons and
// intersections are deterministic.
type SetSpace[T comparable] struct {
	IsAllow bool
	items   []T
	index   map[T]struct{}
}

// NewSetSpace builds a set space with the given polarity and items.
// Duplicate items are collapsed, first occurrence wins.
func NewSetSpace[T comparable](isAllow bool, items ...T) *SetSpace[T] {
	s := &SetSpace[T]{
		IsAllow: isAllow,
		index:   make(map[T]struct{}, len(items)),
	}
	for _, item := range items {
		s.add(item)
	}
	return s
}

func (s *SetSpace[T]) add(item T) {
	if _, ok := s.index[item]; ok {
		return
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
}

// Has reports whether the item is a member of the set.
func (s *SetSpace[T]) Has(item T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items in the set.
func (s *SetSpace[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the members in insertion order. The returned slice must not
// be mutated.
func (s *SetSpace[T]) Items() []T {
	if s == nil {
		return nil
	}
	return s.items
}

// Check verifies a candidate value set against this space. Under allow
// polarity every candidate item must be a member; under deny polarity no
// candidate item may be a member. The candidate is treated as a concrete set
// of offered values regardless of its own polarity flag.
func (s *SetSpace[T]) Check(candidate *SetSpace[T]) *ResultReason {
	result := NewResultReason()
	if s == nil || s.Len() == 0 {
		return result
	}
	if s.IsAllow {
		for _, item := range candidate.Items() {
			if !s.Has(item) {
				result.Add(false, fmt.Sprintf("%v is not an allowed value", item))
			}
		}
		return result
	}
	for _, item := range candidate.Items() {
		if s.Has(item) {
			result.Add(false, fmt.Sprintf("%v is an excluded value", item))
		}
	}
	return result
}

// Intersect combines two set spaces into the space that satisfies both.
// Two allow sets intersect to their common members. A mixed pair resolves to
// the allow representation: the deny side's members are subtracted from the
// allow side. Two deny sets merge into the union of exclusions.
func (s *SetSpace[T]) Intersect(other *SetSpace[T]) (*SetSpace[T], error) {
	if other == nil || other.Len() == 0 {
		return s, nil
	}
	if s == nil || s.Len() == 0 {
		return other, nil
	}
	switch {
	case s.IsAllow && other.IsAllow:
		merged := NewSetSpace[T](true)
		for _, item := range s.items {
			if other.Has(item) {
				merged.add(item)
			}
		}
		if merged.Len() == 0 {
			return nil, fmt.Errorf("%w: allow sets have no common value", ErrUnsatisfiable)
		}
		return merged, nil
	case s.IsAllow:
		return subtract(s, other)
	case other.IsAllow:
		return subtract(other, s)
	default:
		merged := NewSetSpace[T](false, s.items...)
		for _, item := range other.items {
			merged.add(item)
		}
		return merged, nil
	}
}

// subtract converts an allow/deny pair to allow representation.
func subtract[T comparable](allow, deny *SetSpace[T]) (*SetSpace[T], error) {
	merged := NewSetSpace[T](true)
	for _, item := range allow.items {
		if !deny.Has(item) {
			merged.add(item)
		}
	}
	if merged.Len() == 0 {
		return nil, fmt.Errorf("%w: deny set excludes every allowed value", ErrUnsatisfiable)
	}
	return merged, nil
}
