package model

// OrderedSet is an insertion-ordered, uniqueness-enforcing collection.
// Line numbers, attributed commits and accumulated CWE identifiers all need
// dedup with a stable, reproducible iteration order, so the order is part of
// the contract rather than an accident of map iteration.
type OrderedSet[T comparable] struct {
	values []T
	index  map[T]struct{}
}

// NewOrderedSet creates an ordered set seeded with the given values.
func NewOrderedSet[T comparable](values ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]struct{}, len(values))}
	s.Add(values...)
	return s
}

// Add appends values that are not yet present, keeping first-insertion order.
func (s *OrderedSet[T]) Add(values ...T) {
	for _, v := range values {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.values = append(s.values, v)
	}
}

// Has reports whether v is in the set.
func (s *OrderedSet[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Values returns the members in insertion order. The slice is a copy.
func (s *OrderedSet[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of members.
func (s *OrderedSet[T]) Len() int {
	return len(s.values)
}

// IsEmpty reports whether the set has no members.
func (s *OrderedSet[T]) IsEmpty() bool {
	return len(s.values) == 0
}
