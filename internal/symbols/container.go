package symbols

import "iter"

// Map is a container keyed by Symbol[K], backed by a flat integer map so
// lookups never re-hash the underlying string. Iteration order is the
// integer map's order, not insertion order.
//
// Map is single-threaded by contract. Concurrent users wrap it in a sharded
// map or a read-write lock; it never locks internally.
type Map[K any, V any] struct {
	m map[uint32]V
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key Symbol[K]) (V, bool) {
	v, ok := m.m[key.id]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[K, V]) Set(key Symbol[K], value V) {
	if m.m == nil {
		m.m = make(map[uint32]V)
	}
	m.m[key.id] = value
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key Symbol[K]) bool {
	if _, ok := m.m[key.id]; !ok {
		return false
	}
	delete(m.m, key.id)
	return true
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.m) }

// Keys returns a lazy, restartable sequence of the stored keys. Every raw
// key in the map came from an interned Symbol, so the conversion back is
// checked and panics on corruption rather than yielding a bogus handle.
func (m *Map[K, V]) Keys() iter.Seq[Symbol[K]] {
	return func(yield func(Symbol[K]) bool) {
		for raw := range m.m {
			if !yield(FromRaw[K](raw)) {
				return
			}
		}
	}
}

// All returns a lazy sequence of (key, value) pairs.
func (m *Map[K, V]) All() iter.Seq2[Symbol[K], V] {
	return func(yield func(Symbol[K], V) bool) {
		for raw, v := range m.m {
			if !yield(FromRaw[K](raw), v) {
				return
			}
		}
	}
}

// Set is a Map with empty values: a set of typed symbols.
type Set[K any] struct {
	Map[K, struct{}]
}

// Insert adds key and reports whether it was newly inserted. Presence is
// never overwritten; inserting an existing key is a no-op.
func (s *Set[K]) Insert(key Symbol[K]) bool {
	if _, ok := s.m[key.id]; ok {
		return false
	}
	s.Map.Set(key, struct{}{})
	return true
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key Symbol[K]) bool {
	_, ok := s.m[key.id]
	return ok
}

// Remove deletes key and reports whether it was present.
func (s *Set[K]) Remove(key Symbol[K]) bool {
	return s.Map.Delete(key)
}

// Extend bulk-inserts every symbol from seq, ignoring duplicates.
func (s *Set[K]) Extend(seq iter.Seq[Symbol[K]]) {
	for key := range seq {
		s.Insert(key)
	}
}

// All returns a lazy sequence of the members.
func (s *Set[K]) All() iter.Seq[Symbol[K]] {
	return s.Keys()
}
