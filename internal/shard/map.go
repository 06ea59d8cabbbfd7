// Package shard provides a sharded concurrent map keyed by interned symbol
// handles. Operations on different shards proceed independently; operations
// on the same shard are mutually exclusive only for the duration of the
// single map operation, so many readers and occasional writers never
// serialize on one global lock.
package shard

import (
	"iter"
	"sync"
)

// Key is satisfied by the typed symbol handles: comparable, with a stable
// raw interner id used to pick the shard.
type Key interface {
	comparable
	Raw() uint32
}

// DefaultShards is the shard count used when the caller passes zero.
const DefaultShards = 8

// Map is a sharded map from K to V.
type Map[K Key, V any] struct {
	shards []mapShard[K, V]
	mask   uint32
}

type mapShard[K Key, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap creates a map with shardCount shards, rounded up to a power of
// two. Zero or negative means DefaultShards.
func NewMap[K Key, V any](shardCount int) *Map[K, V] {
	if shardCount <= 0 {
		shardCount = DefaultShards
	}
	n := 1
	for n < shardCount {
		n <<= 1
	}
	m := &Map[K, V]{
		shards: make([]mapShard[K, V], n),
		mask:   uint32(n - 1),
	}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) shard(key K) *mapShard[K, V] {
	// Interner ids are sequential, so masking spreads keys evenly without
	// an extra hash.
	return &m.shards[key.Raw()&m.mask]
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shard(key)
	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	return v, ok
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	s := m.shard(key)
	s.mu.RLock()
	_, ok := s.m[key]
	s.mu.RUnlock()
	return ok
}

// Insert stores value under key only if the key is absent, and reports
// whether it inserted. An existing entry is never overwritten.
func (m *Map[K, V]) Insert(key K, value V) bool {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = value
	return true
}

// Delete removes key, returning the removed value.
func (m *Map[K, V]) Delete(key K) (V, bool) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	return v, ok
}

// Mutate runs fn on the entry for key while holding the shard's write
// lock. fn receives the current value (zero when absent) and reports the
// new value and whether to keep the entry; returning keep=false deletes
// it. This is how inverted-index sets are created and updated in place.
func (m *Map[K, V]) Mutate(key K, fn func(cur V, ok bool) (V, bool)) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[key]
	next, keep := fn(cur, ok)
	if keep {
		s.m[key] = next
	} else if ok {
		delete(s.m, key)
	}
}

// View runs fn on the value for key while holding the shard's read lock,
// so the value may be inspected without racing concurrent Mutate calls.
// fn is not called when the key is absent.
func (m *Map[K, V]) View(key K, fn func(V)) bool {
	s := m.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Len returns the total number of entries across all shards.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// All returns a lazy sequence over every entry. Each shard is snapshotted
// under its read lock as iteration reaches it, so the sequence never holds
// a lock while yielding and tolerates concurrent writers; entries written
// mid-iteration may or may not appear.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.shards {
			s := &m.shards[i]
			s.mu.RLock()
			keys := make([]K, 0, len(s.m))
			vals := make([]V, 0, len(s.m))
			for k, v := range s.m {
				keys = append(keys, k)
				vals = append(vals, v)
			}
			s.mu.RUnlock()
			for j, k := range keys {
				if !yield(k, vals[j]) {
					return
				}
			}
		}
	}
}
