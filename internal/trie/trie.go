// Package trie implements a byte-wise prefix trie with ordered prefix
// iteration. It backs the unqualified-id search in the symbol indices:
// many interned ids can share one key, so values are typically sets.
package trie

import "iter"

// Trie maps string keys to values of type V. Children are kept in
// label-sorted order so prefix iteration is lexicographic.
//
// Trie is single-threaded; the owning index guards it with a read-write
// lock (reads dominate writes by orders of magnitude, and structural
// mutation cannot be sharded as cheaply as a hash map).
type Trie[V any] struct {
	root node[V]
	size int
}

type node[V any] struct {
	edges []edge[V] // sorted by label
	value V
	has   bool
}

type edge[V any] struct {
	label byte
	child *node[V]
}

// New returns an empty trie.
func New[V any]() *Trie[V] {
	return &Trie[V]{}
}

// Len returns the number of keys that hold a value.
func (t *Trie[V]) Len() int { return t.size }

// find returns the index of label in n.edges, or the insertion point with
// ok=false.
func (n *node[V]) find(label byte) (int, bool) {
	lo, hi := 0, len(n.edges)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.edges[mid].label < label {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(n.edges) && n.edges[lo].label == label
}

// Get returns the value stored under key.
func (t *Trie[V]) Get(key string) (V, bool) {
	n := &t.root
	for i := 0; i < len(key); i++ {
		idx, ok := n.find(key[i])
		if !ok {
			var zero V
			return zero, false
		}
		n = n.edges[idx].child
	}
	if !n.has {
		var zero V
		return zero, false
	}
	return n.value, true
}

// GetOrInsert returns the value stored under key, calling mk to create it
// when the key is absent. This is the or_insert entry point used when
// populating: callers fetch the set for a key once and mutate it in place.
func (t *Trie[V]) GetOrInsert(key string, mk func() V) V {
	n := &t.root
	for i := 0; i < len(key); i++ {
		idx, ok := n.find(key[i])
		if !ok {
			child := &node[V]{}
			n.edges = append(n.edges, edge[V]{})
			copy(n.edges[idx+1:], n.edges[idx:])
			n.edges[idx] = edge[V]{label: key[i], child: child}
			n = child
			continue
		}
		n = n.edges[idx].child
	}
	if !n.has {
		n.value = mk()
		n.has = true
		t.size++
	}
	return n.value
}

// Delete removes the value stored under key and reports whether it was
// present. Interior nodes are not pruned; the trie only ever shrinks by
// value count, which is fine for workspace lifetimes.
func (t *Trie[V]) Delete(key string) bool {
	n := &t.root
	for i := 0; i < len(key); i++ {
		idx, ok := n.find(key[i])
		if !ok {
			return false
		}
		n = n.edges[idx].child
	}
	if !n.has {
		return false
	}
	var zero V
	n.value = zero
	n.has = false
	t.size--
	return true
}

// IterPrefix returns a lazy sequence of every (key, value) entry whose key
// starts with prefix, in lexicographic key order. The sequence is
// restartable; each range re-walks the trie.
func (t *Trie[V]) IterPrefix(prefix string) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		n := &t.root
		for i := 0; i < len(prefix); i++ {
			idx, ok := n.find(prefix[i])
			if !ok {
				return
			}
			n = n.edges[idx].child
		}
		buf := make([]byte, len(prefix), len(prefix)+16)
		copy(buf, prefix)
		n.walk(buf, yield)
	}
}

// All iterates every entry in lexicographic key order.
func (t *Trie[V]) All() iter.Seq2[string, V] {
	return t.IterPrefix("")
}

func (n *node[V]) walk(buf []byte, yield func(string, V) bool) bool {
	if n.has && !yield(string(buf), n.value) {
		return false
	}
	for _, e := range n.edges {
		if !e.child.walk(append(buf, e.label), yield) {
			return false
		}
	}
	return true
}
