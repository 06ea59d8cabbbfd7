package index

import (
	"iter"
	"sync"

	"github.com/petrel-ls/petrel/internal/shard"
	"github.com/petrel-ls/petrel/internal/symbols"
	"github.com/petrel-ls/petrel/internal/trie"
)

// ComponentSet is a set of interned component names.
type ComponentSet = symbols.Set[symbols.ComponentTag]

// ComponentIndex stores declared UI components with an inverted index on
// the extended parent and a prefix trie over component names.
type ComponentIndex struct {
	components *shard.Map[symbols.ComponentName, *Component]
	byExtends  *shard.Map[symbols.ComponentName, *ComponentSet]

	prefixMu sync.RWMutex
	byPrefix *trie.Trie[*ComponentSet]
}

// NewComponentIndex creates an empty component index.
func NewComponentIndex(shards int) *ComponentIndex {
	return &ComponentIndex{
		components: shard.NewMap[symbols.ComponentName, *Component](shards),
		byExtends:  shard.NewMap[symbols.ComponentName, *ComponentSet](shards),
		byPrefix:   trie.New[*ComponentSet](),
	}
}

// Insert adds a component under its interned name, first-write-wins.
func (x *ComponentIndex) Insert(name symbols.ComponentName, comp *Component) {
	if x.components.Contains(name) {
		return
	}
	if comp.Extends.Valid() && comp.Extends != name {
		x.byExtends.Mutate(comp.Extends, addToSet(name))
	}
	x.prefixMu.Lock()
	set := x.byPrefix.GetOrInsert(comp.Name, func() *ComponentSet { return &ComponentSet{} })
	set.Insert(name)
	x.prefixMu.Unlock()
	x.components.Insert(name, comp)
}

// Append interns each component's name and inserts it.
func (x *ComponentIndex) Append(components iter.Seq[Component]) {
	for comp := range components {
		c := comp
		x.Insert(symbols.InternComponent(c.Name), &c)
	}
}

// Get is the pass-through primary lookup.
func (x *ComponentIndex) Get(name symbols.ComponentName) (*Component, bool) {
	return x.components.Get(name)
}

// Len returns the number of components in the primary store.
func (x *ComponentIndex) Len() int { return x.components.Len() }

// All iterates the primary store.
func (x *ComponentIndex) All() iter.Seq2[symbols.ComponentName, *Component] {
	return x.components.All()
}

// ByExtends returns the components extending parent.
func (x *ComponentIndex) ByExtends(parent symbols.ComponentName) iter.Seq2[symbols.ComponentName, *Component] {
	return func(yield func(symbols.ComponentName, *Component) bool) {
		for _, name := range setSnapshot(x.byExtends, parent) {
			if c, ok := x.components.Get(name); ok {
				if !yield(name, c) {
					return
				}
			}
		}
	}
}

// IterPrefix iterates component-name entries starting with prefix in
// lexicographic order.
func (x *ComponentIndex) IterPrefix(prefix string) iter.Seq2[string, []symbols.ComponentName] {
	return func(yield func(string, []symbols.ComponentName) bool) {
		x.prefixMu.RLock()
		defer x.prefixMu.RUnlock()
		for key, set := range x.byPrefix.IterPrefix(prefix) {
			ids := make([]symbols.ComponentName, 0, set.Len())
			for id := range set.All() {
				ids = append(ids, id)
			}
			if !yield(key, ids) {
				return
			}
		}
	}
}

// Remove deletes the component and its derived entries, primary first.
func (x *ComponentIndex) Remove(name symbols.ComponentName) (*Component, bool) {
	comp, ok := x.components.Delete(name)
	if !ok {
		return nil, false
	}
	if comp.Extends.Valid() && comp.Extends != name {
		x.byExtends.Mutate(comp.Extends, dropFromSet(name))
	}
	x.prefixMu.Lock()
	if set, found := x.byPrefix.Get(comp.Name); found {
		set.Remove(name)
		if set.Len() == 0 {
			x.byPrefix.Delete(comp.Name)
		}
	}
	x.prefixMu.Unlock()
	return comp, true
}

// RemoveByPath removes every component declared in the given file.
func (x *ComponentIndex) RemoveByPath(path string) int {
	var stale []symbols.ComponentName
	for name, c := range x.components.All() {
		if c.Location.Path == path {
			stale = append(stale, name)
		}
	}
	for _, name := range stale {
		x.Remove(name)
	}
	return len(stale)
}
