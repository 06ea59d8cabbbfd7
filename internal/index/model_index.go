package index

import (
	"iter"
	"sync"

	"github.com/petrel-ls/petrel/internal/shard"
	"github.com/petrel-ls/petrel/internal/symbols"
	"github.com/petrel-ls/petrel/internal/trie"
)

// ModelSet is a set of interned model names.
type ModelSet = symbols.Set[symbols.ModelTag]

// ModelIndex stores declared models: a sharded primary store, an inverted
// index from a base model to the models extending it, and a prefix trie
// over the dotted model names. Structurally it mirrors RecordIndex with
// the record-specific indices swapped for inheritance-by-name.
type ModelIndex struct {
	models    *shard.Map[symbols.ModelName, *Model]
	byInherit *shard.Map[symbols.ModelName, *ModelSet]

	prefixMu sync.RWMutex
	byPrefix *trie.Trie[*ModelSet]
}

// NewModelIndex creates an empty model index.
func NewModelIndex(shards int) *ModelIndex {
	return &ModelIndex{
		models:    shard.NewMap[symbols.ModelName, *Model](shards),
		byInherit: shard.NewMap[symbols.ModelName, *ModelSet](shards),
		byPrefix:  trie.New[*ModelSet](),
	}
}

// Insert adds a model under its interned name, first-write-wins like the
// record store. Inheritance edges are indexed before the primary commit.
func (x *ModelIndex) Insert(name symbols.ModelName, model *Model) {
	if x.models.Contains(name) {
		return
	}
	for _, base := range model.Inherits {
		if base.Valid() && base != name {
			x.byInherit.Mutate(base, addToSet(name))
		}
	}
	x.prefixMu.Lock()
	set := x.byPrefix.GetOrInsert(model.Name, func() *ModelSet { return &ModelSet{} })
	set.Insert(name)
	x.prefixMu.Unlock()
	x.models.Insert(name, model)
}

// Append interns each model's name and inserts it.
func (x *ModelIndex) Append(models iter.Seq[Model]) {
	for model := range models {
		m := model
		x.Insert(symbols.InternModel(m.Name), &m)
	}
}

// Get is the pass-through primary lookup.
func (x *ModelIndex) Get(name symbols.ModelName) (*Model, bool) {
	return x.models.Get(name)
}

// Len returns the number of models in the primary store.
func (x *ModelIndex) Len() int { return x.models.Len() }

// All iterates the primary store.
func (x *ModelIndex) All() iter.Seq2[symbols.ModelName, *Model] {
	return x.models.All()
}

// ByInherit returns the models extending base, resolved against the
// primary store with stale names skipped.
func (x *ModelIndex) ByInherit(base symbols.ModelName) iter.Seq2[symbols.ModelName, *Model] {
	return func(yield func(symbols.ModelName, *Model) bool) {
		for _, name := range setSnapshot(x.byInherit, base) {
			if m, ok := x.models.Get(name); ok {
				if !yield(name, m) {
					return
				}
			}
		}
	}
}

// IterPrefix iterates model-name entries starting with prefix in
// lexicographic order, holding the trie read lock for the loop.
func (x *ModelIndex) IterPrefix(prefix string) iter.Seq2[string, []symbols.ModelName] {
	return func(yield func(string, []symbols.ModelName) bool) {
		x.prefixMu.RLock()
		defer x.prefixMu.RUnlock()
		for key, set := range x.byPrefix.IterPrefix(prefix) {
			ids := make([]symbols.ModelName, 0, set.Len())
			for id := range set.All() {
				ids = append(ids, id)
			}
			if !yield(key, ids) {
				return
			}
		}
	}
}

// Remove deletes the model and its derived entries, primary first.
func (x *ModelIndex) Remove(name symbols.ModelName) (*Model, bool) {
	model, ok := x.models.Delete(name)
	if !ok {
		return nil, false
	}
	for _, base := range model.Inherits {
		if base.Valid() && base != name {
			x.byInherit.Mutate(base, dropFromSet(name))
		}
	}
	x.prefixMu.Lock()
	if set, found := x.byPrefix.Get(model.Name); found {
		set.Remove(name)
		if set.Len() == 0 {
			x.byPrefix.Delete(model.Name)
		}
	}
	x.prefixMu.Unlock()
	return model, true
}

// RemoveByPath removes every model declared in the given file.
func (x *ModelIndex) RemoveByPath(path string) int {
	var stale []symbols.ModelName
	for name, m := range x.models.All() {
		if m.Location.Path == path {
			stale = append(stale, name)
		}
	}
	for _, name := range stale {
		x.Remove(name)
	}
	return len(stale)
}
