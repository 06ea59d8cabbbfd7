package index

import (
	"iter"
	"slices"
	"sync"

	"github.com/petrel-ls/petrel/internal/shard"
	"github.com/petrel-ls/petrel/internal/symbols"
	"github.com/petrel-ls/petrel/internal/trie"
)

// RecordSet is a set of interned record ids.
type RecordSet = symbols.Set[symbols.RecordTag]

// PrefixTrie maps an unqualified local id to the records declaring it.
// Distinct modules reuse short ids freely, so one key routinely maps to
// many qualified ids.
type PrefixTrie = trie.Trie[*RecordSet]

// RecordIndex is the primary store of declared records plus the three
// derived indices kept consistent with it: by owning model, by inheritance
// parent, and by unqualified-id prefix.
//
// The primary store and the two inverted indices are sharded maps, so
// concurrent readers and writers only contend within a shard. The prefix
// trie sits behind one read-write lock: prefix searches run shared, inserts
// exclusive. Trie writes happen once per file load while reads happen once
// per keystroke, so the asymmetry is the right trade.
type RecordIndex struct {
	records   *shard.Map[symbols.RecordID, *Record]
	byModel   *shard.Map[symbols.ModelName, *RecordSet]
	byInherit *shard.Map[symbols.RecordID, *RecordSet]

	prefixMu sync.RWMutex
	byPrefix *PrefixTrie
}

// NewRecordIndex creates an empty index with the given shard count per
// concurrent map (zero means the package default).
func NewRecordIndex(shards int) *RecordIndex {
	return &RecordIndex{
		records:   shard.NewMap[symbols.RecordID, *Record](shards),
		byModel:   shard.NewMap[symbols.ModelName, *RecordSet](shards),
		byInherit: shard.NewMap[symbols.RecordID, *RecordSet](shards),
		byPrefix:  trie.New[*RecordSet](),
	}
}

func addToSet[K any](id symbols.Symbol[K]) func(cur *symbols.Set[K], ok bool) (*symbols.Set[K], bool) {
	return func(cur *symbols.Set[K], ok bool) (*symbols.Set[K], bool) {
		if !ok {
			cur = &symbols.Set[K]{}
		}
		cur.Insert(id)
		return cur, true
	}
}

func dropFromSet[K any](id symbols.Symbol[K]) func(cur *symbols.Set[K], ok bool) (*symbols.Set[K], bool) {
	return func(cur *symbols.Set[K], ok bool) (*symbols.Set[K], bool) {
		if !ok {
			return cur, false
		}
		cur.Remove(id)
		return cur, cur.Len() > 0
	}
}

// Insert adds a record under its qualified id. If the id is already
// present the call is a no-op with no side effect on any derived index, so
// a half-updated record is never observable and whichever insert wins a
// race fixes the record's identity.
//
// Derived indices are updated before the primary store: a concurrent
// reader may see a derived entry whose primary lookup still misses (query
// paths skip those), but never a primary record with missing derived
// entries.
//
// prefix optionally supplies the trie to insert into; batch loaders pass
// the trie they already hold the write lock for, single inserts pass nil
// and the index takes its own lock.
func (x *RecordIndex) Insert(qualifiedID symbols.RecordID, record *Record, prefix *PrefixTrie) {
	if x.records.Contains(qualifiedID) {
		return
	}
	if record.Model.Valid() {
		x.byModel.Mutate(record.Model, addToSet(qualifiedID))
	}
	if record.InheritID.Valid() {
		x.byInherit.Mutate(record.InheritID, addToSet(qualifiedID))
	}
	if prefix != nil {
		insertPrefix(prefix, record.LocalID, qualifiedID)
	} else {
		x.prefixMu.Lock()
		insertPrefix(x.byPrefix, record.LocalID, qualifiedID)
		x.prefixMu.Unlock()
	}
	x.records.Insert(qualifiedID, record)
}

func insertPrefix(t *PrefixTrie, localID string, id symbols.RecordID) {
	set := t.GetOrInsert(localID, func() *RecordSet { return &RecordSet{} })
	set.Insert(id)
}

// Append interns each record's qualified id and inserts it. This is the
// bulk-load entry point for a freshly parsed file: when prefix is nil the
// trie write lock is taken once for the whole batch instead of per record.
// Records are inserted in the order the sequence yields them.
func (x *RecordIndex) Append(prefix *PrefixTrie, records iter.Seq[Record]) {
	if prefix != nil {
		for record := range records {
			rec := record
			x.Insert(symbols.InternRecord(rec.QualifiedID()), &rec, prefix)
		}
		return
	}
	x.prefixMu.Lock()
	defer x.prefixMu.Unlock()
	for record := range records {
		rec := record
		x.Insert(symbols.InternRecord(rec.QualifiedID()), &rec, x.byPrefix)
	}
}

// Get is the pass-through primary lookup by exact qualified id.
func (x *RecordIndex) Get(id symbols.RecordID) (*Record, bool) {
	return x.records.Get(id)
}

// Len returns the number of records in the primary store.
func (x *RecordIndex) Len() int { return x.records.Len() }

// All iterates the primary store.
func (x *RecordIndex) All() iter.Seq2[symbols.RecordID, *Record] {
	return x.records.All()
}

// ByModel returns the records owned by model. Member ids are snapshotted
// from the inverted index under the shard's read lock, then resolved
// against the primary store; an id in the transient window before its
// primary commit is skipped, never an error.
func (x *RecordIndex) ByModel(model symbols.ModelName) iter.Seq2[symbols.RecordID, *Record] {
	return func(yield func(symbols.RecordID, *Record) bool) {
		for _, id := range setSnapshot(x.byModel, model) {
			if rec, ok := x.records.Get(id); ok {
				if !yield(id, rec) {
					return
				}
			}
		}
	}
}

// ByInheritID returns the records inheriting from parent, symmetric to
// ByModel.
func (x *RecordIndex) ByInheritID(parent symbols.RecordID) iter.Seq2[symbols.RecordID, *Record] {
	return func(yield func(symbols.RecordID, *Record) bool) {
		for _, id := range setSnapshot(x.byInherit, parent) {
			if rec, ok := x.records.Get(id); ok {
				if !yield(id, rec) {
					return
				}
			}
		}
	}
}

// setSnapshot copies the members of an inverted-index set under the
// owning shard's read lock, so iteration never races a concurrent Mutate.
func setSnapshot[K shard.Key, T any](m *shard.Map[K, *symbols.Set[T]], key K) []symbols.Symbol[T] {
	var ids []symbols.Symbol[T]
	m.View(key, func(set *symbols.Set[T]) {
		ids = slices.Collect(set.All())
	})
	return ids
}

// IterPrefix iterates every (local id, member ids) entry whose local id
// starts with prefix, in lexicographic order. The trie's read lock is held
// for the duration of the loop; callers must not insert while iterating.
func (x *RecordIndex) IterPrefix(prefix string) iter.Seq2[string, []symbols.RecordID] {
	return func(yield func(string, []symbols.RecordID) bool) {
		x.prefixMu.RLock()
		defer x.prefixMu.RUnlock()
		for key, set := range x.byPrefix.IterPrefix(prefix) {
			if !yield(key, slices.Collect(set.All())) {
				return
			}
		}
	}
}

// WithPrefixLock runs fn holding the trie's write lock, handing fn the
// trie to pass to Insert. Batch callers use this to pay for the exclusive
// lock once across a whole load; the lock is released on every exit path,
// including a panic inside fn.
func (x *RecordIndex) WithPrefixLock(fn func(prefix *PrefixTrie)) {
	x.prefixMu.Lock()
	defer x.prefixMu.Unlock()
	fn(x.byPrefix)
}

// Remove deletes the record under id from the primary store and scrubs it
// from the derived indices. The primary entry goes first so lookups stop
// resolving immediately; the short window where a derived entry still
// names the id is the same transient state query paths already skip.
// Returns the removed record.
func (x *RecordIndex) Remove(id symbols.RecordID) (*Record, bool) {
	rec, ok := x.records.Delete(id)
	if !ok {
		return nil, false
	}
	if rec.Model.Valid() {
		x.byModel.Mutate(rec.Model, dropFromSet(id))
	}
	if rec.InheritID.Valid() {
		x.byInherit.Mutate(rec.InheritID, dropFromSet(id))
	}
	x.prefixMu.Lock()
	if set, found := x.byPrefix.Get(rec.LocalID); found {
		set.Remove(id)
		if set.Len() == 0 {
			x.byPrefix.Delete(rec.LocalID)
		}
	}
	x.prefixMu.Unlock()
	return rec, true
}

// RemoveByPath removes every record declared in the given file, returning
// how many were removed. This is the re-parse path: a changed file is
// scrubbed and its fresh parse appended.
func (x *RecordIndex) RemoveByPath(path string) int {
	var stale []symbols.RecordID
	for id, rec := range x.records.All() {
		if rec.Location.Path == path {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		x.Remove(id)
	}
	return len(stale)
}
