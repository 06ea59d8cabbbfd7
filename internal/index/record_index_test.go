package index

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrel-ls/petrel/internal/symbols"
)

func testRecord(module, local, model, inherit, path string, line uint32) Record {
	r := Record{
		LocalID:  local,
		Module:   module,
		Location: Location{Path: path, Line: line},
	}
	if model != "" {
		r.Model = symbols.InternModel(model)
	}
	if inherit != "" {
		r.InheritID = symbols.InternRecord(inherit)
	}
	return r
}

func insertOne(x *RecordIndex, r Record) symbols.RecordID {
	id := symbols.InternRecord(r.QualifiedID())
	x.Insert(id, &r, nil)
	return id
}

func TestInsertAndGet(t *testing.T) {
	x := NewRecordIndex(4)
	id := insertOne(x, testRecord("base", "partner_root", "res.partner", "", "a.xml", 3))

	rec, ok := x.Get(id)
	require.True(t, ok)
	assert.Equal(t, "base.partner_root", rec.QualifiedID())
	assert.Equal(t, uint32(3), rec.Location.Line)
	assert.Equal(t, 1, x.Len())
}

func TestInsertFirstWriteWins(t *testing.T) {
	x := NewRecordIndex(4)
	id := insertOne(x, testRecord("base", "dup", "res.partner", "", "first.xml", 1))
	insertOne(x, testRecord("base", "dup", "res.users", "", "second.xml", 9))

	rec, ok := x.Get(id)
	require.True(t, ok)
	assert.Equal(t, "first.xml", rec.Location.Path)
	assert.Equal(t, 1, x.Len())

	// the losing insert must not have left derived entries behind
	var users []symbols.RecordID
	for rid := range x.ByModel(symbols.InternModel("res.users")) {
		users = append(users, rid)
	}
	assert.Empty(t, users)
}

func TestByModel(t *testing.T) {
	x := NewRecordIndex(4)
	a := insertOne(x, testRecord("base", "partner_a", "res.partner", "", "a.xml", 1))
	b := insertOne(x, testRecord("sale", "partner_b", "res.partner", "", "b.xml", 2))
	insertOne(x, testRecord("base", "user_root", "res.users", "", "a.xml", 5))

	var got []symbols.RecordID
	for id := range x.ByModel(symbols.InternModel("res.partner")) {
		got = append(got, id)
	}
	assert.ElementsMatch(t, []symbols.RecordID{a, b}, got)
}

func TestByModelUnknownModelEmpty(t *testing.T) {
	x := NewRecordIndex(4)
	insertOne(x, testRecord("base", "r1", "res.partner", "", "a.xml", 1))

	count := 0
	for range x.ByModel(symbols.InternModel("no.such.model")) {
		count++
	}
	assert.Zero(t, count)
}

func TestByInheritID(t *testing.T) {
	x := NewRecordIndex(4)
	parent := insertOne(x, testRecord("base", "view_form", "ir.ui.view", "", "a.xml", 1))
	childA := insertOne(x, testRecord("sale", "view_form_sale", "ir.ui.view", "base.view_form", "b.xml", 2))
	childB := insertOne(x, testRecord("crm", "view_form_crm", "ir.ui.view", "base.view_form", "c.xml", 3))

	var got []symbols.RecordID
	for id := range x.ByInheritID(parent) {
		got = append(got, id)
	}
	assert.ElementsMatch(t, []symbols.RecordID{childA, childB}, got)
}

func TestInheritEdgeBeforeParentExists(t *testing.T) {
	// a child may be indexed before its parent's file is parsed; the edge
	// must already resolve once the parent arrives
	x := NewRecordIndex(4)
	child := insertOne(x, testRecord("sale", "view_ext", "ir.ui.view", "base.view_base", "b.xml", 1))
	parent := insertOne(x, testRecord("base", "view_base", "ir.ui.view", "", "a.xml", 1))

	var got []symbols.RecordID
	for id := range x.ByInheritID(parent) {
		got = append(got, id)
	}
	assert.Equal(t, []symbols.RecordID{child}, got)
}

func TestIterPrefix(t *testing.T) {
	x := NewRecordIndex(4)
	insertOne(x, testRecord("base", "view_form", "", "", "a.xml", 1))
	insertOne(x, testRecord("base", "view_tree", "", "", "a.xml", 2))
	insertOne(x, testRecord("base", "menu_root", "", "", "a.xml", 3))
	// same local id in a second module shares the trie entry
	insertOne(x, testRecord("sale", "view_form", "", "", "b.xml", 4))

	var keys []string
	total := 0
	for key, ids := range x.IterPrefix("view") {
		keys = append(keys, key)
		total += len(ids)
	}
	assert.Equal(t, []string{"view_form", "view_tree"}, keys)
	assert.Equal(t, 3, total)
}

func TestAppendMatchesSingleInserts(t *testing.T) {
	records := []Record{
		testRecord("base", "r_c", "res.partner", "", "a.xml", 1),
		testRecord("base", "r_a", "res.partner", "", "a.xml", 2),
		testRecord("base", "r_b", "res.users", "", "a.xml", 3),
	}

	batch := NewRecordIndex(4)
	batch.Append(nil, slices.Values(records))

	single := NewRecordIndex(4)
	reversed := slices.Clone(records)
	slices.Reverse(reversed)
	for _, r := range reversed {
		insertOne(single, r)
	}

	require.Equal(t, single.Len(), batch.Len())
	for id, want := range single.All() {
		got, ok := batch.Get(id)
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, want.QualifiedID(), got.QualifiedID())
	}

	var batchKeys, singleKeys []string
	for key := range batch.IterPrefix("") {
		batchKeys = append(batchKeys, key)
	}
	for key := range single.IterPrefix("") {
		singleKeys = append(singleKeys, key)
	}
	assert.Equal(t, singleKeys, batchKeys)
}

func TestRemoveScrubsDerivedIndices(t *testing.T) {
	x := NewRecordIndex(4)
	parent := insertOne(x, testRecord("base", "view_base", "ir.ui.view", "", "a.xml", 1))
	child := insertOne(x, testRecord("sale", "view_child", "ir.ui.view", "base.view_base", "b.xml", 1))

	rec, ok := x.Remove(child)
	require.True(t, ok)
	assert.Equal(t, "sale.view_child", rec.QualifiedID())

	_, ok = x.Get(child)
	assert.False(t, ok)

	for range x.ByInheritID(parent) {
		t.Fatal("removed record still reachable via inherit index")
	}
	for key := range x.IterPrefix("view_child") {
		t.Fatalf("removed record still in trie under %q", key)
	}
	for id := range x.ByModel(symbols.InternModel("ir.ui.view")) {
		assert.Equal(t, parent, id)
	}
}

func TestRemoveMissing(t *testing.T) {
	x := NewRecordIndex(4)
	_, ok := x.Remove(symbols.InternRecord("ghost.record"))
	assert.False(t, ok)
}

func TestRemoveByPath(t *testing.T) {
	x := NewRecordIndex(4)
	insertOne(x, testRecord("base", "keep_me", "res.partner", "", "keep.xml", 1))
	insertOne(x, testRecord("base", "drop_a", "res.partner", "", "drop.xml", 1))
	insertOne(x, testRecord("base", "drop_b", "res.users", "", "drop.xml", 2))

	assert.Equal(t, 2, x.RemoveByPath("drop.xml"))
	assert.Equal(t, 1, x.Len())
	assert.Zero(t, x.RemoveByPath("drop.xml"))

	_, ok := x.Get(symbols.InternRecord("base.keep_me"))
	assert.True(t, ok)
}

func TestConcurrentInsertAndQuery(t *testing.T) {
	x := NewRecordIndex(8)
	model := symbols.InternModel("stress.model")

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r := testRecord("mod", fmt.Sprintf("rec_%d_%d", seed, i), "stress.model", "", "f.xml", uint32(i))
				insertOne(x, r)
			}
		}(w)
	}
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for range x.ByModel(model) {
				}
				for range x.IterPrefix("rec_") {
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, x.Len())
	count := 0
	for range x.ByModel(model) {
		count++
	}
	assert.Equal(t, 800, count)
}
