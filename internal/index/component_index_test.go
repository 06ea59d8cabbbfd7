package index

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrel-ls/petrel/internal/symbols"
)

func testComponent(name, module, extends, path string) Component {
	c := Component{
		Name:     name,
		Module:   module,
		Location: Location{Path: path, Line: 1},
	}
	if extends != "" {
		c.Extends = symbols.InternComponent(extends)
	}
	return c
}

func TestComponentInsertAndGet(t *testing.T) {
	x := NewComponentIndex(4)
	x.Append(slices.Values([]Component{
		testComponent("KanbanRenderer", "web", "Component", "kanban.js"),
	}))

	c, ok := x.Get(symbols.InternComponent("KanbanRenderer"))
	require.True(t, ok)
	assert.Equal(t, "web", c.Module)
}

func TestComponentByExtends(t *testing.T) {
	x := NewComponentIndex(4)
	x.Append(slices.Values([]Component{
		testComponent("ListRenderer", "web", "Component", "list.js"),
		testComponent("SaleListRenderer", "sale", "ListRenderer", "sale_list.js"),
		testComponent("CrmListRenderer", "crm", "ListRenderer", "crm_list.js"),
	}))

	var names []string
	for name := range x.ByExtends(symbols.InternComponent("ListRenderer")) {
		names = append(names, name.String())
	}
	assert.ElementsMatch(t, []string{"SaleListRenderer", "CrmListRenderer"}, names)
}

func TestComponentIterPrefix(t *testing.T) {
	x := NewComponentIndex(4)
	x.Append(slices.Values([]Component{
		testComponent("ListRenderer", "web", "", "a.js"),
		testComponent("ListController", "web", "", "a.js"),
		testComponent("FormRenderer", "web", "", "b.js"),
	}))

	var names []string
	for name := range x.IterPrefix("List") {
		names = append(names, name)
	}
	assert.Equal(t, []string{"ListController", "ListRenderer"}, names)
}

func TestComponentRemoveByPath(t *testing.T) {
	x := NewComponentIndex(4)
	x.Append(slices.Values([]Component{
		testComponent("A", "m", "Component", "drop.js"),
		testComponent("B", "m", "A", "drop.js"),
		testComponent("C", "m", "", "keep.js"),
	}))

	assert.Equal(t, 2, x.RemoveByPath("drop.js"))
	assert.Equal(t, 1, x.Len())
	for range x.ByExtends(symbols.InternComponent("A")) {
		t.Fatal("removed component still reachable via extends index")
	}
}

func TestIndexStats(t *testing.T) {
	ix := New(4)
	ix.Records.Append(nil, slices.Values([]Record{
		testRecord("base", "stat_rec", "res.partner", "", "s.xml", 1),
	}))
	ix.Models.Append(slices.Values([]Model{testModel("stat.model", "m", nil, "s.py")}))
	ix.Components.Append(slices.Values([]Component{testComponent("StatComp", "m", "", "s.js")}))

	stats := ix.Stats()
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 1, stats.Models)
	assert.Equal(t, 1, stats.Components)
	assert.Contains(t, stats.String(), "1 records")
}
