package search

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrel-ls/petrel/internal/config"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/symbols"
)

func seedIndex(t *testing.T) *index.Index {
	t.Helper()
	ix := index.New(4)

	mk := func(module, local, model, inherit string) index.Record {
		r := index.Record{
			LocalID:  local,
			Module:   module,
			Location: index.Location{Path: module + "/views.xml", Line: 1},
		}
		if model != "" {
			r.Model = symbols.InternModel(model)
		}
		if inherit != "" {
			r.InheritID = symbols.InternRecord(inherit)
		}
		return r
	}

	ix.Records.Append(nil, slices.Values([]index.Record{
		mk("base", "view_partner_form", "ir.ui.view", ""),
		mk("base", "view_partner_tree", "ir.ui.view", ""),
		mk("sale", "view_partner_form", "ir.ui.view", "base.view_partner_form"),
		mk("sale", "menu_sale_root", "ir.ui.menu", ""),
	}))
	ix.Models.Append(slices.Values([]index.Model{
		{Name: "res.partner", Module: "base", Location: index.Location{Path: "base/partner.py"}},
		{Name: "res.partner.bank", Module: "base", Location: index.Location{Path: "base/bank.py"}},
	}))
	ix.Components.Append(slices.Values([]index.Component{
		{Name: "PartnerKanban", Module: "sale", Location: index.Location{Path: "sale/kanban.js"}},
	}))
	return ix
}

func testEngine(t *testing.T) *Engine {
	return NewEngine(seedIndex(t), config.Default())
}

func names(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

func TestWorkspaceSymbolsExactQualifiedID(t *testing.T) {
	e := testEngine(t)
	results := e.WorkspaceSymbols("base.view_partner_form", KindRecord)

	require.NotEmpty(t, results)
	assert.Equal(t, "base.view_partner_form", results[0].Name)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestWorkspaceSymbolsLocalPrefix(t *testing.T) {
	e := testEngine(t)
	results := e.WorkspaceSymbols("view_partner", KindRecord)

	// both modules declare matching local ids
	assert.ElementsMatch(t,
		[]string{"base.view_partner_form", "base.view_partner_tree", "sale.view_partner_form"},
		names(results))
}

func TestWorkspaceSymbolsModuleFilter(t *testing.T) {
	e := testEngine(t)
	results := e.WorkspaceSymbols("sale.view_partner", KindRecord)

	assert.Equal(t, []string{"sale.view_partner_form"}, names(results))
}

func TestWorkspaceSymbolsDottedModelNotSplit(t *testing.T) {
	// "res.partner" reads as module "res" for records but matches models
	// on the full dotted name
	e := testEngine(t)
	results := e.WorkspaceSymbols("res.partner", KindModel)

	assert.Equal(t, []string{"res.partner", "res.partner.bank"}, names(results))
}

func TestWorkspaceSymbolsAllKinds(t *testing.T) {
	e := testEngine(t)
	results := e.WorkspaceSymbols("Partner")

	require.NotEmpty(t, results)
	assert.Equal(t, KindComponent, results[0].Kind)
	assert.Equal(t, "PartnerKanban", results[0].Name)
}

func TestWorkspaceSymbolsRanking(t *testing.T) {
	e := testEngine(t)
	results := e.WorkspaceSymbols("view_partner_form", KindRecord)

	require.NotEmpty(t, results)
	// the closest name sorts first
	assert.Equal(t, "base.view_partner_form", results[0].Name)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestWorkspaceSymbolsMaxResults(t *testing.T) {
	cfg := config.Default()
	cfg.Search.MaxResults = 2
	e := NewEngine(seedIndex(t), cfg)

	results := e.WorkspaceSymbols("view", KindRecord)
	assert.Len(t, results, 2)
}

func TestWorkspaceSymbolsNoMatch(t *testing.T) {
	e := testEngine(t)
	assert.Empty(t, e.WorkspaceSymbols("zzz_nothing_here"))
}

func TestQueriesDoNotIntern(t *testing.T) {
	e := testEngine(t)

	// a miss must stay a miss: query paths go through Lookup, never the
	// interner, so the table cannot grow from user input
	query := "res.part_never_interned_query"
	e.WorkspaceSymbols(query)
	e.CompleteModels(query)
	e.CompleteComponents(query)
	var anyModel symbols.ModelName
	e.CompleteRecords(anyModel, query, "")

	_, ok := symbols.Lookup[symbols.RecordTag](query)
	assert.False(t, ok)
	_, ok = symbols.Lookup[symbols.ModelTag](query)
	assert.False(t, ok)
	_, ok = symbols.Lookup[symbols.ComponentTag](query)
	assert.False(t, ok)
}

func TestCompleteRecordsByModel(t *testing.T) {
	e := testEngine(t)
	view := symbols.InternModel("ir.ui.view")

	results := e.CompleteRecords(view, "view_", "")
	assert.ElementsMatch(t,
		[]string{"base.view_partner_form", "base.view_partner_tree", "sale.view_partner_form"},
		names(results))

	// menu records belong to another model
	results = e.CompleteRecords(view, "menu_", "")
	assert.Empty(t, results)
}

func TestCompleteRecordsModuleNarrows(t *testing.T) {
	e := testEngine(t)
	view := symbols.InternModel("ir.ui.view")

	results := e.CompleteRecords(view, "view_", "sale")
	assert.Equal(t, []string{"sale.view_partner_form"}, names(results))
}

func TestCompleteRecordsZeroModelMatchesAll(t *testing.T) {
	e := testEngine(t)

	var any symbols.ModelName
	results := e.CompleteRecords(any, "menu_", "")
	assert.Equal(t, []string{"sale.menu_sale_root"}, names(results))
}

func TestCompleteModels(t *testing.T) {
	e := testEngine(t)
	results := e.CompleteModels("res.partner")

	assert.Equal(t, []string{"res.partner", "res.partner.bank"}, names(results))
	for _, r := range results {
		assert.Equal(t, KindModel, r.Kind)
	}
}

func TestCompleteComponents(t *testing.T) {
	e := testEngine(t)
	results := e.CompleteComponents("Partner")

	require.Len(t, results, 1)
	assert.Equal(t, "PartnerKanban", results[0].Name)
}
