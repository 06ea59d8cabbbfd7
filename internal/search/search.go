// Package search ranks index entities against free-form queries. Lookup
// goes through the prefix tries; ranking is Jaro-Winkler similarity so a
// short query still orders near-misses sensibly.
package search

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/petrel-ls/petrel/internal/config"
	"github.com/petrel-ls/petrel/internal/debug"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/symbols"
)

// Kind identifies the entity class of a result.
type Kind int

const (
	KindRecord Kind = iota
	KindModel
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindModel:
		return "model"
	case KindComponent:
		return "component"
	}
	return "unknown"
}

// Result is one ranked match.
type Result struct {
	// Name is the entity's index key: qualified id for records, dotted
	// name for models, class name for components.
	Name     string
	Module   string
	Kind     Kind
	Location index.Location
	// Score is Jaro-Winkler similarity to the query, 1.0 for exact and
	// prefix-pass-through matches.
	Score float64
}

// Engine answers queries against one workspace index.
type Engine struct {
	index *index.Index
	cfg   *config.Config
}

// NewEngine creates a search engine over ix.
func NewEngine(ix *index.Index, cfg *config.Config) *Engine {
	return &Engine{index: ix, cfg: cfg}
}

// WorkspaceSymbols matches query against all entity kinds (or the given
// subset) and returns results ranked by similarity. A query of the form
// "module.rest" additionally filters records to the named module when any
// module matches; model names keep their dots and match the whole query.
func (e *Engine) WorkspaceSymbols(query string, kinds ...Kind) []Result {
	want := kindSet(kinds)
	var results []Result

	if want[KindRecord] {
		results = append(results, e.matchRecords(query)...)
	}
	if want[KindModel] {
		results = append(results, e.matchModels(query)...)
	}
	if want[KindComponent] {
		results = append(results, e.matchComponents(query)...)
	}

	e.rank(query, results)
	if len(results) > e.cfg.Search.MaxResults {
		results = results[:e.cfg.Search.MaxResults]
	}
	debug.LogSearch("query %q: %d results\n", query, len(results))
	return results
}

func kindSet(kinds []Kind) map[Kind]bool {
	if len(kinds) == 0 {
		return map[Kind]bool{KindRecord: true, KindModel: true, KindComponent: true}
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	return want
}

// matchRecords walks the local-id trie. An exact qualified id short
// circuits through the interner without polluting it; the dotted form is
// then retried as a module filter.
func (e *Engine) matchRecords(query string) []Result {
	var results []Result

	if id, ok := symbols.Lookup[symbols.RecordTag](query); ok {
		if rec, found := e.index.Records.Get(id); found {
			results = append(results, recordResult(query, rec, 1.0))
		}
	}

	module, local := splitModuleQuery(query)
	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.Name] = true
	}

	collect := func(mod, prefix string) {
		for _, ids := range e.index.Records.IterPrefix(prefix) {
			for _, id := range ids {
				rec, found := e.index.Records.Get(id)
				if !found {
					continue
				}
				if mod != "" && rec.Module != mod {
					continue
				}
				qid := rec.QualifiedID()
				if seen[qid] {
					continue
				}
				seen[qid] = true
				results = append(results, recordResult(qid, rec, 0))
			}
		}
	}

	// plain prefix on the local id, then the module-qualified reading
	collect("", query)
	if module != "" {
		collect(module, local)
	}
	return results
}

func recordResult(name string, rec *index.Record, score float64) Result {
	return Result{
		Name:     name,
		Module:   rec.Module,
		Kind:     KindRecord,
		Location: rec.Location,
		Score:    score,
	}
}

// splitModuleQuery splits "module.rest" on the first dot. Both halves must
// be non-empty for the query to have a module reading.
func splitModuleQuery(query string) (module, rest string) {
	i := strings.IndexByte(query, '.')
	if i <= 0 || i == len(query)-1 {
		return "", query
	}
	return query[:i], query[i+1:]
}

func (e *Engine) matchModels(query string) []Result {
	var results []Result
	for name := range e.index.Models.IterPrefix(query) {
		// trie keys are always interned, so the lookup cannot miss
		sym, ok := symbols.Lookup[symbols.ModelTag](name)
		if !ok {
			continue
		}
		model, found := e.index.Models.Get(sym)
		if !found {
			continue
		}
		results = append(results, Result{
			Name:     name,
			Module:   model.Module,
			Kind:     KindModel,
			Location: model.Location,
		})
	}
	return results
}

func (e *Engine) matchComponents(query string) []Result {
	var results []Result
	for name := range e.index.Components.IterPrefix(query) {
		sym, ok := symbols.Lookup[symbols.ComponentTag](name)
		if !ok {
			continue
		}
		comp, found := e.index.Components.Get(sym)
		if !found {
			continue
		}
		results = append(results, Result{
			Name:     name,
			Module:   comp.Module,
			Kind:     KindComponent,
			Location: comp.Location,
		})
	}
	return results
}

// rank scores unscored results against the query and sorts best-first.
// Matches below the fuzzy threshold keep a zero score and sort last,
// alphabetically.
func (e *Engine) rank(query string, results []Result) {
	for i := range results {
		if results[i].Score != 0 {
			continue
		}
		sim, err := edlib.StringsSimilarity(query, results[i].Name, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(sim) >= e.cfg.Search.FuzzyThreshold {
			results[i].Score = float64(sim)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
}

// CompleteRecords returns the records of model whose local id starts with
// prefix, for reference completion inside data files. module narrows the
// candidates to one module when non-empty. Results come back in
// lexicographic local-id order.
func (e *Engine) CompleteRecords(model symbols.ModelName, prefix, module string) []Result {
	var results []Result
	for _, ids := range e.index.Records.IterPrefix(prefix) {
		for _, id := range ids {
			rec, found := e.index.Records.Get(id)
			if !found {
				continue
			}
			if model.Valid() && rec.Model != model {
				continue
			}
			if module != "" && rec.Module != module {
				continue
			}
			results = append(results, recordResult(rec.QualifiedID(), rec, 1.0))
			if len(results) >= e.cfg.Search.MaxResults {
				return results
			}
		}
	}
	return results
}

// CompleteModels returns model names starting with prefix, in
// lexicographic order.
func (e *Engine) CompleteModels(prefix string) []Result {
	var results []Result
	for name := range e.index.Models.IterPrefix(prefix) {
		sym, ok := symbols.Lookup[symbols.ModelTag](name)
		if !ok {
			continue
		}
		model, found := e.index.Models.Get(sym)
		if !found {
			continue
		}
		results = append(results, Result{
			Name:     name,
			Module:   model.Module,
			Kind:     KindModel,
			Location: model.Location,
			Score:    1.0,
		})
		if len(results) >= e.cfg.Search.MaxResults {
			break
		}
	}
	return results
}

// CompleteComponents returns component names starting with prefix, in
// lexicographic order.
func (e *Engine) CompleteComponents(prefix string) []Result {
	var results []Result
	for name := range e.index.Components.IterPrefix(prefix) {
		sym, ok := symbols.Lookup[symbols.ComponentTag](name)
		if !ok {
			continue
		}
		comp, found := e.index.Components.Get(sym)
		if !found {
			continue
		}
		results = append(results, Result{
			Name:     name,
			Module:   comp.Module,
			Kind:     KindComponent,
			Location: comp.Location,
			Score:    1.0,
		})
		if len(results) >= e.cfg.Search.MaxResults {
			break
		}
	}
	return results
}
