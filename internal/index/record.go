// Package index holds the workspace-wide symbol indices: a primary sharded
// store per entity domain plus the inverted and prefix indices derived from
// it. Parsers feed entity values in; the query layer reads through the
// stores and tries. All state is in-memory and rebuilt from source on
// workspace load.
package index

import "github.com/petrel-ls/petrel/internal/symbols"

// Location points at a declaration in a source file.
type Location struct {
	Path   string
	Line   uint32 // 1-based
	Column uint32 // 0-based byte column
}

// Record is one declared data entity: an XML data row, view or template.
// Records are immutable once constructed; a re-parse produces new values,
// never an in-place mutation.
type Record struct {
	// LocalID is the short, human-chosen id, unique only within its module.
	LocalID string
	// Module is the declaring module; Module + "." + LocalID is unique
	// workspace-wide.
	Module string
	// Model is the owning model, zero when the record has none.
	Model symbols.ModelName
	// InheritID is the qualified id of the inherited parent record, zero
	// when the record inherits nothing.
	InheritID symbols.RecordID
	Location  Location
}

// QualifiedID returns the workspace-unique id of the record.
func (r *Record) QualifiedID() string {
	return r.Module + "." + r.LocalID
}

// Model is a declared model class. Classes that only extend an existing
// model (inherit without naming themselves) contribute inheritance edges
// under the extended name.
type Model struct {
	Name     string
	Module   string
	Inherits []symbols.ModelName
	Location Location
}

// Component is a declared UI component class.
type Component struct {
	Name   string
	Module string
	// Extends is the parent component, zero for root components.
	Extends  symbols.ComponentName
	Location Location
}
