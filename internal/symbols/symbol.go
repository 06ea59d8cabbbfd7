// Package symbols provides interned, domain-tagged string handles and the
// flat integer-keyed containers built on them. One process-wide interner
// backs every domain; the tag type exists only at compile time so a record
// id can never be passed where a model name is expected.
package symbols

import "fmt"

// Symbol is an interned handle standing in for a string, tagged by the
// phantom domain type T. Two handles are equal iff they were interned from
// equal strings within the same process run. The zero Symbol is "absent"
// and resolves to nothing.
type Symbol[T any] struct {
	id uint32
}

// Domain tags. Zero-sized, never instantiated; they only separate the
// handle spaces at compile time. All tags share one interner table, so a
// raw id is meaningful in any domain; keeping it in the right one is the
// caller's job, enforced by the type system.
type (
	RecordTag    struct{}
	ModelTag     struct{}
	ComponentTag struct{}
)

// RecordID is the interned, module-qualified id of a record.
type RecordID = Symbol[RecordTag]

// ModelName is the interned name of a model.
type ModelName = Symbol[ModelTag]

// ComponentName is the interned name of a UI component.
type ComponentName = Symbol[ComponentTag]

// Intern returns the handle for s, interning it on first use.
func Intern[T any](s string) Symbol[T] {
	return Symbol[T]{id: global.intern(s)}
}

// Lookup returns the handle for s only if s was interned before. Query
// paths use this so probing for unknown names does not grow the table.
func Lookup[T any](s string) (Symbol[T], bool) {
	id, ok := global.get(s)
	return Symbol[T]{id: id}, ok
}

// FromRaw converts a raw interner id back into a typed handle. The id must
// have been produced by Intern in this process; anything else is a
// programming error and panics.
func FromRaw[T any](raw uint32) Symbol[T] {
	if _, ok := global.resolve(raw); !ok {
		panic(fmt.Sprintf("symbols: raw id %d was never interned", raw))
	}
	return Symbol[T]{id: raw}
}

// InternRecord interns a module-qualified record id.
func InternRecord(s string) RecordID { return Intern[RecordTag](s) }

// InternModel interns a model name.
func InternModel(s string) ModelName { return Intern[ModelTag](s) }

// InternComponent interns a component name.
func InternComponent(s string) ComponentName { return Intern[ComponentTag](s) }

// Valid reports whether the handle refers to an interned string.
func (s Symbol[T]) Valid() bool { return s.id != 0 }

// Raw exposes the underlying interner id, shared across all domains.
func (s Symbol[T]) Raw() uint32 { return s.id }

// String resolves the handle back to its original string. It never fails
// for a handle obtained from Intern; a forged handle panics.
func (s Symbol[T]) String() string {
	if s.id == 0 {
		return ""
	}
	str, ok := global.resolve(s.id)
	if !ok {
		panic(fmt.Sprintf("symbols: id %d not present in interner", s.id))
	}
	return str
}
