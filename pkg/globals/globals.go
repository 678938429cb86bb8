// Package globals implements the name→index indirection for Crow's
// global variables: a compile-time symbol table (name to slot index)
// paired with a parallel runtime value array. This is the "modern"
// representation called for by the design notes, as opposed to a
// vestigial name-keyed table looked up by string on every access.
//
// A plain Go map is the symbol table rather than pkg/table's
// open-addressed Table: that structure earns its keep when values
// need arbitrary Value keys (string interning, method/field lookup at
// runtime); a compile-time global symbol table is just string → int,
// which a Go map already does well.
package globals

import "github.com/crowlang/crow/pkg/value"

// Globals is shared by one compilation and the VM that runs it (and,
// across a REPL session, by every subsequent compilation against the
// same VM), so that `GET_GLOBAL`/`SET_GLOBAL` operand indices stay
// valid from one REPL entry to the next.
type Globals struct {
	index  map[string]int
	names  []string
	values []value.Value
}

// New returns an empty Globals table.
func New() *Globals {
	return &Globals{index: make(map[string]int)}
}

// Intern returns the slot index for name, assigning one and seeding
// the value array with Undefined if name hasn't been seen before.
func (g *Globals) Intern(name string) int {
	if idx, ok := g.index[name]; ok {
		return idx
	}
	idx := len(g.values)
	g.index[name] = idx
	g.names = append(g.names, name)
	g.values = append(g.values, value.Undefined)
	return idx
}

// Get returns the value stored at index.
func (g *Globals) Get(index int) value.Value { return g.values[index] }

// Set overwrites the value stored at index.
func (g *Globals) Set(index int, v value.Value) { g.values[index] = v }

// NameAt returns the name interned at index, used to format
// "Undefined variable 'x'." runtime errors.
func (g *Globals) NameAt(index int) string { return g.names[index] }

// Count returns the number of interned globals.
func (g *Globals) Count() int { return len(g.values) }

// Values exposes the backing value array directly so the GC can mark
// it without copying.
func (g *Globals) Values() []value.Value { return g.values }
