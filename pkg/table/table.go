// Package table implements Crow's open-addressed, linear-probing hash
// table. It backs the string-intern pool, every class's method table,
// and every instance's field table.
//
// Capacity is always a power of two so the bucket index is a mask
// instead of a modulo. The table grows once the load factor would
// exceed 0.75. Entries are keyed by a value.Value plus a caller-
// supplied 32-bit hash: table itself never inspects what the Value is
// (that would require importing pkg/object, which imports table for
// method/field storage, so the hash has to come from the caller).
package table

import "github.com/crowlang/crow/pkg/value"

const maxLoad = 0.75

type entry struct {
	key  value.Value
	hash uint32
	val  value.Value
}

// Table is an open-addressed hash table keyed by value.Value.
type Table struct {
	entries []entry
	count   int // used slots, tombstones included, so probing always terminates
}

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// Count returns the number of used slots (deleting a key leaves its
// slot counted until the next grow discards tombstones).
func (t *Table) Count() int { return t.count }

// Get looks up key (with its precomputed hash). The second result is
// false if the key is absent.
func (t *Table) Get(key value.Value, hash uint32) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil, false
	}
	e := t.find(key, hash)
	if e.key.IsEmpty() {
		return value.Nil, false
	}
	return e.val, true
}

// Set stores val under key, growing the table first if needed. It
// reports whether this inserted a brand new key.
func (t *Table) Set(key value.Value, hash uint32, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.find(key, hash)
	isNew := e.key.IsEmpty()
	if isNew && e.val.IsNil() {
		// Only a truly free slot (not a tombstone) grows the used-slot count.
		t.count++
	}
	e.key = key
	e.hash = hash
	e.val = val
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes still
// find entries that were inserted after a collision with it.
func (t *Table) Delete(key value.Value, hash uint32) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key, hash)
	if e.key.IsEmpty() {
		return false
	}
	e.key = value.Empty
	e.val = value.True // tombstone marker
	return true
}

// AddAll copies every live entry of t into dst, used when a subclass
// inherits its superclass's method table.
func (t *Table) AddAll(dst *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key.IsEmpty() {
			continue
		}
		dst.Set(e.key, e.hash, e.val)
	}
}

// FindString searches for a key matching hash for which match returns
// true, used by the string-intern pool to look up a string by its raw
// bytes before allocating a new one. match receives candidate keys
// whose cached hash equals hash.
func (t *Table) FindString(hash uint32, match func(key value.Value) bool) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil, false
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key.IsEmpty() {
			if e.val.IsNil() {
				return value.Nil, false
			}
		} else if e.hash == hash && match(e.key) {
			return e.key, true
		}
		index = (index + 1) & mask
	}
}

// Iterate calls fn for every live entry, in table order. fn must not
// mutate the table.
func (t *Table) Iterate(fn func(key, val value.Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.key.IsEmpty() {
			fn(e.key, e.val)
		}
	}
}

// RemoveUnmarked deletes every live entry whose key fails isMarked,
// used by the GC to sweep the string-intern pool: interned strings
// that nothing else reaches must not keep each other alive.
func (t *Table) RemoveUnmarked(isMarked func(key value.Value) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.key.IsEmpty() && !isMarked(e.key) {
			e.key = value.Empty
			e.val = value.True
		}
	}
}

// find returns the entry key should occupy: either the matching live
// entry, or the first tombstone/free slot seen along the probe
// sequence (so reinserting a deleted key reuses its tombstone).
func (t *Table) find(key value.Value, hash uint32) *entry {
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	var tombstone *entry
	for {
		e := &t.entries[index]
		if e.key.IsEmpty() {
			if e.val.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow(capacity int) {
	old := t.entries
	t.entries = make([]entry, capacity)
	for i := range t.entries {
		// The zero Value boxes the number 0, so free slots must be set
		// to Empty/Nil explicitly for find's free-vs-tombstone test.
		t.entries[i].key = value.Empty
		t.entries[i].val = value.Nil
	}
	t.count = 0
	for _, e := range old {
		if e.key.IsEmpty() {
			continue
		}
		dst := t.find(e.key, e.hash)
		dst.key = e.key
		dst.hash = e.hash
		dst.val = e.val
		t.count++
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
