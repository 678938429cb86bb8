package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/value"
)

// Upvalue is a closed-over local. While the frame that owns the local
// is still on the stack, Location points directly at the stack slot
// (the upvalue is "open") so writes through either the local or the
// closure observe each other. When the owning frame returns, the VM
// copies the current value into Closed and repoints Location at it
// (the upvalue is "closed"), so the captured value survives frame
// teardown.
//
// Next threads every open upvalue into one list, kept sorted by
// decreasing stack address, so closing every upvalue at or above a
// given stack depth is a single linear walk (pkg/vm's closeUpvalues).
type Upvalue struct {
	Obj
	Location *value.Value
	Closed   value.Value
	Next     *Upvalue
}

// NewUpvalue allocates an open upvalue pointing at slot.
func NewUpvalue(slot *value.Value) *Upvalue {
	return &Upvalue{Obj: Obj{Type: TypeUpvalue}, Location: slot}
}

// Close copies the current value out of the stack slot this upvalue
// points at and repoints it at its own Closed field.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// FromUpvalue boxes u as a value.Value.
func FromUpvalue(u *Upvalue) value.Value {
	return value.FromObj(unsafe.Pointer(u))
}

// AsUpvalue unboxes v, which must hold an Upvalue.
func AsUpvalue(v value.Value) *Upvalue {
	return (*Upvalue)(v.ObjPtr())
}
