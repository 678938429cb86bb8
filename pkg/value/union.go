//go:build crow_portable

package value

import "unsafe"

// Value is the portable tagged-union representation: an explicit tag
// plus separate number and pointer payloads. Twice the size of the
// NaN-boxed form, but free of any assumption about where the allocator
// puts objects. The struct is comparable, and every constructor zeroes
// the payload field it doesn't use, so `v == o` means the same thing
// `==` on the boxed form does.
type Value struct {
	tag byte
	num float64
	ptr unsafe.Pointer
}

const (
	tagNumber byte = iota // the zero Value is the number 0
	tagNil
	tagFalse
	tagTrue
	tagEmpty
	tagUndefined
	tagObj
)

// Singleton values. Empty and Undefined never appear in source-visible
// positions: Empty marks a free Table slot and Undefined marks a
// declared-but-not-yet-initialized global.
var (
	Nil       = Value{tag: tagNil}
	False     = Value{tag: tagFalse}
	True      = Value{tag: tagTrue}
	Empty     = Value{tag: tagEmpty}
	Undefined = Value{tag: tagUndefined}
)

// Bool boxes a Go bool.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number boxes a float64.
func Number(f float64) Value {
	return Value{tag: tagNumber, num: f}
}

// FromObj boxes a pointer to a heap object (an *object.Obj, or any
// struct whose first field is one). The caller must keep the object
// reachable through some other Go reference -- ordinarily the VM's
// object list -- for as long as any Value produced here is alive;
// pkg/vm's GC is what keeps that list alive in turn.
func FromObj(ptr unsafe.Pointer) Value {
	return Value{tag: tagObj, ptr: ptr}
}

// IsNumber reports whether v holds a float64 rather than a singleton
// or an object reference.
func (v Value) IsNumber() bool { return v.tag == tagNumber }

// IsObj reports whether v holds a heap object reference.
func (v Value) IsObj() bool { return v.tag == tagObj }

// IsNil reports whether v is the nil singleton.
func (v Value) IsNil() bool { return v.tag == tagNil }

// IsBool reports whether v is true or false.
func (v Value) IsBool() bool { return v.tag == tagTrue || v.tag == tagFalse }

// IsEmpty reports whether v is the Table free-slot sentinel.
func (v Value) IsEmpty() bool { return v.tag == tagEmpty }

// IsUndefined reports whether v is the not-yet-initialized-global sentinel.
func (v Value) IsUndefined() bool { return v.tag == tagUndefined }

// AsNumber returns v's float64 payload. Callers must check IsNumber first.
func (v Value) AsNumber() float64 { return v.num }

// AsBool returns v's bool payload. Callers must check IsBool first.
func (v Value) AsBool() bool { return v.tag == tagTrue }

// ObjPtr returns v's object pointer payload. Callers must check IsObj first.
func (v Value) ObjPtr() unsafe.Pointer { return v.ptr }

// Equal implements Crow's `==`. Numbers compare by IEEE value (so NaN
// != NaN); everything else compares by tag and payload, which for
// interned strings and every other heap object is pointer identity.
func (v Value) Equal(o Value) bool {
	if v.tag == tagNumber && o.tag == tagNumber {
		return v.num == o.num
	}
	return v == o
}
