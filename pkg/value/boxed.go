//go:build !crow_portable

package value

import (
	"math"
	"unsafe"
)

// Value is a NaN-boxed Crow runtime value. IEEE 754 doubles reserve a
// large space of bit patterns for NaN; a "quiet NaN" leaves 51
// mantissa bits free once the exponent and the quiet bit are fixed,
// which is enough room for a tag and a 48-bit object pointer (the
// unused high bits of every pointer the Go allocator hands out on
// amd64/arm64). Any bit pattern that isn't one of the reserved
// quiet-NaN patterns is taken at face value as a float64.
type Value uint64

const (
	signBit uint64 = 1 << 63
	qnan    uint64 = 0x7ffc000000000000

	tagNil       uint64 = 1
	tagFalse     uint64 = 2
	tagTrue      uint64 = 3
	tagEmpty     uint64 = 4
	tagUndefined uint64 = 5
)

// Singleton values. Empty and Undefined never appear in source-visible
// positions: Empty marks a free Table slot and Undefined marks a
// declared-but-not-yet-initialized global.
var (
	Nil       = Value(qnan | tagNil)
	False     = Value(qnan | tagFalse)
	True      = Value(qnan | tagTrue)
	Empty     = Value(qnan | tagEmpty)
	Undefined = Value(qnan | tagUndefined)
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
	return Value(math.Float64bits(f))
}

// FromObj boxes a pointer to a heap object (an *object.Obj, or any
// struct whose first field is one). The caller must keep the object
// reachable through some other Go reference -- ordinarily the VM's
// object list -- for as long as any Value produced here is alive;
// pkg/vm's GC is what keeps that list alive in turn.
func FromObj(ptr unsafe.Pointer) Value {
	return Value(signBit | qnan | uint64(uintptr(ptr)))
}

// IsNumber reports whether v holds a float64 rather than a singleton
// or an object reference.
func (v Value) IsNumber() bool { return uint64(v)&qnan != qnan }

// IsObj reports whether v holds a heap object reference.
func (v Value) IsObj() bool { return uint64(v)&(qnan|signBit) == (qnan | signBit) }

// IsNil reports whether v is the nil singleton.
func (v Value) IsNil() bool { return v == Nil }

// IsBool reports whether v is true or false.
func (v Value) IsBool() bool { return v == True || v == False }

// IsEmpty reports whether v is the Table free-slot sentinel.
func (v Value) IsEmpty() bool { return v == Empty }

// IsUndefined reports whether v is the not-yet-initialized-global sentinel.
func (v Value) IsUndefined() bool { return v == Undefined }

// AsNumber returns v's float64 payload. Callers must check IsNumber first.
func (v Value) AsNumber() float64 { return math.Float64frombits(uint64(v)) }

// AsBool returns v's bool payload. Callers must check IsBool first.
func (v Value) AsBool() bool { return v == True }

// ObjPtr returns v's object pointer payload. Callers must check IsObj first.
func (v Value) ObjPtr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(uint64(v) &^ (signBit | qnan)))
}

// Equal implements Crow's `==`. Numbers compare by IEEE value (so NaN
// != NaN); everything else compares by bit pattern, which for
// interned strings and every other heap object is pointer identity.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		return v.AsNumber() == o.AsNumber()
	}
	return v == o
}
