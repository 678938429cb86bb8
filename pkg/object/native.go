package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/value"
)

// NativeFn is a Go-implemented Crow function, called with its
// argument slice. The bool result is the native calling convention's
// success flag: true means the Value is the call's result, false
// means the Value is an error message string and the VM raises a
// runtime error instead of producing a value. This is the "modern"
// (argCount, argsBase) bool convention; the vestigial variant that
// returns a Value directly with no way to signal failure is not
// implemented.
type NativeFn func(args []value.Value) (value.Value, bool)

// Native wraps a NativeFn as a callable Crow value.
type Native struct {
	Obj
	Name  string
	Arity int
	Fn    NativeFn
}

// NewNative allocates a Native wrapping fn.
func NewNative(name string, arity int, fn NativeFn) *Native {
	return &Native{Obj: Obj{Type: TypeNative}, Name: name, Arity: arity, Fn: fn}
}

// FromNative boxes n as a value.Value.
func FromNative(n *Native) value.Value {
	return value.FromObj(unsafe.Pointer(n))
}

// AsNative unboxes v, which must hold a Native.
func AsNative(v value.Value) *Native {
	return (*Native)(v.ObjPtr())
}

// IsNative reports whether v holds a Native object.
func IsNative(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeNative
}
