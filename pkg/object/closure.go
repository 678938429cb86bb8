package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/value"
)

// Closure pairs a compiled Function with the upvalues it captured at
// the point it was created. Every Crow function value the VM actually
// calls is a Closure, even one with zero upvalues -- OP_CLOSURE always
// wraps the Function constant it reads.
type Closure struct {
	Obj
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a Closure over fn with len(fn upvalues)
// freshly-nil upvalue slots, to be filled in by OP_CLOSURE's capture
// loop.
func NewClosure(fn *Function) *Closure {
	return &Closure{
		Obj:      Obj{Type: TypeClosure},
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
}

// FromClosure boxes c as a value.Value.
func FromClosure(c *Closure) value.Value {
	return value.FromObj(unsafe.Pointer(c))
}

// AsClosure unboxes v, which must hold a Closure.
func AsClosure(v value.Value) *Closure {
	return (*Closure)(v.ObjPtr())
}

// IsClosure reports whether v holds a Closure object.
func IsClosure(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeClosure
}
