package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/value"
)

// BoundMethod is the value produced by OP_GET_PROPERTY when the
// property named is a method rather than a field: the receiver and
// the method Closure, packaged so a later call re-supplies `this`
// without the VM needing to re-look-up the method.
type BoundMethod struct {
	Obj
	Receiver value.Value
	Method   *Closure
}

// NewBoundMethod allocates a BoundMethod binding method to receiver.
func NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	return &BoundMethod{Obj: Obj{Type: TypeBoundMethod}, Receiver: receiver, Method: method}
}

// FromBoundMethod boxes b as a value.Value.
func FromBoundMethod(b *BoundMethod) value.Value {
	return value.FromObj(unsafe.Pointer(b))
}

// AsBoundMethod unboxes v, which must hold a BoundMethod.
func AsBoundMethod(v value.Value) *BoundMethod {
	return (*BoundMethod)(v.ObjPtr())
}

// IsBoundMethod reports whether v holds a BoundMethod object.
func IsBoundMethod(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeBoundMethod
}
