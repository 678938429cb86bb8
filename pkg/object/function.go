package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/value"
)

// Function is a compiled function body: its arity, how many upvalues
// its closures capture, and its own Chunk. The peak operand-stack
// depth pkg/compiler's static analysis computes is stored in
// Chunk.Slots, which is what the VM reads to size its stack growth
// checks; the Slots field here is not set by pkg/compiler and not
// read by pkg/vm.
type Function struct {
	Obj
	Arity        int
	UpvalueCount int
	Name         *String // nil for the top-level script function
	Chunk        *chunk.Chunk
	Slots        int
}

// NewFunction allocates a fresh, empty Function. The caller (the
// compiler) fills in Chunk, Arity, and UpvalueCount as it compiles
// the body.
func NewFunction() *Function {
	return &Function{Obj: Obj{Type: TypeFunction}, Chunk: chunk.New()}
}

// FromFunction boxes fn as a value.Value.
func FromFunction(fn *Function) value.Value {
	return value.FromObj(unsafe.Pointer(fn))
}

// AsFunction unboxes v, which must hold a Function.
func AsFunction(v value.Value) *Function {
	return (*Function)(v.ObjPtr())
}

// IsFunction reports whether v holds a Function object.
func IsFunction(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeFunction
}
