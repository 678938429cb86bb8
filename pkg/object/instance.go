package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/table"
	"github.com/crowlang/crow/pkg/value"
)

// Instance is a runtime instance of a Class. Fields are late-bound: no
// set of field names is declared up front, assigning to a new field
// name on `this` simply grows the fields table.
type Instance struct {
	Obj
	Class  *Class
	Fields *table.Table
}

// NewInstance allocates a field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Obj: Obj{Type: TypeInstance}, Class: class, Fields: table.New()}
}

// FromInstance boxes i as a value.Value.
func FromInstance(i *Instance) value.Value {
	return value.FromObj(unsafe.Pointer(i))
}

// AsInstance unboxes v, which must hold an Instance.
func AsInstance(v value.Value) *Instance {
	return (*Instance)(v.ObjPtr())
}

// IsInstance reports whether v holds an Instance object.
func IsInstance(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeInstance
}
