package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/table"
	"github.com/crowlang/crow/pkg/value"
)

// Class is a Crow class: a name and a method table mapping method-name
// Strings to Closures. Inheritance is implemented by copying the
// superclass's method table into the subclass's at OP_INHERIT time
// (table.AddAll), not by a runtime parent pointer -- methods added to
// a superclass after a subclass already exists do not retroactively
// appear on the subclass.
type Class struct {
	Obj
	Name    *String
	Methods *table.Table
}

// NewClass allocates an empty class named name.
func NewClass(name *String) *Class {
	return &Class{Obj: Obj{Type: TypeClass}, Name: name, Methods: table.New()}
}

// FromClass boxes c as a value.Value.
func FromClass(c *Class) value.Value {
	return value.FromObj(unsafe.Pointer(c))
}

// AsClass unboxes v, which must hold a Class.
func AsClass(v value.Value) *Class {
	return (*Class)(v.ObjPtr())
}

// IsClass reports whether v holds a Class object.
func IsClass(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeClass
}
