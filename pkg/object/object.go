// Package object implements Crow's heap object model: every Value
// that isn't a number, a bool, or nil points at one of the structs
// defined here. Each begins with an embedded Obj, which is both the
// GC's bookkeeping header (mark bit, object type tag, intrusive list
// link) and the stable address pkg/value's NaN-boxing points at --
// Obj being the first field of every concrete type is what makes
// casting an unsafe.Pointer back and forth between *Obj and e.g.
// *String sound.
package object

import "unsafe"

// Type tags which concrete struct an Obj heads.
type Type byte

const (
	TypeString Type = iota
	TypeFunction
	TypeClosure
	TypeUpvalue
	TypeClass
	TypeInstance
	TypeBoundMethod
	TypeNative
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	case TypeClosure:
		return "closure"
	case TypeUpvalue:
		return "upvalue"
	case TypeClass:
		return "class"
	case TypeInstance:
		return "instance"
	case TypeBoundMethod:
		return "bound method"
	case TypeNative:
		return "native"
	default:
		return "unknown"
	}
}

// Obj is the common header every heap object embeds as its first
// field. Next threads every live allocation into one list so the GC
// can sweep without relying on Go's own collector knowing the object
// graph -- the list itself, being ordinary *Obj pointers, is what
// keeps the underlying memory alive for Go's collector in turn.
type Obj struct {
	Type   Type
	Marked bool
	Next   *Obj
}

// TypeOf reports the Type of the object ptr points at.
func TypeOf(ptr unsafe.Pointer) Type {
	return (*Obj)(ptr).Type
}

// HeaderOf returns the Obj header embedded in ptr's pointee.
func HeaderOf(ptr unsafe.Pointer) *Obj {
	return (*Obj)(ptr)
}
