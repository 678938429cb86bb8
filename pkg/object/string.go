package object

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/value"
)

// String is an interned, immutable Crow string. Chars holds the
// actual bytes directly -- a Go string header already carries its own
// length, so there is no separate length field and nothing to
// NUL-terminate. Hash is computed once at construction and reused by
// every Table lookup that uses this string as a key.
type String struct {
	Obj
	Chars string
	Hash  uint32
}

// HashString computes the 32-bit FNV-1a hash of s, used both to
// intern s and to key any Table entry whose key is this string.
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// NewString allocates a fresh String object. Callers that need
// interning (pkg/vm, via its string-intern Table) should look up the
// raw bytes first and only call NewString on a miss.
func NewString(chars string, hash uint32) *String {
	return &String{Obj: Obj{Type: TypeString}, Chars: chars, Hash: hash}
}

// FromString boxes s as a value.Value.
func FromString(s *String) value.Value {
	return value.FromObj(unsafe.Pointer(s))
}

// AsString unboxes v, which must hold a String (callers check
// IsString first).
func AsString(v value.Value) *String {
	return (*String)(v.ObjPtr())
}

// IsString reports whether v holds a String object.
func IsString(v value.Value) bool {
	return v.IsObj() && TypeOf(v.ObjPtr()) == TypeString
}
