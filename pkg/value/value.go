// Package value implements Crow's runtime Value in two interchangeable
// representations selected at build time:
//
//   - boxed.go (the default): NaN-boxing. Every Crow value -- nil, a
//     boolean, a double, or a reference to a heap object -- is one
//     64-bit word; non-number values are smuggled into the quiet-NaN
//     bit patterns IEEE 754 doubles can never take on.
//   - union.go (build tag "crow_portable"): a plain tagged struct, for
//     targets where pointer-in-mantissa tricks are off the table (a
//     49-bit-or-wider address space, or an allocator that hands out
//     high pointers).
//
// Both expose the identical API; equality, the constructors, and the
// predicates are the only operations aware of which representation is compiled
// in. Object identity works in either one because strings are interned
// (pkg/table): equal strings always share one heap allocation, so
// comparing Values is the same as comparing object identity.
package value

// IsFalsey implements Crow's truthiness rule: nil and false are falsey,
// everything else -- including 0 and "" -- is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}
