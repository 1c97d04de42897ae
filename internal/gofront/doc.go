// Package gofront lowers type-checked Go function bodies into bound bodies
// the nullability walker understands.
//
// # Mapping
//
// Pointers, interfaces and function values are references: they can be nil
// and using a nil one panics. Everything else, slices, maps and channels
// included, is a value that is never tracked.
//
//	p.f, *p       member access and indirection, p is checked
//	x == nil      binary equality with the null literal
//	&T{...}       object creation with member initializers
//	func() {...}  lambda analysed at the point it is created
//	panic(v)      throw
//
// Locals may hold nil. Parameters, results and fields of code the analysis
// knows nothing about are oblivious: nil checks teach the walker, nothing
// else is assumed. Config entries refine signatures of known functions.
//
// Syntax without a nullability meaning degrades to opaque values whose
// operands are still evaluated.
package gofront
