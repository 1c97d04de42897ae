// Package bound defines the bound tree consumed by the nullability walker.
//
// A bound tree is the output of a binder: every name is already resolved to a
// symbol, every expression carries its type, implicit conversions are explicit
// nodes and every jump refers to its target label. The model is shaped after
// languages with nullable reference types (properties, events, tuples,
// nullable value types, local functions and lambdas); front ends lower their
// own syntax into it.
package bound
