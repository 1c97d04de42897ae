// Package flow computes nullability of every trackable location at every
// point of a bound body.
//
// The walker visits the body once per outer pass in execution order. The
// state of a point maps slots (see package slots) to lattice values (see
// package nullstate). Boolean expressions produce a conditional state pair,
// so `x != null` makes x NotNull in the true branch only. Loops iterate to a
// fixpoint with diagnostics muted and then run once more reporting.
//
// Lambdas are analysed where they are written, starting from the state at
// that point. Local functions start from the join of the states at every
// call site, known only after the whole body was walked: when a call site
// changes the starting state of an already analysed local function the
// whole body is walked again, until nothing changes.
//
// Assignments copy states of members between structurally compatible
// values, so after `a = b` the known state of b.f becomes the state of a.f.
// There is no aliasing: a later change of b.f does not affect a.f.
package flow
