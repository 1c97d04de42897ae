// Package cfgwalk is a generic structured control flow walker.
//
// Walker visits statements of a bound body in execution order and keeps the
// bookkeeping of a dataflow analysis: the current state, the conditional
// (when-true, when-false) pair produced by boolean expressions, pending
// branches of jumps that wait for their target, label states of backward
// jumps and loop fixpoints. What states are and what expressions do is up to
// the Rules strategy it is composed with.
package cfgwalk

import (
	"errors"
	"fmt"

	"github.com/sirkon/nullflow/internal/bound"
)

// ErrAborted is returned when the analysed tree is too deep to be walked.
var ErrAborted = errors.New("analysis aborted")

// State is a dataflow state.
type State[S any] interface {
	Clone() S
	Reachable() bool
}

// Rules is the per-node semantic strategy of a walk.
type Rules[S State[S]] interface {
	// Join merges src into dst keeping what holds on either path.
	Join(dst, src S) bool

	// Unreachable returns the state of code that cannot be reached.
	Unreachable() S

	// VisitExpr evaluates an expression for its value, the walker is unsplit afterwards.
	VisitExpr(e bound.Expr) error

	// VisitCondition evaluates a boolean expression, the walker is split afterwards.
	VisitCondition(e bound.Expr) error

	// VisitPattern matches the value of the switch expression against a
	// label, the walker is split afterwards.
	VisitPattern(sw *bound.Switch, label *bound.SwitchLabel) error

	EnterBlock(b *bound.Block) error
	VisitLocalDeclaration(d *bound.LocalDeclaration) error
	VisitLocalFunction(s *bound.LocalFunctionStatement) error
	VisitReturn(r *bound.Return) error
	VisitThrow(t *bound.Throw) error
	VisitTry(t *bound.Try) error

	// VisitForEachCollection evaluates the collection of a foreach loop.
	VisitForEachCollection(f *bound.ForEach) error

	// BeginForEachIteration assigns the iteration variable.
	BeginForEachIteration(f *bound.ForEach)

	// LoopLimit bounds the number of muted iterations of a loop.
	LoopLimit() int
}

// BranchKind tells what kind of jump created a pending branch.
type BranchKind int

const (
	BranchReturn BranchKind = iota
	BranchBreak
	BranchContinue
	BranchGoto
)

// PendingBranch is a jump waiting for its target to be visited.
type PendingBranch[S any] struct {
	Node  bound.Node
	Kind  BranchKind
	Label *bound.Label
	State S
}

// Walker drives a walk of one body.
type Walker[S State[S]] struct {
	rules Rules[S]

	state     S
	whenTrue  S
	whenFalse S
	split     bool

	pending []*PendingBranch[S]

	labels          map[*bound.Label]S
	labelsVisited   map[*bound.Label]bool
	backwardChanged bool

	breakables []breakable

	muted    int
	depth    int
	maxDepth int

	stats Stats
}

// breakable is a statement break and continue without a label leave.
type breakable struct {
	brk  *bound.Label
	cont *bound.Label
}

// Stats counts work done by a walker.
type Stats struct {
	LoopIterations    int
	MaxLoopIterations int
	BackwardJumps     int
}

// New creates a walker starting from the given state.
func New[S State[S]](rules Rules[S], initial S, maxDepth int) *Walker[S] {
	return &Walker[S]{
		rules:         rules,
		state:         initial,
		labels:        map[*bound.Label]S{},
		labelsVisited: map[*bound.Label]bool{},
		maxDepth:      maxDepth,
	}
}

// BeginPass prepares the walker for another pass over the body. Label
// states survive, everything else starts afresh.
func (w *Walker[S]) BeginPass(initial S) {
	w.state = initial
	w.split = false
	w.pending = nil
	w.labelsVisited = map[*bound.Label]bool{}
	w.backwardChanged = false
	w.breakables = nil
	w.muted = 0
	w.depth = 0
}

// BackwardChanged tells if a backward jump changed the state of its label
// after the label was visited, so the pass must be repeated.
func (w *Walker[S]) BackwardChanged() bool {
	return w.backwardChanged
}

// Stats returns counters collected so far.
func (w *Walker[S]) Stats() Stats {
	return w.stats
}

// --- States ---------------------------------------------------------------------------------------------------------

// State returns the current state. The walker must be unsplit.
func (w *Walker[S]) State() S {
	if w.split {
		panic("cfgwalk: unsplit state requested while split")
	}
	return w.state
}

// SetState makes s the current state and leaves the split mode.
func (w *Walker[S]) SetState(s S) {
	w.state = s
	w.split = false
}

// IsSplit tells if the walker holds a conditional state.
func (w *Walker[S]) IsSplit() bool {
	return w.split
}

// WhenTrue returns the state for the true outcome. The walker must be split.
func (w *Walker[S]) WhenTrue() S {
	if !w.split {
		panic("cfgwalk: conditional state requested while unsplit")
	}
	return w.whenTrue
}

// WhenFalse returns the state for the false outcome. The walker must be split.
func (w *Walker[S]) WhenFalse() S {
	if !w.split {
		panic("cfgwalk: conditional state requested while unsplit")
	}
	return w.whenFalse
}

// SetConditional sets the conditional state pair.
func (w *Walker[S]) SetConditional(whenTrue, whenFalse S) {
	w.whenTrue = whenTrue
	w.whenFalse = whenFalse
	w.split = true
}

// Split turns the current state into an equal conditional pair.
func (w *Walker[S]) Split() {
	if w.split {
		return
	}
	w.SetConditional(w.state.Clone(), w.state)
}

// Unsplit joins the conditional pair into a single state.
func (w *Walker[S]) Unsplit() {
	if !w.split {
		return
	}
	s := w.whenTrue
	w.rules.Join(s, w.whenFalse)
	w.SetState(s)
}

// SetUnreachable makes the current point unreachable.
func (w *Walker[S]) SetUnreachable() {
	w.SetState(w.rules.Unreachable())
}

// Reachable tells if the current point can be reached.
func (w *Walker[S]) Reachable() bool {
	if w.split {
		return w.whenTrue.Reachable() || w.whenFalse.Reachable()
	}
	return w.state.Reachable()
}

// --- Reporting ------------------------------------------------------------------------------------------------------

// Muted tells if the current visit is a non-final loop iteration whose
// findings must not be reported.
func (w *Walker[S]) Muted() bool {
	return w.muted > 0
}

// Mute suppresses reporting until the returned function is called.
func (w *Walker[S]) Mute() func() {
	w.muted++
	return func() { w.muted-- }
}

// Enter accounts one more level of recursion. Every successful Enter must be
// paired with Leave.
func (w *Walker[S]) Enter() error {
	if w.maxDepth > 0 && w.depth >= w.maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrAborted, w.maxDepth)
	}
	w.depth++
	return nil
}

// Leave undoes Enter.
func (w *Walker[S]) Leave() {
	w.depth--
}

// --- Pending branches -----------------------------------------------------------------------------------------------

// SavePending detaches pending branches collected so far, so the caller
// can look at branches created by a region alone.
func (w *Walker[S]) SavePending() []*PendingBranch[S] {
	saved := w.pending
	w.pending = nil
	return saved
}

// RestorePending puts saved branches back in front of the current ones.
func (w *Walker[S]) RestorePending(saved []*PendingBranch[S]) {
	w.pending = append(saved, w.pending...)
}

// DropPending replaces current pending branches with saved ones.
func (w *Walker[S]) DropPending(saved []*PendingBranch[S]) {
	w.pending = saved
}

// Pending returns branches waiting for their targets.
func (w *Walker[S]) Pending() []*PendingBranch[S] {
	return w.pending
}

// AddPending records a jump from the current point and makes the rest of
// the block unreachable.
func (w *Walker[S]) AddPending(node bound.Node, kind BranchKind, label *bound.Label) {
	w.Unsplit()
	w.pending = append(w.pending, &PendingBranch[S]{
		Node:  node,
		Kind:  kind,
		Label: label,
		State: w.state,
	})
	w.SetUnreachable()
}

// ResolveBranches joins every pending branch targeting label into the
// current state. It tells if there were any.
func (w *Walker[S]) ResolveBranches(label *bound.Label) bool {
	if label == nil {
		return false
	}

	w.Unsplit()
	var found bool
	rest := w.pending[:0]
	for _, p := range w.pending {
		if p.Label != label || p.Kind == BranchReturn {
			rest = append(rest, p)
			continue
		}
		w.rules.Join(w.state, p.State)
		found = true
	}
	clear(w.pending[len(rest):])
	w.pending = rest
	return found
}
