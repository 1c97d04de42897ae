package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/cfgwalk"
	"github.com/sirkon/nullflow/internal/nullstate"
	"github.com/sirkon/nullflow/internal/slots"
)

// LocalFunctionState is the summary of the states a local function can be
// called with.
type LocalFunctionState struct {
	// StartingState is the join of the states of the declaring function at
	// every use of the local function. It is unreachable until the first use.
	StartingState *nullstate.LocalState

	// Visited is set when the body was analysed with the current
	// StartingState.
	Visited bool

	scope int
}

// nestedScope is the slot table and the flow walker of a nested function.
// Both live through the whole analysis run, so slots and label states stay
// valid when the body is analysed again.
type nestedScope struct {
	table *slots.Table
	cfg   *flowWalker
}

func (w *walker) nestedScopeOf(fn *bound.Function) *nestedScope {
	if ns := w.nested[fn]; ns != nil {
		return ns
	}

	table := w.table.Nested()
	ns := &nestedScope{
		table: table,
		cfg:   cfgwalk.New[*nullstate.LocalState](w, nullstate.Unreachable(table.ID()), w.opts.MaxDepth),
	}
	w.nested[fn] = ns
	return ns
}

// scopeOf returns the id of the slot table of fn.
func (w *walker) scopeOf(fn *bound.Function) int {
	if fn == nil || fn == w.root {
		return w.rootTable.ID()
	}
	if ns := w.nested[fn]; ns != nil {
		return ns.table.ID()
	}
	return w.table.ID()
}

func (w *walker) localFunctionState(fn *bound.Function) *LocalFunctionState {
	if lfs := w.localFuncs[fn]; lfs != nil {
		return lfs
	}

	scope := w.scopeOf(fn.Parent)
	lfs := &LocalFunctionState{
		StartingState: nullstate.Unreachable(scope),
		scope:         scope,
	}
	w.localFuncs[fn] = lfs
	return lfs
}

// analyzeLocalFunction analyses the body of a local function starting from
// its summary of use sites.
func (w *walker) analyzeLocalFunction(fn *bound.Function) error {
	lfs := w.localFunctionState(fn)
	w.declared[fn] = true

	var start *nullstate.LocalState
	if lfs.StartingState.Reachable() {
		start = lfs.StartingState.Clone()
	} else {
		start = w.topState()
	}
	lfs.Visited = true
	return w.analyzeNested(fn, start)
}

// topState is a reachable state of the current scope knowing nothing bad
// about any variable.
func (w *walker) topState() *nullstate.LocalState {
	cur := w.current()
	if cur.Reachable() {
		return cur.Cleared()
	}
	return nullstate.New(w.table.ID(), 0)
}

// useLocalFunction joins the current state into the summary of the local
// function. A summary changed after the body was analysed calls for another
// pass over the whole body.
func (w *walker) useLocalFunction(fn *bound.Function) {
	lfs := w.localFunctionState(fn)
	cur := w.current()
	if !cur.Reachable() {
		return
	}

	projected := cur.ForScope(lfs.scope)
	if !projected.Reachable() {
		return
	}
	projected = projected.Clone()
	w.normalize(projected)
	w.normalize(lfs.StartingState)

	if lfs.StartingState.Join(projected) && lfs.Visited {
		lfs.Visited = false
		w.stateChangedAfterUse = true
		w.log.Debug("local function summary changed after use", "function", fn.Name, "pass", w.passes)
	}
}

func (w *walker) visitLambda(e *bound.Lambda) error {
	return w.analyzeNested(e.Func, w.current().Clone())
}

func (w *walker) visitFunctionRef(e *bound.FunctionRef) (TypeWithState, error) {
	if e.Receiver != nil {
		recv, err := w.visitRvalue(e.Receiver)
		if err != nil {
			return recv, err
		}
		if e.Func == nil || !e.Func.Static {
			w.checkDereference(e.Receiver, recv)
		}
	}
	if e.Func != nil && e.Func.Kind == bound.FunctionLocal {
		w.useLocalFunction(e.Func)
	}
	return notNullOf(e.Typ), nil
}

// analyzeNested walks the body of a nested function starting from the state
// of the enclosing function.
func (w *walker) analyzeNested(fn *bound.Function, start *nullstate.LocalState) error {
	if fn.Body == nil {
		return nil
	}

	ns := w.nestedScopeOf(fn)
	muted := w.cfg.Muted()
	saved := w.frame
	w.frame = frame{fn: fn, table: ns.table, cfg: ns.cfg}
	defer func() { w.frame = saved }()

	w.log.Debug("nested function", "function", fn.Name, "kind", fn.Kind, "pass", w.passes)
	state := start.Nested(ns.table.ID())
	w.declareParameters(fn)
	w.normalize(state)
	if w.opts.TakeSnapshots && !muted {
		w.takeSnapshot(fn, state)
	}

	if _, err := w.walkBody(fn, state, muted); err != nil {
		return err
	}
	if ns.cfg.BackwardChanged() {
		w.backwardChanged = true
	}
	return nil
}

func (w *walker) declareParameters(fn *bound.Function) {
	if fn.This != nil {
		w.alloc(fn.This, 0)
	}
	for _, p := range fn.Params {
		w.alloc(p, 0)
	}
}

// walkBody walks the body of the current frame function and returns the
// join of states at every exit.
func (w *walker) walkBody(fn *bound.Function, state *nullstate.LocalState, muted bool) (*nullstate.LocalState, error) {
	w.cfg.BeginPass(state)
	if muted {
		defer w.cfg.Mute()()
	}

	if err := w.cfg.VisitBlock(fn.Body); err != nil {
		return nil, err
	}

	end := w.current()
	if end.Reachable() {
		w.checkExit(fn.Body, nil, nil)
	}

	final := end.Clone()
	for _, p := range w.cfg.Pending() {
		if p.Kind == cfgwalk.BranchReturn {
			w.Join(final, p.State)
		}
	}
	return final, nil
}
