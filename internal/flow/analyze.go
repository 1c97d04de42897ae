package flow

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/cfgwalk"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
	"github.com/sirkon/nullflow/internal/report"
	"github.com/sirkon/nullflow/internal/slots"
)

const (
	// DefaultMaxDepth bounds the nesting of statements and expressions.
	DefaultMaxDepth = 1000

	// DefaultMaxPasses bounds the number of walks over one body.
	DefaultMaxPasses = 32
)

// ErrAnalysisAborted is returned when a body is too deep to be analysed.
var ErrAnalysisAborted = cfgwalk.ErrAborted

// Options configures Analyze. The zero value is usable.
type Options struct {
	// Annotations supplies pre- and postconditions. SymbolAnnotations is used when nil.
	Annotations AnnotationProvider

	// Conversions classifies conversions synthesized by the walker.
	// bound.DefaultClassifier is used when nil.
	Conversions bound.ConversionClassifier

	// Reporter receives diagnostics of the final pass when set.
	Reporter *report.Reporter

	// InitialState gives states of variables captured from an enclosing
	// body, by their paths. It is used to analyse a lambda or a local
	// function on its own and is rejected for other functions.
	InitialState *Snapshot

	// TakeSnapshots records the state at the entry of every nested function.
	TakeSnapshots bool

	MaxDepth  int
	MaxPasses int

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	return o
}

// Stats counts work done by an analysis.
type Stats struct {
	Passes            int
	LoopIterations    int
	MaxLoopIterations int
	BackwardJumps     int
	Slots             int
	NestedFunctions   int
}

// Result is the outcome of an analysis.
type Result struct {
	Function *bound.Function

	// Final is the join of states at every exit of the body.
	Final *nullstate.LocalState

	// Expressions maps every visited expression to its type and state.
	Expressions map[bound.Expr]TypeWithState
	Index       *PositionIndex

	Diagnostics []report.Diagnostic
	Snapshots   []*Snapshot
	Stats       Stats
	Slots       *slots.Table
}

// StateOf returns the final state of a variable of the body by its path,
// like `p` or `this.next.value`.
func (r *Result) StateOf(path string) (nullstate.NullableFlowState, bool) {
	if r.Final == nil {
		return nullstate.NotNull, false
	}
	for slot := range r.Slots.All() {
		if r.Slots.Path(slot) == path {
			return r.Final.Get(slot), true
		}
	}
	return nullstate.NotNull, false
}

// ExpressionAt returns the innermost expression covering the position.
func (r *Result) ExpressionAt(pos token.Pos) (bound.Expr, TypeWithState, bool) {
	if r.Index == nil {
		return nil, TypeWithState{}, false
	}
	return r.Index.At(pos)
}

// Analyze computes nullability of the body of fn.
//
// A body too deep to be walked produces ErrAnalysisAborted together with a
// result holding the NUL900 diagnostic only: nothing else is known.
func Analyze(fn *bound.Function, opts Options) (*Result, error) {
	if fn == nil || fn.Body == nil {
		return nil, errors.New("nothing to analyze: no function body")
	}
	if opts.InitialState != nil && !fn.IsNested() {
		return nil, fmt.Errorf("%s captures nothing: snapshots apply to lambdas and local functions", fn.Name)
	}
	opts = opts.withDefaults()

	w := newWalker(fn, opts)
	res, err := w.run()
	if err != nil {
		if !errors.Is(err, cfgwalk.ErrAborted) {
			return nil, fmt.Errorf("analyze %s: %w", fn.Name, err)
		}

		d := report.Diagnostic{
			Phase: report.PhaseFlow,
			Rule:  nullrules.AnalysisIncomplete(),
			Pos:   fn.Pos(),
			End:   fn.End(),
			Args:  []any{fn.Name, err},
		}
		d.Message = d.Rule.Format(d.Args...)
		if opts.Reporter != nil {
			opts.Reporter.Report(d)
		}
		w.log.Debug("analysis abandoned", "function", fn.Name, "error", err)
		return &Result{
			Function:    fn,
			Diagnostics: []report.Diagnostic{d},
			Slots:       w.rootTable,
		}, fmt.Errorf("analyze %s: %w", fn.Name, err)
	}

	if opts.Reporter != nil {
		opts.Reporter.Merge(w.sink)
	}
	return res, nil
}

// run walks the body until no local function summary and no backward jump
// target changed after it was used.
func (w *walker) run() (*Result, error) {
	var final *nullstate.LocalState
	for {
		w.beginPass()
		w.log.Debug("pass started", "function", w.root.Name, "pass", w.passes)

		w.declareParameters(w.root)
		state := nullstate.New(w.rootTable.ID(), 0)
		f, err := w.walkBody(w.root, state, false)
		if err != nil {
			return nil, err
		}
		final = f
		if w.rootFlow.BackwardChanged() {
			w.backwardChanged = true
		}

		if !w.stateChangedAfterUse && !w.backwardChanged {
			break
		}
		if w.passes >= w.opts.MaxPasses {
			w.log.Warn("pass limit reached", "function", w.root.Name, "passes", w.passes)
			break
		}
		w.log.Debug(
			"body needs another pass",
			"function", w.root.Name,
			"local-function-changed", w.stateChangedAfterUse,
			"backward-jump-changed", w.backwardChanged,
		)
	}

	return w.result(final), nil
}

func (w *walker) beginPass() {
	w.passes++
	w.frame = frame{fn: w.root, table: w.rootTable, cfg: w.rootFlow}
	w.declared = map[*bound.Function]bool{}
	w.sink = report.New()
	w.results = map[bound.Expr]TypeWithState{}
	w.order = nil
	w.receivers = map[*bound.ConditionalReceiver]receiver{}
	w.snapshots = nil
	w.stateChangedAfterUse = false
	w.backwardChanged = false
}

func (w *walker) result(final *nullstate.LocalState) *Result {
	stats := Stats{
		Passes:          w.passes,
		Slots:           w.rootTable.Count(),
		NestedFunctions: len(w.nested),
	}
	addWalker := func(f *flowWalker) {
		s := f.Stats()
		stats.LoopIterations += s.LoopIterations
		stats.MaxLoopIterations = max(stats.MaxLoopIterations, s.MaxLoopIterations)
		stats.BackwardJumps += s.BackwardJumps
	}
	addWalker(w.rootFlow)
	for _, ns := range w.nested {
		addWalker(ns.cfg)
		stats.Slots += ns.table.Count()
	}

	index, err := newPositionIndex(w.order, w.results)
	if err != nil {
		w.log.Debug("position index incomplete", "function", w.root.Name, "err", err)
	}

	return &Result{
		Function:    w.root,
		Final:       final,
		Expressions: w.results,
		Index:       index,
		Diagnostics: w.sink.Reports(),
		Snapshots:   w.snapshots,
		Stats:       stats,
		Slots:       w.rootTable,
	}
}
