package flow

import (
	"log/slog"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/cfgwalk"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
	"github.com/sirkon/nullflow/internal/report"
	"github.com/sirkon/nullflow/internal/slots"
)

type flowWalker = cfgwalk.Walker[*nullstate.LocalState]

// walker holds everything one Analyze call needs. It implements the
// semantic rules of the generic control flow walker.
type walker struct {
	opts        Options
	log         *slog.Logger
	annotations AnnotationProvider
	conversions bound.ConversionClassifier

	root      *bound.Function
	rootTable *slots.Table
	rootFlow  *flowWalker

	frame

	nested     map[*bound.Function]*nestedScope
	localFuncs map[*bound.Function]*LocalFunctionState

	initial      map[string]nullstate.NullableFlowState
	placeholders map[bound.Node]*bound.Symbol

	// Per pass data.
	declared             map[*bound.Function]bool
	sink                 *report.Reporter
	results              map[bound.Expr]TypeWithState
	order                []bound.Expr
	receivers            map[*bound.ConditionalReceiver]receiver
	snapshots            []*Snapshot
	stateChangedAfterUse bool
	backwardChanged      bool
	passes               int
}

// frame is the part of the walker bound to the body being walked.
type frame struct {
	fn       *bound.Function
	table    *slots.Table
	cfg      *flowWalker
	tries    []*tryRegion
	accesses []receiver
}

// receiver is the evaluated receiver of a conditional access.
type receiver struct {
	slot  int
	value TypeWithState
}

var _ cfgwalk.Rules[*nullstate.LocalState] = (*walker)(nil)

func newWalker(fn *bound.Function, opts Options) *walker {
	w := &walker{
		opts:         opts,
		log:          opts.Logger,
		annotations:  opts.Annotations,
		conversions:  opts.Conversions,
		root:         fn,
		rootTable:    slots.New(),
		nested:       map[*bound.Function]*nestedScope{},
		localFuncs:   map[*bound.Function]*LocalFunctionState{},
		placeholders: map[bound.Node]*bound.Symbol{},
		sink:         report.New(),
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}
	if w.annotations == nil {
		w.annotations = SymbolAnnotations{}
	}
	if w.conversions == nil {
		w.conversions = bound.DefaultClassifier{}
	}
	if opts.InitialState != nil {
		w.initial = map[string]nullstate.NullableFlowState{}
		for _, v := range opts.InitialState.Variables {
			w.initial[v.Path] = v.State
		}
	}

	w.rootFlow = cfgwalk.New[*nullstate.LocalState](w, nullstate.New(w.rootTable.ID(), 0), opts.MaxDepth)
	w.frame = frame{fn: fn, table: w.rootTable, cfg: w.rootFlow}
	return w
}

// --- Rules --------------------------------------------------------------------------------------------------------------

// Join implements cfgwalk.Rules.
func (w *walker) Join(dst, src *nullstate.LocalState) bool {
	w.normalize(dst)
	w.normalize(src)
	return dst.Join(src)
}

// Unreachable implements cfgwalk.Rules.
func (w *walker) Unreachable() *nullstate.LocalState {
	return nullstate.Unreachable(w.table.ID())
}

// LoopLimit implements cfgwalk.Rules.
func (w *walker) LoopLimit() int {
	return 3*w.slotCount() + 3
}

func (w *walker) slotCount() int {
	var n int
	for range w.table.All() {
		n++
	}
	return n
}

// --- States -------------------------------------------------------------------------------------------------------------

// current returns the current unsplit state.
func (w *walker) current() *nullstate.LocalState {
	w.cfg.Unsplit()
	return w.cfg.State()
}

// normalize extends the state and its containers with slots allocated since
// the state was created.
func (w *walker) normalize(s *nullstate.LocalState) {
	for cur := s; cur != nil; cur = cur.Container() {
		cur.Normalize(w.table.Visible(cur.ID()), w.defaultOf)
	}
}

func (w *walker) get(s *nullstate.LocalState, slot int) nullstate.NullableFlowState {
	if slot <= 0 {
		return nullstate.NotNull
	}
	w.normalize(s)
	return s.Get(slot)
}

// set changes the slot in s. Weak values are remembered by enclosing try
// regions, so catch and finally blocks know about them.
func (w *walker) set(s *nullstate.LocalState, slot int, v nullstate.NullableFlowState) {
	if slot <= 0 || !s.Reachable() {
		return
	}
	w.normalize(s)
	s.Set(slot, v)
	if v.IsNotNull() {
		return
	}
	for _, r := range w.tries {
		r.writes.Set(slot, r.writes.Get(slot).Join(v))
	}
}

// alloc returns the slot of the location, allocating it when needed.
func (w *walker) alloc(symbol *bound.Symbol, containingSlot int) int {
	return w.table.GetOrCreate(symbol, containingSlot)
}

// defaultOf returns the state a slot has before anything is known about it.
func (w *walker) defaultOf(slot int) nullstate.NullableFlowState {
	id, ok := w.table.Identifier(slot)
	if !ok {
		return nullstate.NotNull
	}
	if w.initial != nil {
		if v, ok := w.initial[w.table.Path(slot)]; ok {
			return v
		}
	}

	sym := id.Symbol
	switch sym.Kind {
	case bound.SymbolThis, bound.SymbolPlaceholder:
		return nullstate.NotNull
	case bound.SymbolParameter:
		if sym.RefKind == bound.RefOut {
			return nullstate.NotNull
		}
		a := w.annotations.Parameter(sym.Owner, sym)
		s := declaredState(sym.Type)
		switch {
		case a.Has(bound.DisallowNull):
			return nullstate.NotNull
		case a.Has(bound.AllowNull):
			return s.Join(maybeNullOf(sym.Type))
		}
		return s
	case bound.SymbolLocal, bound.SymbolRangeVariable:
		return declaredState(sym.Type)
	default:
		return applyAnnotations(sym.Type, declaredState(sym.Type), w.annotations.Member(sym))
	}
}

// --- Reporting ----------------------------------------------------------------------------------------------------------

// report records a flow diagnostic unless the current code is unreachable
// or a loop is still looking for its fixpoint.
func (w *walker) report(rule nullrules.Rule, node report.Ranged, args ...any) {
	w.reportPhase(report.PhaseFlow, rule, node, args...)
}

func (w *walker) reportPhase(phase report.Phase, rule nullrules.Rule, node report.Ranged, args ...any) {
	if w.cfg.Muted() || !w.cfg.Reachable() {
		return
	}
	w.sink.Phase(phase).Report(rule, node, args...)
}
