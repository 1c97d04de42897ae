package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
	"github.com/sirkon/nullflow/internal/report"
	"github.com/sirkon/nullflow/internal/slots"
)

// EnterBlock implements cfgwalk.Rules. Locals of the block get their slots
// before anything else, so local functions analysed right here see them.
func (w *walker) EnterBlock(b *bound.Block) error {
	for _, local := range b.Locals {
		w.alloc(local, 0)
	}
	for _, lf := range b.LocalFunctions() {
		if err := w.analyzeLocalFunction(lf.Func); err != nil {
			return err
		}
	}
	return nil
}

// VisitLocalFunction implements cfgwalk.Rules.
func (w *walker) VisitLocalFunction(s *bound.LocalFunctionStatement) error {
	if w.declared[s.Func] {
		return nil
	}
	return w.analyzeLocalFunction(s.Func)
}

// VisitLocalDeclaration implements cfgwalk.Rules.
func (w *walker) VisitLocalDeclaration(d *bound.LocalDeclaration) error {
	slot := w.alloc(d.Local, 0)
	if d.Init == nil {
		cur := w.current()
		w.set(cur, slot, declaredState(d.Local.Type))
		w.inheritDefaultStateIn(cur, slot)
		return nil
	}

	v, err := w.visitRvalue(d.Init)
	if err != nil {
		return err
	}
	if v.MayBeNull() && d.Local.Type.DisallowsNull() {
		w.report(nullrules.NullReferenceAssignment(), d.Init, d.Local.Name)
	}
	w.trackValue(d.Local.Type, slot, d.Init, v)
	return nil
}

// VisitReturn implements cfgwalk.Rules.
func (w *walker) VisitReturn(r *bound.Return) error {
	if r.Value == nil {
		w.checkExit(r, nil, nil)
		return nil
	}

	v, err := w.visitExpr(r.Value)
	if err != nil {
		return err
	}

	// Conditional postconditions are checked against the state of the
	// matching outcome of a boolean result.
	var whenTrue, whenFalse *nullstate.LocalState
	if w.cfg.IsSplit() {
		whenTrue, whenFalse = w.cfg.WhenTrue().Clone(), w.cfg.WhenFalse().Clone()
	}
	w.cfg.Unsplit()

	w.checkReturnValue(r, v)
	w.checkExit(r, whenTrue, whenFalse)
	return nil
}

func (w *walker) checkReturnValue(r *bound.Return, v TypeWithState) {
	if !v.MayBeNull() {
		return
	}

	a, notNullIfNotNull := w.annotations.Return(w.fn)
	if a.Has(bound.MaybeNull) {
		return
	}
	cur := w.current()
	for _, name := range notNullIfNotNull {
		p := w.fn.Param(name)
		if p == nil {
			continue
		}
		if w.get(cur, w.alloc(p, 0)).MayBeNull() {
			return
		}
	}

	if a.Has(bound.NotNull) || w.fn.Return.DisallowsNull() {
		w.report(nullrules.NullReferenceReturn(), r.Value, w.fn.Name)
	}
}

// checkExit checks postconditions of parameters and members when leaving
// the function. whenTrue and whenFalse are set for boolean results.
func (w *walker) checkExit(node report.Ranged, whenTrue, whenFalse *nullstate.LocalState) {
	cur := w.current()
	if !cur.Reachable() {
		return
	}

	for _, p := range w.fn.Params {
		a := w.annotations.Parameter(w.fn, p)
		slot := w.alloc(p, 0)
		if slot <= 0 {
			continue
		}

		byRef := p.RefKind == bound.RefOut || p.RefKind == bound.RefRef
		weakened := a.Any(bound.MaybeNull | bound.MaybeNullWhenTrue | bound.MaybeNullWhenFalse | bound.AllowNull)
		if a.Has(bound.NotNull) || (byRef && p.Type.DisallowsNull() && !weakened) {
			if w.get(cur, slot).MayBeNull() {
				w.reportPhase(report.PhaseExit, nullrules.ParameterNotNullOnExit(), node, p.Name)
			}
		}
		if whenTrue != nil && a.Has(bound.NotNullWhenTrue) && w.get(whenTrue, slot).MayBeNull() {
			w.reportPhase(report.PhaseExit, nullrules.ParameterNotNullWhenOnExit(), node, p.Name, true)
		}
		if whenFalse != nil && a.Has(bound.NotNullWhenFalse) && w.get(whenFalse, slot).MayBeNull() {
			w.reportPhase(report.PhaseExit, nullrules.ParameterNotNullWhenOnExit(), node, p.Name, false)
		}
	}

	if w.fn.This == nil || len(w.fn.MemberNotNull) == 0 {
		return
	}
	this := w.alloc(w.fn.This, 0)
	for _, m := range w.fn.MemberNotNull {
		slot := w.alloc(m, this)
		if slot > 0 && w.get(cur, slot).MayBeNull() {
			w.reportPhase(report.PhaseExit, nullrules.MemberNotNullOnExit(), node, m.Name)
		}
	}
}

// VisitThrow implements cfgwalk.Rules.
func (w *walker) VisitThrow(t *bound.Throw) error {
	if t.Value == nil {
		return nil
	}
	v, err := w.visitRvalue(t.Value)
	if err != nil {
		return err
	}
	if v.MayBeNull() {
		w.report(nullrules.ThrowPossibleNull(), t.Value)
	}
	return nil
}

// VisitForEachCollection implements cfgwalk.Rules.
func (w *walker) VisitForEachCollection(f *bound.ForEach) error {
	v, err := w.visitRvalue(f.Collection)
	if err != nil {
		return err
	}
	w.checkDereference(f.Collection, v)
	return nil
}

// BeginForEachIteration implements cfgwalk.Rules.
func (w *walker) BeginForEachIteration(f *bound.ForEach) {
	if f.Var == nil {
		return
	}

	elem := f.Element
	if elem.IsZero() {
		elem = f.Var.Type
	}
	value := TypeWithState{Type: elem, State: declaredState(elem)}
	w.track(w.current(), f.Var.Type, w.alloc(f.Var, 0), value, slots.Untracked)
}

// tryRegion collects weak states written inside a try statement part.
type tryRegion struct {
	writes *nullstate.LocalState
}

func (w *walker) beginRegion(s *nullstate.LocalState) *tryRegion {
	r := &tryRegion{writes: s.Cleared()}
	w.tries = append(w.tries, r)
	return r
}

func (w *walker) endRegion() {
	w.tries = w.tries[:len(w.tries)-1]
}

// VisitTry implements cfgwalk.Rules.
//
// A catch block starts from the state before the try joined with everything
// written inside the try block. The finally block starts from the join of
// every way to leave the try and catch blocks. Every way out of the whole
// statement then keeps what it knew, strengthened by the end of the finally
// block and weakened by values written in it.
func (w *walker) VisitTry(t *bound.Try) error {
	pre := w.current().Clone()
	if !pre.Reachable() {
		pre = nullstate.New(w.table.ID(), 0)
		w.normalize(pre)
	}
	saved := w.cfg.SavePending()

	region := w.beginRegion(pre)
	if err := w.cfg.VisitBlock(t.Body); err != nil {
		w.endRegion()
		return err
	}
	afterTryCatch := w.current()

	catchEntry := pre.Clone()
	w.normalize(catchEntry)
	catchEntry.Join(region.writes)
	for _, c := range t.Catches {
		w.cfg.SetState(catchEntry.Clone())
		if c.Local != nil {
			w.track(w.current(), c.Local.Type, w.alloc(c.Local, 0), notNullOf(c.Local.Type), slots.Untracked)
		}
		if c.Filter != nil {
			whenTrue, _, err := w.cfg.VisitCondition(c.Filter)
			if err != nil {
				w.endRegion()
				return err
			}
			w.cfg.SetState(whenTrue)
		}
		if err := w.cfg.VisitBlock(c.Body); err != nil {
			w.endRegion()
			return err
		}
		w.Join(afterTryCatch, w.current())
	}
	w.endRegion()

	if t.Finally == nil {
		w.cfg.SetState(afterTryCatch)
		w.cfg.RestorePending(saved)
		return nil
	}

	inner := w.cfg.SavePending()
	entry := pre.Clone()
	w.normalize(entry)
	entry.Join(region.writes)
	w.Join(entry, afterTryCatch)
	for _, p := range inner {
		w.Join(entry, p.State)
	}

	w.cfg.SetState(entry)
	finallyRegion := w.beginRegion(entry)
	err := w.cfg.VisitBlock(t.Finally)
	w.endRegion()
	if err != nil {
		return err
	}
	fromFinally := w.cfg.SavePending()
	finallyEnd := w.current()

	if !finallyEnd.Reachable() {
		w.cfg.DropPending(append(saved, fromFinally...))
		w.cfg.SetUnreachable()
		return nil
	}

	for _, p := range inner {
		p.State = w.afterFinally(p.State, finallyEnd, finallyRegion.writes)
	}
	w.cfg.DropPending(append(append(saved, inner...), fromFinally...))
	w.cfg.SetState(w.afterFinally(afterTryCatch, finallyEnd, finallyRegion.writes))
	return nil
}

func (w *walker) afterFinally(s, finallyEnd, writes *nullstate.LocalState) *nullstate.LocalState {
	if !s.Reachable() {
		return s
	}
	res := s.Clone()
	w.normalize(res)
	w.normalize(finallyEnd)
	res.Meet(finallyEnd)
	res.Join(writes)
	return res
}
