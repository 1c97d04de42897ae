package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
)

// VisitCondition implements cfgwalk.Rules.
func (w *walker) VisitCondition(e bound.Expr) error {
	_, err := w.visitExpr(e)
	return err
}

func (w *walker) visitBinary(e *bound.Binary) (TypeWithState, error) {
	if e.Op == bound.BinaryLogicalAnd || e.Op == bound.BinaryLogicalOr {
		return w.visitLogical(e)
	}

	left, err := w.visitRvalue(e.Left)
	if err != nil {
		return left, err
	}
	right, err := w.visitRvalue(e.Right)
	if err != nil {
		return right, err
	}

	if e.Method != nil {
		args := []bound.Expr{e.Left, e.Right}
		values := []TypeWithState{left, right}
		w.checkArguments(e.Method, args, values)
		return w.callResult(e.Method, e.Typ, values), nil
	}

	if e.Op == bound.BinaryEqual || e.Op == bound.BinaryNotEqual {
		w.learnFromEquality(e, left, right)
	}
	return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
}

func (w *walker) visitLogical(e *bound.Binary) (TypeWithState, error) {
	whenTrue, whenFalse, err := w.cfg.VisitCondition(e.Left)
	if err != nil {
		return TypeWithState{}, err
	}

	if e.Op == bound.BinaryLogicalAnd {
		w.cfg.SetState(whenTrue)
		t, f, err := w.cfg.VisitCondition(e.Right)
		if err != nil {
			return TypeWithState{}, err
		}
		w.Join(f, whenFalse)
		w.cfg.SetConditional(t, f)
		return notNullOf(e.Typ), nil
	}

	w.cfg.SetState(whenFalse)
	t, f, err := w.cfg.VisitCondition(e.Right)
	if err != nil {
		return TypeWithState{}, err
	}
	w.Join(t, whenTrue)
	w.cfg.SetConditional(t, f)
	return notNullOf(e.Typ), nil
}

// learnFromEquality splits the state on `x == null`, `x != null` and on
// comparisons with values known to be not null.
func (w *walker) learnFromEquality(e *bound.Binary, left, right TypeWithState) {
	equal := e.Op == bound.BinaryEqual

	var operand bound.Expr
	switch {
	case isNullLiteral(e.Right) && !isNullLiteral(e.Left):
		operand = e.Left
	case isNullLiteral(e.Left) && !isNullLiteral(e.Right):
		operand = e.Right
	default:
		switch {
		case left.State.IsNotNull() && right.MayBeNull():
			operand = e.Right
		case right.State.IsNotNull() && left.MayBeNull():
			operand = e.Left
		default:
			return
		}
		w.cfg.Split()
		whenEqual := w.cfg.WhenTrue()
		if !equal {
			whenEqual = w.cfg.WhenFalse()
		}
		w.learnFromNonNullTest(operand, whenEqual)
		return
	}

	if neverNullType(operand.Type()) {
		w.report(nullrules.NullCheckOnNotNull(), operand, describe(operand))
	}

	w.cfg.Split()
	whenNull, whenNotNull := w.cfg.WhenTrue(), w.cfg.WhenFalse()
	if !equal {
		whenNull, whenNotNull = whenNotNull, whenNull
	}
	w.learnFromNullTest(operand, whenNull)
	w.learnFromNonNullTest(operand, whenNotNull)
}

// learnFromNullTest makes the tested location maybe null in state. Members
// of a null value are never read, they become not null.
func (w *walker) learnFromNullTest(e bound.Expr, state *nullstate.LocalState) {
	e = stripConversions(e)
	if _, ok := e.(*bound.ConditionalAccess); ok {
		// A null `a?.b` tells nothing about a.
		return
	}
	if neverNullType(e.Type()) {
		return
	}
	w.learnSlotNull(w.makeSlot(e), state)
}

func (w *walker) learnSlotNull(slot int, state *nullstate.LocalState) {
	if slot <= 0 || !state.Reachable() {
		return
	}
	if w.get(state, slot) != nullstate.MaybeDefault {
		w.set(state, slot, nullstate.MaybeNull)
	}
	w.markDependentSlotsNotNull(slot, state)
}

func (w *walker) markDependentSlotsNotNull(slot int, state *nullstate.LocalState) {
	for _, child := range w.table.Children(slot) {
		w.set(state, child, nullstate.NotNull)
		w.markDependentSlotsNotNull(child, state)
	}
}

// learnFromNonNullTest makes the tested location not null in state. For
// `a?.b?.c` every link of the chain is not null.
func (w *walker) learnFromNonNullTest(e bound.Expr, state *nullstate.LocalState) {
	e = stripConversions(e)
	switch e := e.(type) {
	case *bound.ConditionalAccess:
		w.learnFromNonNullTest(e.Receiver, state)
		w.learnFromNonNullTest(e.Access, state)
		return
	case *bound.Assignment:
		w.learnFromNonNullTest(e.Left, state)
		w.learnFromNonNullTest(e.Right, state)
		return
	}
	w.learnSlotNotNull(w.makeSlot(e), state)
}

func (w *walker) learnSlotNotNull(slot int, state *nullstate.LocalState) {
	if slot <= 0 || !state.Reachable() {
		return
	}
	w.set(state, slot, nullstate.NotNull)
}

// --- Patterns -----------------------------------------------------------------------------------------------------------

// patternTarget is the value a pattern is matched against. Values reached
// through sub-patterns have no expression.
type patternTarget struct {
	expr  bound.Expr
	slot  int
	value TypeWithState
}

func (w *walker) learnTargetNull(pt patternTarget, state *nullstate.LocalState) {
	if pt.expr != nil {
		w.learnFromNullTest(pt.expr, state)
		return
	}
	w.learnSlotNull(pt.slot, state)
}

func (w *walker) learnTargetNotNull(pt patternTarget, state *nullstate.LocalState) {
	if pt.expr != nil {
		w.learnFromNonNullTest(pt.expr, state)
		return
	}
	w.learnSlotNotNull(pt.slot, state)
}

func (w *walker) visitIsPattern(e *bound.IsPattern) (TypeWithState, error) {
	op, err := w.visitRvalue(e.Operand)
	if err != nil {
		return op, err
	}

	target := patternTarget{expr: e.Operand, slot: w.makeSlot(e.Operand), value: op}
	cur := w.current()
	t, f := w.learnPattern(target, e.Pattern, cur.Clone(), cur)
	w.cfg.SetConditional(t, f)
	return notNullOf(e.Typ), nil
}

// VisitPattern implements cfgwalk.Rules.
func (w *walker) VisitPattern(sw *bound.Switch, label *bound.SwitchLabel) error {
	target := patternTarget{
		expr:  sw.Expr,
		slot:  w.makeSlot(sw.Expr),
		value: w.results[sw.Expr],
	}
	cur := w.current()
	t, f := w.learnPattern(target, label.Pattern, cur.Clone(), cur)
	if label.When == nil {
		w.cfg.SetConditional(t, f)
		return nil
	}

	w.cfg.SetState(t)
	whenTrue, whenFalse, err := w.cfg.VisitCondition(label.When)
	if err != nil {
		return err
	}
	w.Join(f, whenFalse)
	w.cfg.SetConditional(whenTrue, f)
	return nil
}

// learnPattern refines t, the state where p matched, and f, the state where
// it did not, and returns them.
func (w *walker) learnPattern(pt patternTarget, p bound.Pattern, t, f *nullstate.LocalState) (*nullstate.LocalState, *nullstate.LocalState) {
	switch p := p.(type) {
	case *bound.ConstantPattern:
		if bound.IsNullPattern(p) {
			w.learnTargetNull(pt, t)
			w.learnTargetNotNull(pt, f)
			return t, f
		}
		w.learnTargetNotNull(pt, t)
	case *bound.TypePattern:
		w.learnTargetNotNull(pt, t)
	case *bound.DeclarationPattern:
		w.learnTargetNotNull(pt, t)
		w.assignPatternLocal(t, p.Local, notNullOf(p.Target), pt.slot)
	case *bound.VarPattern:
		value := pt.value
		if pt.slot > 0 {
			value.State = w.get(t, pt.slot)
		}
		w.assignPatternLocal(t, p.Local, value, pt.slot)
		f = w.Unreachable()
	case *bound.DiscardPattern:
		f = w.Unreachable()
	case *bound.RecursivePattern:
		w.learnTargetNotNull(pt, t)
		if p.Local != nil {
			target := p.Target
			if target.IsZero() {
				target = pt.value.Type
			}
			w.assignPatternLocal(t, p.Local, notNullOf(target), pt.slot)
		}
		for _, sub := range p.Properties {
			member := patternTarget{slot: -1}
			member.value.Type = sub.Member.Type
			if pt.slot > 0 {
				member.slot = w.alloc(sub.Member, pt.slot)
			}
			if member.slot > 0 {
				member.value.State = w.get(t, member.slot)
			} else {
				member.value.State = applyAnnotations(sub.Member.Type, declaredState(sub.Member.Type), w.annotations.Member(sub.Member))
			}

			var subFalse *nullstate.LocalState
			t, subFalse = w.learnPattern(member, sub.Pattern, t, t.Clone())
			w.Join(f, subFalse)
		}
	case *bound.NotPattern:
		nt, nf := w.learnPattern(pt, p.Pattern, f, t)
		return nf, nt
	}
	return t, f
}

func (w *walker) assignPatternLocal(state *nullstate.LocalState, local *bound.Symbol, value TypeWithState, valueSlot int) {
	if local == nil {
		return
	}
	w.track(state, local.Type, w.alloc(local, 0), value, valueSlot)
}
