package flow

import (
	"fmt"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
)

// VisitExpr implements cfgwalk.Rules.
func (w *walker) VisitExpr(e bound.Expr) error {
	_, err := w.visitRvalue(e)
	return err
}

// visitRvalue evaluates e for its value.
func (w *walker) visitRvalue(e bound.Expr) (TypeWithState, error) {
	res, err := w.visitExpr(e)
	if err != nil {
		return res, err
	}
	w.cfg.Unsplit()
	return res, nil
}

// visitExpr evaluates e. Boolean expressions leave the walker split.
func (w *walker) visitExpr(e bound.Expr) (TypeWithState, error) {
	if e == nil {
		return TypeWithState{}, nil
	}
	if err := w.cfg.Enter(); err != nil {
		return TypeWithState{}, err
	}
	defer w.cfg.Leave()

	w.cfg.Unsplit()
	if _, ok := w.results[e]; !ok {
		w.order = append(w.order, e)
		w.results[e] = TypeWithState{Type: e.Type()}
	}

	res, err := w.dispatch(e)
	if err != nil {
		return res, err
	}
	if neverNullType(res.Type) {
		res.State = nullstate.NotNull
	}
	w.results[e] = res
	return res, nil
}

func (w *walker) dispatch(e bound.Expr) (TypeWithState, error) {
	switch e := e.(type) {
	case *bound.Literal:
		return w.visitLiteral(e), nil
	case *bound.DefaultValue:
		return TypeWithState{Type: e.Typ, State: defaultValueState(e.Typ)}, nil
	case *bound.Opaque:
		for _, op := range e.Operands {
			if _, err := w.visitRvalue(op); err != nil {
				return TypeWithState{}, err
			}
		}
		return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
	case *bound.LocalRef:
		return w.visitVariable(e, e.Local), nil
	case *bound.ParamRef:
		return w.visitVariable(e, e.Param), nil
	case *bound.ThisRef:
		return w.visitVariable(e, e.This), nil
	case *bound.MemberAccess:
		return w.visitMemberAccess(e)
	case *bound.ElementAccess:
		return w.visitElementAccess(e)
	case *bound.Indirection:
		op, err := w.visitRvalue(e.Operand)
		if err != nil {
			return op, err
		}
		w.checkDereference(e.Operand, op)
		return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
	case *bound.Assignment:
		return w.visitAssignment(e)
	case *bound.CoalesceAssignment:
		return w.visitCoalesceAssignment(e)
	case *bound.Binary:
		return w.visitBinary(e)
	case *bound.Unary:
		return w.visitUnary(e)
	case *bound.Conditional:
		return w.visitConditional(e)
	case *bound.Coalesce:
		return w.visitCoalesce(e)
	case *bound.ConditionalAccess:
		return w.visitConditionalAccess(e)
	case *bound.ConditionalReceiver:
		if len(w.accesses) == 0 {
			return notNullOf(e.Typ), nil
		}
		r := w.accesses[len(w.accesses)-1]
		w.receivers[e] = r
		return TypeWithState{Type: e.Typ, State: r.value.State}, nil
	case *bound.Call:
		return w.visitCall(e)
	case *bound.ObjectCreation:
		return w.visitObjectCreation(e)
	case *bound.TupleLiteral:
		return w.visitTupleLiteral(e)
	case *bound.Conversion:
		return w.visitConversion(e)
	case *bound.IsPattern:
		return w.visitIsPattern(e)
	case *bound.IsType:
		if _, err := w.visitRvalue(e.Operand); err != nil {
			return TypeWithState{}, err
		}
		w.cfg.Split()
		w.learnFromNonNullTest(e.Operand, w.cfg.WhenTrue())
		return notNullOf(e.Typ), nil
	case *bound.As:
		return w.visitAs(e)
	case *bound.Suppress:
		op, err := w.visitRvalue(e.Operand)
		if err != nil {
			return op, err
		}
		typ := e.Typ
		if typ.IsZero() {
			typ = op.Type
		}
		return notNullOf(typ), nil
	case *bound.Lambda:
		if err := w.visitLambda(e); err != nil {
			return TypeWithState{}, err
		}
		return notNullOf(e.Typ), nil
	case *bound.FunctionRef:
		return w.visitFunctionRef(e)
	case *bound.Await:
		op, err := w.visitRvalue(e.Operand)
		if err != nil {
			return op, err
		}
		w.checkDereference(e.Operand, op)
		return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
	case *bound.ThrowExpr:
		if e.Operand != nil {
			v, err := w.visitRvalue(e.Operand)
			if err != nil {
				return v, err
			}
			if v.MayBeNull() {
				w.report(nullrules.ThrowPossibleNull(), e.Operand)
			}
		}
		w.cfg.SetUnreachable()
		return notNullOf(e.Typ), nil
	default:
		return TypeWithState{}, fmt.Errorf("unsupported expression %T", e)
	}
}

func (w *walker) visitLiteral(e *bound.Literal) TypeWithState {
	if e.Null {
		return TypeWithState{Type: e.Typ, State: defaultValueState(e.Typ)}
	}

	// Constant conditions make one of the branches unreachable.
	if v, ok := e.Value.(bool); ok {
		cur := w.current()
		if v {
			w.cfg.SetConditional(cur, w.Unreachable())
		} else {
			w.cfg.SetConditional(w.Unreachable(), cur)
		}
	}
	return notNullOf(e.Typ)
}

func (w *walker) visitVariable(e bound.Expr, sym *bound.Symbol) TypeWithState {
	typ := e.Type()
	if typ.IsZero() {
		typ = sym.Type
	}

	slot := w.makeSlot(e)
	if slot <= 0 {
		return TypeWithState{Type: typ, State: declaredState(typ)}
	}
	return TypeWithState{Type: typ, State: w.get(w.current(), slot)}
}

func (w *walker) visitMemberAccess(e *bound.MemberAccess) (TypeWithState, error) {
	typ := e.Typ
	if typ.IsZero() {
		typ = e.Member.Type
	}

	if e.Receiver != nil {
		recv, err := w.visitRvalue(e.Receiver)
		if err != nil {
			return recv, err
		}

		rt := e.Receiver.Type().Type
		switch {
		case rt.IsNullableValue() && e.Member == rt.HasValueMember():
			w.cfg.Split()
			w.learnFromNonNullTest(e.Receiver, w.cfg.WhenTrue())
			w.learnFromNullTest(e.Receiver, w.cfg.WhenFalse())
			return notNullOf(typ), nil
		case rt.IsNullableValue() && e.Member == rt.ValueMember():
			if recv.MayBeNull() {
				w.report(nullrules.NullableValueMayBeNull(), e.Receiver, describe(e.Receiver))
			}
			w.learnFromNonNullTest(e.Receiver, w.current())
		case !e.Member.Static:
			w.checkDereference(e.Receiver, recv)
		}
	}

	if slot := w.makeSlot(e); slot > 0 {
		return TypeWithState{Type: typ, State: w.get(w.current(), slot)}, nil
	}
	state := applyAnnotations(typ, declaredState(typ), w.annotations.Member(e.Member))
	return TypeWithState{Type: typ, State: state}, nil
}

func (w *walker) visitElementAccess(e *bound.ElementAccess) (TypeWithState, error) {
	recv, err := w.visitRvalue(e.Receiver)
	if err != nil {
		return recv, err
	}
	w.checkDereference(e.Receiver, recv)

	for _, idx := range e.Indices {
		if _, err := w.visitRvalue(idx); err != nil {
			return TypeWithState{}, err
		}
	}
	return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
}

// checkDereference warns when recv may be null and learns it is not null
// afterwards: execution only goes on if it was not.
func (w *walker) checkDereference(recv bound.Expr, value TypeWithState) {
	if neverNullType(value.Type) || neverNullType(recv.Type()) {
		return
	}
	if value.MayBeNull() {
		w.report(nullrules.PossibleNullDereference(), recv, describe(recv))
	}
	w.learnFromNonNullTest(recv, w.current())
}

// visitLvalue evaluates receivers and indices of an assignment target and
// returns the declared type of the target.
func (w *walker) visitLvalue(e bound.Expr) (bound.TypeRef, error) {
	switch e := e.(type) {
	case *bound.LocalRef:
		return e.Local.Type, nil
	case *bound.ParamRef:
		return e.Param.Type, nil
	case *bound.MemberAccess:
		if e.Receiver != nil {
			recv, err := w.visitRvalue(e.Receiver)
			if err != nil {
				return bound.TypeRef{}, err
			}
			if !e.Member.Static {
				w.checkDereference(e.Receiver, recv)
			}
		}
		return e.Member.Type, nil
	case *bound.ElementAccess:
		if _, err := w.visitElementAccess(e); err != nil {
			return bound.TypeRef{}, err
		}
		return e.Typ, nil
	case *bound.Indirection:
		op, err := w.visitRvalue(e.Operand)
		if err != nil {
			return bound.TypeRef{}, err
		}
		w.checkDereference(e.Operand, op)
		return e.Typ, nil
	default:
		if _, err := w.visitRvalue(e); err != nil {
			return bound.TypeRef{}, err
		}
		return e.Type(), nil
	}
}

func (w *walker) visitAssignment(e *bound.Assignment) (TypeWithState, error) {
	targetType, err := w.visitLvalue(e.Left)
	if err != nil {
		return TypeWithState{}, err
	}
	targetSlot := w.makeSlot(e.Left)

	value, err := w.visitRvalue(e.Right)
	if err != nil {
		return value, err
	}

	w.checkAssignment(e.Left, targetType, value, e.Right)
	w.trackValue(targetType, targetSlot, e.Right, value)
	return TypeWithState{Type: targetType, State: value.State}, nil
}

// checkAssignment warns when a value that may be null is stored into a
// location that does not accept null.
func (w *walker) checkAssignment(target bound.Expr, targetType bound.TypeRef, value TypeWithState, node bound.Node) {
	if !value.MayBeNull() {
		return
	}

	var a bound.FlowAnnotation
	switch t := target.(type) {
	case *bound.MemberAccess:
		a = w.annotations.Member(t.Member)
	case *bound.ParamRef:
		a = w.annotations.Parameter(t.Param.Owner, t.Param)
	}
	if a.Has(bound.AllowNull) {
		return
	}
	if a.Has(bound.DisallowNull) || targetType.DisallowsNull() {
		w.report(nullrules.NullReferenceAssignment(), node, describe(target))
	}
}

func (w *walker) visitCoalesceAssignment(e *bound.CoalesceAssignment) (TypeWithState, error) {
	targetType, err := w.visitLvalue(e.Left)
	if err != nil {
		return TypeWithState{}, err
	}
	targetSlot := w.makeSlot(e.Left)

	left := declaredState(targetType)
	if targetSlot > 0 {
		left = w.get(w.current(), targetSlot)
	}
	if neverNullType(targetType) {
		w.report(nullrules.ExpressionNeverNull(), e.Left, describe(e.Left))
	}

	cur := w.current()
	whenNotNull := cur.Clone()
	w.learnFromNonNullTest(e.Left, whenNotNull)
	w.learnFromNullTest(e.Left, cur)

	right, err := w.visitRvalue(e.Right)
	if err != nil {
		return right, err
	}
	w.checkAssignment(e.Left, targetType, right, e.Right)
	w.trackValue(targetType, targetSlot, e.Right, right)
	w.Join(w.current(), whenNotNull)

	state := right.State
	if left.IsNotNull() {
		state = nullstate.NotNull
	}
	return TypeWithState{Type: targetType, State: state}, nil
}

func (w *walker) visitUnary(e *bound.Unary) (TypeWithState, error) {
	if e.Op != bound.UnaryNot {
		if _, err := w.visitRvalue(e.Operand); err != nil {
			return TypeWithState{}, err
		}
		return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
	}

	if _, err := w.visitExpr(e.Operand); err != nil {
		return TypeWithState{}, err
	}
	if w.cfg.IsSplit() {
		w.cfg.SetConditional(w.cfg.WhenFalse(), w.cfg.WhenTrue())
	}
	return notNullOf(e.Typ), nil
}

func (w *walker) visitConditional(e *bound.Conditional) (TypeWithState, error) {
	whenTrue, whenFalse, err := w.cfg.VisitCondition(e.Cond)
	if err != nil {
		return TypeWithState{}, err
	}

	w.cfg.SetState(whenTrue)
	a, err := w.visitRvalue(e.Then)
	if err != nil {
		return a, err
	}
	afterThen := w.current()

	w.cfg.SetState(whenFalse)
	b, err := w.visitRvalue(e.Else)
	if err != nil {
		return b, err
	}
	afterElse := w.current()

	var state nullstate.NullableFlowState
	switch {
	case !afterThen.Reachable():
		state = b.State
	case !afterElse.Reachable():
		state = a.State
	default:
		state = a.State.Join(b.State)
	}
	w.Join(afterElse, afterThen)

	if !w.compatible(a.Type, b.Type) {
		w.report(nullrules.NoBestNullability(), e, a.Type, b.Type)
	}
	return TypeWithState{Type: e.Typ, State: state}, nil
}

// compatible tells if one of the types converts to the other.
func (w *walker) compatible(a, b bound.TypeRef) bool {
	if a.Type == nil || b.Type == nil || a.Type == b.Type {
		return true
	}
	return w.conversions.Classify(a, b) != bound.ConversionNone || w.conversions.Classify(b, a) != bound.ConversionNone
}

func (w *walker) visitCoalesce(e *bound.Coalesce) (TypeWithState, error) {
	left, err := w.visitRvalue(e.Left)
	if err != nil {
		return left, err
	}
	if neverNullType(e.Left.Type()) {
		w.report(nullrules.ExpressionNeverNull(), e.Left, describe(e.Left))
	}

	cur := w.current()
	whenNotNull := cur.Clone()
	w.learnFromNonNullTest(e.Left, whenNotNull)
	w.learnFromNullTest(e.Left, cur)

	right, err := w.visitRvalue(e.Right)
	if err != nil {
		return right, err
	}
	afterRight := w.current()
	rightReachable := afterRight.Reachable()
	w.Join(afterRight, whenNotNull)

	state := right.State
	if left.State.IsNotNull() || !rightReachable {
		state = nullstate.NotNull
	}
	return TypeWithState{Type: e.Typ, State: state}, nil
}

func (w *walker) visitConditionalAccess(e *bound.ConditionalAccess) (TypeWithState, error) {
	recv, err := w.visitRvalue(e.Receiver)
	if err != nil {
		return recv, err
	}
	if neverNullType(e.Receiver.Type()) {
		w.report(nullrules.ExpressionNeverNull(), e.Receiver, describe(e.Receiver))
	}

	slot := w.makeSlot(e.Receiver)
	cur := w.current()
	whenNull := cur.Clone()
	w.learnFromNullTest(e.Receiver, whenNull)
	w.learnFromNonNullTest(e.Receiver, cur)

	w.accesses = append(w.accesses, receiver{
		slot:  slot,
		value: TypeWithState{Type: recv.Type, State: nullstate.NotNull},
	})
	access, err := w.visitRvalue(e.Access)
	w.accesses = w.accesses[:len(w.accesses)-1]
	if err != nil {
		return access, err
	}
	w.Join(w.current(), whenNull)

	state := access.State
	if recv.MayBeNull() {
		weak := nullstate.MaybeNull
		if e.Typ.Type.IsUnconstrainedParameter() {
			weak = nullstate.MaybeDefault
		}
		state = state.Join(weak)
	}
	return TypeWithState{Type: e.Typ, State: state}, nil
}

func (w *walker) visitObjectCreation(e *bound.ObjectCreation) (TypeWithState, error) {
	if _, err := w.visitArguments(e.Constructor, e.Args); err != nil {
		return TypeWithState{}, err
	}

	slot := w.makeSlot(e)
	if slot > 0 {
		w.set(w.current(), slot, nullstate.NotNull)
		w.inheritDefaultState(slot)
	}

	for _, init := range e.Inits {
		v, err := w.visitRvalue(init.Value)
		if err != nil {
			return v, err
		}

		if v.MayBeNull() {
			a := w.annotations.Member(init.Member)
			if !a.Has(bound.AllowNull) && (a.Has(bound.DisallowNull) || init.Member.Type.DisallowsNull()) {
				w.report(nullrules.NullReferenceAssignment(), init.Value, init.Member.Name)
			}
		}
		memberSlot := -1
		if slot > 0 {
			memberSlot = w.alloc(init.Member, slot)
		}
		w.trackValue(init.Member.Type, memberSlot, init.Value, v)
	}
	return notNullOf(e.Typ), nil
}

func (w *walker) visitTupleLiteral(e *bound.TupleLiteral) (TypeWithState, error) {
	slot := w.makeSlot(e)
	if slot > 0 {
		w.set(w.current(), slot, nullstate.NotNull)
		w.inheritDefaultState(slot)
	}

	tuple := e.Typ.Type
	for i, el := range e.Elems {
		v, err := w.visitRvalue(el)
		if err != nil {
			return v, err
		}
		if slot <= 0 || tuple == nil || i >= len(tuple.Elements) {
			continue
		}
		elem := tuple.Elements[i]
		w.trackValue(elem.Type, w.alloc(elem, slot), el, v)
	}
	return notNullOf(e.Typ), nil
}

func (w *walker) visitAs(e *bound.As) (TypeWithState, error) {
	op, err := w.visitRvalue(e.Operand)
	if err != nil {
		return op, err
	}

	switch w.conversions.Classify(op.Type, e.Typ) {
	case bound.ConversionIdentity, bound.ConversionImplicitReference:
		return TypeWithState{Type: e.Typ, State: op.State}, nil
	}
	state := nullstate.MaybeNull
	if e.Typ.Type.IsUnconstrainedParameter() {
		state = nullstate.MaybeDefault
	}
	return TypeWithState{Type: e.Typ, State: state}, nil
}
