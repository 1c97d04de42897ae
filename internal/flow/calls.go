package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
	"github.com/sirkon/nullflow/internal/slots"
)

func (w *walker) visitCall(e *bound.Call) (TypeWithState, error) {
	fn := e.Method

	receiverSlot := slots.Untracked
	if e.Receiver != nil {
		recv, err := w.visitRvalue(e.Receiver)
		if err != nil {
			return recv, err
		}
		if e.Delegate || fn == nil || !fn.Static {
			w.checkDereference(e.Receiver, recv)
		}
		receiverSlot = w.makeSlot(e.Receiver)
	}

	values, err := w.visitArguments(fn, e.Args)
	if err != nil {
		return TypeWithState{}, err
	}
	if fn == nil {
		return TypeWithState{Type: e.Typ, State: declaredState(e.Typ)}, nil
	}
	if fn.Kind == bound.FunctionLocal {
		w.useLocalFunction(fn)
	}

	res := w.callResult(fn, e.Typ, values)
	w.applyPostconditions(fn, e.Args, receiverSlot)
	return res, nil
}

// visitArguments evaluates arguments in order and checks them against
// preconditions of the parameters.
func (w *walker) visitArguments(fn *bound.Function, args []bound.Expr) ([]TypeWithState, error) {
	values := make([]TypeWithState, len(args))
	for i, arg := range args {
		p := paramAt(fn, i)
		var a bound.FlowAnnotation
		if p != nil {
			a = w.annotations.Parameter(fn, p)
		}

		switch {
		case p != nil && p.RefKind == bound.RefOut:
			t, err := w.visitLvalue(arg)
			if err != nil {
				return nil, err
			}
			values[i] = notNullOf(t)
		case a.Any(bound.DoesNotReturnIfTrue | bound.DoesNotReturnIfFalse):
			whenTrue, whenFalse, err := w.cfg.VisitCondition(arg)
			if err != nil {
				return nil, err
			}
			// The call returns only for the other outcome.
			if a.Has(bound.DoesNotReturnIfFalse) {
				w.cfg.SetState(whenTrue)
			} else {
				w.cfg.SetState(whenFalse)
			}
			values[i] = notNullOf(arg.Type())
		default:
			v, err := w.visitRvalue(arg)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
	}

	if fn != nil {
		w.checkArguments(fn, args, values)
	}
	return values, nil
}

func paramAt(fn *bound.Function, i int) *bound.Symbol {
	if fn == nil || i >= len(fn.Params) {
		return nil
	}
	return fn.Params[i]
}

// checkArguments warns about arguments that may be null passed for
// parameters that do not accept null.
func (w *walker) checkArguments(fn *bound.Function, args []bound.Expr, values []TypeWithState) {
	for i, arg := range args {
		p := paramAt(fn, i)
		if p == nil || p.RefKind == bound.RefOut || !values[i].MayBeNull() {
			continue
		}

		a := w.annotations.Parameter(fn, p)
		switch {
		case a.Has(bound.AllowNull):
		case a.Has(bound.DisallowNull):
			w.report(nullrules.DisallowNullArgument(), arg, p.Name, fn.Name)
		case p.Type.DisallowsNull():
			w.report(nullrules.NullReferenceArgument(), arg, p.Name, fn.Name)
		}
	}
}

// callResult computes the state of the value returned by fn.
func (w *walker) callResult(fn *bound.Function, typ bound.TypeRef, values []TypeWithState) TypeWithState {
	if typ.IsZero() {
		typ = fn.Return
	}

	a, notNullIfNotNull := w.annotations.Return(fn)
	state := applyAnnotations(typ, declaredState(typ), a)
	if state.MayBeNull() {
		for _, name := range notNullIfNotNull {
			i := fn.ParamIndex(name)
			if i >= 0 && i < len(values) && values[i].State.IsNotNull() {
				state = nullstate.NotNull
				break
			}
		}
	}
	return TypeWithState{Type: typ, State: state}
}

// applyPostconditions applies what the callee promises about its arguments,
// its receiver and its return.
func (w *walker) applyPostconditions(fn *bound.Function, args []bound.Expr, receiverSlot int) {
	cur := w.current()

	var conditional bool
	for i, arg := range args {
		p := paramAt(fn, i)
		if p == nil {
			break
		}
		a := w.annotations.Parameter(fn, p)
		if a.Any(bound.NotNullWhenTrue | bound.NotNullWhenFalse | bound.MaybeNullWhenTrue | bound.MaybeNullWhenFalse) {
			conditional = true
		}

		switch p.RefKind {
		case bound.RefOut, bound.RefRef:
			slot := w.makeSlot(arg)
			state := applyAnnotations(p.Type, declaredState(p.Type), a)
			w.track(cur, arg.Type(), slot, TypeWithState{Type: p.Type, State: state}, slots.Untracked)
		default:
			if a.Has(bound.NotNull) {
				w.learnFromNonNullTest(arg, cur)
			}
		}
	}

	if receiverSlot > 0 {
		for _, m := range fn.MemberNotNull {
			w.learnSlotNotNull(w.alloc(m, receiverSlot), cur)
		}
	}

	if a, _ := w.annotations.Return(fn); a.Has(bound.DoesNotReturn) {
		w.cfg.SetUnreachable()
		return
	}
	if !conditional {
		return
	}

	w.cfg.Split()
	whenTrue, whenFalse := w.cfg.WhenTrue(), w.cfg.WhenFalse()
	for i, arg := range args {
		p := paramAt(fn, i)
		if p == nil {
			break
		}
		a := w.annotations.Parameter(fn, p)
		if a.Has(bound.NotNullWhenTrue) {
			w.learnFromNonNullTest(arg, whenTrue)
		}
		if a.Has(bound.NotNullWhenFalse) {
			w.learnFromNonNullTest(arg, whenFalse)
		}
		if p.RefKind == bound.RefNone || p.RefKind == bound.RefIn {
			continue
		}

		slot := w.makeSlot(arg)
		if a.Has(bound.MaybeNullWhenTrue) {
			w.set(whenTrue, slot, maybeNullOf(p.Type))
		}
		if a.Has(bound.MaybeNullWhenFalse) {
			w.set(whenFalse, slot, maybeNullOf(p.Type))
		}
	}
}
