package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
)

func (w *walker) visitConversion(e *bound.Conversion) (TypeWithState, error) {
	op, err := w.visitRvalue(e.Operand)
	if err != nil {
		return op, err
	}

	switch e.Kind {
	case bound.ConversionUserDefined:
		return w.userDefinedConversion(e, op), nil
	case bound.ConversionExplicitNullable:
		if op.MayBeNull() {
			w.report(nullrules.NullableValueMayBeNull(), e.Operand, describe(e.Operand))
		}
		w.learnFromNonNullTest(e.Operand, w.current())
	case bound.ConversionUnboxing:
		t := e.Typ.Type
		if t != nil && t.IsValueType() && !t.IsNullableValue() && op.MayBeNull() {
			w.report(nullrules.UnboxPossibleNull(), e.Operand, e.Typ)
		}
	}
	return TypeWithState{Type: e.Typ, State: convertState(e.Kind, op, e.Typ)}, nil
}

// userDefinedConversion converts the operand to the parameter of the
// operator, calls it and converts the result to the target type.
func (w *walker) userDefinedConversion(e *bound.Conversion, op TypeWithState) TypeWithState {
	m := e.Method
	if m == nil || len(m.Params) == 0 {
		return notNullOf(e.Typ)
	}

	param := m.Params[0]
	arg := TypeWithState{Type: param.Type, State: convertState(e.From, op, param.Type)}
	values := []TypeWithState{arg}
	w.checkArguments(m, []bound.Expr{e.Operand}, values)

	res := w.callResult(m, m.Return, values)
	return TypeWithState{Type: e.Typ, State: convertState(e.To, res, e.Typ)}
}

// convertState returns the state of a value converted to target.
func convertState(kind bound.ConversionKind, value TypeWithState, target bound.TypeRef) nullstate.NullableFlowState {
	s := value.State
	switch kind {
	case bound.ConversionNullLiteral:
		s = defaultValueState(target)
	case bound.ConversionImplicitNullable,
		bound.ConversionExplicitNullable,
		bound.ConversionImplicitTuple,
		bound.ConversionExplicitTuple,
		bound.ConversionNumeric,
		bound.ConversionNone:
		s = nullstate.NotNull
	case bound.ConversionBoxing:
		if neverNullType(value.Type) {
			s = nullstate.NotNull
		}
	case bound.ConversionUnboxing:
		switch t := target.Type; {
		case t.IsUnconstrainedParameter():
			if s == nullstate.MaybeNull {
				s = nullstate.MaybeDefault
			}
		case t.IsNullableValue():
		default:
			s = nullstate.NotNull
		}
	}

	if s == nullstate.MaybeDefault && target.Type != nil && !target.Type.IsUnconstrainedParameter() {
		s = nullstate.MaybeNull
	}
	return s
}
