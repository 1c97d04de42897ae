package flow

import (
	"fmt"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullstate"
)

// TypeWithState is the type of an expression value together with its
// nullability at the point of evaluation.
type TypeWithState struct {
	Type  bound.TypeRef
	State nullstate.NullableFlowState
}

func (t TypeWithState) String() string {
	return fmt.Sprintf("%s(%s)", t.Type, t.State)
}

// MayBeNull tells if the value may be null.
func (t TypeWithState) MayBeNull() bool {
	return t.State.MayBeNull()
}

func notNullOf(t bound.TypeRef) TypeWithState {
	return TypeWithState{Type: t, State: nullstate.NotNull}
}

// AnnotationProvider supplies pre- and postconditions of declarations.
type AnnotationProvider interface {
	// Parameter returns flags of the parameter p of fn.
	Parameter(fn *bound.Function, p *bound.Symbol) bound.FlowAnnotation

	// Return returns flags of the result of fn and names of parameters the
	// result is not null for if their arguments are not null.
	Return(fn *bound.Function) (bound.FlowAnnotation, []string)

	// Member returns flags of a field, property or event.
	Member(m *bound.Symbol) bound.FlowAnnotation
}

// SymbolAnnotations reads annotations stored in the bound tree.
type SymbolAnnotations struct{}

var _ AnnotationProvider = SymbolAnnotations{}

// Parameter implements AnnotationProvider.
func (SymbolAnnotations) Parameter(_ *bound.Function, p *bound.Symbol) bound.FlowAnnotation {
	return p.Annotations
}

// Return implements AnnotationProvider.
func (SymbolAnnotations) Return(fn *bound.Function) (bound.FlowAnnotation, []string) {
	return fn.ReturnAnnotations, fn.ReturnNotNullIfNotNull
}

// Member implements AnnotationProvider.
func (SymbolAnnotations) Member(m *bound.Symbol) bound.FlowAnnotation {
	return m.Annotations
}

// declaredState returns the state a value of the declared type starts with.
func declaredState(t bound.TypeRef) nullstate.NullableFlowState {
	typ := t.Type
	switch {
	case typ == nil:
		return nullstate.MaybeNull
	case typ.IsNullableValue():
		return nullstate.MaybeNull
	case typ.IsValueType():
		return nullstate.NotNull
	case t.Annotation != bound.Annotated:
		return nullstate.NotNull
	case typ.IsUnconstrainedParameter():
		return nullstate.MaybeDefault
	default:
		return nullstate.MaybeNull
	}
}

// defaultValueState returns the state of `default(T)`.
func defaultValueState(t bound.TypeRef) nullstate.NullableFlowState {
	typ := t.Type
	switch {
	case typ == nil:
		return nullstate.MaybeNull
	case typ.IsNullableValue():
		return nullstate.MaybeNull
	case typ.IsValueType():
		return nullstate.NotNull
	case typ.IsUnconstrainedParameter():
		return nullstate.MaybeDefault
	default:
		return nullstate.MaybeNull
	}
}

// maybeNullOf returns the weak state for values of the type: MaybeDefault for
// unconstrained type parameters, MaybeNull otherwise.
func maybeNullOf(t bound.TypeRef) nullstate.NullableFlowState {
	if t.Type.IsUnconstrainedParameter() {
		return nullstate.MaybeDefault
	}
	if t.Type != nil && t.Type.IsValueType() && !t.Type.IsNullableValue() {
		return nullstate.NotNull
	}
	return nullstate.MaybeNull
}

// applyAnnotations adjusts a read state with MaybeNull and NotNull postconditions.
func applyAnnotations(t bound.TypeRef, s nullstate.NullableFlowState, a bound.FlowAnnotation) nullstate.NullableFlowState {
	switch {
	case a.Has(bound.NotNull):
		return nullstate.NotNull
	case a.Has(bound.MaybeNull):
		return s.Join(maybeNullOf(t))
	default:
		return s
	}
}
