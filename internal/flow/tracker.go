package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullstate"
)

// trackValue records the assignment of the value of valueExpr to the
// location targetSlot in the current state.
func (w *walker) trackValue(targetType bound.TypeRef, targetSlot int, valueExpr bound.Expr, value TypeWithState) {
	state := w.current()
	valueSlot := w.makeSlot(valueExpr)
	w.track(state, targetType, targetSlot, value, valueSlot)
	if targetSlot <= 0 {
		return
	}

	c, ok := valueExpr.(*bound.Conversion)
	if !ok {
		return
	}
	switch c.Kind {
	case bound.ConversionImplicitNullable:
		// T to T? stores the value into the Value member.
		vm := targetType.Type.ValueMember()
		if vm == nil {
			return
		}
		operand := TypeWithState{Type: c.Operand.Type(), State: nullstate.NotNull}
		w.track(state, vm.Type, w.alloc(vm, targetSlot), operand, w.makeSlot(c.Operand))
	case bound.ConversionImplicitTuple, bound.ConversionExplicitTuple:
		if valueSlot > 0 && bound.MemberCompatible(targetType.Type, value.Type.Type) {
			return
		}
		w.trackTupleElements(state, targetType, targetSlot, c.Operand)
	}
}

// track sets the target slot to the value state, resets members of the
// target and copies known member states of the value into them.
func (w *walker) track(state *nullstate.LocalState, targetType bound.TypeRef, targetSlot int, value TypeWithState, valueSlot int) {
	if targetSlot <= 0 || !state.Reachable() {
		return
	}

	v := value.State
	if neverNullType(targetType) {
		v = nullstate.NotNull
	}
	if targetSlot == valueSlot {
		w.set(state, targetSlot, v)
		return
	}

	// Member states are taken before the target is reset: the value may be
	// a member of the target itself, like in `a = a.next`.
	var members []memberState
	if valueSlot > 0 && bound.MemberCompatible(targetType.Type, value.Type.Type) {
		members = w.captureMembers(state, valueSlot)
	}

	w.set(state, targetSlot, v)
	w.inheritDefaultStateIn(state, targetSlot)
	w.applyMembers(state, targetSlot, members)
}

type memberState struct {
	symbol  *bound.Symbol
	state   nullstate.NullableFlowState
	members []memberState
}

// captureMembers collects states of member slots allocated so far.
func (w *walker) captureMembers(state *nullstate.LocalState, slot int) []memberState {
	var res []memberState
	for _, child := range w.table.Children(slot) {
		id, ok := w.table.Identifier(child)
		if !ok {
			continue
		}
		res = append(res, memberState{
			symbol:  id.Symbol,
			state:   w.get(state, child),
			members: w.captureMembers(state, child),
		})
	}
	return res
}

func (w *walker) applyMembers(state *nullstate.LocalState, slot int, members []memberState) {
	for _, m := range members {
		child := w.alloc(m.symbol, slot)
		if child <= 0 {
			continue
		}
		w.set(state, child, m.state)
		w.applyMembers(state, child, m.members)
	}
}

// inheritDefaultState resets member slots of the container in the current
// state: a new value came, nothing is known about its members.
func (w *walker) inheritDefaultState(slot int) {
	w.inheritDefaultStateIn(w.current(), slot)
}

func (w *walker) inheritDefaultStateIn(state *nullstate.LocalState, slot int) {
	for _, child := range w.table.Children(slot) {
		w.set(state, child, w.defaultOf(child))
		w.inheritDefaultStateIn(state, child)
	}
}

// trackTupleElements copies tuple elements one by one when element types
// differ and states of the elements go through element conversions.
func (w *walker) trackTupleElements(state *nullstate.LocalState, targetType bound.TypeRef, targetSlot int, operand bound.Expr) {
	src, dst := operand.Type().Type, targetType.Type
	if src == nil || dst == nil || src.Kind != bound.TypeTuple || dst.Kind != bound.TypeTuple {
		return
	}
	if len(src.Elements) != len(dst.Elements) {
		return
	}
	operandSlot := w.makeSlot(operand)
	if operandSlot <= 0 {
		return
	}

	for i, de := range dst.Elements {
		se := src.Elements[i]
		srcSlot := w.alloc(se, operandSlot)
		value := TypeWithState{Type: se.Type, State: w.get(state, srcSlot)}
		value.State = convertState(w.conversions.Classify(se.Type, de.Type), value, de.Type)
		w.track(state, de.Type, w.alloc(de, targetSlot), value, srcSlot)
	}
}
