package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/slots"
)

// makeSlot returns the slot of the location e refers to, allocating it on
// first use. Expressions that do not denote a trackable location produce
// slots.Untracked.
func (w *walker) makeSlot(e bound.Expr) int {
	switch e := e.(type) {
	case *bound.LocalRef:
		return w.alloc(e.Local, 0)
	case *bound.ParamRef:
		return w.alloc(e.Param, 0)
	case *bound.ThisRef:
		return w.alloc(e.This, 0)
	case *bound.MemberAccess:
		if e.Receiver == nil || e.Member.Static {
			return slots.Untracked
		}
		if e.Member == e.Receiver.Type().Type.HasValueMember() {
			return slots.Untracked
		}
		container := w.makeSlot(e.Receiver)
		if container <= 0 {
			return slots.Untracked
		}
		return w.alloc(e.Member, container)
	case *bound.ConditionalReceiver:
		if r, ok := w.receivers[e]; ok {
			return r.slot
		}
		return slots.Untracked
	case *bound.Conversion:
		switch e.Kind {
		case bound.ConversionIdentity, bound.ConversionImplicitReference, bound.ConversionImplicitTuple, bound.ConversionBoxing:
			return w.makeSlot(e.Operand)
		case bound.ConversionExplicitNullable:
			container := w.makeSlot(e.Operand)
			if container <= 0 {
				return slots.Untracked
			}
			return w.alloc(e.Operand.Type().Type.ValueMember(), container)
		}
		return slots.Untracked
	case *bound.Suppress:
		return w.makeSlot(e.Operand)
	case *bound.ObjectCreation, *bound.TupleLiteral:
		return w.alloc(w.placeholder(e), 0)
	default:
		return slots.Untracked
	}
}

// placeholder returns the synthesized symbol standing for the value of an
// expression that has no storage of its own.
func (w *walker) placeholder(e bound.Expr) *bound.Symbol {
	if p, ok := w.placeholders[e]; ok {
		return p
	}

	name := "<tuple>"
	if _, ok := e.(*bound.ObjectCreation); ok {
		name = "<new " + e.Type().String() + ">"
	}
	p := &bound.Symbol{
		Name: name,
		Kind: bound.SymbolPlaceholder,
		Type: e.Type(),
	}
	w.placeholders[e] = p
	return p
}

// stripConversions skips conversions keeping the identity of a value.
func stripConversions(e bound.Expr) bound.Expr {
	for {
		switch c := e.(type) {
		case *bound.Conversion:
			if !c.Kind.IsReference() && c.Kind != bound.ConversionBoxing && c.Kind != bound.ConversionNullLiteral {
				return e
			}
			e = c.Operand
		case *bound.Suppress:
			e = c.Operand
		default:
			return e
		}
	}
}

func isNullLiteral(e bound.Expr) bool {
	lit, ok := stripConversions(e).(*bound.Literal)
	return ok && lit.Null
}

func boolLiteral(e bound.Expr) (value bool, ok bool) {
	lit, isLit := stripConversions(e).(*bound.Literal)
	if !isLit || lit.Null {
		return false, false
	}
	value, ok = lit.Value.(bool)
	return value, ok
}

// neverNullType tells if values of the type can never be null.
func neverNullType(t bound.TypeRef) bool {
	return t.Type != nil && t.Type.IsValueType() && !t.Type.IsNullableValue() && t.Type.Kind != bound.TypeParameter
}
