package flow

import (
	"github.com/sirkon/nullflow/internal/bound"
)

// describe renders a short name of an expression for diagnostics.
func describe(e bound.Expr) string {
	switch e := e.(type) {
	case *bound.LocalRef:
		return e.Local.Name
	case *bound.ParamRef:
		return e.Param.Name
	case *bound.ThisRef:
		return "this"
	case *bound.MemberAccess:
		if e.Receiver == nil {
			return e.Member.Name
		}
		return describe(e.Receiver) + "." + e.Member.Name
	case *bound.ConditionalAccess:
		return describe(e.Receiver) + "?" + describe(e.Access)
	case *bound.ConditionalReceiver:
		return ""
	case *bound.ElementAccess:
		return describe(e.Receiver) + "[...]"
	case *bound.Indirection:
		return "*" + describe(e.Operand)
	case *bound.Call:
		if e.Delegate && e.Receiver != nil {
			return describe(e.Receiver) + "(...)"
		}
		if e.Receiver != nil {
			return describe(e.Receiver) + "." + e.Method.Name + "(...)"
		}
		return e.Method.Name + "(...)"
	case *bound.Conversion:
		return describe(e.Operand)
	case *bound.Suppress:
		return describe(e.Operand) + "!"
	case *bound.Await:
		return "await " + describe(e.Operand)
	case *bound.Literal:
		if e.Null {
			return "null"
		}
		return "literal"
	case *bound.Assignment:
		return describe(e.Left)
	default:
		return "expression"
	}
}
