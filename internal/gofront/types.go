package gofront

import (
	"go/ast"
	"go/types"

	"github.com/sirkon/nullflow/internal/bound"
)

// typeOf maps a Go type to a bound type. Identical types map to the same
// bound type, so member states can be copied between them.
func (t *Translator) typeOf(typ types.Type) *bound.Type {
	if typ == nil {
		return nil
	}
	typ = types.Unalias(typ)
	if v := t.types.At(typ); v != nil {
		return v.(*bound.Type)
	}

	name := types.TypeString(typ, types.RelativeTo(t.pkg))

	if tp, ok := typ.(*types.TypeParam); ok {
		// Type sets with methods only may hold pointers and interfaces.
		c := bound.ValueConstraint
		if iface, ok := tp.Constraint().Underlying().(*types.Interface); ok && iface.IsMethodSet() {
			c = bound.Unconstrained
		}
		res := bound.NewTypeParameter(name, c)
		t.types.Set(typ, res)
		return res
	}

	var res *bound.Type
	switch u := typ.Underlying().(type) {
	case *types.Basic:
		if u.Kind() == types.UntypedNil {
			return nil
		}
		if u.Info()&types.IsBoolean != 0 && typ == u {
			return bound.Bool
		}
		res = bound.NewPrimitive(name)
	case *types.Pointer:
		res = &bound.Type{Name: name, Kind: bound.TypeClass}
		t.types.Set(typ, res)
		if st, ok := u.Elem().Underlying().(*types.Struct); ok {
			res.Members = t.fields(st)
		}
		return res
	case *types.Struct:
		res = bound.NewStruct(name)
		t.types.Set(typ, res)
		res.Members = t.fields(u)
		return res
	case *types.Interface:
		res = &bound.Type{Name: name, Kind: bound.TypeInterface}
	case *types.Signature:
		res = &bound.Type{Name: name, Kind: bound.TypeDelegate}
	default:
		// Slices, maps, channels and arrays: nil ones are usable.
		res = bound.NewPrimitive(name)
	}

	t.types.Set(typ, res)
	return res
}

// fields returns member symbols of the struct. A symbol is registered before
// its type is mapped, recursive types find it.
func (t *Translator) fields(st *types.Struct) []*bound.Symbol {
	res := make([]*bound.Symbol, 0, st.NumFields())
	for i := range st.NumFields() {
		res = append(res, t.field(st.Field(i)))
	}
	return res
}

func (t *Translator) field(v *types.Var) *bound.Symbol {
	if sym, ok := t.vars[v]; ok {
		return sym
	}

	sym := bound.NewField(v.Name(), bound.TypeRef{})
	t.vars[v] = sym
	sym.Type = bound.ObliviousRef(t.typeOf(v.Type()))
	return sym
}

// structOf returns the struct behind a value or a pointer to it.
func structOf(typ types.Type) (*types.Struct, bool) {
	if ptr, ok := typ.Underlying().(*types.Pointer); ok {
		typ = ptr.Elem()
	}
	st, ok := typ.Underlying().(*types.Struct)
	return st, ok
}

// ref maps the type of a Go expression.
func (t *Translator) ref(typ types.Type, a bound.Annotation) bound.TypeRef {
	return bound.TypeRef{Type: t.typeOf(typ), Annotation: a}
}

// exprRef is the oblivious type of an expression. Comma-ok forms and calls
// with several results have the type of their first value.
func (t *Translator) exprRef(e ast.Expr) bound.TypeRef {
	return bound.ObliviousRef(t.typeOf(t.valueType(e)))
}

func (t *Translator) valueType(e ast.Expr) types.Type {
	typ := t.info.TypeOf(e)
	if tuple, ok := typ.(*types.Tuple); ok {
		if tuple.Len() == 0 {
			return nil
		}
		return tuple.At(0).Type()
	}
	return typ
}
