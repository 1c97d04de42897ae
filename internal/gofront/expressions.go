package gofront

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/config"
)

// expr lowers an expression.
func (t *Translator) expr(e ast.Expr) bound.Expr {
	e = astutil.Unparen(e)
	if tv, ok := t.info.Types[e]; ok && tv.Value != nil {
		return t.literal(e, tv)
	}

	switch e := e.(type) {
	case *ast.Ident:
		return t.ident(e)
	case *ast.SelectorExpr:
		return t.selector(e)
	case *ast.StarExpr:
		if t.isType(e) {
			return t.opaque(e)
		}
		return &bound.Indirection{Span: span(e), Operand: t.expr(e.X), Typ: t.exprRef(e)}
	case *ast.UnaryExpr:
		return t.unary(e)
	case *ast.BinaryExpr:
		return t.binary(e)
	case *ast.CallExpr:
		return t.call(e)
	case *ast.CompositeLit:
		return t.composite(e, t.info.TypeOf(e))
	case *ast.FuncLit:
		return t.lambda(e)
	case *ast.IndexExpr:
		return t.index(e)
	case *ast.IndexListExpr:
		return t.opaque(e, e.X)
	case *ast.SliceExpr:
		return t.opaque(e, e.X, e.Low, e.High, e.Max)
	case *ast.TypeAssertExpr:
		// A nil interface fails any assertion.
		return &bound.Indirection{Span: span(e), Operand: t.expr(e.X), Typ: t.exprRef(e)}
	default:
		t.log.Debug("expression approximated", "type", nodeType(e), "pos", e.Pos())
		return t.opaque(e)
	}
}

// opaque is a value of the expression type computed from the operands.
func (t *Translator) opaque(e ast.Expr, operands ...ast.Expr) *bound.Opaque {
	res := &bound.Opaque{Span: span(e), Typ: t.exprRef(e)}
	for _, op := range operands {
		if op != nil {
			res.Operands = append(res.Operands, t.expr(op))
		}
	}
	return res
}

func (t *Translator) isType(e ast.Expr) bool {
	tv, ok := t.info.Types[e]
	return ok && tv.IsType()
}

func (t *Translator) literal(e ast.Expr, tv types.TypeAndValue) bound.Expr {
	res := &bound.Literal{Span: span(e), Typ: bound.NotAnnotatedRef(t.typeOf(tv.Type)), Value: tv.Value}
	if tv.Value.Kind() == constant.Bool {
		res.Value = constant.BoolVal(tv.Value)
	}
	return res
}

func (t *Translator) ident(id *ast.Ident) bound.Expr {
	obj := t.info.Uses[id]
	if obj == nil {
		obj = t.info.Defs[id]
	}

	switch obj := obj.(type) {
	case *types.Nil:
		return &bound.Literal{Span: span(id), Null: true}
	case *types.Var:
		return t.variable(id, obj)
	case *types.Func:
		f := t.signature(obj)
		return &bound.FunctionRef{Span: span(id), Func: f, Typ: bound.NotAnnotatedRef(t.typeOf(obj.Type()))}
	default:
		return t.opaque(id)
	}
}

// variable refers to a local or a parameter. Package level variables are
// shared with other goroutines and never tracked.
func (t *Translator) variable(id *ast.Ident, v *types.Var) bound.Expr {
	if v.Pkg() != nil && v.Parent() == v.Pkg().Scope() {
		return t.opaque(id)
	}

	sym, ok := t.vars[v]
	if !ok {
		sym = t.local(v)
	}
	if sym.Kind == bound.SymbolParameter {
		return &bound.ParamRef{Span: span(id), Param: sym, Typ: sym.Type}
	}
	return &bound.LocalRef{Span: span(id), Local: sym, Typ: sym.Type}
}

func (t *Translator) selector(e *ast.SelectorExpr) bound.Expr {
	sel, ok := t.info.Selections[e]
	if !ok {
		// Qualified identifier.
		return t.ident(e.Sel)
	}

	switch sel.Kind() {
	case types.FieldVal:
		return t.fieldPath(t.expr(e.X), e, sel.Recv(), sel.Index())
	case types.MethodVal:
		return &bound.FunctionRef{
			Span:     span(e),
			Func:     t.signature(sel.Obj().(*types.Func)),
			Receiver: t.methodReceiver(e, sel),
			Typ:      bound.NotAnnotatedRef(t.typeOf(sel.Type())),
		}
	default:
		return &bound.FunctionRef{
			Span: span(e),
			Func: t.signature(sel.Obj().(*types.Func)),
			Typ:  bound.NotAnnotatedRef(t.typeOf(sel.Type())),
		}
	}
}

// fieldPath accesses fields one by one following the path through embedded
// structs.
func (t *Translator) fieldPath(recv bound.Expr, e *ast.SelectorExpr, typ types.Type, path []int) bound.Expr {
	for i, idx := range path {
		st, ok := structOf(typ)
		if !ok {
			break
		}
		f := st.Field(idx)
		sym := t.field(f)

		sp := span(e.X)
		if i == len(path)-1 {
			sp = span(e)
		}
		recv = &bound.MemberAccess{Span: sp, Receiver: recv, Member: sym, Typ: sym.Type}
		typ = f.Type()
	}
	return recv
}

// methodReceiver is the value a method is called on, embedded fields
// included.
func (t *Translator) methodReceiver(e *ast.SelectorExpr, sel *types.Selection) bound.Expr {
	path := sel.Index()
	return t.fieldPath(t.expr(e.X), e, sel.Recv(), path[:len(path)-1])
}

func (t *Translator) unary(e *ast.UnaryExpr) bound.Expr {
	switch e.Op {
	case token.AND:
		if lit, ok := astutil.Unparen(e.X).(*ast.CompositeLit); ok {
			return t.composite(lit, t.info.TypeOf(e))
		}
		return &bound.Opaque{
			Span:     span(e),
			Typ:      bound.NotAnnotatedRef(t.typeOf(t.info.TypeOf(e))),
			Operands: []bound.Expr{t.expr(e.X)},
		}
	case token.NOT:
		return &bound.Unary{Span: span(e), Op: bound.UnaryNot, Operand: t.expr(e.X), Typ: t.exprRef(e)}
	case token.ARROW:
		return t.opaque(e, e.X)
	default:
		return &bound.Unary{Span: span(e), Op: bound.UnaryOther, Operand: t.expr(e.X), Typ: t.exprRef(e)}
	}
}

var binaryOps = map[token.Token]bound.BinaryOp{
	token.EQL:  bound.BinaryEqual,
	token.NEQ:  bound.BinaryNotEqual,
	token.LAND: bound.BinaryLogicalAnd,
	token.LOR:  bound.BinaryLogicalOr,
}

func (t *Translator) binary(e *ast.BinaryExpr) bound.Expr {
	return &bound.Binary{
		Span:  span(e),
		Op:    binaryOps[e.Op],
		Left:  t.expr(e.X),
		Right: t.expr(e.Y),
		Typ:   bound.NotAnnotatedRef(t.typeOf(t.info.TypeOf(e))),
	}
}

func (t *Translator) call(e *ast.CallExpr) bound.Expr {
	fun := astutil.Unparen(e.Fun)
	if tv, ok := t.info.Types[fun]; ok {
		switch {
		case tv.IsType():
			return t.conversion(e, tv.Type)
		case tv.IsBuiltin():
			return t.builtin(e, fun)
		}
	}

	args := e.Args
	var recv bound.Expr
	if s, ok := fun.(*ast.SelectorExpr); ok {
		if sel, ok := t.info.Selections[s]; ok {
			switch sel.Kind() {
			case types.MethodVal:
				recv = t.methodReceiver(s, sel)
			case types.MethodExpr:
				if len(args) > 0 {
					recv = t.expr(args[0])
					args = args[1:]
				}
			}
		}
	}

	fn, ok := typeutil.Callee(t.info, e).(*types.Func)
	if !ok {
		return &bound.Call{
			Span:     span(e),
			Receiver: t.expr(fun),
			Args:     t.exprs(args),
			Delegate: true,
			Typ:      t.exprRef(e),
		}
	}

	return &bound.Call{
		Span:     span(e),
		Receiver: recv,
		Method:   t.signature(fn),
		Args:     t.exprs(args),
		Typ:      t.exprRef(e),
	}
}

func (t *Translator) exprs(list []ast.Expr) []bound.Expr {
	res := make([]bound.Expr, 0, len(list))
	for _, e := range list {
		res = append(res, t.expr(e))
	}
	return res
}

func (t *Translator) conversion(e *ast.CallExpr, to types.Type) bound.Expr {
	if len(e.Args) != 1 {
		return t.opaque(e, e.Args...)
	}

	operand := t.expr(e.Args[0])
	typ := bound.ObliviousRef(t.typeOf(to))
	return &bound.Conversion{
		Span:     span(e),
		Operand:  operand,
		Kind:     bound.DefaultClassifier{}.Classify(operand.Type(), typ),
		Explicit: true,
		Typ:      typ,
	}
}

// builtin lowers calls of built-in functions. Only panic and new matter,
// the rest evaluate their arguments.
func (t *Translator) builtin(e *ast.CallExpr, fun ast.Expr) bound.Expr {
	id, _ := fun.(*ast.Ident)
	if id == nil {
		return t.opaque(e, e.Args...)
	}

	switch id.Name {
	case "panic":
		res := &bound.ThrowExpr{Span: span(e)}
		if len(e.Args) > 0 {
			res.Operand = t.expr(e.Args[0])
		}
		return res
	case "new":
		return &bound.ObjectCreation{Span: span(e), Typ: bound.NotAnnotatedRef(t.typeOf(t.info.TypeOf(e)))}
	default:
		var args []ast.Expr
		for _, arg := range e.Args {
			if !t.isType(arg) {
				args = append(args, arg)
			}
		}
		return t.opaque(e, args...)
	}
}

// noReturn checks whether the call never returns.
func (t *Translator) noReturn(e *ast.CallExpr) (config.NoReturnKind, bool) {
	var ref config.Reference
	switch callee := typeutil.Callee(t.info, e).(type) {
	case *types.Builtin:
		ref = config.Builtin(callee.Name())
	case *types.Func:
		ref = config.FuncReference(callee)
	default:
		return 0, false
	}
	return t.annotations.NoReturn(ref)
}

// composite lowers a composite literal of typ, which is a pointer for
// literals taken address of.
func (t *Translator) composite(e *ast.CompositeLit, typ types.Type) bound.Expr {
	st, ok := structOf(typ)
	if !ok {
		var operands []ast.Expr
		for _, elt := range e.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				operands = append(operands, kv.Key, kv.Value)
				continue
			}
			operands = append(operands, elt)
		}
		res := t.opaque(e, operands...)
		res.Typ = bound.NotAnnotatedRef(t.typeOf(typ))
		return res
	}

	res := &bound.ObjectCreation{Span: span(e), Typ: bound.NotAnnotatedRef(t.typeOf(typ))}
	for i, elt := range e.Elts {
		var f *types.Var
		value := elt
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if key, ok := kv.Key.(*ast.Ident); ok {
				f, _ = t.info.Uses[key].(*types.Var)
			}
			value = kv.Value
		} else if i < st.NumFields() {
			f = st.Field(i)
		}

		v := t.expr(value)
		if f == nil {
			continue
		}
		res.Inits = append(res.Inits, &bound.MemberInit{Span: span(elt), Member: t.field(f), Value: v})
	}
	return res
}

// lambda lowers a function literal into a lambda analysed where it is
// written.
func (t *Translator) lambda(e *ast.FuncLit) bound.Expr {
	sig, _ := t.info.TypeOf(e).(*types.Signature)
	if sig == nil {
		return t.opaque(e)
	}

	t.lambdas++
	params := make([]*bound.Symbol, 0, sig.Params().Len())
	for i := range sig.Params().Len() {
		v := sig.Params().At(i)
		sym := bound.NewParam(varName(v, i), bound.ObliviousRef(t.typeOf(v.Type())))
		t.vars[v] = sym
		params = append(params, sym)
	}

	f := bound.NewFunction(fmt.Sprintf("%s.func%d", t.fn.Name, t.lambdas), bound.FunctionLambda, t.resultRef(sig), params...)
	f.Span = span(e)
	f.Parent = t.fn

	outer, targets, label := t.fn, t.targets, t.label
	t.fn, t.targets, t.label = f, nil, nil
	f.Body = t.funcBody(e.Body, sig)
	t.fn, t.targets, t.label = outer, targets, label

	return &bound.Lambda{Span: span(e), Func: f, Typ: bound.NotAnnotatedRef(t.typeOf(sig))}
}

func (t *Translator) index(e *ast.IndexExpr) bound.Expr {
	if t.isType(e) {
		return t.opaque(e)
	}
	if _, ok := t.info.TypeOf(e.X).(*types.Signature); ok {
		// Instantiation of a generic function.
		return t.expr(e.X)
	}

	return &bound.ElementAccess{
		Span:     span(e),
		Receiver: t.expr(e.X),
		Indices:  []bound.Expr{t.expr(e.Index)},
		Typ:      t.exprRef(e),
	}
}

func nodeType(n ast.Node) string {
	return fmt.Sprintf("%T", n)
}
