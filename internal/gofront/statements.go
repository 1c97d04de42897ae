package gofront

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/config"
)

func (t *Translator) stmts(list []ast.Stmt, blk *bound.Block) []bound.Statement {
	var res []bound.Statement
	for _, s := range list {
		res = append(res, t.stmt(s, blk)...)
	}
	return res
}

func (t *Translator) block(b *ast.BlockStmt) *bound.Block {
	res := &bound.Block{Span: span(b)}
	res.Stmts = t.stmts(b.List, res)
	return res
}

// clauseBlock lowers statements of a case or a comm clause: each clause is
// an implicit block.
func (t *Translator) clauseBlock(n ast.Node, list []ast.Stmt, prefix ...bound.Statement) *bound.Block {
	res := &bound.Block{Span: span(n), Stmts: prefix}
	res.Stmts = append(res.Stmts, t.stmts(list, res)...)
	return res
}

// stmt lowers a statement. Locals it declares go to blk.
func (t *Translator) stmt(s ast.Stmt, blk *bound.Block) []bound.Statement {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return []bound.Statement{t.block(s)}
	case *ast.ExprStmt:
		return []bound.Statement{t.onExpr(s)}
	case *ast.AssignStmt:
		return t.onAssign(s, blk)
	case *ast.DeclStmt:
		return t.onDecl(s, blk)
	case *ast.IncDecStmt:
		return []bound.Statement{&bound.ExpressionStatement{
			Span: span(s),
			X:    &bound.Opaque{Span: span(s), Typ: t.exprRef(s.X), Operands: []bound.Expr{t.expr(s.X)}},
		}}
	case *ast.SendStmt:
		return []bound.Statement{&bound.ExpressionStatement{
			Span: span(s),
			X:    &bound.Opaque{Span: span(s), Operands: []bound.Expr{t.expr(s.Chan), t.expr(s.Value)}},
		}}
	case *ast.IfStmt:
		return []bound.Statement{t.onIf(s)}
	case *ast.ForStmt:
		return []bound.Statement{t.onFor(s)}
	case *ast.RangeStmt:
		return []bound.Statement{t.onRange(s)}
	case *ast.SwitchStmt:
		return []bound.Statement{t.onSwitch(s)}
	case *ast.TypeSwitchStmt:
		return []bound.Statement{t.onTypeSwitch(s)}
	case *ast.SelectStmt:
		return []bound.Statement{t.onSelect(s)}
	case *ast.ReturnStmt:
		return []bound.Statement{t.onReturn(s)}
	case *ast.BranchStmt:
		if b := t.onBranch(s); b != nil {
			return []bound.Statement{b}
		}
		return nil
	case *ast.LabeledStmt:
		return []bound.Statement{t.onLabeled(s, blk)}
	case *ast.GoStmt:
		return []bound.Statement{t.onDeferred(s, s.Call)}
	case *ast.DeferStmt:
		return []bound.Statement{t.onDeferred(s, s.Call)}
	case *ast.EmptyStmt:
		return nil
	default:
		t.log.Debug("statement skipped", "type", nodeType(s), "pos", s.Pos())
		return nil
	}
}

// onExpr lowers an expression statement. Calls of functions panicking with
// their first argument are throws.
func (t *Translator) onExpr(s *ast.ExprStmt) bound.Statement {
	if call, ok := astutil.Unparen(s.X).(*ast.CallExpr); ok {
		if kind, ok := t.noReturn(call); ok && kind == config.NoReturnPanic {
			var value bound.Expr
			if len(call.Args) > 0 {
				value = t.expr(call.Args[0])
			}
			return &bound.Throw{Span: span(s), Value: value}
		}
	}

	return &bound.ExpressionStatement{Span: span(s), X: t.expr(s.X)}
}

func (t *Translator) onAssign(s *ast.AssignStmt, blk *bound.Block) []bound.Statement {
	define := s.Tok == token.DEFINE

	switch {
	case s.Tok != token.ASSIGN && !define:
		// x op= y
		left := t.expr(s.Lhs[0])
		right := &bound.Opaque{
			Span:     span(s),
			Typ:      t.exprRef(s.Lhs[0]),
			Operands: []bound.Expr{t.expr(s.Rhs[0])},
		}
		return []bound.Statement{t.assignment(s, left, right)}

	case len(s.Lhs) == len(s.Rhs) && len(s.Lhs) == 1:
		return []bound.Statement{t.assignOne(s, s.Lhs[0], t.expr(s.Rhs[0]), define, blk)}

	case len(s.Lhs) == len(s.Rhs):
		// Right sides are all evaluated before any assignment happens.
		var res []bound.Statement
		values := make([]bound.Expr, len(s.Rhs))
		for i, r := range s.Rhs {
			value := t.expr(r)
			typ := value.Type().Type
			if typ == nil {
				typ = t.typeOf(t.info.TypeOf(s.Lhs[i]))
			}
			tmp := t.temp(bound.AnnotatedRef(typ), blk)
			res = append(res, &bound.LocalDeclaration{Span: span(r), Local: tmp, Init: value})
			values[i] = &bound.LocalRef{Span: span(r), Local: tmp, Typ: tmp.Type}
		}
		for i, l := range s.Lhs {
			res = append(res, t.assignOne(s, l, values[i], define, blk))
		}
		return res

	default:
		// a, b := f() and comma-ok forms.
		res := []bound.Statement{t.assignOne(s, s.Lhs[0], t.tupleHead(s.Rhs[0]), define, blk)}
		for i, l := range s.Lhs[1:] {
			rest := &bound.Opaque{Span: span(l), Typ: t.tupleRef(s.Rhs[0], i+1)}
			res = append(res, t.assignOne(s, l, rest, define, blk))
		}
		return res
	}
}

// tupleHead lowers the right side of a multi-value assignment for its first
// value. Comma-ok forms never panic.
func (t *Translator) tupleHead(e ast.Expr) bound.Expr {
	switch e := astutil.Unparen(e).(type) {
	case *ast.TypeAssertExpr:
		return &bound.Opaque{Span: span(e), Typ: t.exprRef(e), Operands: []bound.Expr{t.expr(e.X)}}
	default:
		return t.expr(e)
	}
}

func (t *Translator) tupleRef(e ast.Expr, i int) bound.TypeRef {
	if tuple, ok := t.info.TypeOf(e).(*types.Tuple); ok && i < tuple.Len() {
		return t.ref(tuple.At(i).Type(), bound.Oblivious)
	}
	return bound.ObliviousRef(bound.Bool)
}

// assignOne assigns value to the target, declaring new variables of `:=`.
func (t *Translator) assignOne(s ast.Node, lhs ast.Expr, value bound.Expr, define bool, blk *bound.Block) bound.Statement {
	id, isIdent := astutil.Unparen(lhs).(*ast.Ident)
	if isIdent && id.Name == "_" {
		return &bound.ExpressionStatement{Span: span(s), X: value}
	}

	if define && isIdent {
		if v, ok := t.info.Defs[id].(*types.Var); ok {
			return &bound.LocalDeclaration{Span: span(s), Local: t.declare(v, blk), Init: value}
		}
	}

	return t.assignment(s, t.expr(lhs), value)
}

func (t *Translator) assignment(s ast.Node, left, right bound.Expr) bound.Statement {
	return &bound.ExpressionStatement{
		Span: span(s),
		X:    &bound.Assignment{Span: span(s), Left: left, Right: right, Typ: left.Type()},
	}
}

func (t *Translator) onDecl(s *ast.DeclStmt, blk *bound.Block) []bound.Statement {
	gen, ok := s.Decl.(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return nil
	}

	var res []bound.Statement
	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		for i, name := range vs.Names {
			var init bound.Expr
			switch {
			case len(vs.Values) == len(vs.Names):
				init = t.expr(vs.Values[i])
			case len(vs.Values) == 1 && i == 0:
				init = t.tupleHead(vs.Values[0])
			case len(vs.Values) == 1:
				init = &bound.Opaque{Span: span(name), Typ: t.tupleRef(vs.Values[0], i)}
			}

			v, ok := t.info.Defs[name].(*types.Var)
			if !ok {
				if init != nil {
					res = append(res, &bound.ExpressionStatement{Span: span(vs), X: init})
				}
				continue
			}

			sym := t.declare(v, blk)
			if init == nil {
				init = &bound.DefaultValue{Span: span(name), Typ: sym.Type}
			}
			res = append(res, &bound.LocalDeclaration{Span: span(vs), Local: sym, Init: init})
		}
	}
	return res
}

// withInit puts an init statement and the statement into a block of their own.
func (t *Translator) withInit(n ast.Node, init ast.Stmt, build func(blk *bound.Block) bound.Statement) bound.Statement {
	if init == nil {
		return build(nil)
	}

	blk := &bound.Block{Span: span(n)}
	blk.Stmts = t.stmt(init, blk)
	blk.Stmts = append(blk.Stmts, build(blk))
	return blk
}

func (t *Translator) onIf(s *ast.IfStmt) bound.Statement {
	return t.withInit(s, s.Init, func(*bound.Block) bound.Statement {
		res := &bound.If{
			Span: span(s),
			Cond: t.expr(s.Cond),
			Then: t.block(s.Body),
		}
		switch e := s.Else.(type) {
		case *ast.IfStmt:
			res.Else = t.onIf(e)
		case *ast.BlockStmt:
			res.Else = t.block(e)
		}
		return res
	})
}

// pushTarget registers a breakable statement, taking the label it is
// marked with.
func (t *Translator) pushTarget(loop bool) target {
	tg := target{label: t.label, brk: &bound.Label{Name: "break"}}
	if loop {
		tg.cont = &bound.Label{Name: "continue"}
	}
	if t.label != nil {
		tg.brk.Name += " " + t.label.Name()
		if tg.cont != nil {
			tg.cont.Name += " " + t.label.Name()
		}
	}
	t.label = nil
	t.targets = append(t.targets, tg)
	return tg
}

func (t *Translator) popTarget() {
	t.targets = t.targets[:len(t.targets)-1]
}

func (t *Translator) onFor(s *ast.ForStmt) bound.Statement {
	tg := t.pushTarget(true)
	defer t.popTarget()

	res := &bound.For{
		Span:     span(s),
		Break:    tg.brk,
		Continue: tg.cont,
	}
	scope := &bound.Block{Span: span(s)}
	if s.Init != nil {
		res.Init = t.stmt(s.Init, scope)
	}
	if s.Cond != nil {
		res.Cond = t.expr(s.Cond)
	}
	if s.Post != nil {
		res.Post = t.stmt(s.Post, scope)
	}
	res.Body = t.block(s.Body)

	if len(scope.Locals) == 0 {
		return res
	}
	scope.Stmts = []bound.Statement{res}
	return scope
}

// onRange lowers a range loop. The value variable, or the key one when there
// is no value, is the loop variable. The other one is set at the start of
// each iteration.
func (t *Translator) onRange(s *ast.RangeStmt) bound.Statement {
	collection := t.expr(s.X)

	tg := t.pushTarget(true)
	defer t.popTarget()

	res := &bound.ForEach{
		Span:       span(s),
		Collection: collection,
		Break:      tg.brk,
		Continue:   tg.cont,
	}
	body := &bound.Block{Span: span(s.Body)}

	vars := make([]ast.Expr, 0, 2)
	for _, v := range []ast.Expr{s.Value, s.Key} {
		if v == nil {
			continue
		}
		if id, ok := v.(*ast.Ident); ok && id.Name == "_" {
			continue
		}
		vars = append(vars, v)
	}

	for i, v := range vars {
		id, isIdent := v.(*ast.Ident)
		obj, defined := t.info.Defs[id].(*types.Var)
		if s.Tok == token.DEFINE && isIdent && defined {
			sym := t.declare(obj, body)
			if i == 0 {
				res.Var = sym
				res.Element = t.ref(obj.Type(), bound.Oblivious)
				continue
			}
			body.Stmts = append(body.Stmts, &bound.LocalDeclaration{
				Span:  span(v),
				Local: sym,
				Init:  &bound.Opaque{Span: span(v), Typ: t.ref(obj.Type(), bound.Oblivious)},
			})
			continue
		}

		body.Stmts = append(body.Stmts, t.assignment(v, t.expr(v), &bound.Opaque{Span: span(v), Typ: t.exprRef(v)}))
	}

	body.Stmts = append(body.Stmts, t.stmts(s.Body.List, body)...)
	res.Body = body
	return res
}

func (t *Translator) onSwitch(s *ast.SwitchStmt) bound.Statement {
	return t.withInit(s, s.Init, func(*bound.Block) bound.Statement {
		if s.Tag == nil {
			return t.onConditionSwitch(s)
		}

		tag := t.expr(s.Tag)
		tg := t.pushTarget(false)
		defer t.popTarget()

		res := &bound.Switch{Span: span(s), Expr: tag, Break: tg.brk}
		for _, c := range s.Body.List {
			clause := c.(*ast.CaseClause)
			section := &bound.SwitchSection{Span: span(clause)}
			if clause.List == nil {
				section.Labels = []*bound.SwitchLabel{{Span: span(clause)}}
			}
			for _, e := range clause.List {
				section.Labels = append(section.Labels, &bound.SwitchLabel{
					Span:    span(e),
					Pattern: &bound.ConstantPattern{Span: span(e), Value: t.expr(e)},
				})
			}
			section.Body = []bound.Statement{t.clauseBlock(clause, clause.Body)}
			res.Sections = append(res.Sections, section)
		}
		return res
	})
}

// onConditionSwitch lowers a switch without a tag into a chain of ifs. The
// default clause runs when nothing else matched, wherever it is placed.
func (t *Translator) onConditionSwitch(s *ast.SwitchStmt) bound.Statement {
	tg := t.pushTarget(false)
	defer t.popTarget()

	type arm struct {
		clause *ast.CaseClause
		cond   bound.Expr
	}
	var arms []arm
	var fallback bound.Statement
	for _, c := range s.Body.List {
		clause := c.(*ast.CaseClause)
		if clause.List == nil {
			fallback = t.clauseBlock(clause, clause.Body)
			continue
		}

		var cond bound.Expr
		for _, e := range clause.List {
			next := t.expr(e)
			if cond == nil {
				cond = next
				continue
			}
			cond = &bound.Binary{
				Span:  bound.At(cond.Pos(), next.End()),
				Op:    bound.BinaryLogicalOr,
				Left:  cond,
				Right: next,
				Typ:   bound.NotAnnotatedRef(bound.Bool),
			}
		}
		arms = append(arms, arm{clause: clause, cond: cond})
	}

	chain := fallback
	if chain == nil {
		chain = &bound.Block{Span: span(s.Body)}
	}
	for i := len(arms) - 1; i >= 0; i-- {
		a := arms[i]
		chain = &bound.If{
			Span: span(a.clause),
			Cond: a.cond,
			Then: t.clauseBlock(a.clause, a.clause.Body),
			Else: chain,
		}
	}

	return &bound.Block{
		Span:  span(s),
		Stmts: []bound.Statement{chain, &bound.Labeled{Label: tg.brk, Stmt: &bound.Block{}}},
	}
}

// onTypeSwitch lowers a type switch into a switch over the subject with type
// patterns. A clause with a single type binds a non-nil value, other clauses
// bind the subject itself.
func (t *Translator) onTypeSwitch(s *ast.TypeSwitchStmt) bound.Statement {
	return t.withInit(s, s.Init, func(*bound.Block) bound.Statement {
		var assert *ast.TypeAssertExpr
		switch a := s.Assign.(type) {
		case *ast.AssignStmt:
			assert = a.Rhs[0].(*ast.TypeAssertExpr)
		case *ast.ExprStmt:
			assert = a.X.(*ast.TypeAssertExpr)
		}

		subject := t.expr(assert.X)
		tg := t.pushTarget(false)
		defer t.popTarget()

		res := &bound.Switch{Span: span(s), Expr: subject, Break: tg.brk}
		for _, c := range s.Body.List {
			clause := c.(*ast.CaseClause)
			section := &bound.SwitchSection{Span: span(clause)}

			var local *bound.Symbol
			if v, ok := t.info.Implicits[clause].(*types.Var); ok {
				local = t.local(v)
			}
			if clause.List == nil {
				section.Labels = []*bound.SwitchLabel{{Span: span(clause)}}
			}

			single := len(clause.List) == 1 && !t.isNil(clause.List[0])
			for _, e := range clause.List {
				section.Labels = append(section.Labels, &bound.SwitchLabel{
					Span:    span(e),
					Pattern: t.typePattern(e, local, single),
				})
			}

			var prefix []bound.Statement
			if local != nil && !single {
				prefix = append(prefix, &bound.LocalDeclaration{
					Span:  span(clause),
					Local: local,
					Init:  t.expr(assert.X),
				})
			}
			section.Body = []bound.Statement{t.clauseBlock(clause, clause.Body, prefix...)}
			res.Sections = append(res.Sections, section)
		}
		return res
	})
}

func (t *Translator) typePattern(e ast.Expr, local *bound.Symbol, bind bool) bound.Pattern {
	if t.isNil(e) {
		return &bound.ConstantPattern{Span: span(e), Value: &bound.Literal{Span: span(e), Null: true}}
	}

	typ := t.ref(t.info.TypeOf(e), bound.NotAnnotated)
	if local != nil && bind {
		return &bound.DeclarationPattern{Span: span(e), Target: typ, Local: local}
	}
	return &bound.TypePattern{Span: span(e), Target: typ}
}

func (t *Translator) isNil(e ast.Expr) bool {
	tv, ok := t.info.Types[e]
	return ok && tv.IsNil()
}

// onSelect lowers a select into a chain of ifs with unknown conditions: any
// clause may run. An empty select blocks forever.
func (t *Translator) onSelect(s *ast.SelectStmt) bound.Statement {
	if len(s.Body.List) == 0 {
		return &bound.Throw{Span: span(s)}
	}

	tg := t.pushTarget(false)
	defer t.popTarget()

	bodies := make([]bound.Statement, len(s.Body.List))
	for i, c := range s.Body.List {
		clause := c.(*ast.CommClause)
		blk := &bound.Block{Span: span(clause)}
		if clause.Comm != nil {
			blk.Stmts = t.stmt(clause.Comm, blk)
		}
		blk.Stmts = append(blk.Stmts, t.stmts(clause.Body, blk)...)
		bodies[i] = blk
	}

	chain := bodies[len(bodies)-1]
	for i := len(bodies) - 2; i >= 0; i-- {
		chain = &bound.If{
			Span: bodies[i].(*bound.Block).Span,
			Cond: &bound.Opaque{Typ: bound.NotAnnotatedRef(bound.Bool)},
			Then: bodies[i],
			Else: chain,
		}
	}

	return &bound.Block{
		Span:  span(s),
		Stmts: []bound.Statement{chain, &bound.Labeled{Label: tg.brk, Stmt: &bound.Block{}}},
	}
}

// onReturn keeps the only result as the returned value. Several results are
// evaluated in order into an opaque value.
func (t *Translator) onReturn(s *ast.ReturnStmt) bound.Statement {
	res := &bound.Return{Span: span(s)}
	switch len(s.Results) {
	case 0:
	case 1:
		res.Value = t.expr(s.Results[0])
	default:
		operands := make([]bound.Expr, len(s.Results))
		for i, r := range s.Results {
			operands[i] = t.expr(r)
		}
		res.Value = &bound.Opaque{Span: span(s), Typ: operands[0].Type(), Operands: operands}
	}
	return res
}

func (t *Translator) onBranch(s *ast.BranchStmt) bound.Statement {
	var label *types.Label
	if s.Label != nil {
		label, _ = t.info.Uses[s.Label].(*types.Label)
	}

	switch s.Tok {
	case token.BREAK:
		if tg, ok := t.target(label, false); ok {
			return &bound.Break{Span: span(s), Target: tg.brk}
		}
	case token.CONTINUE:
		if tg, ok := t.target(label, true); ok {
			return &bound.Continue{Span: span(s), Target: tg.cont}
		}
	case token.GOTO:
		if label != nil {
			return &bound.Goto{Span: span(s), Target: t.labelOf(label)}
		}
	default:
		// Fallthrough: the next clause is entered from the state of its own
		// labels only.
		t.log.Debug("fallthrough approximated", "pos", s.Pos())
	}
	return nil
}

// target finds the statement a break or a continue leaves.
func (t *Translator) target(label *types.Label, loop bool) (target, bool) {
	for i := len(t.targets) - 1; i >= 0; i-- {
		tg := t.targets[i]
		if loop && tg.cont == nil {
			continue
		}
		if label == nil || tg.label == label {
			return tg, true
		}
	}
	return target{}, false
}

func (t *Translator) labelOf(label *types.Label) *bound.Label {
	if l, ok := t.labels[label]; ok {
		return l
	}
	l := &bound.Label{Name: label.Name()}
	t.labels[label] = l
	return l
}

func (t *Translator) onLabeled(s *ast.LabeledStmt, blk *bound.Block) bound.Statement {
	label, _ := t.info.Defs[s.Label].(*types.Label)
	if label == nil {
		return t.asStatement(s, t.stmt(s.Stmt, blk))
	}

	switch s.Stmt.(type) {
	case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
		t.label = label
	}
	inner := t.stmt(s.Stmt, blk)
	t.label = nil

	return &bound.Labeled{Span: span(s), Label: t.labelOf(label), Stmt: t.asStatement(s.Stmt, inner)}
}

func (t *Translator) asStatement(n ast.Node, list []bound.Statement) bound.Statement {
	if len(list) == 1 {
		return list[0]
	}
	return &bound.Block{Span: span(n), Stmts: list}
}

// onDeferred evaluates what go and defer statements evaluate right away: the
// function value and the arguments. Function literals are analysed here.
func (t *Translator) onDeferred(s ast.Stmt, call *ast.CallExpr) bound.Statement {
	var operands []bound.Expr
	switch fun := astutil.Unparen(call.Fun).(type) {
	case *ast.FuncLit:
		operands = append(operands, t.lambda(fun))
	case *ast.SelectorExpr:
		if sel, ok := t.info.Selections[fun]; ok && sel.Kind() == types.MethodVal {
			operands = append(operands, t.methodReceiver(fun, sel))
		} else if _, ok := t.info.Uses[fun.Sel].(*types.Var); ok {
			operands = append(operands, t.expr(fun))
		}
	case *ast.Ident:
		if _, ok := t.info.Uses[fun].(*types.Var); ok {
			operands = append(operands, t.expr(fun))
		}
	}
	for _, arg := range call.Args {
		operands = append(operands, t.expr(arg))
	}

	return &bound.ExpressionStatement{
		Span: span(s),
		X:    &bound.Opaque{Span: span(s), Operands: operands},
	}
}
