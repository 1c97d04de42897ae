package flow

import (
	"go/token"
	"testing"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/report"
)

var (
	nullableString = bound.AnnotatedRef(bound.String)
	plainString    = bound.NotAnnotatedRef(bound.String)
	boolType       = bound.NotAnnotatedRef(bound.Bool)
)

// span gives every node built by a test a distinct position, diagnostics
// of equal rules at the same position would be merged otherwise.
type span struct {
	next token.Pos
}

func (s *span) at() bound.Span {
	s.next += 10
	return bound.At(s.next, s.next+5)
}

func (s *span) ref(l *bound.Symbol) *bound.LocalRef {
	return &bound.LocalRef{Span: s.at(), Local: l, Typ: l.Type}
}

func (s *span) param(p *bound.Symbol) *bound.ParamRef {
	return &bound.ParamRef{Span: s.at(), Param: p, Typ: p.Type}
}

func (s *span) null() *bound.Literal {
	return &bound.Literal{Span: s.at(), Null: true}
}

func (s *span) str(v string) *bound.Literal {
	return &bound.Literal{Span: s.at(), Value: v, Typ: plainString}
}

func (s *span) member(recv bound.Expr, m *bound.Symbol) *bound.MemberAccess {
	return &bound.MemberAccess{Span: s.at(), Receiver: recv, Member: m, Typ: m.Type}
}

func (s *span) assign(target bound.Expr, value bound.Expr) *bound.ExpressionStatement {
	return &bound.ExpressionStatement{
		Span: s.at(),
		X:    &bound.Assignment{Span: s.at(), Left: target, Right: value, Typ: target.Type()},
	}
}

func (s *span) notNull(e bound.Expr) *bound.Binary {
	return &bound.Binary{Span: s.at(), Op: bound.BinaryNotEqual, Left: e, Right: s.null(), Typ: boolType}
}

func (s *span) isNull(e bound.Expr) *bound.Binary {
	return &bound.Binary{Span: s.at(), Op: bound.BinaryEqual, Left: e, Right: s.null(), Typ: boolType}
}

func (s *span) call(fn *bound.Function, args ...bound.Expr) *bound.ExpressionStatement {
	return &bound.ExpressionStatement{
		Span: s.at(),
		X:    &bound.Call{Span: s.at(), Method: fn, Args: args, Typ: fn.Return},
	}
}

func (s *span) eval(e bound.Expr) *bound.ExpressionStatement {
	return &bound.ExpressionStatement{Span: s.at(), X: e}
}

func block(stmts ...bound.Statement) *bound.Block {
	return &bound.Block{Stmts: stmts}
}

func method(name string, body *bound.Block, params ...*bound.Symbol) *bound.Function {
	fn := bound.NewFunction(name, bound.FunctionMethod, bound.TypeRef{}, params...)
	fn.Body = body
	fn.Span = bound.At(1, 100000)
	return fn
}

// use is an external function with a single non-nullable string parameter.
func use() *bound.Function {
	return bound.NewFunction("Use", bound.FunctionMethod, bound.TypeRef{}, bound.NewParam("v", plainString))
}

func analyze(t *testing.T, fn *bound.Function, opts Options) *Result {
	t.Helper()

	res, err := Analyze(fn, opts)
	if err != nil {
		t.Fatalf("analyze %s: %v", fn.Name, err)
	}
	return res
}

// rulesAt returns rules of diagnostics reported at the given node.
func rulesAt(diags []report.Diagnostic, node bound.Node) []nullrules.Rule {
	var res []nullrules.Rule
	for _, d := range diags {
		if d.Pos == node.Pos() {
			res = append(res, d.Rule)
		}
	}
	return res
}

func hasRule(diags []report.Diagnostic, rule nullrules.Rule) bool {
	for _, d := range diags {
		if d.Rule == rule {
			return true
		}
	}
	return false
}
