package flow

import (
	"errors"
	"go/token"
	"testing"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullstate"
)

func TestPositionIndexDepthPattern(t *testing.T) {
	varn := func(name string, start, end token.Pos) *bound.LocalRef {
		return &bound.LocalRef{
			Span:  bound.At(start, end),
			Local: bound.NewLocal(name, nullableString),
			Typ:   nullableString,
		}
	}

	ground := varn("ground", 1, 200)
	order := []bound.Expr{
		ground,
		varn("mid1", 10, 90),
		varn("mid11", 20, 30),
		varn("mid12", 40, 80),
		varn("mid13", 85, 88),
		varn("mid2", 110, 190),
		varn("mid21", 120, 130),
		varn("shadow", 120, 130),
		varn("partial", 125, 140),
		varn("empty", 150, 150),
	}
	results := map[bound.Expr]TypeWithState{
		ground: {Type: nullableString, State: nullstate.MaybeNull},
	}

	idx, err := newPositionIndex(order, results)
	if !errors.Is(err, errPartialOverlap) {
		t.Errorf("the partial span must be reported, got %v", err)
	}
	if idx.Len() != 7 {
		t.Errorf("7 spans must be indexed, got %d", idx.Len())
	}

	type test struct {
		name  string
		pos   token.Pos
		isnil bool
	}
	testingFunc := func(tt test) func(t *testing.T) {
		return func(t *testing.T) {
			e, _, ok := idx.At(tt.pos)
			if !ok && !tt.isnil {
				t.Fatalf("node %q was not found at position %d", tt.name, tt.pos)
			}
			if ok && tt.isnil {
				t.Fatalf("no node was expected at position %d, got %q", tt.pos, e.(*bound.LocalRef).Local.Name)
			}
			if !ok {
				t.Logf("no node was found at %d as was expected", tt.pos)
				return
			}
			if x := e.(*bound.LocalRef); x.Local.Name != tt.name {
				t.Fatalf("node %q was expected, got %q at position %d", tt.name, x.Local.Name, tt.pos)
			}
			t.Logf("expected node %q found at %d", tt.name, tt.pos)
		}
	}

	tests := []test{
		{name: "ground", pos: 1},
		{name: "ground", pos: 5},
		{name: "mid1", pos: 10},
		{name: "mid11", pos: 25},
		{name: "mid1", pos: 30},
		{name: "mid12", pos: 79},
		{name: "mid1", pos: 80},
		{name: "mid13", pos: 87},
		{name: "ground", pos: 95},
		{name: "mid2", pos: 110},
		{name: "mid21", pos: 125},
		{name: "mid2", pos: 135},
		{name: "mid2", pos: 150},
		{name: "ground", pos: 199},
		{name: "after everything", pos: 200, isnil: true},
		{name: "invalid", pos: token.NoPos, isnil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, testingFunc(tt))
	}

	if _, v, _ := idx.At(5); v.State != nullstate.MaybeNull {
		t.Errorf("the state of ground must be kept, got %s", v.State)
	}
}

func TestExpressionAt(t *testing.T) {
	var sp span
	s := bound.NewLocal("s", nullableString)
	u := use()

	read := sp.ref(s)
	stmt := sp.call(u, read)
	call := stmt.X.(*bound.Call)
	call.Span = bound.At(read.Pos()-2, read.End()+2)

	res := analyze(t, method("f", block(
		&bound.LocalDeclaration{Span: sp.at(), Local: s, Init: sp.null()},
		stmt,
	)), Options{})

	e, v, ok := res.ExpressionAt(read.Pos() + 1)
	if !ok || e != read {
		t.Fatalf("the read of s was expected, got %v", e)
	}
	if v.State != nullstate.MaybeNull {
		t.Errorf("unexpected state %s", v.State)
	}

	e, _, ok = res.ExpressionAt(call.Pos())
	if !ok || e != call {
		t.Errorf("the call was expected, got %v", e)
	}
}
