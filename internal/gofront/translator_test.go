package gofront

import (
	"slices"
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/flow"
)

const source = `package sample

import (
	"context"
	"os"
)

type node struct {
	next *node
	v    int
}

func (n *node) Next() *node { return n.next }

func checked(p *node) int {
	if p == nil {
		println("nil node")
	}
	return p.v
}

func guarded(p *node) int {
	if p == nil {
		return 0
	}
	return p.v
}

func zero() int {
	var p *node
	return p.v
}

func member() int {
	n := &node{next: nil}
	return n.next.v
}

func lambda(p *node) func() int {
	if p == nil {
		return func() int { return p.v }
	}
	return nil
}

func kind(v any) int {
	switch x := v.(type) {
	case *node:
		return x.v
	case nil:
		return 0
	}
	return 1
}

func exit(p *node) int {
	if p == nil {
		os.Exit(1)
	}
	return p.v
}

func panics(p *node) int {
	if p == nil {
		panic("nil node")
	}
	return p.v
}

func cancel(ctx context.Context) {
	if ctx == nil {
		println("no context")
	}
	c, stop := context.WithCancel(ctx)
	defer stop()
	_ = c
}

func last(list []*node) int {
	var res *node
	for _, n := range list {
		if n.v > 0 {
			res = n
			break
		}
	}
	return res.v
}

func pick(a, b *node) int {
	var res *node
	switch {
	case a != nil:
		res = a
	case b != nil:
		res = b
	default:
		res = &node{}
	}
	return res.v
}

func walk(n *node) int {
	for n != nil {
		n = n.Next()
	}
	return n.v
}

func swap(a, b *node) int {
	a, b = b, nil
	return a.v + b.v
}
`

func translate(t *testing.T) map[string]*bound.Function {
	t.Helper()

	src, err := Check("sample.go", []byte(source))
	if err != nil {
		t.Fatal(err)
	}
	fns, err := TranslateFile(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return fns
}

func TestTranslateFile(t *testing.T) {
	fns := translate(t)

	tests := []struct {
		name string
		want []string
	}{
		{
			name: "checked",
			want: []string{"NUL000: possible null dereference of p"},
		},
		{
			name: "guarded",
		},
		{
			name: "zero",
			want: []string{"NUL000: possible null dereference of p"},
		},
		{
			name: "member",
			want: []string{"NUL000: possible null dereference of n.next"},
		},
		{
			name: "lambda",
			want: []string{"NUL000: possible null dereference of p"},
		},
		{
			name: "kind",
		},
		{
			name: "exit",
		},
		{
			name: "panics",
		},
		{
			name: "cancel",
			want: []string{"NUL060: possible null argument for parameter parent of context.WithCancel which disallows null"},
		},
		{
			name: "last",
			want: []string{"NUL000: possible null dereference of res"},
		},
		{
			name: "pick",
		},
		{
			name: "walk",
			want: []string{"NUL000: possible null dereference of n"},
		},
		{
			name: "swap",
			want: []string{"NUL000: possible null dereference of b"},
		},
		{
			name: "node.Next",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := fns[tt.name]
			if !ok {
				t.Fatalf("function %s is not translated", tt.name)
			}

			res, err := flow.Analyze(fn, flow.Options{})
			if err != nil {
				t.Fatal(err)
			}

			var got []string
			for _, d := range res.Diagnostics {
				if d.Rule.IsHidden() {
					continue
				}
				got = append(got, d.String())
			}
			slices.Sort(got)
			deepequal.SideBySide(t, "diagnostics", tt.want, got)
		})
	}
}

func TestTranslateSignatures(t *testing.T) {
	fns := translate(t)

	next := fns["node.Next"]
	if next == nil {
		t.Fatal("method node.Next is not translated")
	}
	if !next.Static {
		t.Error("methods with pointer receivers can be called on nil")
	}

	cancel := fns["cancel"]
	if len(cancel.Params) != 1 || cancel.Params[0].Name != "ctx" {
		t.Fatalf("unexpected parameters of cancel: %v", cancel.Params)
	}
	if got := cancel.Params[0].Type.Type.Kind; got != bound.TypeInterface {
		t.Errorf("context must be an interface, got %s", got)
	}

	lambda := fns["lambda"]
	var found *bound.Function
	visitLambdas(lambda.Body, func(f *bound.Function) { found = f })
	if found == nil {
		t.Fatal("lambda is lost")
	}
	if found.Parent != lambda || found.Kind != bound.FunctionLambda {
		t.Errorf("lambda must be nested into its function, got parent %v and kind %s", found.Parent, found.Kind)
	}
}

func TestTranslateTypeSwitch(t *testing.T) {
	fns := translate(t)

	var sw *bound.Switch
	for _, s := range fns["kind"].Body.Stmts {
		if v, ok := s.(*bound.Switch); ok {
			sw = v
		}
	}
	if sw == nil {
		t.Fatal("type switch must become a switch")
	}
	if len(sw.Sections) != 2 {
		t.Fatalf("two sections expected, got %d", len(sw.Sections))
	}

	if _, ok := sw.Sections[0].Labels[0].Pattern.(*bound.DeclarationPattern); !ok {
		t.Errorf("single type case must bind its value, got %T", sw.Sections[0].Labels[0].Pattern)
	}
	if !bound.IsNullPattern(sw.Sections[1].Labels[0].Pattern) {
		t.Errorf("nil case must be a null pattern, got %T", sw.Sections[1].Labels[0].Pattern)
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "syntax",
			src:  "package broken\n\nfunc f( {}\n",
		},
		{
			name: "types",
			src:  "package broken\n\nfunc f() int { return \"\" }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Check("broken.go", []byte(tt.src)); err == nil {
				t.Error("error expected")
			}
		})
	}

	if _, err := TranslateFile(nil, Options{}); err == nil {
		t.Error("error expected for a missing source")
	}
}

func visitLambdas(s bound.Statement, fn func(f *bound.Function)) {
	switch s := s.(type) {
	case *bound.Block:
		for _, st := range s.Stmts {
			visitLambdas(st, fn)
		}
	case *bound.If:
		visitLambdas(s.Then, fn)
		if s.Else != nil {
			visitLambdas(s.Else, fn)
		}
	case *bound.Return:
		if l, ok := s.Value.(*bound.Lambda); ok {
			fn(l.Func)
		}
	}
}
