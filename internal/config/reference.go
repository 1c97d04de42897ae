package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"slices"
	"strconv"
)

// Reference points to a package level function, to a method of a named type
// or to a builtin.
//
//	"pkg/path".Name
//	"pkg/path".Type.Name
type Reference struct {
	Package string
	Type    string
	Name    string
}

// Builtin returns the reference of a builtin function.
func Builtin(name string) Reference {
	return Reference{Package: "builtin", Name: name}
}

// FuncReference builds a reference for the given function or method. Methods
// of generic types refer to the origin type.
func FuncReference(fn *types.Func) Reference {
	var ref Reference
	if pkg := fn.Pkg(); pkg != nil {
		ref.Package = pkg.Path()
	} else {
		ref.Package = "builtin"
	}
	ref.Name = fn.Name()

	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return ref
	}

	recv := sig.Recv().Type()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	if named, ok := recv.(*types.Named); ok {
		ref.Type = named.Origin().Obj().Name()
	}

	return ref
}

func (r Reference) String() string {
	v, err := r.MarshalText()
	if err != nil {
		return fmt.Sprintf("reference-invalid(%s)", r.Name)
	}

	return string(v)
}

var (
	_ encoding.TextUnmarshaler = (*Reference)(nil)
	_ encoding.TextMarshaler   = Reference{}
)

// UnmarshalText reads a reference written as a Go selector over the quoted
// package path. Methods may name their receiver the way method expressions
// do, a bare identifier names a builtin.
//
//	"pkg/path".(*Type).Name
//	panic
func (r *Reference) UnmarshalText(b []byte) error {
	src := string(bytes.TrimSpace(b))
	if src == "" {
		return errors.New("empty reference")
	}

	expr, err := parser.ParseExpr(src)
	if err != nil {
		return fmt.Errorf("parse reference %q: %w", src, err)
	}

	var names []string
	for {
		sel, ok := expr.(*ast.SelectorExpr)
		if !ok {
			break
		}
		names = append(names, sel.Sel.Name)
		expr = sel.X
	}
	slices.Reverse(names)

	switch x := expr.(type) {
	case *ast.Ident:
		if len(names) > 0 {
			return fmt.Errorf("package path must be quoted in reference %q", src)
		}
		*r = Builtin(x.Name)
		return nil
	case *ast.TypeAssertExpr:
		recv := x.Type
		if star, ok := recv.(*ast.StarExpr); ok {
			recv = star.X
		}
		id, ok := recv.(*ast.Ident)
		if !ok || len(names) != 1 {
			return fmt.Errorf("receiver must be a type name followed by the method in reference %q", src)
		}
		names = []string{id.Name, names[0]}
		expr = x.X
	}

	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return fmt.Errorf("reference must start with quoted package: %q", src)
	}
	pkg, err := strconv.Unquote(lit.Value)
	if err != nil || pkg == "" {
		return fmt.Errorf("invalid package path in reference %q", src)
	}

	switch len(names) {
	case 1:
		*r = Reference{Package: pkg, Name: names[0]}
	case 2:
		*r = Reference{Package: pkg, Type: names[0], Name: names[1]}
	default:
		return fmt.Errorf("reference must name a function or a method of a type: %q", src)
	}
	return nil
}

// MarshalText renders the reference back. Builtins are bare names.
func (r Reference) MarshalText() ([]byte, error) {
	if r.Name == "" || !token.IsIdentifier(r.Name) {
		return nil, fmt.Errorf("invalid function name %q", r.Name)
	}
	if r.Package == "builtin" && r.Type == "" {
		return []byte(r.Name), nil
	}
	if r.Package == "" {
		return nil, errors.New("package of a non-builtin reference is missing")
	}

	res := strconv.Quote(r.Package) + "."
	if r.Type != "" {
		res += r.Type + "."
	}
	return []byte(res + r.Name), nil
}
