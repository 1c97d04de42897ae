package gofront

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"strconv"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/config"
)

// Options configures a Translator.
type Options struct {
	// Annotations refine signatures of known functions. Built-in tables are
	// used when nil.
	Annotations *config.Annotations

	// Logger receives notes about syntax lowered approximately. Silent when nil.
	Logger *slog.Logger
}

// Translator lowers function declarations of one package. Types, fields and
// signatures are shared by every function it lowers.
type Translator struct {
	pkg         *types.Package
	info        *types.Info
	annotations *config.Annotations
	log         *slog.Logger

	types typeutil.Map
	funcs map[*types.Func]*bound.Function
	vars  map[*types.Var]*bound.Symbol

	// Per function state.
	fn      *bound.Function
	lambdas int
	targets []target
	labels  map[*types.Label]*bound.Label
	label   *types.Label
	temps   int
}

// target is a statement break and continue may leave.
type target struct {
	label *types.Label
	brk   *bound.Label
	cont  *bound.Label
}

// New creates a translator for the package checked into info.
func New(pkg *types.Package, info *types.Info, opts Options) *Translator {
	ann := opts.Annotations
	if ann == nil {
		ann = config.Default().Annotations()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Translator{
		pkg:         pkg,
		info:        info,
		annotations: ann,
		log:         log,
		funcs:       map[*types.Func]*bound.Function{},
		vars:        map[*types.Var]*bound.Symbol{},
	}
}

// Function lowers the declaration into a function with a body.
func (t *Translator) Function(decl *ast.FuncDecl) (*bound.Function, error) {
	if decl.Body == nil {
		return nil, fmt.Errorf("function %s has no body", decl.Name.Name)
	}
	obj, ok := t.info.Defs[decl.Name].(*types.Func)
	if !ok {
		return nil, fmt.Errorf("function %s is not type checked", decl.Name.Name)
	}

	fn := t.signature(obj)
	fn.Span = span(decl)

	t.fn = fn
	t.lambdas = 0
	t.targets = nil
	t.labels = map[*types.Label]*bound.Label{}
	t.label = nil
	t.temps = 0
	defer func() { t.fn = nil }()

	fn.Body = t.funcBody(decl.Body, obj.Type().(*types.Signature))
	return fn, nil
}

// funcBody lowers the body declaring named results first: they start with
// zero values.
func (t *Translator) funcBody(body *ast.BlockStmt, sig *types.Signature) *bound.Block {
	res := &bound.Block{Span: span(body)}
	results := sig.Results()
	for i := range results.Len() {
		v := results.At(i)
		if v.Name() == "" || v.Name() == "_" {
			continue
		}
		sym := t.declare(v, res)
		res.Stmts = append(res.Stmts, &bound.LocalDeclaration{
			Span:  bound.At(v.Pos(), v.Pos()+token.Pos(len(v.Name()))),
			Local: sym,
			Init:  &bound.DefaultValue{Typ: sym.Type},
		})
	}
	res.Stmts = append(res.Stmts, t.stmts(body.List, res)...)
	return res
}

// signature returns the bound function of fn without a body. Parameters of
// fn are registered, so bodies lowered later refer to the same symbols.
func (t *Translator) signature(fn *types.Func) *bound.Function {
	fn = fn.Origin()
	if f, ok := t.funcs[fn]; ok {
		return f
	}

	ref := config.FuncReference(fn)
	sig := fn.Type().(*types.Signature)

	params := t.params(sig, ref)
	f := bound.NewFunction(t.funcName(fn, ref), bound.FunctionMethod, t.resultRef(sig), params...)
	f.ReturnAnnotations = t.annotations.Result(ref)
	t.funcs[fn] = f

	if recv := sig.Recv(); recv != nil {
		sym := bound.NewParam(varName(recv, -1), bound.ObliviousRef(t.typeOf(recv.Type())))
		sym.Owner = f
		t.vars[recv] = sym

		// Methods with pointer receivers can be called on nil, interface
		// methods and value receivers reached through a pointer can not.
		_, ptr := recv.Type().(*types.Pointer)
		f.Static = ptr && !types.IsInterface(recv.Type())
	}

	return f
}

func (t *Translator) params(sig *types.Signature, ref config.Reference) []*bound.Symbol {
	ps := sig.Params()
	res := make([]*bound.Symbol, 0, ps.Len())
	for i := range ps.Len() {
		v := ps.At(i)
		sym := bound.NewParam(varName(v, i), bound.ObliviousRef(t.typeOf(v.Type())))
		sym.Annotations = t.annotations.Param(ref, v.Name())
		t.vars[v] = sym
		res = append(res, sym)
	}
	return res
}

func (t *Translator) resultRef(sig *types.Signature) bound.TypeRef {
	if sig.Results().Len() == 0 {
		return bound.TypeRef{}
	}
	return bound.ObliviousRef(t.typeOf(sig.Results().At(0).Type()))
}

func (t *Translator) funcName(fn *types.Func, ref config.Reference) string {
	name := fn.Name()
	if ref.Type != "" {
		name = ref.Type + "." + name
	}
	if pkg := fn.Pkg(); pkg != nil && pkg != t.pkg {
		name = pkg.Name() + "." + name
	}
	return name
}

func varName(v *types.Var, i int) string {
	if v.Name() != "" && v.Name() != "_" {
		return v.Name()
	}
	if i < 0 {
		return "recv"
	}
	return "p" + strconv.Itoa(i)
}

// declare creates a local of the current function and adds it to the block.
func (t *Translator) declare(v *types.Var, blk *bound.Block) *bound.Symbol {
	sym := t.local(v)
	if blk != nil {
		blk.Locals = append(blk.Locals, sym)
	}
	return sym
}

// local returns the symbol of a local variable, creating it on first sight.
func (t *Translator) local(v *types.Var) *bound.Symbol {
	if sym, ok := t.vars[v]; ok {
		return sym
	}

	sym := bound.NewLocal(v.Name(), bound.AnnotatedRef(t.typeOf(v.Type())))
	sym.Owner = t.fn
	t.vars[v] = sym
	return sym
}

// temp creates a synthetic local holding an intermediate value.
func (t *Translator) temp(typ bound.TypeRef, blk *bound.Block) *bound.Symbol {
	t.temps++
	sym := bound.NewLocal("tmp"+strconv.Itoa(t.temps), typ)
	sym.Owner = t.fn
	if blk != nil {
		blk.Locals = append(blk.Locals, sym)
	}
	return sym
}

func span(n ast.Node) bound.Span {
	return bound.At(n.Pos(), n.End())
}

// Source is a single type-checked file.
type Source struct {
	Fset *token.FileSet
	File *ast.File
	Pkg  *types.Package
	Info *types.Info
}

// Check parses and type checks a single file with imports from the standard
// library only.
func Check(filename string, src []byte) (*Source, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
		Instances:  map[*ast.Ident]types.Instance{},
		Scopes:     map[ast.Node]*types.Scope{},
	}
	conf := types.Config{Importer: importer.Default()}
	pkg, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	if err != nil {
		return nil, fmt.Errorf("type check %s: %w", filename, err)
	}

	return &Source{Fset: fset, File: file, Pkg: pkg, Info: info}, nil
}

// TranslateFile lowers every function declared in the source. Functions are
// keyed by their names, methods by `Type.Name`.
func TranslateFile(src *Source, opts Options) (map[string]*bound.Function, error) {
	if src == nil {
		return nil, errors.New("no source to translate")
	}

	t := New(src.Pkg, src.Info, opts)
	res := map[string]*bound.Function{}
	for _, decl := range src.File.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}
		fn, err := t.Function(fd)
		if err != nil {
			return nil, fmt.Errorf("translate %s: %w", fd.Name.Name, err)
		}
		res[fn.Name] = fn
	}
	return res, nil
}
