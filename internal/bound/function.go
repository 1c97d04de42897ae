package bound

import "fmt"

// FunctionKind tells how a function body relates to its enclosing code.
type FunctionKind int

const (
	functionKindInvalid FunctionKind = iota

	// FunctionMethod is a top level body analysed on its own.
	FunctionMethod

	// FunctionLocal is a named function declared inside a block.
	FunctionLocal

	// FunctionLambda is an anonymous function expression.
	FunctionLambda
)

func (k FunctionKind) String() string {
	switch k {
	case FunctionMethod:
		return "method"
	case FunctionLocal:
		return "local-function"
	case FunctionLambda:
		return "lambda"
	default:
		return fmt.Sprintf("function-kind-invalid(%d)", k)
	}
}

// Function is a method, a local function or a lambda.
type Function struct {
	Span

	Name string
	Kind FunctionKind

	// Symbol refers to the function itself, it is what local function
	// references and calls point to.
	Symbol *Symbol

	// This is nil for static functions and lambdas.
	This   *Symbol
	Params []*Symbol

	Return                 TypeRef
	ReturnAnnotations      FlowAnnotation
	ReturnNotNullIfNotNull []string

	// MemberNotNull lists members of This guaranteed to be not null on return.
	MemberNotNull []*Symbol

	// Body is nil for external functions known only by their signature.
	Body *Block

	// Parent is the lexically enclosing function of a local function or a lambda.
	Parent *Function

	Async  bool
	Static bool
}

// NewFunction creates a function with the symbol referring to it. Parameters
// are bound to the function as their owner.
func NewFunction(name string, kind FunctionKind, ret TypeRef, params ...*Symbol) *Function {
	f := &Function{
		Name:   name,
		Kind:   kind,
		Return: ret,
		Params: params,
	}
	f.Symbol = &Symbol{Name: name, Kind: SymbolFunction, Func: f}
	for _, p := range params {
		p.Owner = f
	}
	return f
}

func (f *Function) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Param looks for a parameter by name.
func (f *Function) Param(name string) *Symbol {
	if f == nil {
		return nil
	}
	for _, p := range f.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ParamIndex returns the position of the parameter with the given name or -1.
func (f *Function) ParamIndex(name string) int {
	if f == nil {
		return -1
	}
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// IsNested tells if the function is analysed as a part of an enclosing body.
func (f *Function) IsNested() bool {
	return f != nil && (f.Kind == FunctionLocal || f.Kind == FunctionLambda)
}
