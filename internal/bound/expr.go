package bound

import "fmt"

// Literal is a constant value. The null literal has Null set and no type.
//
//	null  // Null: true
//	"a"   // Value: "a", Typ: string
type Literal struct {
	Span
	Typ   TypeRef
	Value any
	Null  bool
}

// DefaultValue is `default(T)`.
type DefaultValue struct {
	Span
	Typ TypeRef
}

// Opaque is a value of unknown provenance, like the result of an operation
// the front end does not model. Its nullability comes from the declared type.
// Operands are still evaluated, left to right.
type Opaque struct {
	Span
	Typ      TypeRef
	Operands []Expr
}

// LocalRef reads or writes a local variable.
type LocalRef struct {
	Span
	Local *Symbol
	Typ   TypeRef
}

// ParamRef reads or writes a parameter.
type ParamRef struct {
	Span
	Param *Symbol
	Typ   TypeRef
}

// ThisRef is `this`.
type ThisRef struct {
	Span
	This *Symbol
	Typ  TypeRef
}

// MemberAccess is a field, property or event access. Receiver is nil for
// static members.
//
//	a.b.c // Receiver: MemberAccess(a.b), Member: c
type MemberAccess struct {
	Span
	Receiver Expr
	Member   *Symbol
	Typ      TypeRef
}

// ElementAccess is an indexer or an array element access.
type ElementAccess struct {
	Span
	Receiver Expr
	Indices  []Expr
	Typ      TypeRef
}

// Indirection dereferences a pointer-like value.
//
//	*p
type Indirection struct {
	Span
	Operand Expr
	Typ     TypeRef
}

// Assignment is `Left = Right`. Ref assignments alias Left to Right's storage.
type Assignment struct {
	Span
	Left  Expr
	Right Expr
	Ref   bool
	Typ   TypeRef
}

// CoalesceAssignment is `Left ??= Right`.
type CoalesceAssignment struct {
	Span
	Left  Expr
	Right Expr
	Typ   TypeRef
}

// BinaryOp is a binary operator relevant to nullability.
type BinaryOp int

const (
	BinaryOther BinaryOp = iota
	BinaryEqual
	BinaryNotEqual
	BinaryLogicalAnd
	BinaryLogicalOr
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryOther:
		return "op"
	case BinaryEqual:
		return "=="
	case BinaryNotEqual:
		return "!="
	case BinaryLogicalAnd:
		return "&&"
	case BinaryLogicalOr:
		return "||"
	default:
		return fmt.Sprintf("binary-op-invalid(%d)", op)
	}
}

// Binary is a binary operation. Method is set for user-defined operators,
// whose operands are passed as arguments.
type Binary struct {
	Span
	Op     BinaryOp
	Left   Expr
	Right  Expr
	Method *Function
	Typ    TypeRef
}

// UnaryOp is a unary operator relevant to nullability.
type UnaryOp int

const (
	UnaryOther UnaryOp = iota
	UnaryNot
)

// Unary is a unary operation.
type Unary struct {
	Span
	Op      UnaryOp
	Operand Expr
	Typ     TypeRef
}

// Conditional is `Cond ? Then : Else`.
type Conditional struct {
	Span
	Cond Expr
	Then Expr
	Else Expr
	Typ  TypeRef
}

// Coalesce is `Left ?? Right`.
type Coalesce struct {
	Span
	Left  Expr
	Right Expr
	Typ   TypeRef
}

// ConditionalAccess is `Receiver?.Access`. Access refers to the evaluated
// receiver through a ConditionalReceiver node.
//
//	a?.b?.c // Receiver: a, Access: ConditionalAccess{Receiver: (CR).b, Access: (CR).c}
type ConditionalAccess struct {
	Span
	Receiver Expr
	Access   Expr
	Typ      TypeRef
}

// ConditionalReceiver is the placeholder for the receiver value inside the
// access part of a ConditionalAccess.
type ConditionalReceiver struct {
	Span
	Typ TypeRef
}

// Call invokes Method. Receiver is the instance for instance calls and the
// delegate value for delegate invocations, nil for static and local functions.
type Call struct {
	Span
	Receiver Expr
	Method   *Function
	Args     []Expr
	Delegate bool
	Typ      TypeRef
}

// MemberInit is one `Member = Value` entry of an object initializer.
type MemberInit struct {
	Span
	Member *Symbol
	Value  Expr
}

// ObjectCreation is `new T(Args) { Inits }`.
type ObjectCreation struct {
	Span
	Constructor *Function
	Args        []Expr
	Inits       []*MemberInit
	Typ         TypeRef
}

// TupleLiteral is `(a, b, ...)`.
type TupleLiteral struct {
	Span
	Elems []Expr
	Typ   TypeRef
}

// Conversion converts Operand to Typ. For user-defined conversions Method is
// the operator, From classifies the conversion of the operand to the
// operator's parameter and To the conversion of the operator result to Typ.
type Conversion struct {
	Span
	Operand  Expr
	Kind     ConversionKind
	Explicit bool
	Method   *Function
	From     ConversionKind
	To       ConversionKind
	Typ      TypeRef
}

// IsPattern is `Operand is Pattern`.
type IsPattern struct {
	Span
	Operand Expr
	Pattern Pattern
	Typ     TypeRef
}

// IsType is `Operand is Target`.
type IsType struct {
	Span
	Operand Expr
	Target  TypeRef
	Typ     TypeRef
}

// As is `Operand as Typ`.
type As struct {
	Span
	Operand Expr
	Typ     TypeRef
}

// Suppress is the null-forgiving `Operand!`.
type Suppress struct {
	Span
	Operand Expr
	Typ     TypeRef
}

// Lambda is an anonymous function expression.
type Lambda struct {
	Span
	Func *Function
	Typ  TypeRef
}

// FunctionRef is a function used as a value (a method group conversion).
type FunctionRef struct {
	Span
	Func     *Function
	Receiver Expr
	Typ      TypeRef
}

// Await is `await Operand`.
type Await struct {
	Span
	Operand Expr
	Typ     TypeRef
}

// ThrowExpr is a throw in an expression position, `a ?? throw e`.
type ThrowExpr struct {
	Span
	Operand Expr
	Typ     TypeRef
}

func (e *Literal) Type() TypeRef             { return e.Typ }
func (e *DefaultValue) Type() TypeRef        { return e.Typ }
func (e *Opaque) Type() TypeRef              { return e.Typ }
func (e *LocalRef) Type() TypeRef            { return e.Typ }
func (e *ParamRef) Type() TypeRef            { return e.Typ }
func (e *ThisRef) Type() TypeRef             { return e.Typ }
func (e *MemberAccess) Type() TypeRef        { return e.Typ }
func (e *ElementAccess) Type() TypeRef       { return e.Typ }
func (e *Indirection) Type() TypeRef         { return e.Typ }
func (e *Assignment) Type() TypeRef          { return e.Typ }
func (e *CoalesceAssignment) Type() TypeRef  { return e.Typ }
func (e *Binary) Type() TypeRef              { return e.Typ }
func (e *Unary) Type() TypeRef               { return e.Typ }
func (e *Conditional) Type() TypeRef         { return e.Typ }
func (e *Coalesce) Type() TypeRef            { return e.Typ }
func (e *ConditionalAccess) Type() TypeRef   { return e.Typ }
func (e *ConditionalReceiver) Type() TypeRef { return e.Typ }
func (e *Call) Type() TypeRef                { return e.Typ }
func (e *ObjectCreation) Type() TypeRef      { return e.Typ }
func (e *TupleLiteral) Type() TypeRef        { return e.Typ }
func (e *Conversion) Type() TypeRef          { return e.Typ }
func (e *IsPattern) Type() TypeRef           { return e.Typ }
func (e *IsType) Type() TypeRef              { return e.Typ }
func (e *As) Type() TypeRef                  { return e.Typ }
func (e *Suppress) Type() TypeRef            { return e.Typ }
func (e *Lambda) Type() TypeRef              { return e.Typ }
func (e *FunctionRef) Type() TypeRef         { return e.Typ }
func (e *Await) Type() TypeRef               { return e.Typ }
func (e *ThrowExpr) Type() TypeRef           { return e.Typ }

func (*Literal) isNode()             {}
func (*DefaultValue) isNode()        {}
func (*Opaque) isNode()              {}
func (*LocalRef) isNode()            {}
func (*ParamRef) isNode()            {}
func (*ThisRef) isNode()             {}
func (*MemberAccess) isNode()        {}
func (*ElementAccess) isNode()       {}
func (*Indirection) isNode()         {}
func (*Assignment) isNode()          {}
func (*CoalesceAssignment) isNode()  {}
func (*Binary) isNode()              {}
func (*Unary) isNode()               {}
func (*Conditional) isNode()         {}
func (*Coalesce) isNode()            {}
func (*ConditionalAccess) isNode()   {}
func (*ConditionalReceiver) isNode() {}
func (*Call) isNode()                {}
func (*MemberInit) isNode()          {}
func (*ObjectCreation) isNode()      {}
func (*TupleLiteral) isNode()        {}
func (*Conversion) isNode()          {}
func (*IsPattern) isNode()           {}
func (*IsType) isNode()              {}
func (*As) isNode()                  {}
func (*Suppress) isNode()            {}
func (*Lambda) isNode()              {}
func (*FunctionRef) isNode()         {}
func (*Await) isNode()               {}
func (*ThrowExpr) isNode()           {}

func (*Literal) isExpr()             {}
func (*DefaultValue) isExpr()        {}
func (*Opaque) isExpr()              {}
func (*LocalRef) isExpr()            {}
func (*ParamRef) isExpr()            {}
func (*ThisRef) isExpr()             {}
func (*MemberAccess) isExpr()        {}
func (*ElementAccess) isExpr()       {}
func (*Indirection) isExpr()         {}
func (*Assignment) isExpr()          {}
func (*CoalesceAssignment) isExpr()  {}
func (*Binary) isExpr()              {}
func (*Unary) isExpr()               {}
func (*Conditional) isExpr()         {}
func (*Coalesce) isExpr()            {}
func (*ConditionalAccess) isExpr()   {}
func (*ConditionalReceiver) isExpr() {}
func (*Call) isExpr()                {}
func (*ObjectCreation) isExpr()      {}
func (*TupleLiteral) isExpr()        {}
func (*Conversion) isExpr()          {}
func (*IsPattern) isExpr()           {}
func (*IsType) isExpr()              {}
func (*As) isExpr()                  {}
func (*Suppress) isExpr()            {}
func (*Lambda) isExpr()              {}
func (*FunctionRef) isExpr()         {}
func (*Await) isExpr()               {}
func (*ThrowExpr) isExpr()           {}
