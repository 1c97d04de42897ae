package bound

// ConstantPattern matches a constant.
//
//	x is null // Value: Literal{Null: true}
type ConstantPattern struct {
	Span
	Value Expr
}

// TypePattern matches non-null values of Target.
//
//	x is string
type TypePattern struct {
	Span
	Target TypeRef
}

// DeclarationPattern matches non-null values of Target and stores them in Local.
//
//	x is string s
type DeclarationPattern struct {
	Span
	Target TypeRef
	Local  *Symbol
}

// VarPattern matches anything, null included, and stores it in Local.
type VarPattern struct {
	Span
	Local *Symbol
}

// DiscardPattern matches anything.
type DiscardPattern struct {
	Span
}

// SubPattern matches the value of Member against Pattern.
type SubPattern struct {
	Span
	Member  *Symbol
	Pattern Pattern
}

// RecursivePattern matches non-null values whose members match Properties.
// Target and Local are optional.
//
//	x is { Name: not null } n
type RecursivePattern struct {
	Span
	Target     TypeRef
	Properties []*SubPattern
	Local      *Symbol
}

// NotPattern negates Pattern.
type NotPattern struct {
	Span
	Pattern Pattern
}

// IsNullPattern checks if the pattern is the `null` constant.
func IsNullPattern(p Pattern) bool {
	c, ok := p.(*ConstantPattern)
	if !ok {
		return false
	}
	lit, ok := c.Value.(*Literal)
	return ok && lit.Null
}

func (*ConstantPattern) isNode()    {}
func (*TypePattern) isNode()        {}
func (*DeclarationPattern) isNode() {}
func (*VarPattern) isNode()         {}
func (*DiscardPattern) isNode()     {}
func (*SubPattern) isNode()         {}
func (*RecursivePattern) isNode()   {}
func (*NotPattern) isNode()         {}

func (*ConstantPattern) isPattern()    {}
func (*TypePattern) isPattern()        {}
func (*DeclarationPattern) isPattern() {}
func (*VarPattern) isPattern()         {}
func (*DiscardPattern) isPattern()     {}
func (*RecursivePattern) isPattern()   {}
func (*NotPattern) isPattern()         {}
