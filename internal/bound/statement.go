package bound

// Block is a sequence of statements with its own locals.
type Block struct {
	Span
	Stmts  []Statement
	Locals []*Symbol
}

// LocalFunctions lists local functions declared directly in the block.
func (b *Block) LocalFunctions() []*LocalFunctionStatement {
	if b == nil {
		return nil
	}

	var res []*LocalFunctionStatement
	for _, s := range b.Stmts {
		if lf, ok := s.(*LocalFunctionStatement); ok {
			res = append(res, lf)
		}
	}
	return res
}

// LocalDeclaration declares Local and optionally initializes it.
type LocalDeclaration struct {
	Span
	Local *Symbol
	Init  Expr
}

// ExpressionStatement evaluates X for its effect.
type ExpressionStatement struct {
	Span
	X Expr
}

// If is `if (Cond) Then else Else`. Else may be nil.
type If struct {
	Span
	Cond Expr
	Then Statement
	Else Statement
}

// While is `while (Cond) Body`.
type While struct {
	Span
	Cond     Expr
	Body     Statement
	Break    *Label
	Continue *Label
}

// DoWhile is `do Body while (Cond)`.
type DoWhile struct {
	Span
	Body     Statement
	Cond     Expr
	Break    *Label
	Continue *Label
}

// For is `for (Init; Cond; Post) Body`. Cond may be nil.
type For struct {
	Span
	Init     []Statement
	Cond     Expr
	Post     []Statement
	Body     Statement
	Break    *Label
	Continue *Label
}

// ForEach is `foreach (Var in Collection) Body`. Element is the type of the
// values the collection yields.
type ForEach struct {
	Span
	Var        *Symbol
	Collection Expr
	Element    TypeRef
	Body       Statement
	Break      *Label
	Continue   *Label
}

// Return leaves the function. Value is nil for bare returns.
type Return struct {
	Span
	Value Expr
}

// Break jumps to the break label of the enclosing loop or switch.
type Break struct {
	Span
	Target *Label
}

// Continue jumps to the continue label of the enclosing loop.
type Continue struct {
	Span
	Target *Label
}

// Goto jumps to a labeled statement.
type Goto struct {
	Span
	Target *Label
}

// Labeled marks Stmt with Label.
type Labeled struct {
	Span
	Label *Label
	Stmt  Statement
}

// Throw raises Value. A nil Value rethrows the current exception.
type Throw struct {
	Span
	Value Expr
}

// Catch is one catch clause. Local and Filter are optional.
type Catch struct {
	Span
	Local  *Symbol
	Filter Expr
	Body   *Block
}

// Try is `try Body catch... finally Finally`. Finally may be nil.
type Try struct {
	Span
	Body    *Block
	Catches []*Catch
	Finally *Block
}

// LocalFunctionStatement declares a local function.
type LocalFunctionStatement struct {
	Span
	Func *Function
}

// SwitchLabel is `case Pattern when When:`. A nil Pattern is `default:`.
type SwitchLabel struct {
	Span
	Pattern Pattern
	When    Expr
}

// SwitchSection is a group of labels sharing one body.
type SwitchSection struct {
	Span
	Labels []*SwitchLabel
	Body   []Statement
}

// IsDefault checks if the section holds the default label.
func (s *SwitchSection) IsDefault() bool {
	for _, l := range s.Labels {
		if l.Pattern == nil {
			return true
		}
	}
	return false
}

// Switch matches Expr against section labels in order. Sections do not fall
// through, leaving a section is a jump to Break.
type Switch struct {
	Span
	Expr     Expr
	Sections []*SwitchSection
	Break    *Label
}

func (*Block) isNode()                  {}
func (*LocalDeclaration) isNode()       {}
func (*ExpressionStatement) isNode()    {}
func (*If) isNode()                     {}
func (*While) isNode()                  {}
func (*DoWhile) isNode()                {}
func (*For) isNode()                    {}
func (*ForEach) isNode()                {}
func (*Return) isNode()                 {}
func (*Break) isNode()                  {}
func (*Continue) isNode()               {}
func (*Goto) isNode()                   {}
func (*Labeled) isNode()                {}
func (*Throw) isNode()                  {}
func (*Catch) isNode()                  {}
func (*Try) isNode()                    {}
func (*LocalFunctionStatement) isNode() {}
func (*SwitchLabel) isNode()            {}
func (*SwitchSection) isNode()          {}
func (*Switch) isNode()                 {}

func (*Block) isStatement()                  {}
func (*LocalDeclaration) isStatement()       {}
func (*ExpressionStatement) isStatement()    {}
func (*If) isStatement()                     {}
func (*While) isStatement()                  {}
func (*DoWhile) isStatement()                {}
func (*For) isStatement()                    {}
func (*ForEach) isStatement()                {}
func (*Return) isStatement()                 {}
func (*Break) isStatement()                  {}
func (*Continue) isStatement()               {}
func (*Goto) isStatement()                   {}
func (*Labeled) isStatement()                {}
func (*Throw) isStatement()                  {}
func (*Try) isStatement()                    {}
func (*LocalFunctionStatement) isStatement() {}
func (*Switch) isStatement()                 {}
