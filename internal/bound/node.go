package bound

import "go/token"

// Node is the base interface implemented by all bound tree nodes.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	isNode()
}

// Expr marks nodes producing a value.
type Expr interface {
	Node
	Type() TypeRef
	isExpr()
}

// Statement marks nodes executed for their effect.
type Statement interface {
	Node
	isStatement()
}

// Pattern marks nodes used on the right side of `is` and in switch labels.
type Pattern interface {
	Node
	isPattern()
}

// Span is a source range of a node. It is embedded into every node type.
type Span struct {
	Start token.Pos
	Stop  token.Pos
}

// At builds a span for the given range.
func At(start, stop token.Pos) Span {
	return Span{Start: start, Stop: stop}
}

// Pos returns the first position of the node.
func (s Span) Pos() token.Pos { return s.Start }

// End returns the position right after the node.
func (s Span) End() token.Pos { return s.Stop }

// Label is a jump target. Loops and switches own their break and continue
// labels, so break and continue are just jumps as well.
type Label struct {
	Name string
}

func (l *Label) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.Name
}
