package bound

import "fmt"

// ConversionKind classifies a conversion.
type ConversionKind int

const (
	ConversionIdentity ConversionKind = iota
	ConversionImplicitReference
	ConversionExplicitReference
	ConversionNullLiteral
	ConversionImplicitNullable
	ConversionExplicitNullable
	ConversionBoxing
	ConversionUnboxing
	ConversionImplicitTuple
	ConversionExplicitTuple
	ConversionUserDefined
	ConversionNumeric
	ConversionNone
)

var conversionKindValueMap = map[ConversionKind]string{
	ConversionIdentity:          "identity",
	ConversionImplicitReference: "implicit-reference",
	ConversionExplicitReference: "explicit-reference",
	ConversionNullLiteral:       "null-literal",
	ConversionImplicitNullable:  "implicit-nullable",
	ConversionExplicitNullable:  "explicit-nullable",
	ConversionBoxing:            "boxing",
	ConversionUnboxing:          "unboxing",
	ConversionImplicitTuple:     "implicit-tuple",
	ConversionExplicitTuple:     "explicit-tuple",
	ConversionUserDefined:       "user-defined",
	ConversionNumeric:           "numeric",
	ConversionNone:              "none",
}

func (k ConversionKind) String() string {
	v, ok := conversionKindValueMap[k]
	if !ok {
		return fmt.Sprintf("conversion-kind-invalid(%d)", k)
	}

	return v
}

// IsReference tells if the conversion keeps the identity of a reference.
func (k ConversionKind) IsReference() bool {
	switch k {
	case ConversionIdentity, ConversionImplicitReference, ConversionExplicitReference:
		return true
	default:
		return false
	}
}

// ConversionClassifier tells how a value of one type converts to another.
type ConversionClassifier interface {
	Classify(from, to TypeRef) ConversionKind
}

// DefaultClassifier classifies conversions by the shape of types only.
type DefaultClassifier struct{}

var _ ConversionClassifier = DefaultClassifier{}

// Classify implements ConversionClassifier.
func (DefaultClassifier) Classify(from, to TypeRef) ConversionKind {
	f, t := from.Type, to.Type
	switch {
	case f == nil:
		if t == nil || t.IsReference() || t.IsNullableValue() || t.Kind == TypeParameter {
			return ConversionNullLiteral
		}
		return ConversionNone
	case t == nil:
		return ConversionNone
	case f == t:
		return ConversionIdentity
	case t.IsNullableValue() && t.Elem.Type == f:
		return ConversionImplicitNullable
	case f.IsNullableValue() && f.Elem.Type == t:
		return ConversionExplicitNullable
	case f.Kind == TypeTuple && t.Kind == TypeTuple:
		if len(f.Elements) != len(t.Elements) {
			return ConversionNone
		}
		return ConversionImplicitTuple
	case f.IsReference() && t.IsReference():
		return ConversionImplicitReference
	case (f.IsValueType() || f.Kind == TypeParameter) && t.IsReference():
		return ConversionBoxing
	case f.IsReference() && (t.IsValueType() || t.Kind == TypeParameter):
		return ConversionUnboxing
	case f.Kind == TypeParameter && t.Kind == TypeParameter:
		return ConversionExplicitReference
	case f.Kind == TypePrimitive && t.Kind == TypePrimitive:
		return ConversionNumeric
	default:
		return ConversionNone
	}
}
