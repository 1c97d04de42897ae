package bound

import (
	"bytes"
	"encoding"
	"fmt"
	"strings"
)

// SymbolKind describes what a symbol denotes.
type SymbolKind int

const (
	symbolKindInvalid SymbolKind = iota

	SymbolLocal
	SymbolParameter
	SymbolThis
	SymbolField
	SymbolProperty
	SymbolEvent
	SymbolFunction
	SymbolRangeVariable

	// SymbolPlaceholder stands for a value without storage, like an object
	// creation or a tuple literal, whose members are still worth tracking.
	SymbolPlaceholder
)

var symbolKindValueMap = map[SymbolKind]string{
	SymbolLocal:         "local",
	SymbolParameter:     "parameter",
	SymbolThis:          "this",
	SymbolField:         "field",
	SymbolProperty:      "property",
	SymbolEvent:         "event",
	SymbolFunction:      "function",
	SymbolRangeVariable: "range-variable",
	SymbolPlaceholder:   "placeholder",
}

func (k SymbolKind) String() string {
	v, ok := symbolKindValueMap[k]
	if !ok {
		return fmt.Sprintf("symbol-kind-invalid(%d)", k)
	}

	return v
}

// IsMember tells if symbols of this kind need a receiver.
func (k SymbolKind) IsMember() bool {
	switch k {
	case SymbolField, SymbolProperty, SymbolEvent:
		return true
	default:
		return false
	}
}

// RefKind is a passing mode of a parameter or a local.
type RefKind int

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (k RefKind) String() string {
	switch k {
	case RefNone:
		return "value"
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	default:
		return fmt.Sprintf("ref-kind-invalid(%d)", k)
	}
}

// FlowAnnotation is a set of pre- and postcondition flags attached to
// parameters, return values, fields and properties.
type FlowAnnotation uint32

const (
	// AllowNull lets callers pass null where the declared type disallows it.
	AllowNull FlowAnnotation = 1 << iota

	// DisallowNull forbids null where the declared type allows it.
	DisallowNull

	// MaybeNull says the value read out can be null.
	MaybeNull

	// MaybeNullWhenTrue says the value can be null when the call returned true.
	MaybeNullWhenTrue

	// MaybeNullWhenFalse says the value can be null when the call returned false.
	MaybeNullWhenFalse

	// NotNull says the value read out is never null.
	NotNull

	// NotNullWhenTrue says the value is not null when the call returned true.
	NotNullWhenTrue

	// NotNullWhenFalse says the value is not null when the call returned false.
	NotNullWhenFalse

	// DoesNotReturn marks functions that never return normally.
	DoesNotReturn

	// DoesNotReturnIfTrue marks boolean parameters stopping the call when true.
	DoesNotReturnIfTrue

	// DoesNotReturnIfFalse marks boolean parameters stopping the call when false.
	DoesNotReturnIfFalse
)

var flowAnnotationNames = []struct {
	flag FlowAnnotation
	name string
}{
	{AllowNull, "allow-null"},
	{DisallowNull, "disallow-null"},
	{MaybeNull, "maybe-null"},
	{MaybeNullWhenTrue, "maybe-null-when-true"},
	{MaybeNullWhenFalse, "maybe-null-when-false"},
	{NotNull, "not-null"},
	{NotNullWhenTrue, "not-null-when-true"},
	{NotNullWhenFalse, "not-null-when-false"},
	{DoesNotReturn, "does-not-return"},
	{DoesNotReturnIfTrue, "does-not-return-if-true"},
	{DoesNotReturnIfFalse, "does-not-return-if-false"},
}

// Has checks if all flags of f are set.
func (a FlowAnnotation) Has(f FlowAnnotation) bool {
	return a&f == f
}

// Any checks if any flag of f is set.
func (a FlowAnnotation) Any(f FlowAnnotation) bool {
	return a&f != 0
}

func (a FlowAnnotation) String() string {
	if a == 0 {
		return "none"
	}

	var parts []string
	for _, n := range flowAnnotationNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

var (
	_ encoding.TextUnmarshaler = (*FlowAnnotation)(nil)
	_ encoding.TextMarshaler   = FlowAnnotation(0)
)

// UnmarshalText parses the `|` separated list of flag names.
func (a *FlowAnnotation) UnmarshalText(b []byte) error {
	var res FlowAnnotation
	for _, part := range bytes.Split(b, []byte("|")) {
		part = bytes.TrimSpace(part)
		if len(part) == 0 || string(part) == "none" {
			continue
		}

		var found bool
		for _, n := range flowAnnotationNames {
			if n.name == string(part) {
				res |= n.flag
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown flow annotation %q", part)
		}
	}

	*a = res
	return nil
}

// MarshalText renders the `|` separated list of flag names.
func (a FlowAnnotation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Symbol is a resolved name: a local, a parameter, `this`, a member or a
// function. Symbols are compared by identity.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type TypeRef

	RefKind     RefKind
	Annotations FlowAnnotation

	// NotNullIfNotNull names a parameter: the value is not null when the
	// argument for that parameter is not null.
	NotNullIfNotNull string

	// Static members do not belong to any instance and are never tracked.
	Static bool

	// Index is a 1-based tuple element index for tuple element fields.
	Index int

	// Func is set for function symbols.
	Func *Function

	// Owner is the function declaring a local or a parameter.
	Owner *Function
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// NewLocal creates a local variable symbol.
func NewLocal(name string, typ TypeRef) *Symbol {
	return &Symbol{Name: name, Kind: SymbolLocal, Type: typ}
}

// NewParam creates a parameter symbol.
func NewParam(name string, typ TypeRef) *Symbol {
	return &Symbol{Name: name, Kind: SymbolParameter, Type: typ}
}

// NewField creates an instance field symbol.
func NewField(name string, typ TypeRef) *Symbol {
	return &Symbol{Name: name, Kind: SymbolField, Type: typ}
}

// NewProperty creates an instance property symbol.
func NewProperty(name string, typ TypeRef) *Symbol {
	return &Symbol{Name: name, Kind: SymbolProperty, Type: typ}
}
