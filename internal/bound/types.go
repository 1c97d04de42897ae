package bound

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind is a shape of a type relevant to nullability.
type TypeKind int

const (
	typeKindInvalid TypeKind = iota

	TypeClass
	TypeInterface
	TypeDelegate
	TypeArray
	TypeStruct
	TypeNullableValue
	TypeTuple
	TypeParameter
	TypePrimitive
	TypeError
)

var typeKindValueMap = map[TypeKind]string{
	TypeClass:         "class",
	TypeInterface:     "interface",
	TypeDelegate:      "delegate",
	TypeArray:         "array",
	TypeStruct:        "struct",
	TypeNullableValue: "nullable",
	TypeTuple:         "tuple",
	TypeParameter:     "type-parameter",
	TypePrimitive:     "primitive",
	TypeError:         "error",
}

func (k TypeKind) String() string {
	v, ok := typeKindValueMap[k]
	if !ok {
		return fmt.Sprintf("type-kind-invalid(%d)", k)
	}

	return v
}

// Constraint is a nullability relevant constraint of a type parameter.
type Constraint int

const (
	// Unconstrained type parameters can be instantiated with anything, so
	// their default value may be null even when it is not annotated.
	Unconstrained Constraint = iota
	ReferenceConstraint
	ValueConstraint
	NotNullConstraint
)

// MaxTupleFields is the number of element fields a tuple stores before the rest
// of the elements go into the nested Rest tuple.
const MaxTupleFields = 7

// Type is a declared type.
type Type struct {
	Name string
	Kind TypeKind

	// Members are instance and static members of the type.
	Members []*Symbol

	// Elem is the array element type or the underlying type of a nullable value type.
	Elem TypeRef

	// Constraint of a type parameter.
	Constraint Constraint

	// Signature of a delegate type.
	Signature *Function

	// Elements are the logical tuple elements Item1..ItemN. The first seven
	// are also present in Members, the rest are reached through Rest.
	Elements []*Symbol
	rest     *Symbol

	hasValue *Symbol
	value    *Symbol
}

func (t *Type) String() string {
	if t == nil {
		return "<null>"
	}
	return t.Name
}

// IsReference tells if values of the type are references and can be null.
func (t *Type) IsReference() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeClass, TypeInterface, TypeDelegate, TypeArray:
		return true
	case TypeParameter:
		return t.Constraint == ReferenceConstraint
	default:
		return false
	}
}

// IsValueType tells if values of the type are stored inline.
func (t *Type) IsValueType() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeStruct, TypeNullableValue, TypeTuple, TypePrimitive:
		return true
	case TypeParameter:
		return t.Constraint == ValueConstraint
	default:
		return false
	}
}

// IsNullableValue tells if the type is a nullable wrapper of a value type.
func (t *Type) IsNullableValue() bool {
	return t != nil && t.Kind == TypeNullableValue
}

// IsUnconstrainedParameter tells if the type is a type parameter whose
// instantiation may be either a reference or a value type.
func (t *Type) IsUnconstrainedParameter() bool {
	return t != nil && t.Kind == TypeParameter && (t.Constraint == Unconstrained || t.Constraint == NotNullConstraint)
}

// InstanceMembers returns members which are tracked per instance.
func (t *Type) InstanceMembers() []*Symbol {
	if t == nil {
		return nil
	}

	var res []*Symbol
	for _, m := range t.Members {
		if m.Static || !m.Kind.IsMember() {
			continue
		}
		res = append(res, m)
	}
	return res
}

// Member looks for a member with the given name.
func (t *Type) Member(name string) *Symbol {
	if t == nil {
		return nil
	}
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	for _, e := range t.Elements {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Rest returns the field holding tuple elements after the seventh one.
func (t *Type) Rest() *Symbol {
	if t == nil {
		return nil
	}
	return t.rest
}

// HasValueMember returns the synthetic HasValue property of a nullable value type.
func (t *Type) HasValueMember() *Symbol {
	if t == nil {
		return nil
	}
	return t.hasValue
}

// ValueMember returns the synthetic Value property of a nullable value type.
func (t *Type) ValueMember() *Symbol {
	if t == nil {
		return nil
	}
	return t.value
}

// AddMember appends a member to the type and returns it.
func (t *Type) AddMember(s *Symbol) *Symbol {
	t.Members = append(t.Members, s)
	return s
}

// NewClass creates a reference type with the given members.
func NewClass(name string, members ...*Symbol) *Type {
	return &Type{Name: name, Kind: TypeClass, Members: members}
}

// NewStruct creates a value type with the given members.
func NewStruct(name string, members ...*Symbol) *Type {
	return &Type{Name: name, Kind: TypeStruct, Members: members}
}

// NewPrimitive creates a memberless value type.
func NewPrimitive(name string) *Type {
	return &Type{Name: name, Kind: TypePrimitive}
}

// NewTypeParameter creates a type parameter.
func NewTypeParameter(name string, c Constraint) *Type {
	return &Type{Name: name, Kind: TypeParameter, Constraint: c}
}

// NewNullable creates a nullable wrapper over the value type underlying.
// It gets synthetic HasValue and Value properties.
func NewNullable(underlying *Type) *Type {
	t := &Type{
		Name: underlying.String() + "?",
		Kind: TypeNullableValue,
		Elem: NotAnnotatedRef(underlying),
	}
	t.hasValue = t.AddMember(NewProperty("HasValue", NotAnnotatedRef(Bool)))
	t.value = t.AddMember(NewProperty("Value", NotAnnotatedRef(underlying)))
	return t
}

// NewTuple creates a tuple type. Tuples longer than seven elements keep
// the tail in a nested tuple stored in the Rest field, while Elements still
// lists every logical element.
func NewTuple(elems ...TypeRef) *Type {
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = e.String()
	}

	t := &Type{
		Name: "(" + strings.Join(names, ", ") + ")",
		Kind: TypeTuple,
	}

	stored := elems
	if len(stored) > MaxTupleFields {
		stored = elems[:MaxTupleFields]
	}
	for i, e := range stored {
		f := NewField("Item"+strconv.Itoa(i+1), e)
		f.Index = i + 1
		t.AddMember(f)
		t.Elements = append(t.Elements, f)
	}

	if len(elems) <= MaxTupleFields {
		return t
	}

	rest := NewTuple(elems[MaxTupleFields:]...)
	t.rest = t.AddMember(NewField("Rest", NotAnnotatedRef(rest)))
	for i := MaxTupleFields; i < len(elems); i++ {
		f := NewField("Item"+strconv.Itoa(i+1), elems[i])
		f.Index = i + 1
		t.Elements = append(t.Elements, f)
	}

	return t
}

// Common primitive types.
var (
	Bool   = NewPrimitive("bool")
	Int    = NewPrimitive("int")
	String = &Type{Name: "string", Kind: TypeClass}
	Object = &Type{Name: "object", Kind: TypeClass}
)

// Annotation is a declared nullability of a type use.
type Annotation int

const (
	// Oblivious types come from code unaware of nullability: nothing is known.
	Oblivious Annotation = iota
	NotAnnotated
	Annotated
)

func (a Annotation) String() string {
	switch a {
	case Oblivious:
		return "oblivious"
	case NotAnnotated:
		return "not-annotated"
	case Annotated:
		return "annotated"
	default:
		return fmt.Sprintf("annotation-invalid(%d)", a)
	}
}

// TypeRef is a type together with its declared nullability.
type TypeRef struct {
	Type       *Type
	Annotation Annotation
}

// AnnotatedRef makes T? out of T.
func AnnotatedRef(t *Type) TypeRef {
	return TypeRef{Type: t, Annotation: Annotated}
}

// NotAnnotatedRef makes a non-nullable use of T.
func NotAnnotatedRef(t *Type) TypeRef {
	return TypeRef{Type: t, Annotation: NotAnnotated}
}

// ObliviousRef makes a use of T with unknown nullability.
func ObliviousRef(t *Type) TypeRef {
	return TypeRef{Type: t, Annotation: Oblivious}
}

// IsZero tells if no type is set. The null literal has no type.
func (r TypeRef) IsZero() bool {
	return r.Type == nil
}

// MayBeNullByDeclaration tells if the declaration allows null values.
func (r TypeRef) MayBeNullByDeclaration() bool {
	if r.Type == nil {
		return true
	}
	if r.Type.IsNullableValue() {
		return true
	}
	return r.Annotation == Annotated
}

// DisallowsNull tells if assigning a maybe-null value to the declared type
// deserves a warning.
func (r TypeRef) DisallowsNull() bool {
	if r.Type == nil || r.Annotation != NotAnnotated {
		return false
	}
	return r.Type.IsReference() || r.Type.IsUnconstrainedParameter()
}

func (r TypeRef) String() string {
	if r.Type == nil {
		return "<null>"
	}
	if r.Annotation == Annotated && !r.Type.IsNullableValue() {
		return r.Type.Name + "?"
	}
	return r.Type.Name
}

// MemberCompatible tells if the state of members can be copied between values
// of these types.
func MemberCompatible(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}

	switch {
	case a.Kind == TypeTuple && b.Kind == TypeTuple:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			ea, eb := a.Elements[i].Type.Type, b.Elements[i].Type.Type
			if ea != eb && !MemberCompatible(ea, eb) {
				return false
			}
		}
		return true
	case a.IsNullableValue() && b.IsNullableValue():
		return MemberCompatible(a.Elem.Type, b.Elem.Type)
	default:
		return false
	}
}
