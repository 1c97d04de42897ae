package bound

import (
	"testing"

	"github.com/sirkon/deepequal"
)

func TestLongTupleKeepsRest(t *testing.T) {
	elems := make([]TypeRef, 10)
	for i := range elems {
		elems[i] = NotAnnotatedRef(Int)
	}
	elems[8] = AnnotatedRef(String)

	tuple := NewTuple(elems...)
	if len(tuple.Elements) != 10 {
		t.Fatalf("10 logical elements expected, got %d", len(tuple.Elements))
	}
	rest := tuple.Rest()
	if rest == nil {
		t.Fatal("long tuple must have the rest field")
	}
	if got := len(rest.Type.Type.Elements); got != 3 {
		t.Errorf("rest tuple must hold 3 elements, got %d", got)
	}

	item9 := tuple.Member("Item9")
	if item9 == nil || item9.Index != 9 {
		t.Fatalf("Item9 must be reachable by name, got %v", item9)
	}
	if item9.Type.Annotation != Annotated {
		t.Errorf("Item9 must keep its annotation")
	}

	var names []string
	for _, m := range tuple.InstanceMembers() {
		names = append(names, m.Name)
	}
	want := []string{"Item1", "Item2", "Item3", "Item4", "Item5", "Item6", "Item7", "Rest"}
	deepequal.SideBySide(t, "stored fields", want, names)
}

func TestNullableValueMembers(t *testing.T) {
	point := NewStruct("Point", NewField("X", NotAnnotatedRef(Int)))
	nullable := NewNullable(point)

	if !nullable.IsNullableValue() || !nullable.IsValueType() {
		t.Fatal("nullable of a struct is a nullable value type")
	}
	if nullable.HasValueMember() == nil || nullable.ValueMember() == nil {
		t.Fatal("synthetic members are missing")
	}
	if got := nullable.ValueMember().Type.Type; got != point {
		t.Errorf("Value must have the underlying type, got %s", got)
	}
	if got := nullable.String(); got != "Point?" {
		t.Errorf("unexpected name %q", got)
	}
	if !MemberCompatible(nullable, NewNullable(point)) {
		t.Error("nullables of the same type share members")
	}
}

func TestDefaultClassifier(t *testing.T) {
	point := NewStruct("Point")
	node := NewClass("Node")
	tp := NewTypeParameter("T", Unconstrained)

	tests := []struct {
		name     string
		from, to TypeRef
		want     ConversionKind
	}{
		{name: "null to reference", to: AnnotatedRef(String), want: ConversionNullLiteral},
		{name: "null to struct", to: NotAnnotatedRef(point), want: ConversionNone},
		{name: "identity", from: NotAnnotatedRef(node), to: AnnotatedRef(node), want: ConversionIdentity},
		{name: "wrap", from: NotAnnotatedRef(point), to: NotAnnotatedRef(NewNullable(point)), want: ConversionImplicitNullable},
		{name: "references", from: NotAnnotatedRef(node), to: NotAnnotatedRef(Object), want: ConversionImplicitReference},
		{name: "boxing", from: NotAnnotatedRef(point), to: NotAnnotatedRef(Object), want: ConversionBoxing},
		{name: "unboxing", from: NotAnnotatedRef(Object), to: NotAnnotatedRef(tp), want: ConversionUnboxing},
		{name: "numeric", from: NotAnnotatedRef(Int), to: NotAnnotatedRef(Bool), want: ConversionNumeric},
		{
			name: "tuples",
			from: NotAnnotatedRef(NewTuple(NotAnnotatedRef(Int))),
			to:   NotAnnotatedRef(NewTuple(AnnotatedRef(String))),
			want: ConversionImplicitTuple,
		},
		{
			name: "tuples of different length",
			from: NotAnnotatedRef(NewTuple(NotAnnotatedRef(Int))),
			to:   NotAnnotatedRef(NewTuple(NotAnnotatedRef(Int), NotAnnotatedRef(Int))),
			want: ConversionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (DefaultClassifier{}).Classify(tt.from, tt.to); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFlowAnnotationText(t *testing.T) {
	a := NotNullWhenTrue | AllowNull
	text, err := a.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "allow-null|not-null-when-true" {
		t.Errorf("unexpected text %q", text)
	}

	var back FlowAnnotation
	if err := back.UnmarshalText([]byte(" not-null-when-true | allow-null ")); err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Errorf("expected %s, got %s", a, back)
	}

	if err := back.UnmarshalText([]byte("not-null|sometimes")); err == nil {
		t.Error("unknown flags must be rejected")
	}
	if FlowAnnotation(0).String() != "none" {
		t.Errorf("empty set renders as none")
	}
}

func TestFunctionLookups(t *testing.T) {
	p := NewParam("p", AnnotatedRef(String))
	outer := NewFunction("outer", FunctionMethod, TypeRef{}, p)
	inner := NewFunction("inner", FunctionLocal, TypeRef{})
	inner.Parent = outer

	if p.Owner != outer {
		t.Error("parameters must be owned by their function")
	}
	if outer.Param("p") != p || outer.ParamIndex("p") != 0 || outer.ParamIndex("q") != -1 {
		t.Error("parameter lookup is broken")
	}
	if !inner.IsNested() || outer.IsNested() {
		t.Error("only local functions and lambdas are nested")
	}
}
