package slots

import (
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/nullflow/internal/bound"
)

func TestGetOrCreateIsStable(t *testing.T) {
	node := bound.NewClass("Node")
	next := node.AddMember(bound.NewField("next", bound.AnnotatedRef(node)))
	x := bound.NewLocal("x", bound.AnnotatedRef(node))
	y := bound.NewLocal("y", bound.AnnotatedRef(node))

	tbl := New()
	if got := tbl.SlotOf(x, 0); got != Untracked {
		t.Fatalf("slot of unallocated local must be untracked, got %d", got)
	}

	sx := tbl.GetOrCreate(x, 0)
	sy := tbl.GetOrCreate(y, 0)
	sxNext := tbl.GetOrCreate(next, sx)

	if sx <= 0 || sy <= sx || sxNext <= sy {
		t.Fatalf("slots must strictly increase: %d %d %d", sx, sy, sxNext)
	}
	for range 3 {
		if got := tbl.GetOrCreate(x, 0); got != sx {
			t.Fatalf("repeated allocation of x returned %d, want %d", got, sx)
		}
		if got := tbl.GetOrCreate(next, sx); got != sxNext {
			t.Fatalf("repeated allocation of x.next returned %d, want %d", got, sxNext)
		}
	}
	if got := tbl.SlotOf(next, sx); got != sxNext {
		t.Errorf("lookup of x.next returned %d, want %d", got, sxNext)
	}
	if tbl.Count() != 3 {
		t.Errorf("expected 3 slots, got %d", tbl.Count())
	}
	if got := tbl.Path(sxNext); got != "x.next" {
		t.Errorf("unexpected path %q", got)
	}
	if got := tbl.Root(sxNext); got != x {
		t.Errorf("unexpected root %v", got)
	}
	deepequal.SideBySide(t, "children", []int{sxNext}, tbl.Children(sx))
}

func TestUntrackedLocations(t *testing.T) {
	empty := bound.NewStruct("Empty")
	wrapper := bound.NewStruct("Wrapper", bound.NewField("e", bound.NotAnnotatedRef(empty)))
	node := bound.NewClass("Node")
	static := node.AddMember(&bound.Symbol{Name: "Instance", Kind: bound.SymbolField, Static: true, Type: bound.AnnotatedRef(node)})
	next := node.AddMember(bound.NewField("next", bound.AnnotatedRef(node)))

	fn := bound.NewFunction("f", bound.FunctionLocal, bound.TypeRef{})
	tbl := New()
	root := tbl.GetOrCreate(bound.NewLocal("n", bound.AnnotatedRef(node)), 0)

	tests := []struct {
		name      string
		symbol    *bound.Symbol
		container int
	}{
		{name: "empty struct", symbol: bound.NewLocal("e", bound.NotAnnotatedRef(empty))},
		{name: "struct of empty structs", symbol: bound.NewLocal("w", bound.NotAnnotatedRef(wrapper))},
		{name: "function", symbol: fn.Symbol},
		{name: "range variable", symbol: &bound.Symbol{Name: "r", Kind: bound.SymbolRangeVariable}},
		{name: "static member", symbol: static, container: root},
		{name: "member without container", symbol: next},
		{name: "nil symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tbl.GetOrCreate(tt.symbol, tt.container); got != Untracked {
				t.Errorf("expected untracked, got %d", got)
			}
		})
	}
}

func TestMemberChainDepth(t *testing.T) {
	node := bound.NewClass("Node")
	next := node.AddMember(bound.NewField("next", bound.AnnotatedRef(node)))

	tbl := New()
	slot := tbl.GetOrCreate(bound.NewLocal("n", bound.AnnotatedRef(node)), 0)
	for depth := 2; depth <= MaxDepth; depth++ {
		slot = tbl.GetOrCreate(next, slot)
		if slot <= 0 {
			t.Fatalf("depth %d must be tracked", depth)
		}
		if got := tbl.Depth(slot); got != depth {
			t.Fatalf("depth mismatch: got %d, want %d", got, depth)
		}
	}
	if got := tbl.GetOrCreate(next, slot); got != Untracked {
		t.Errorf("chains deeper than %d must be untracked, got %d", MaxDepth, got)
	}
}

func TestLongTupleElements(t *testing.T) {
	str := bound.AnnotatedRef(bound.String)
	elems := make([]bound.TypeRef, 17)
	for i := range elems {
		elems[i] = str
	}
	tuple := bound.NewTuple(elems...)

	tbl := New()
	tv := tbl.GetOrCreate(bound.NewLocal("t", bound.NotAnnotatedRef(tuple)), 0)

	item2 := tbl.GetOrCreate(tuple.Elements[1], tv)
	if got := tbl.Path(item2); got != "t.Item2" {
		t.Errorf("unexpected path of Item2: %q", got)
	}

	item9 := tbl.GetOrCreate(tuple.Elements[8], tv)
	if got := tbl.Path(item9); got != "t.Rest.Item2" {
		t.Errorf("unexpected path of Item9: %q", got)
	}

	item17 := tbl.GetOrCreate(tuple.Elements[16], tv)
	if got := tbl.Path(item17); got != "t.Rest.Rest.Item3" {
		t.Errorf("unexpected path of Item17: %q", got)
	}

	rest := tbl.SlotOf(tuple.Rest(), tv)
	if rest <= 0 {
		t.Fatal("Rest slot must be allocated while resolving Item9")
	}
	nested := tuple.Rest().Type.Type
	if got := tbl.SlotOf(nested.Elements[1], rest); got != item9 {
		t.Errorf("Item9 and Rest.Item2 must share a slot: %d != %d", got, item9)
	}
	if got := tbl.SlotOf(tuple.Elements[8], tv); got != item9 {
		t.Errorf("lookup of Item9 returned %d, want %d", got, item9)
	}
}

func TestNestedTables(t *testing.T) {
	node := bound.NewClass("Node")
	next := node.AddMember(bound.NewField("next", bound.AnnotatedRef(node)))
	x := bound.NewLocal("x", bound.AnnotatedRef(node))
	y := bound.NewLocal("y", bound.AnnotatedRef(node))
	z := bound.NewLocal("z", bound.AnnotatedRef(node))

	parent := New()
	sx := parent.GetOrCreate(x, 0)

	child := parent.Nested()
	if child.ID() == parent.ID() {
		t.Fatal("nested table must get its own id")
	}

	// Parent growth after the child was created is invisible to the child.
	sy := parent.GetOrCreate(y, 0)
	if got := child.SlotOf(y, 0); got != Untracked {
		t.Errorf("child must not see y allocated later, got %d", got)
	}
	if got := child.SlotOf(x, 0); got != sx {
		t.Errorf("child must see x as %d, got %d", sx, got)
	}

	sz := child.GetOrCreate(z, 0)
	if Scope(sz) != child.ID() || Index(sz) != 1 {
		t.Errorf("z must be the first slot of the child, got %d", sz)
	}
	if sz <= sy {
		t.Errorf("child slots must be greater than parent slots: %d <= %d", sz, sy)
	}

	sxNext := child.GetOrCreate(next, sx)
	if Scope(sxNext) != child.ID() {
		t.Errorf("member of a parent location must be allocated in the child")
	}
	deepequal.SideBySide(t, "children", []int{sxNext}, child.Children(sx))
	if len(parent.Children(sx)) != 0 {
		t.Error("parent must not see members allocated by the child")
	}

	if got := child.Visible(parent.ID()); got != 1 {
		t.Errorf("child must see one parent slot, got %d", got)
	}
	if got := child.Visible(child.ID()); got != 2 {
		t.Errorf("child must see its own two slots, got %d", got)
	}

	var paths []string
	for slot := range child.All() {
		paths = append(paths, child.Path(slot))
	}
	deepequal.SideBySide(t, "paths", []string{"x", "z", "x.next"}, paths)

	sibling := parent.Nested()
	if sibling.ID() <= child.ID() {
		t.Errorf("table ids must be monotonic: %d <= %d", sibling.ID(), child.ID())
	}
}

func TestSlotEncoding(t *testing.T) {
	slot := Compose(3, 17)
	if Scope(slot) != 3 || Index(slot) != 17 {
		t.Errorf("decode mismatch: scope=%d index=%d", Scope(slot), Index(slot))
	}
	if Compose(0, 5) != 5 {
		t.Error("root slots must be plain indices")
	}
}
