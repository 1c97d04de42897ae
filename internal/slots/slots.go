// Package slots maps trackable storage locations to stable integer slots.
//
// A location is a symbol together with the slot of its container: `x` is
// (x, 0), `x.f` is (f, slot(x)). Every nested function gets its own Table
// chained to the table of the enclosing function. A child sees the slots
// its parent had when the child was created and allocates everything new in
// its own segment, so parent slots are never renumbered.
//
// A slot encodes its table: the upper bits hold the table id and the lower
// IndexBits hold the 1-based index inside the table. The root table has id 0,
// so its slots are plain indices.
package slots

import (
	"iter"
	"slices"
	"strings"

	"github.com/sirkon/nullflow/internal/bound"
)

const (
	// Reachable is the pseudo-slot holding the reachability of a state.
	Reachable = 0

	// Untracked is returned for locations that have no slot.
	Untracked = -1

	// MaxDepth limits the length of member chains: a.b.c.d.e is the deepest
	// tracked location.
	MaxDepth = 5

	// IndexBits is the number of bits holding the index inside a table.
	IndexBits = 24

	indexMask = 1<<IndexBits - 1
)

// Compose builds a slot out of a table id and an index.
func Compose(scope, index int) int {
	return scope<<IndexBits | index
}

// Scope returns the id of the table owning the slot.
func Scope(slot int) int {
	return slot >> IndexBits
}

// Index returns the position of the slot inside its table.
func Index(slot int) int {
	return slot & indexMask
}

// VariableIdentifier is one trackable location.
type VariableIdentifier struct {
	Symbol         *bound.Symbol
	ContainingSlot int
}

type entry struct {
	id    VariableIdentifier
	depth int
}

// Table is the slot allocator of one function body.
type Table struct {
	id        int
	parent    *Table
	watermark int
	nextID    *int

	entries  []entry
	lookup   map[VariableIdentifier]int
	children map[int][]int
}

// New creates the root table of an analysis run.
func New() *Table {
	next := 1
	return &Table{
		nextID:   &next,
		lookup:   map[VariableIdentifier]int{},
		children: map[int][]int{},
	}
}

// Nested creates a table for a nested function body. The child sees every
// slot allocated so far and nothing t allocates afterwards.
func (t *Table) Nested() *Table {
	id := *t.nextID
	*t.nextID++
	return &Table{
		id:        id,
		parent:    t,
		watermark: len(t.entries),
		nextID:    t.nextID,
		lookup:    map[VariableIdentifier]int{},
		children:  map[int][]int{},
	}
}

// ID returns the table id.
func (t *Table) ID() int {
	return t.id
}

// Parent returns the table of the enclosing function.
func (t *Table) Parent() *Table {
	return t.parent
}

// Count returns the number of slots allocated in this table.
func (t *Table) Count() int {
	return len(t.entries)
}

// Visible returns the number of slots of the table with the given id that
// t can see. It is zero for tables outside the chain.
func (t *Table) Visible(scope int) int {
	limit := len(t.entries)
	for cur := t; cur != nil; cur = cur.parent {
		if cur.id == scope {
			return limit
		}
		limit = cur.watermark
	}
	return 0
}

// SlotOf looks the location up without allocating. It returns Untracked
// when the location has no slot.
func (t *Table) SlotOf(symbol *bound.Symbol, containingSlot int) int {
	symbol, containingSlot = t.resolveTupleElement(symbol, containingSlot, false)
	if symbol == nil {
		return Untracked
	}

	if slot, ok := t.find(VariableIdentifier{Symbol: symbol, ContainingSlot: containingSlot}); ok {
		return slot
	}
	return Untracked
}

// GetOrCreate returns the slot of the location, allocating it on first use.
// Untracked is returned for unsupported symbol kinds, static members, empty
// structs, too deep member chains and unresolvable tuple elements.
func (t *Table) GetOrCreate(symbol *bound.Symbol, containingSlot int) int {
	if !trackable(symbol, containingSlot) {
		return Untracked
	}

	symbol, containingSlot = t.resolveTupleElement(symbol, containingSlot, true)
	if symbol == nil {
		return Untracked
	}

	id := VariableIdentifier{Symbol: symbol, ContainingSlot: containingSlot}
	if slot, ok := t.find(id); ok {
		return slot
	}

	depth := 1
	if containingSlot > 0 {
		depth = t.Depth(containingSlot) + 1
		if depth > MaxDepth {
			return Untracked
		}
	}
	if isEmptyStruct(symbol.Type.Type, nil) {
		return Untracked
	}

	t.entries = append(t.entries, entry{id: id, depth: depth})
	slot := Compose(t.id, len(t.entries))
	t.lookup[id] = slot
	if containingSlot > 0 {
		t.children[containingSlot] = append(t.children[containingSlot], slot)
	}

	return slot
}

// Identifier returns the location behind the slot.
func (t *Table) Identifier(slot int) (VariableIdentifier, bool) {
	e, ok := t.entry(slot)
	if !ok {
		return VariableIdentifier{}, false
	}
	return e.id, true
}

// Depth returns the length of the member chain ending at the slot.
func (t *Table) Depth(slot int) int {
	e, ok := t.entry(slot)
	if !ok {
		return 0
	}
	return e.depth
}

// Children lists allocated member slots of the container, in allocation order.
func (t *Table) Children(containingSlot int) []int {
	if containingSlot <= 0 {
		return nil
	}

	var res []int
	limit := len(t.entries)
	for cur := t; cur != nil; cur = cur.parent {
		for _, s := range cur.children[containingSlot] {
			if Index(s) <= limit {
				res = append(res, s)
			}
		}
		limit = cur.watermark
	}
	slices.Sort(res)
	return res
}

// Root returns the symbol at the start of the member chain ending at slot.
func (t *Table) Root(slot int) *bound.Symbol {
	for {
		e, ok := t.entry(slot)
		if !ok {
			return nil
		}
		if e.id.ContainingSlot <= 0 {
			return e.id.Symbol
		}
		slot = e.id.ContainingSlot
	}
}

// Path renders the member chain ending at slot, like `this.f.Item2`.
func (t *Table) Path(slot int) string {
	var parts []string
	for {
		e, ok := t.entry(slot)
		if !ok {
			break
		}
		parts = append(parts, e.id.Symbol.Name)
		if e.id.ContainingSlot <= 0 {
			break
		}
		slot = e.id.ContainingSlot
	}
	slices.Reverse(parts)
	return strings.Join(parts, ".")
}

// All iterates over every slot visible from t, outermost tables first.
func (t *Table) All() iter.Seq2[int, VariableIdentifier] {
	return func(yield func(int, VariableIdentifier) bool) {
		var chain []*Table
		for cur := t; cur != nil; cur = cur.parent {
			chain = append(chain, cur)
		}

		for i := len(chain) - 1; i >= 0; i-- {
			cur := chain[i]
			limit := len(cur.entries)
			if i > 0 {
				limit = chain[i-1].watermark
			}
			for j := 0; j < limit; j++ {
				if !yield(Compose(cur.id, j+1), cur.entries[j].id) {
					return
				}
			}
		}
	}
}

func (t *Table) find(id VariableIdentifier) (int, bool) {
	if slot, ok := t.lookup[id]; ok {
		return slot, true
	}

	limit := t.watermark
	for cur := t.parent; cur != nil; cur = cur.parent {
		if slot, ok := cur.lookup[id]; ok && Index(slot) <= limit {
			return slot, true
		}
		limit = cur.watermark
	}
	return 0, false
}

func (t *Table) entry(slot int) (entry, bool) {
	if slot <= 0 {
		return entry{}, false
	}

	scope, index := Scope(slot), Index(slot)
	for cur := t; cur != nil; cur = cur.parent {
		if cur.id != scope {
			continue
		}
		if index < 1 || index > len(cur.entries) {
			return entry{}, false
		}
		return cur.entries[index-1], true
	}
	return entry{}, false
}

// resolveTupleElement redirects tuple elements past the seventh one to the
// field of the nested Rest tuple actually holding them. Intermediate Rest
// slots are allocated when create is set.
func (t *Table) resolveTupleElement(symbol *bound.Symbol, containingSlot int, create bool) (*bound.Symbol, int) {
	if symbol == nil {
		return nil, Untracked
	}
	if symbol.Kind != bound.SymbolField || symbol.Index <= bound.MaxTupleFields || containingSlot <= 0 {
		return symbol, containingSlot
	}

	container, ok := t.Identifier(containingSlot)
	if !ok {
		return nil, Untracked
	}

	tuple := container.Symbol.Type.Type
	index := symbol.Index
	for index > bound.MaxTupleFields {
		if tuple == nil || tuple.Kind != bound.TypeTuple {
			return nil, Untracked
		}
		rest := tuple.Rest()
		if rest == nil {
			return nil, Untracked
		}

		if create {
			containingSlot = t.GetOrCreate(rest, containingSlot)
		} else {
			containingSlot = t.SlotOf(rest, containingSlot)
		}
		if containingSlot < 0 {
			return nil, Untracked
		}

		tuple = rest.Type.Type
		index -= bound.MaxTupleFields
	}

	if tuple == nil || index > len(tuple.Elements) {
		return nil, Untracked
	}
	return tuple.Elements[index-1], containingSlot
}

func trackable(symbol *bound.Symbol, containingSlot int) bool {
	if symbol == nil || symbol.Static {
		return false
	}

	switch symbol.Kind {
	case bound.SymbolLocal, bound.SymbolParameter, bound.SymbolThis, bound.SymbolPlaceholder:
		return containingSlot <= 0
	case bound.SymbolField, bound.SymbolProperty, bound.SymbolEvent:
		return containingSlot > 0
	default:
		return false
	}
}

// isEmptyStruct tells if values of the type carry no trackable state: structs
// without instance members, or whose members are all empty structs themselves.
func isEmptyStruct(t *bound.Type, visiting map[*bound.Type]bool) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case bound.TypeStruct:
	case bound.TypeTuple:
		return len(t.Elements) == 0
	default:
		return false
	}

	if visiting[t] {
		// A cycle through value types carries no state of its own.
		return true
	}
	if visiting == nil {
		visiting = map[*bound.Type]bool{}
	}
	visiting[t] = true
	defer delete(visiting, t)

	for _, m := range t.InstanceMembers() {
		if !isEmptyStruct(m.Type.Type, visiting) {
			return false
		}
	}
	return true
}
