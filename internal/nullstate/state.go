package nullstate

import (
	"fmt"
	"iter"
	"strings"

	"github.com/sirkon/nullflow/internal/slots"
)

// LocalState is the nullability of every slot of one function body at one
// program point. States of nested functions hold an owned copy of the
// enclosing function's state taken when the nested body was entered.
//
// An unreachable state reads NotNull everywhere and ignores writes.
type LocalState struct {
	id        int
	reachable bool

	maybeNull    bitVector
	maybeDefault bitVector

	container *LocalState
}

// New creates a reachable state of the table id with capacity NotNull slots.
func New(id, capacity int) *LocalState {
	s := &LocalState{id: id, reachable: true}
	s.maybeNull.grow(capacity + 1)
	s.maybeDefault.grow(capacity + 1)
	return s
}

// Unreachable creates the unreachable state of the table id.
func Unreachable(id int) *LocalState {
	return &LocalState{id: id}
}

// ID returns the id of the slot table the state belongs to.
func (s *LocalState) ID() int {
	return s.id
}

// Reachable tells if the program point can be reached.
func (s *LocalState) Reachable() bool {
	return s.reachable
}

// Container returns the state of the enclosing function, nil at the root.
func (s *LocalState) Container() *LocalState {
	return s.container
}

// Capacity returns the number of own slots the state holds values for.
func (s *LocalState) Capacity() int {
	return max(s.maybeNull.n-1, 0)
}

// Get returns the state of the slot. Unknown slots read NotNull.
func (s *LocalState) Get(slot int) NullableFlowState {
	if !s.reachable || slot <= 0 {
		return NotNull
	}

	owner := s.owner(slots.Scope(slot))
	if owner == nil {
		return NotNull
	}

	index := slots.Index(slot)
	var v NullableFlowState
	if owner.maybeNull.get(index) {
		v |= 0b01
	}
	if owner.maybeDefault.get(index) {
		v |= 0b10
	}
	return mustValid(v)
}

// Set changes the state of the slot. Writes to an unreachable state are dropped.
func (s *LocalState) Set(slot int, v NullableFlowState) {
	if !s.reachable || slot <= 0 {
		return
	}
	mustValid(v)

	owner := s.owner(slots.Scope(slot))
	if owner == nil {
		return
	}

	index := slots.Index(slot)
	owner.maybeNull.set(index, v&0b01 != 0)
	owner.maybeDefault.set(index, v&0b10 != 0)
}

// Join merges other into s taking the weakest state of every slot. It tells
// if s changed. Joining with an unreachable state changes nothing, joining
// into an unreachable state copies other.
func (s *LocalState) Join(other *LocalState) bool {
	if other == nil || !other.reachable {
		return false
	}
	if !s.reachable {
		*s = *other.Clone()
		return true
	}
	s.checkSameScope(other)

	changed := s.maybeNull.or(&other.maybeNull)
	changed = s.maybeDefault.or(&other.maybeDefault) || changed
	if s.container != nil && other.container != nil {
		changed = s.container.Join(other.container) || changed
	}
	return changed
}

// Meet merges other into s taking the strongest state of every slot. It
// tells if s changed. Unreachable states are neutral here just like in Join.
func (s *LocalState) Meet(other *LocalState) bool {
	if other == nil || !other.reachable {
		return false
	}
	if !s.reachable {
		*s = *other.Clone()
		return true
	}
	s.checkSameScope(other)

	changed := s.maybeNull.and(&other.maybeNull)
	changed = s.maybeDefault.and(&other.maybeDefault) || changed
	if s.container != nil && other.container != nil {
		changed = s.container.Meet(other.container) || changed
	}
	return changed
}

// Equal tells if both states are reachable alike and agree on every slot.
func (s *LocalState) Equal(other *LocalState) bool {
	if s.reachable != other.reachable || s.id != other.id {
		return false
	}
	if !s.reachable {
		return true
	}
	if !s.maybeNull.equal(&other.maybeNull) || !s.maybeDefault.equal(&other.maybeDefault) {
		return false
	}
	if (s.container == nil) != (other.container == nil) {
		return false
	}
	return s.container == nil || s.container.Equal(other.container)
}

// Clone returns a deep copy of the state.
func (s *LocalState) Clone() *LocalState {
	res := &LocalState{
		id:           s.id,
		reachable:    s.reachable,
		maybeNull:    s.maybeNull.clone(),
		maybeDefault: s.maybeDefault.clone(),
	}
	if s.container != nil {
		res.container = s.container.Clone()
	}
	return res
}

// Cleared returns a reachable copy of the state with every slot NotNull,
// the neutral element of Join.
func (s *LocalState) Cleared() *LocalState {
	res := s.Clone()
	for cur := res; cur != nil; cur = cur.container {
		cur.reachable = true
		cur.maybeNull.clear()
		cur.maybeDefault.clear()
	}
	return res
}

// Normalize extends own slots up to capacity, taking the state of every new
// slot from defaults.
func (s *LocalState) Normalize(capacity int, defaults func(slot int) NullableFlowState) {
	if !s.reachable {
		return
	}

	for index := s.Capacity() + 1; index <= capacity; index++ {
		v := NotNull
		if defaults != nil {
			v = defaults(slots.Compose(s.id, index))
		}
		s.maybeNull.set(index, v&0b01 != 0)
		s.maybeDefault.set(index, v&0b10 != 0)
	}
}

// Nested creates the state of a nested function body with its own table
// childID. The nested state owns a copy of s.
func (s *LocalState) Nested(childID int) *LocalState {
	res := &LocalState{
		id:        childID,
		reachable: s.reachable,
		container: s.Clone(),
	}
	res.maybeNull.grow(1)
	res.maybeDefault.grow(1)
	return res
}

// ForScope returns the part of the state belonging to the table id. The
// result is shared with s. Unreachable states produce an unreachable result.
func (s *LocalState) ForScope(id int) *LocalState {
	if !s.reachable {
		return Unreachable(id)
	}
	if owner := s.owner(id); owner != nil {
		return owner
	}
	return Unreachable(id)
}

// All iterates over every slot of the state and its containers, outermost
// first.
func (s *LocalState) All() iter.Seq2[int, NullableFlowState] {
	return func(yield func(int, NullableFlowState) bool) {
		if !s.reachable {
			return
		}
		if s.container != nil {
			for slot, v := range s.container.All() {
				if !yield(slot, v) {
					return
				}
			}
		}
		for index := 1; index <= s.Capacity(); index++ {
			slot := slots.Compose(s.id, index)
			if !yield(slot, s.Get(slot)) {
				return
			}
		}
	}
}

func (s *LocalState) String() string {
	if !s.reachable {
		return "unreachable"
	}

	var b strings.Builder
	b.WriteByte('{')
	first := true
	for slot, v := range s.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%d:%s", slot, v)
	}
	b.WriteByte('}')
	return b.String()
}

func (s *LocalState) owner(id int) *LocalState {
	for cur := s; cur != nil; cur = cur.container {
		if cur.id == id {
			return cur
		}
	}
	return nil
}

func (s *LocalState) checkSameScope(other *LocalState) {
	if s.id != other.id {
		panic(fmt.Sprintf("merging states of different scopes %d and %d", s.id, other.id))
	}
}
