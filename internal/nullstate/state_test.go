package nullstate

import (
	"testing"

	"github.com/sirkon/nullflow/internal/slots"
)

var allStates = []NullableFlowState{NotNull, MaybeNull, MaybeDefault}

// weaker tells if a is at least as weak as b: NotNull < MaybeNull < MaybeDefault.
func weaker(a, b NullableFlowState) bool {
	return a|b == a
}

func TestFlowStateLattice(t *testing.T) {
	for _, a := range allStates {
		for _, b := range allStates {
			j, m := a.Join(b), a.Meet(b)
			if j != b.Join(a) {
				t.Errorf("join(%s, %s) is not commutative", a, b)
			}
			if m != b.Meet(a) {
				t.Errorf("meet(%s, %s) is not commutative", a, b)
			}
			if !weaker(j, a) || !weaker(j, b) {
				t.Errorf("join(%s, %s) = %s is stronger than an operand", a, b, j)
			}
			if !weaker(a, m) || !weaker(b, m) {
				t.Errorf("meet(%s, %s) = %s is weaker than an operand", a, b, m)
			}
		}
		if a.Join(a) != a || a.Meet(a) != a {
			t.Errorf("%s: join and meet must be idempotent", a)
		}
	}

	if MaybeNull.Join(MaybeDefault) != MaybeDefault {
		t.Error("maybe-default must be the weakest state")
	}
	if NotNull.Meet(MaybeDefault) != NotNull {
		t.Error("not-null must be the strongest state")
	}
}

func TestIllegalBitsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("illegal bit pattern must panic")
		}
	}()
	NotNull.Join(NullableFlowState(0b10))
}

// states2 enumerates every state of two slots.
func states2() []*LocalState {
	var res []*LocalState
	for _, a := range allStates {
		for _, b := range allStates {
			s := New(0, 2)
			s.Set(1, a)
			s.Set(2, b)
			res = append(res, s)
		}
	}
	return res
}

func TestLocalStateLatticeLaws(t *testing.T) {
	for _, x := range states2() {
		for _, y := range states2() {
			xy, yx := x.Clone(), y.Clone()
			xy.Join(y)
			yx.Join(x)
			if !xy.Equal(yx) {
				t.Fatalf("join is not commutative: %s vs %s", xy, yx)
			}

			mxy, myx := x.Clone(), y.Clone()
			mxy.Meet(y)
			myx.Meet(x)
			if !mxy.Equal(myx) {
				t.Fatalf("meet is not commutative: %s vs %s", mxy, myx)
			}

			for slot := 1; slot <= 2; slot++ {
				if !weaker(xy.Get(slot), x.Get(slot)) || !weaker(xy.Get(slot), y.Get(slot)) {
					t.Fatalf("join of %s and %s is stronger at slot %d", x, y, slot)
				}
				if !weaker(x.Get(slot), mxy.Get(slot)) || !weaker(y.Get(slot), mxy.Get(slot)) {
					t.Fatalf("meet of %s and %s is weaker at slot %d", x, y, slot)
				}
			}
		}

		same := x.Clone()
		if same.Join(x) || same.Meet(x) {
			t.Fatalf("join and meet of %s with itself must not change it", x)
		}
	}
}

func TestUnreachable(t *testing.T) {
	x := New(0, 2)
	x.Set(1, MaybeNull)
	x.Set(2, MaybeDefault)

	u := Unreachable(0)
	if u.Get(1) != NotNull {
		t.Error("unreachable state must read not-null")
	}
	u.Set(1, MaybeNull)
	if u.Get(1) != NotNull || u.Reachable() {
		t.Error("writes to unreachable state must be dropped")
	}

	j := u.Clone()
	if !j.Join(x) || !j.Equal(x) {
		t.Errorf("join(unreachable, x) must be x, got %s", j)
	}
	k := x.Clone()
	if k.Join(Unreachable(0)) || !k.Equal(x) {
		t.Errorf("join(x, unreachable) must be x, got %s", k)
	}
	m := u.Clone()
	m.Meet(x)
	if !m.Equal(x) {
		t.Errorf("meet(unreachable, x) must be x, got %s", m)
	}

	if x.Get(3) != NotNull || x.Get(-1) != NotNull {
		t.Error("out of range slots must read not-null")
	}
}

func TestNormalize(t *testing.T) {
	s := New(0, 1)
	s.Set(1, MaybeNull)

	var asked []int
	s.Normalize(3, func(slot int) NullableFlowState {
		asked = append(asked, slot)
		if slot == 3 {
			return MaybeDefault
		}
		return NotNull
	})

	if len(asked) != 2 || asked[0] != 2 || asked[1] != 3 {
		t.Fatalf("defaults must be asked for new slots only, got %v", asked)
	}
	if s.Capacity() != 3 {
		t.Errorf("capacity must be 3, got %d", s.Capacity())
	}
	if s.Get(1) != MaybeNull || s.Get(2) != NotNull || s.Get(3) != MaybeDefault {
		t.Errorf("unexpected normalized state %s", s)
	}

	u := Unreachable(0)
	u.Normalize(5, func(int) NullableFlowState { return MaybeNull })
	if u.Capacity() != 0 {
		t.Error("unreachable state must not grow")
	}
}

func TestNestedStates(t *testing.T) {
	parent := New(0, 2)
	parent.Set(1, MaybeNull)

	child := parent.Nested(1)
	own := slots.Compose(1, 1)
	child.Normalize(1, func(int) NullableFlowState { return MaybeDefault })

	if child.Get(1) != MaybeNull {
		t.Errorf("child must read parent slots, got %s", child.Get(1))
	}
	if child.Get(own) != MaybeDefault {
		t.Errorf("child must read own slots, got %s", child.Get(own))
	}

	child.Set(1, NotNull)
	if parent.Get(1) != MaybeNull {
		t.Error("child must own a copy of the parent state")
	}
	if got := child.ForScope(0).Get(1); got != NotNull {
		t.Errorf("projection must see the child write, got %s", got)
	}

	other := parent.Nested(1)
	other.Normalize(1, func(int) NullableFlowState { return NotNull })
	if !other.Join(child) {
		t.Error("join of nested states must report a change")
	}
	if other.Get(1) != MaybeNull || other.Get(own) != MaybeDefault {
		t.Errorf("unexpected nested join %s", other)
	}

	var count int
	for range child.All() {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 slots across the chain, got %d", count)
	}

	if got := Unreachable(1).ForScope(0); got.Reachable() || got.ID() != 0 {
		t.Errorf("projection of unreachable state must be unreachable")
	}
}

func TestCleared(t *testing.T) {
	s := New(0, 2)
	s.Set(1, MaybeDefault)
	c := s.Cleared()
	if c.Get(1) != NotNull || !c.Reachable() || c.Capacity() != 2 {
		t.Errorf("unexpected cleared state %s", c)
	}
	if s.Get(1) != MaybeDefault {
		t.Error("Cleared must not touch the source")
	}
}

func TestFlowStateText(t *testing.T) {
	for _, s := range allStates {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got NullableFlowState
		if err := got.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		if got != s {
			t.Errorf("%s: text round trip produced %s", s, got)
		}
	}
	var s NullableFlowState
	if err := s.UnmarshalText([]byte("null-ish")); err == nil {
		t.Error("unknown state names must be rejected")
	}
}
