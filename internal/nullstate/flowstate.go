// Package nullstate implements the nullability lattice: per-slot flow states
// packed two bits per slot, with join and meet over whole states.
package nullstate

import "fmt"

// NullableFlowState is the nullability of a value at a program point.
//
// The two bits are (maybeDefault, maybeNull): NotNull is 00, MaybeNull is 01
// and MaybeDefault is 11. The pattern 10 never occurs, so join is a bitwise
// or and meet is a bitwise and.
type NullableFlowState uint8

const (
	NotNull      NullableFlowState = 0b00
	MaybeNull    NullableFlowState = 0b01
	MaybeDefault NullableFlowState = 0b11
)

func (s NullableFlowState) String() string {
	switch s {
	case NotNull:
		return "not-null"
	case MaybeNull:
		return "maybe-null"
	case MaybeDefault:
		return "maybe-default"
	default:
		return fmt.Sprintf("flow-state-invalid(%d)", s)
	}
}

// MayBeNull tells if the value can be null.
func (s NullableFlowState) MayBeNull() bool {
	return s != NotNull
}

// IsNotNull tells if the value is known to be not null.
func (s NullableFlowState) IsNotNull() bool {
	return s == NotNull
}

// Join returns the weakest of the two states.
func (s NullableFlowState) Join(other NullableFlowState) NullableFlowState {
	return mustValid(s | other)
}

// Meet returns the strongest of the two states.
func (s NullableFlowState) Meet(other NullableFlowState) NullableFlowState {
	return mustValid(s & other)
}

// MarshalText implements encoding.TextMarshaler.
func (s NullableFlowState) MarshalText() ([]byte, error) {
	switch s {
	case NotNull, MaybeNull, MaybeDefault:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid flow state %d", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *NullableFlowState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not-null":
		*s = NotNull
	case "maybe-null":
		*s = MaybeNull
	case "maybe-default":
		*s = MaybeDefault
	default:
		return fmt.Errorf("unknown flow state %q", b)
	}
	return nil
}

func mustValid(s NullableFlowState) NullableFlowState {
	if s == 0b10 || s > 0b11 {
		panic(fmt.Sprintf("illegal nullable flow state bits %02b", s))
	}
	return s
}
