package config

import (
	"encoding"
	"fmt"
)

// NoReturnKind tells how a function leaves the flow of its caller.
type NoReturnKind int

const (
	noReturnKindInvalid NoReturnKind = iota

	// NoReturnExit stops the program or the goroutine, nothing can be recovered.
	NoReturnExit

	// NoReturnPanic panics, its first argument is the panic value.
	NoReturnPanic
)

var noReturnKindValueMap = map[NoReturnKind]string{
	NoReturnExit:  "exit",
	NoReturnPanic: "panic",
}

func (k NoReturnKind) String() string {
	v, ok := noReturnKindValueMap[k]
	if !ok {
		return fmt.Sprintf("no-return-kind-invalid(%d)", k)
	}

	return v
}

var (
	_ encoding.TextUnmarshaler = (*NoReturnKind)(nil)
	_ encoding.TextMarshaler   = NoReturnKind(0)
)

// UnmarshalText for setting values with configs, CLI, etc.
func (k *NoReturnKind) UnmarshalText(b []byte) error {
	text := string(b)
	for kind, v := range noReturnKindValueMap {
		if v == text {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown no-return kind %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (k NoReturnKind) MarshalText() ([]byte, error) {
	v, ok := noReturnKindValueMap[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid NoReturnKind(%d)", k)
	}

	return []byte(v), nil
}
