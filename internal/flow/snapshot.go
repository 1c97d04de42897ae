package flow

import (
	"errors"
	"fmt"
	"go/token"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullstate"
)

// Snapshot is the state of variables visible at the entry of a nested
// function. A snapshot taken for a lambda lets the lambda be analysed again
// on its own, via Options.InitialState.
type Snapshot struct {
	Function    string          `yaml:"function"`
	Pos         token.Pos       `yaml:"pos"`
	Unreachable bool            `yaml:"unreachable,omitempty"`
	Variables   []VariableState `yaml:"variables,omitempty"`
}

// VariableState is a state of a single variable addressed by its path.
type VariableState struct {
	Path  string                      `yaml:"path"`
	State nullstate.NullableFlowState `yaml:"state"`
}

// Lookup returns the state recorded for the path.
func (s *Snapshot) Lookup(path string) (nullstate.NullableFlowState, bool) {
	if s == nil {
		return nullstate.NotNull, false
	}
	for _, v := range s.Variables {
		if v.Path == path {
			return v.State, true
		}
	}
	return nullstate.NotNull, false
}

func (w *walker) takeSnapshot(fn *bound.Function, state *nullstate.LocalState) {
	snap := &Snapshot{
		Function:    fn.Name,
		Pos:         fn.Pos(),
		Unreachable: !state.Reachable(),
	}
	for slot, v := range state.All() {
		if slot <= 0 {
			continue
		}
		id, ok := w.table.Identifier(slot)
		if !ok || w.isPlaceholderSlot(id.Symbol, slot) {
			continue
		}
		snap.Variables = append(snap.Variables, VariableState{
			Path:  w.table.Path(slot),
			State: v,
		})
	}

	for i, s := range w.snapshots {
		if s.Function == snap.Function && s.Pos == snap.Pos {
			w.snapshots[i] = snap
			return
		}
	}
	w.snapshots = append(w.snapshots, snap)
}

// isPlaceholderSlot checks if the slot belongs to a value without storage.
func (w *walker) isPlaceholderSlot(sym *bound.Symbol, slot int) bool {
	if sym != nil && sym.Kind == bound.SymbolPlaceholder {
		return true
	}
	root := w.table.Root(slot)
	return root != nil && root.Kind == bound.SymbolPlaceholder
}

type snapshotFile struct {
	Snapshots []*Snapshot `yaml:"snapshots"`
}

// WriteSnapshots stores snapshots as YAML.
func WriteSnapshots(dst io.Writer, snapshots []*Snapshot) error {
	enc := yaml.NewEncoder(dst)
	enc.SetIndent(2)
	if err := enc.Encode(snapshotFile{Snapshots: snapshots}); err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshots: %w", err)
	}
	return nil
}

// ReadSnapshots loads snapshots stored with WriteSnapshots.
func ReadSnapshots(src io.Reader) ([]*Snapshot, error) {
	var f snapshotFile
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return f.Snapshots, nil
}

// Find looks for the snapshot of the function at the given position.
func Find(snapshots []*Snapshot, name string, pos token.Pos) *Snapshot {
	for _, s := range snapshots {
		if s.Function == name && s.Pos == pos {
			return s
		}
	}
	return nil
}
