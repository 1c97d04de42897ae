package flow

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/nullflow/internal/bound"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/nullstate"
)

func TestSnapshotsRoundTrip(t *testing.T) {
	snapshots := []*Snapshot{
		{
			Function: "lambda",
			Pos:      42,
			Variables: []VariableState{
				{Path: "s", State: nullstate.MaybeNull},
				{Path: "this.next", State: nullstate.MaybeDefault},
				{Path: "t", State: nullstate.NotNull},
			},
		},
		{
			Function:    "F",
			Pos:         7,
			Unreachable: true,
		},
	}

	var buf bytes.Buffer
	if err := WriteSnapshots(&buf, snapshots); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "maybe-default") {
		t.Errorf("states must be stored by name:\n%s", buf.String())
	}

	got, err := ReadSnapshots(&buf)
	if err != nil {
		t.Fatal(err)
	}
	deepequal.SideBySide(t, "snapshots", snapshots, got)
}

func TestReadSnapshotsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   bool
	}{
		{name: "empty input"},
		{name: "unknown state", input: "snapshots:\n  - function: f\n    variables:\n      - path: s\n        state: sometimes\n", err: true},
		{name: "unknown field", input: "snapshots:\n  - function: f\n    scope: 3\n", err: true},
		{name: "valid", input: "snapshots:\n  - function: f\n    pos: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshots(strings.NewReader(tt.input))
			if (err != nil) != tt.err {
				t.Errorf("unexpected error state: %v", err)
			}
		})
	}
}

func TestLambdaAnalysedFromSnapshot(t *testing.T) {
	var sp span
	u := use()
	s := bound.NewLocal("s", plainString)

	root := method("f", nil)
	lambda := bound.NewFunction("lambda", bound.FunctionLambda, bound.TypeRef{})
	lambda.Parent = root
	lambda.Span = sp.at()
	captured := sp.ref(s)
	lambda.Body = block(sp.call(u, captured))

	body := block(
		&bound.LocalDeclaration{Span: sp.at(), Local: s, Init: sp.null()},
		sp.eval(&bound.Lambda{Span: sp.at(), Func: lambda}),
	)
	body.Locals = []*bound.Symbol{s}
	root.Body = body

	res := analyze(t, root, Options{TakeSnapshots: true})
	deepequal.SideBySide(t, "in lambda", []nullrules.Rule{nullrules.NUL020NullReferenceArgument}, rulesAt(res.Diagnostics, captured))

	var buf bytes.Buffer
	if err := WriteSnapshots(&buf, res.Snapshots); err != nil {
		t.Fatal(err)
	}
	stored, err := ReadSnapshots(&buf)
	if err != nil {
		t.Fatal(err)
	}
	snap := Find(stored, "lambda", lambda.Pos())
	if snap == nil {
		t.Fatal("snapshot of the lambda is missing")
	}

	alone := analyze(t, lambda, Options{InitialState: snap})
	if got := alone.Expressions[captured].State; got != nullstate.MaybeNull {
		t.Errorf("captured s must come from the snapshot, got %s", got)
	}
	deepequal.SideBySide(t, "lambda alone", []nullrules.Rule{nullrules.NUL020NullReferenceArgument}, rulesAt(alone.Diagnostics, captured))

	blind := analyze(t, lambda, Options{})
	if got := blind.Expressions[captured].State; got != nullstate.NotNull {
		t.Errorf("without a snapshot s falls back to its declaration, got %s", got)
	}

	if _, err := Analyze(root, Options{InitialState: snap}); err == nil {
		t.Error("a snapshot must be rejected for a function that captures nothing")
	}
}
