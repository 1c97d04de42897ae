package report

import (
	"bytes"
	"go/token"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sirkon/nullflow/internal/nullrules"
)

type ranged struct {
	pos, end token.Pos
}

func (r ranged) Pos() token.Pos { return r.pos }
func (r ranged) End() token.Pos { return r.end }

func TestReporter_ReportPhases(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		rule  nullrules.Rule
		args  []any
		pos   token.Pos
		want  string
	}{
		{
			name:  "flow dereference",
			phase: PhaseFlow,
			rule:  nullrules.PossibleNullDereference(),
			args:  []any{"s"},
			pos:   10,
			want:  "possible null dereference of s",
		},
		{
			name:  "exit parameter",
			phase: PhaseExit,
			rule:  nullrules.ParameterNotNullOnExit(),
			args:  []any{"out"},
			pos:   20,
			want:  "parameter out must be not null on exit",
		},
		{
			name:  "source incomplete",
			phase: PhaseSource,
			rule:  nullrules.AnalysisIncomplete(),
			args:  []any{"f", "too deep"},
			pos:   30,
			want:  "nullability analysis of f abandoned: too deep",
		},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Phase(tt.phase).Report(tt.rule, ranged{pos: tt.pos, end: tt.pos + 1}, tt.args...)
		})
	}

	reps := r.Reports()
	if len(reps) != len(tests) {
		t.Fatalf("expected %d reports, got %d", len(tests), len(reps))
	}

	for i, rep := range reps {
		want := tests[i]
		if rep.Phase != want.phase {
			t.Errorf("[%s] phase mismatch: got %v, want %v", want.name, rep.Phase, want.phase)
		}
		if rep.Rule != want.rule {
			t.Errorf("[%s] rule mismatch: got %v, want %v", want.name, rep.Rule, want.rule)
		}
		if rep.Message != want.want {
			t.Errorf("[%s] message mismatch: got %q, want %q", want.name, rep.Message, want.want)
		}
		if rep.Pos != want.pos || rep.End != want.pos+1 {
			t.Errorf("[%s] position mismatch: got %d-%d", want.name, rep.Pos, rep.End)
		}
	}
}

func TestReporter_Duplicates(t *testing.T) {
	r := New()
	for range 3 {
		r.Phase(PhaseFlow).Report(nullrules.PossibleNullDereference(), ranged{pos: 5, end: 6}, "x")
	}
	r.Phase(PhaseFlow).Report(nullrules.PossibleNullDereference(), ranged{pos: 5, end: 6}, "y")

	if r.Len() != 2 {
		t.Fatalf("expected 2 reports after deduplication, got %d", r.Len())
	}

	other := New()
	other.Merge(r)
	other.Merge(r)
	if diff := cmp.Diff(r.Reports(), other.Reports()); diff != "" {
		t.Errorf("merged reports differ (-want +got):\n%s", diff)
	}
}

func TestReporter_ConcurrencySafety(t *testing.T) {
	const n = 500
	var (
		r  Reporter
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Report(Diagnostic{
				Phase:   PhaseFlow,
				Rule:    nullrules.PossibleNullDereference(),
				Message: "parallel add",
				Pos:     token.Pos(i),
			})
		}(i)
	}
	wg.Wait()

	reps := r.Reports()
	if len(reps) != n {
		t.Fatalf("expected %d reports, got %d", n, len(reps))
	}
	reps[0].Message = "changed"
	reps2 := r.Reports()
	if reps2[0].Message == "changed" {
		t.Fatalf("Reports() returned shared slice, expected copy")
	}
}

func TestReporter_PrintSummary(t *testing.T) {
	fset := token.NewFileSet()
	file := fset.AddFile("main.go", -1, 100)
	file.SetLines([]int{0, 20, 40})

	r := New()
	r.Phase(PhaseFlow).Report(nullrules.PossibleNullDereference(), ranged{pos: file.Pos(22), end: file.Pos(23)}, "näive")
	r.Phase(PhaseExit).Report(nullrules.MemberNotNullOnExit(), ranged{pos: file.Pos(3), end: file.Pos(4)}, "f")

	var buf bytes.Buffer
	if err := r.PrintSummary(&buf, fset); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"exit  NUL080  main.go:1:4  member f must be not null on exit",
		"flow  NUL000  main.go:2:3  possible null dereference of näive",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
