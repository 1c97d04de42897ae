// Package report collects diagnostics produced while analysing bodies.
package report

import (
	"fmt"
	"go/token"
	"sort"
	"sync"

	"github.com/sirkon/nullflow/internal/nullrules"
)

// Phase marks the analysis stage where a diagnostic was generated.
type Phase int

const (
	phaseInvalid Phase = iota
	PhaseSource        // front end lowering
	PhaseFlow          // flow walking of statements and expressions
	PhaseExit          // postconditions checked on function exit
)

func (p Phase) String() string {
	switch p {
	case PhaseSource:
		return "source"
	case PhaseFlow:
		return "flow"
	case PhaseExit:
		return "exit"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// Diagnostic is a single finding: a stable rule, a location and arguments.
type Diagnostic struct {
	Phase   Phase
	Rule    nullrules.Rule
	Pos     token.Pos
	End     token.Pos
	Args    []any
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Rule.Code(), d.Message)
}

type diagnosticKey struct {
	rule    nullrules.Rule
	pos     token.Pos
	message string
}

// Reporter collects diagnostics. It is safe for concurrent use and drops
// exact duplicates, a body analysed several times reports once.
type Reporter struct {
	mu      sync.Mutex
	reports []Diagnostic
	seen    map[diagnosticKey]struct{}
}

// New creates an empty reporter.
func New() *Reporter {
	return &Reporter{}
}

// Report adds a new record to the reporter.
func (r *Reporter) Report(d Diagnostic) {
	if d.Message == "" {
		d.Message = d.Rule.Format(d.Args...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := diagnosticKey{rule: d.Rule, pos: d.Pos, message: d.Message}
	if r.seen == nil {
		r.seen = map[diagnosticKey]struct{}{}
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	r.reports = append(r.reports, d)
}

// Reports returns a copy of all collected records ordered by position.
func (r *Reporter) Reports() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Diagnostic, len(r.reports))
	copy(out, r.reports)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos < out[j].Pos
	})
	return out
}

// Len returns the number of collected records.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

// Merge copies all records of other into r.
func (r *Reporter) Merge(other *Reporter) {
	if other == nil || other == r {
		return
	}
	for _, d := range other.Reports() {
		r.Report(d)
	}
}

// Ranged is anything occupying a source range.
type Ranged interface {
	Pos() token.Pos
	End() token.Pos
}

// PhaseReporter binds a Reporter to a fixed phase.
type PhaseReporter struct {
	parent *Reporter
	phase  Phase
}

// Phase returns a phase-bound reporter that sets the given phase for all
// reports produced through it.
func (r *Reporter) Phase(p Phase) *PhaseReporter {
	return &PhaseReporter{parent: r, phase: p}
}

// Report records a new rule violation under the bound phase.
func (rp *PhaseReporter) Report(rule nullrules.Rule, node Ranged, args ...any) {
	rp.parent.Report(Diagnostic{
		Phase: rp.phase,
		Rule:  rule,
		Pos:   node.Pos(),
		End:   node.End(),
		Args:  args,
	})
}
