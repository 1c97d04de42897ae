package cfgwalk

import (
	"fmt"
	"maps"

	"github.com/sirkon/nullflow/internal/bound"
)

// VisitBlock visits statements of the block in order.
func (w *Walker[S]) VisitBlock(b *bound.Block) error {
	if b == nil {
		return nil
	}
	if err := w.rules.EnterBlock(b); err != nil {
		return err
	}
	return w.VisitStatements(b.Stmts)
}

// VisitStatements visits statements in order.
func (w *Walker[S]) VisitStatements(stmts []bound.Statement) error {
	for _, s := range stmts {
		if err := w.VisitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// VisitStatement visits one statement.
func (w *Walker[S]) VisitStatement(s bound.Statement) error {
	if s == nil {
		return nil
	}
	if err := w.Enter(); err != nil {
		return err
	}
	defer w.Leave()

	switch s := s.(type) {
	case *bound.Block:
		return w.VisitBlock(s)
	case *bound.LocalDeclaration:
		return w.rules.VisitLocalDeclaration(s)
	case *bound.ExpressionStatement:
		return w.rules.VisitExpr(s.X)
	case *bound.If:
		return w.visitIf(s)
	case *bound.While:
		return w.visitWhile(s)
	case *bound.DoWhile:
		return w.visitDoWhile(s)
	case *bound.For:
		return w.visitFor(s)
	case *bound.ForEach:
		return w.visitForEach(s)
	case *bound.Return:
		if err := w.rules.VisitReturn(s); err != nil {
			return err
		}
		w.AddPending(s, BranchReturn, nil)
		return nil
	case *bound.Break:
		w.AddPending(s, BranchBreak, w.jumpTarget(s.Target, false))
		return nil
	case *bound.Continue:
		w.AddPending(s, BranchContinue, w.jumpTarget(s.Target, true))
		return nil
	case *bound.Goto:
		w.visitGoto(s)
		return nil
	case *bound.Labeled:
		w.EnterLabel(s.Label)
		return w.VisitStatement(s.Stmt)
	case *bound.Throw:
		if err := w.rules.VisitThrow(s); err != nil {
			return err
		}
		w.SetUnreachable()
		return nil
	case *bound.Try:
		return w.rules.VisitTry(s)
	case *bound.LocalFunctionStatement:
		return w.rules.VisitLocalFunction(s)
	case *bound.Switch:
		return w.visitSwitch(s)
	default:
		return fmt.Errorf("unsupported statement %T", s)
	}
}

// VisitCondition evaluates a condition and returns the conditional pair.
func (w *Walker[S]) VisitCondition(e bound.Expr) (whenTrue, whenFalse S, err error) {
	if err := w.rules.VisitCondition(e); err != nil {
		return whenTrue, whenFalse, err
	}
	w.Split()
	return w.whenTrue, w.whenFalse, nil
}

func (w *Walker[S]) visitIf(s *bound.If) error {
	whenTrue, whenFalse, err := w.VisitCondition(s.Cond)
	if err != nil {
		return err
	}

	w.SetState(whenTrue)
	if err := w.VisitStatement(s.Then); err != nil {
		return err
	}
	afterThen := w.state

	w.SetState(whenFalse)
	if err := w.VisitStatement(s.Else); err != nil {
		return err
	}
	w.rules.Join(w.state, afterThen)
	return nil
}

func (w *Walker[S]) visitWhile(s *bound.While) error {
	brk, cont, leave := w.enterBreakable(s.Break, s.Continue, true)
	defer leave()

	return w.loop(brk, func() (S, S, error) {
		whenTrue, whenFalse, err := w.VisitCondition(s.Cond)
		if err != nil {
			return whenTrue, whenFalse, err
		}

		w.SetState(whenTrue)
		if err := w.VisitStatement(s.Body); err != nil {
			return whenTrue, whenFalse, err
		}
		w.ResolveBranches(cont)
		return w.state, whenFalse, nil
	})
}

func (w *Walker[S]) visitDoWhile(s *bound.DoWhile) error {
	brk, cont, leave := w.enterBreakable(s.Break, s.Continue, true)
	defer leave()

	return w.loop(brk, func() (S, S, error) {
		var zero S
		if err := w.VisitStatement(s.Body); err != nil {
			return zero, zero, err
		}
		w.ResolveBranches(cont)

		whenTrue, whenFalse, err := w.VisitCondition(s.Cond)
		if err != nil {
			return zero, zero, err
		}
		return whenTrue, whenFalse, nil
	})
}

func (w *Walker[S]) visitFor(s *bound.For) error {
	if err := w.VisitStatements(s.Init); err != nil {
		return err
	}

	brk, cont, leave := w.enterBreakable(s.Break, s.Continue, true)
	defer leave()

	return w.loop(brk, func() (S, S, error) {
		var (
			zero      S
			whenFalse = w.rules.Unreachable()
		)
		if s.Cond != nil {
			whenTrue, f, err := w.VisitCondition(s.Cond)
			if err != nil {
				return zero, zero, err
			}
			w.SetState(whenTrue)
			whenFalse = f
		}

		if err := w.VisitStatement(s.Body); err != nil {
			return zero, zero, err
		}
		w.ResolveBranches(cont)

		if err := w.VisitStatements(s.Post); err != nil {
			return zero, zero, err
		}
		return w.state, whenFalse, nil
	})
}

func (w *Walker[S]) visitForEach(s *bound.ForEach) error {
	if err := w.rules.VisitForEachCollection(s); err != nil {
		return err
	}

	brk, cont, leave := w.enterBreakable(s.Break, s.Continue, true)
	defer leave()

	return w.loop(brk, func() (S, S, error) {
		// The loop may end before any iteration and after every one.
		exit := w.state.Clone()

		w.rules.BeginForEachIteration(s)
		if err := w.VisitStatement(s.Body); err != nil {
			var zero S
			return zero, zero, err
		}
		w.ResolveBranches(cont)
		return w.state, exit, nil
	})
}

func (w *Walker[S]) visitGoto(s *bound.Goto) {
	if !w.labelsVisited[s.Target] {
		w.AddPending(s, BranchGoto, s.Target)
		return
	}

	// A backward jump: the label was visited in this pass with a state that
	// did not know about this path yet.
	w.stats.BackwardJumps++
	w.Unsplit()
	if prev, ok := w.labels[s.Target]; ok {
		if w.rules.Join(prev, w.state) {
			w.backwardChanged = true
		}
	} else {
		w.labels[s.Target] = w.state.Clone()
		w.backwardChanged = true
	}
	w.SetUnreachable()
}

// EnterLabel merges forward jumps and the state recorded for backward jumps
// into the current state.
func (w *Walker[S]) EnterLabel(label *bound.Label) {
	w.ResolveBranches(label)
	if prev, ok := w.labels[label]; ok {
		w.rules.Join(w.state, prev)
	}
	w.labels[label] = w.state.Clone()
	w.labelsVisited[label] = true
}

func (w *Walker[S]) visitSwitch(s *bound.Switch) error {
	if err := w.rules.VisitExpr(s.Expr); err != nil {
		return err
	}

	brk, _, leave := w.enterBreakable(s.Break, nil, false)
	defer leave()

	// Labels are tested in order: every label starts from the state where
	// all previous labels did not match.
	entries := make([]S, len(s.Sections))
	for i := range entries {
		entries[i] = w.rules.Unreachable()
	}
	defaultSection := -1
	for i, section := range s.Sections {
		for _, label := range section.Labels {
			if label.Pattern == nil {
				defaultSection = i
				continue
			}
			if err := w.rules.VisitPattern(s, label); err != nil {
				return err
			}
			w.Split()
			w.rules.Join(entries[i], w.whenTrue)
			w.SetState(w.whenFalse)
		}
	}

	noMatch := w.state
	if defaultSection >= 0 {
		w.rules.Join(entries[defaultSection], noMatch)
		noMatch = w.rules.Unreachable()
	}

	for i, section := range s.Sections {
		w.SetState(entries[i])
		if err := w.VisitStatements(section.Body); err != nil {
			return err
		}
		// Falling out of a section leaves the switch.
		if w.state.Reachable() {
			w.AddPending(section, BranchBreak, brk)
		}
	}

	w.SetState(noMatch)
	w.ResolveBranches(brk)
	return nil
}

// loop runs iterate until the state at the loop head is stable, muted, then
// once more with reporting. iterate starts from the current state and returns
// the state flowing back to the head and the state leaving the loop.
func (w *Walker[S]) loop(breakLabel *bound.Label, iterate func() (back, exit S, err error)) error {
	w.Unsplit()
	head := w.state.Clone()

	// Labels first met inside the body are ahead of the current point again
	// on every iteration.
	visited := maps.Clone(w.labelsVisited)

	iterations := 0
	for {
		iterations++
		saved := w.SavePending()
		unmute := w.Mute()
		w.labelsVisited = maps.Clone(visited)
		w.SetState(head.Clone())
		back, _, err := iterate()
		unmute()
		w.DropPending(saved)
		if err != nil {
			return err
		}

		if !w.rules.Join(head, back) || iterations >= w.rules.LoopLimit() {
			break
		}
	}

	w.stats.LoopIterations += iterations
	w.stats.MaxLoopIterations = max(w.stats.MaxLoopIterations, iterations)

	w.labelsVisited = maps.Clone(visited)
	w.SetState(head.Clone())
	_, exit, err := iterate()
	if err != nil {
		return err
	}

	w.SetState(exit)
	w.ResolveBranches(breakLabel)
	return nil
}

// enterBreakable makes the statement the innermost target of jumps without
// a label. Missing labels are replaced with ones private to this visit.
func (w *Walker[S]) enterBreakable(brk, cont *bound.Label, loop bool) (*bound.Label, *bound.Label, func()) {
	if brk == nil {
		brk = &bound.Label{Name: "break"}
	}
	if loop && cont == nil {
		cont = &bound.Label{Name: "continue"}
	}
	w.breakables = append(w.breakables, breakable{brk: brk, cont: cont})
	return brk, cont, func() {
		w.breakables = w.breakables[:len(w.breakables)-1]
	}
}

// jumpTarget resolves a break or continue without a target against the
// innermost breakable statement, a loop for continue.
func (w *Walker[S]) jumpTarget(label *bound.Label, cont bool) *bound.Label {
	if label != nil {
		return label
	}
	for i := len(w.breakables) - 1; i >= 0; i-- {
		b := w.breakables[i]
		if !cont {
			return b.brk
		}
		if b.cont != nil {
			return b.cont
		}
	}
	return nil
}
