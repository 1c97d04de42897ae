package flow

import (
	"errors"
	"fmt"
	"go/token"
	"sort"

	"github.com/sirkon/rbtree"

	"github.com/sirkon/nullflow/internal/bound"
)

// errPartialOverlap marks spans crossing the boundary of a sibling span.
var errPartialOverlap = errors.New("expression spans partially overlap")

// PositionIndex finds the innermost analysed expression covering a position.
type PositionIndex struct {
	tree *rbtree.Tree[*exprSpan]
	size int
}

// exprSpan is a half-open [start, end) span of an expression together with a
// nested tree of spans it contains.
type exprSpan struct {
	start token.Pos
	end   token.Pos

	expr     bound.Expr
	value    TypeWithState
	children *rbtree.Tree[*exprSpan]
}

// Cmp orders spans as disjoint ranges, overlapping spans compare equal.
func (s *exprSpan) Cmp(other *exprSpan) int {
	if s.end <= other.start {
		return -1
	}
	if s.start >= other.end {
		return 1
	}
	return 0
}

func (s *exprSpan) contains(other *exprSpan) bool {
	return s.start <= other.start && s.end >= other.end
}

// newPositionIndex builds the index from expressions in visiting order.
// Expressions sharing a span with an enclosing one are skipped, the enclosing
// expression wins. Spans partially overlapping a sibling are left out of the
// index and reported with the returned error, the index is usable anyway.
func newPositionIndex(order []bound.Expr, results map[bound.Expr]TypeWithState) (*PositionIndex, error) {
	spans := make([]*exprSpan, 0, len(order))
	seen := make(map[bound.Expr]struct{}, len(order))
	for _, e := range order {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}

		start, end := e.Pos(), e.End()
		if !start.IsValid() || end <= start {
			continue
		}
		spans = append(spans, &exprSpan{
			start: start,
			end:   end,
			expr:  e,
			value: results[e],
		})
	}

	// Enclosing spans go first.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	idx := &PositionIndex{tree: rbtree.New[*exprSpan]()}
	var errs []error
	for _, s := range spans {
		added, err := idx.attach(idx.tree, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if added {
			idx.size++
		}
	}
	return idx, errors.Join(errs...)
}

// attach puts s into t or into the children of the span enclosing it. A span
// equal to an indexed one is not added.
func (idx *PositionIndex) attach(t *rbtree.Tree[*exprSpan], s *exprSpan) (bool, error) {
	r := t.InsertReturn(s)
	if r == s {
		return true, nil
	}

	switch {
	case r.start == s.start && r.end == s.end:
		return false, nil
	case r.contains(s):
		if r.children == nil {
			r.children = rbtree.New[*exprSpan]()
		}
		return idx.attach(r.children, s)
	default:
		return false, fmt.Errorf("%w: [%d, %d) of %T crosses [%d, %d) of %T", errPartialOverlap, s.start, s.end, s.expr, r.start, r.end, r.expr)
	}
}

// At returns the innermost expression whose span covers pos.
func (idx *PositionIndex) At(pos token.Pos) (bound.Expr, TypeWithState, bool) {
	if idx == nil || idx.tree == nil || !pos.IsValid() {
		return nil, TypeWithState{}, false
	}

	key := &exprSpan{start: pos, end: pos + 1}
	found := idx.tree.Search(key)
	if found == nil {
		return nil, TypeWithState{}, false
	}
	for found.children != nil {
		child := found.children.Search(key)
		if child == nil {
			break
		}
		found = child
	}
	return found.expr, found.value, true
}

// Len returns the number of indexed expressions.
func (idx *PositionIndex) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}
