package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// lowerOverlap emits the pairwise overlap constraints.
func (c *compiler) lowerOverlap(o model.Overlap) {
	g := c.guards(o.A, o.B)
	a, b := c.vars(o.A), c.vars(o.B)

	switch o.Kind {
	case model.MustOverlapKind:
		// start(a) < end(b) and start(b) < end(a).
		c.postLin(g, []ir.VarID{a.start, b.start, b.length}, []int{1, -1, -1}, ir.Le, -1)
		c.postLin(g, []ir.VarID{b.start, a.start, a.length}, []int{1, -1, -1}, ir.Le, -1)
	case model.OverlapAtLeastKind:
		if o.K == 0 {
			return
		}
		// min(end(a), end(b)) >= max(start(a), start(b)) + k unfolds into
		// four comparisons; the same-interval pair reduces to the length.
		c.postCmp(g, c.cmpConst(a.length, ir.Ge, o.K))
		c.postCmp(g, c.cmpConst(b.length, ir.Ge, o.K))
		c.postLin(g, []ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Ge, o.K)
		c.postLin(g, []ir.VarID{b.start, b.length, a.start}, []int{1, 1, -1}, ir.Ge, o.K)
	}
}

// transition looks up the matrix entry for an ordered type pair, 0 when
// no matrix applies.
func transition(m *model.TransitionMatrix, from, to int) int {
	if m == nil {
		return 0
	}
	return m.At(from, to)
}

// lowerNoOverlap forbids pairwise overlap among the intervals, honoring
// transition times between ordered pairs when a matrix is given. A
// Forbidden arc removes its ordering disjunct; two Forbidden arcs forbid
// coexistence outright.
func (c *compiler) lowerNoOverlap(itvs []*model.IntervalVar, types []int, m *model.TransitionMatrix, withTransitions bool) {
	typeOf := func(i int) int {
		if types == nil {
			return i
		}
		return types[i]
	}

	for i := 0; i < len(itvs); i++ {
		for j := i + 1; j < len(itvs); j++ {
			tij, tji := 0, 0
			if withTransitions {
				tij = transition(m, typeOf(i), typeOf(j))
				tji = transition(m, typeOf(j), typeOf(i))
			}

			a, b := c.vars(itvs[i]), c.vars(itvs[j])
			lits := append(guardSet(nil), c.guards(itvs[i], itvs[j])...)
			if tij != model.Forbidden {
				lits = append(lits, ir.Lit(c.linCmp(
					[]ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, -tij)))
			}
			if tji != model.Forbidden {
				lits = append(lits, ir.Lit(c.linCmp(
					[]ir.VarID{b.start, b.length, a.start}, []int{1, 1, -1}, ir.Le, -tji)))
			}
			c.addClause(lits...)
		}
	}
}
