package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// lowerPrecedence emits one of the eight precedence forms. Ends expand to
// start+length sums; the delay folds into the constant side.
func (c *compiler) lowerPrecedence(p model.Precedence) {
	g := c.guards(p.A, p.B)
	a, b := c.vars(p.A), c.vars(p.B)
	d := p.Delay

	switch p.Kind {
	case model.StartBeforeStartKind:
		c.postCmp(g, ir.Comparison{A: a.start, Op: ir.Le, B: b.start, K: d})
	case model.StartAtStartKind:
		c.postCmp(g, ir.Comparison{A: a.start, Op: ir.Eq, B: b.start, K: d})
	case model.StartBeforeEndKind:
		c.postLin(g, []ir.VarID{a.start, b.start, b.length}, []int{1, -1, -1}, ir.Le, -d)
	case model.StartAtEndKind:
		c.postLin(g, []ir.VarID{a.start, b.start, b.length}, []int{1, -1, -1}, ir.Eq, -d)
	case model.EndBeforeStartKind:
		c.postLin(g, []ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, -d)
	case model.EndAtStartKind:
		c.postLin(g, []ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Eq, -d)
	case model.EndBeforeEndKind:
		c.postLin(g, []ir.VarID{a.start, a.length, b.start, b.length}, []int{1, 1, -1, -1}, ir.Le, -d)
	case model.EndAtEndKind:
		c.postLin(g, []ir.VarID{a.start, a.length, b.start, b.length}, []int{1, 1, -1, -1}, ir.Eq, -d)
	}
}

// lowerChain links consecutive intervals: end(i) + delay relates to
// start(i+1), with equality under Strict. Each gap guards on its own pair
// only.
func (c *compiler) lowerChain(ch model.ChainConstraint) {
	op := ir.Le
	if ch.Strict {
		op = ir.Eq
	}
	for i := 0; i+1 < len(ch.Itvs); i++ {
		a, b := c.vars(ch.Itvs[i]), c.vars(ch.Itvs[i+1])
		g := c.guards(ch.Itvs[i], ch.Itvs[i+1])
		c.postLin(g,
			[]ir.VarID{a.start, a.length, b.start},
			[]int{1, 1, -1}, op, -ch.DelayAt(i))
	}
}

// lowerTimeBound emits a release date or deadline against a constant.
func (c *compiler) lowerTimeBound(tb model.TimeBound) {
	g := c.guards(tb.Itv)
	iv := c.vars(tb.Itv)

	switch tb.Kind {
	case model.ReleaseDateKind:
		t := tb.T
		if tb.Strict {
			t++
		}
		c.postCmp(g, c.cmpConst(iv.start, ir.Ge, t))
	case model.DeadlineKind:
		t := tb.T
		if tb.Strict {
			t--
		}
		c.postLin(g, []ir.VarID{iv.start, iv.length}, []int{1, 1}, ir.Le, t)
	}
}

// lowerTimeWindow emits the release date and deadline of a window.
func (c *compiler) lowerTimeWindow(tw model.TimeWindowConstraint) {
	g := c.guards(tw.Itv)
	iv := c.vars(tw.Itv)

	c.postCmp(g, c.cmpConst(iv.start, ir.Ge, tw.Earliest))
	c.postLin(g, []ir.VarID{iv.start, iv.length}, []int{1, 1}, ir.Le, tw.Latest)
}

// lowerForbidden keeps the start, end, or extent of an interval clear of
// each half-open period.
func (c *compiler) lowerForbidden(f model.ForbiddenPeriods) {
	g := c.guards(f.Itv)
	iv := c.vars(f.Itv)
	end := []ir.VarID{iv.start, iv.length}
	ones := []int{1, 1}

	for _, p := range f.Periods {
		switch f.Kind {
		case model.ForbidStartKind:
			// start < lo or start >= hi
			c.postAny(g,
				c.cmpConst(iv.start, ir.Le, p.Lo-1),
				c.cmpConst(iv.start, ir.Ge, p.Hi),
			)
		case model.ForbidEndKind:
			// end <= lo or end > hi
			lits := append(guardSet(nil), g...)
			lits = append(lits,
				ir.Lit(c.linCmp(end, ones, ir.Le, p.Lo)),
				ir.Lit(c.linCmp(end, ones, ir.Ge, p.Hi+1)),
			)
			c.addClause(lits...)
		case model.ForbidExtentKind:
			// end <= lo or start >= hi
			lits := append(guardSet(nil), g...)
			lits = append(lits,
				ir.Lit(c.linCmp(end, ones, ir.Le, p.Lo)),
				ir.Lit(c.reifyCmp(c.cmpConst(iv.start, ir.Ge, p.Hi))),
			)
			c.addClause(lits...)
		}
	}
}
