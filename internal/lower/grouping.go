package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// lowerSpan pins the main interval to the earliest start and latest end
// of its present subtasks. Absent intervals enter the min as the horizon
// and the max as 0, so one unconditional min/max pair covers the optional
// and mandatory cases alike.
func (c *compiler) lowerSpan(sp model.SpanConstraint) {
	mainStart := c.substVar(sp.Main, 's', c.horizon)
	mainEnd := c.substVar(sp.Main, 'e', 0)

	starts := make([]ir.VarID, len(sp.Subs))
	ends := make([]ir.VarID, len(sp.Subs))
	for i, sub := range sp.Subs {
		starts[i] = c.substVar(sub, 's', c.horizon)
		ends[i] = c.substVar(sub, 'e', 0)
	}

	c.prog.Add(ir.MinMax{Target: mainStart, Vars: starts})
	c.prog.Add(ir.MinMax{IsMax: true, Target: mainEnd, Vars: ends})

	// A present subtask forces the main present.
	if sp.Main.Optional() {
		pm := c.vars(sp.Main).pres
		for _, sub := range sp.Subs {
			c.addClause(ir.Not(c.vars(sub).pres), ir.Lit(pm))
		}
	}

	// A present main needs at least one present subtask. With any
	// mandatory subtask the clause holds trivially.
	allOptional := true
	for _, sub := range sp.Subs {
		if !sub.Optional() {
			allOptional = false
			break
		}
	}
	if allOptional {
		lits := make(guardSet, 0, len(sp.Subs)+1)
		if sp.Main.Optional() {
			lits = append(lits, ir.Not(c.vars(sp.Main).pres))
		}
		for _, sub := range sp.Subs {
			lits = append(lits, ir.Lit(c.vars(sub).pres))
		}
		c.addClause(lits...)
	}
}

// lowerAlternative selects Cardinality alternatives when the main is
// present and mirrors the main onto each selected one.
func (c *compiler) lowerAlternative(alt model.AlternativeConstraint) {
	m := c.vars(alt.Main)

	// sum(presence of alts) == Cardinality * presence of main.
	vars := make([]ir.VarID, 0, len(alt.Alts)+1)
	coeffs := make([]int, 0, len(alt.Alts)+1)
	for _, a := range alt.Alts {
		vars = append(vars, c.vars(a).pres)
		coeffs = append(coeffs, 1)
	}
	vars = append(vars, m.pres)
	coeffs = append(coeffs, -alt.Cardinality)
	c.prog.Add(ir.LinearSum{Vars: vars, Coeffs: coeffs, Op: ir.Eq, K: 0})

	// The selected alternative mirrors the main's start and end. Sizes
	// stay governed by each interval's own intensity function.
	for _, a := range alt.Alts {
		g := c.guards(alt.Main, a)
		av := c.vars(a)

		c.postCmp(g, ir.Comparison{A: m.start, Op: ir.Eq, B: av.start})
		c.postLin(g,
			[]ir.VarID{m.start, m.length, av.start, av.length},
			[]int{1, 1, -1, -1}, ir.Eq, 0)
	}
}

// lowerSynchronize makes every present other start and end with the main.
func (c *compiler) lowerSynchronize(sy model.SynchronizeConstraint) {
	m := c.vars(sy.Main)

	for _, o := range sy.Others {
		g := c.guards(sy.Main, o)
		ov := c.vars(o)

		c.postCmp(g, ir.Comparison{A: m.start, Op: ir.Eq, B: ov.start})
		c.postLin(g,
			[]ir.VarID{m.start, m.length, ov.start, ov.length},
			[]int{1, 1, -1, -1}, ir.Eq, 0)

		if sy.Main.Optional() {
			c.addClause(ir.Not(ov.pres), ir.Lit(m.pres))
		}
	}
}
