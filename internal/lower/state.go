package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// State requirements lower pairwise. Two intervals pinning different
// values of the same function cannot overlap and are separated by the
// function's transition time when a matrix is declared; a forbidden arc
// removes that ordering. Intervals pinning the same value may overlap,
// and alignment flags force equal starts or ends on every overlapping
// pair. Alignment is not propagated across merely touching intervals.
// A ranged or unnamed requirement carries a state variable instead of a
// compile-time value; its pair constraints read the transition gap from
// a table over the matrix. A no-state requirement excludes every
// defining requirement from its span, with no gap either way.

// stateReq is one collected requirement with its state value variable.
// NoState requirements define no value and keep val at -1.
type stateReq struct {
	sc  model.StateConstraint
	val ir.VarID
}

func (c *compiler) lowerStatePairs() {
	for _, f := range c.s.StateFunctions() {
		cs := c.stateCs[f]
		top := stateCeiling(f, cs)
		reqs := make([]stateReq, len(cs))
		for i, sc := range cs {
			reqs[i] = stateReq{sc: sc, val: c.stateValue(sc, top)}
		}
		for i := 0; i < len(reqs); i++ {
			for j := i + 1; j < len(reqs); j++ {
				c.lowerStatePair(f, reqs[i], reqs[j])
			}
		}
	}
}

// stateCeiling is the largest state a function can hold: the matrix
// bound when one is attached, otherwise the largest state any
// requirement names.
func stateCeiling(f *model.StateFunction, cs []model.StateConstraint) int {
	if m := f.Transitions(); m != nil {
		return m.Size() - 1
	}
	top := 0
	for _, sc := range cs {
		switch sc.Kind {
		case model.RequireStateKind, model.SetStateKind:
			if sc.State > top {
				top = sc.State
			}
		case model.StateInKind:
			if sc.Max > top {
				top = sc.Max
			}
		}
	}
	return top
}

// stateValue mints the variable holding the state a requirement pins.
// Fixed kinds share the constant pool.
func (c *compiler) stateValue(sc model.StateConstraint, top int) ir.VarID {
	switch sc.Kind {
	case model.RequireStateKind, model.SetStateKind:
		return c.constVar(sc.State)
	case model.StateInKind:
		return c.newAux(sc.Min, sc.Max)
	case model.StateConstantKind:
		return c.newAux(0, top)
	default:
		return -1
	}
}

// fixedState reports whether a requirement names its state outright.
func fixedState(sc model.StateConstraint) bool {
	return sc.Kind == model.RequireStateKind || sc.Kind == model.SetStateKind
}

func (c *compiler) lowerStatePair(f *model.StateFunction, x, y stateReq) {
	xNo := x.sc.Kind == model.NoStateKind
	yNo := y.sc.Kind == model.NoStateKind
	switch {
	case xNo && yNo:
		// Two undefined spans may overlap freely.
		return
	case xNo || yNo:
		c.stateApart(x, y)
		return
	}

	if fixedState(x.sc) && fixedState(y.sc) {
		c.stateFixedPair(f, x.sc, y.sc)
		return
	}
	c.stateVarPair(f, x, y)
}

// stateApart keeps a defining requirement and a no-state requirement
// from overlapping. Transitions to and from the undefined state are
// free, so no gap applies.
func (c *compiler) stateApart(x, y stateReq) {
	g := c.guards(x.sc.Itv, y.sc.Itv)
	xv, yv := c.vars(x.sc.Itv), c.vars(y.sc.Itv)

	lits := append([]ir.Literal(nil), g...)
	lits = append(lits,
		ir.Lit(c.linCmp([]ir.VarID{xv.start, xv.length, yv.start}, []int{1, 1, -1}, ir.Le, 0)),
		ir.Lit(c.linCmp([]ir.VarID{yv.start, yv.length, xv.start}, []int{1, 1, -1}, ir.Le, 0)))
	c.addClause(lits...)
}

// stateFixedPair handles two requirements whose states are known at
// compile time, so the matrix resolves to plain delays.
func (c *compiler) stateFixedPair(f *model.StateFunction, x, y model.StateConstraint) {
	g := c.guards(x.Itv, y.Itv)
	xv, yv := c.vars(x.Itv), c.vars(y.Itv)

	if x.State != y.State {
		m := f.Transitions()
		lits := append([]ir.Literal(nil), g...)
		if d := transition(m, x.State, y.State); d != model.Forbidden {
			lits = append(lits, ir.Lit(c.linCmp(
				[]ir.VarID{xv.start, xv.length, yv.start},
				[]int{1, 1, -1}, ir.Le, -d)))
		}
		if d := transition(m, y.State, x.State); d != model.Forbidden {
			lits = append(lits, ir.Lit(c.linCmp(
				[]ir.VarID{yv.start, yv.length, xv.start},
				[]int{1, 1, -1}, ir.Le, -d)))
		}
		c.addClause(lits...)
		return
	}

	if x.Kind != model.RequireStateKind || y.Kind != model.RequireStateKind {
		return
	}
	needStart := x.StartAligned || y.StartAligned
	needEnd := x.EndAligned || y.EndAligned
	if !needStart && !needEnd {
		return
	}
	var eqs []ir.Literal
	if needStart {
		eqs = append(eqs, ir.Lit(c.reifyCmp(ir.Comparison{A: xv.start, Op: ir.Eq, B: yv.start})))
	}
	if needEnd {
		eqs = append(eqs, ir.Lit(c.linCmp(
			[]ir.VarID{xv.start, xv.length, yv.start, yv.length},
			[]int{1, 1, -1, -1}, ir.Eq, 0)))
	}
	aligned := eqs[0]
	if len(eqs) == 2 {
		aligned = ir.Lit(c.boolAnd(eqs...))
	}
	lits := append([]ir.Literal(nil), g...)
	lits = append(lits,
		ir.Lit(c.linCmp([]ir.VarID{xv.start, xv.length, yv.start}, []int{1, 1, -1}, ir.Le, 0)),
		ir.Lit(c.linCmp([]ir.VarID{yv.start, yv.length, xv.start}, []int{1, 1, -1}, ir.Le, 0)),
		aligned)
	c.addClause(lits...)
}

// stateVarPair handles pairs where at least one state is solver-chosen:
// either the two run apart with the looked-up transition gap, or they
// agree on one value (aligning endpoints where a flag demands it).
func (c *compiler) stateVarPair(f *model.StateFunction, x, y stateReq) {
	g := c.guards(x.sc.Itv, y.sc.Itv)
	xv, yv := c.vars(x.sc.Itv), c.vars(y.sc.Itv)

	eqs := []ir.Literal{ir.Lit(c.reifyCmp(ir.Comparison{A: x.val, Op: ir.Eq, B: y.val}))}
	if x.sc.StartAligned || y.sc.StartAligned {
		eqs = append(eqs, ir.Lit(c.reifyCmp(ir.Comparison{A: xv.start, Op: ir.Eq, B: yv.start})))
	}
	if x.sc.EndAligned || y.sc.EndAligned {
		eqs = append(eqs, ir.Lit(c.linCmp(
			[]ir.VarID{xv.start, xv.length, yv.start, yv.length},
			[]int{1, 1, -1, -1}, ir.Eq, 0)))
	}
	agree := eqs[0]
	if len(eqs) > 1 {
		agree = ir.Lit(c.boolAnd(eqs...))
	}

	lits := append([]ir.Literal(nil), g...)
	lits = append(lits,
		c.stateOrderLit(f, x, y),
		c.stateOrderLit(f, y, x),
		agree)
	c.addClause(lits...)
}

// stateOrderLit is the literal "a runs, then b, separated by the
// transition gap between their states".
func (c *compiler) stateOrderLit(f *model.StateFunction, a, b stateReq) ir.Literal {
	av, bv := c.vars(a.sc.Itv), c.vars(b.sc.Itv)
	m := f.Transitions()
	if m == nil {
		return ir.Lit(c.linCmp(
			[]ir.VarID{av.start, av.length, bv.start}, []int{1, 1, -1}, ir.Le, 0))
	}
	gap := c.transitionGap(m, a.val, b.val)
	return ir.Lit(c.linCmp(
		[]ir.VarID{av.start, av.length, gap, bv.start}, []int{1, 1, 1, -1}, ir.Le, 0))
}

// transitionGap binds a fresh variable to the matrix entry for the
// ordered state pair (from, to). Forbidden arcs get a gap past the
// horizon, which rules that ordering out within it.
func (c *compiler) transitionGap(m *model.TransitionMatrix, from, to ir.VarID) ir.VarID {
	n := m.Size()
	rows := make([][]int, 0, n*n)
	lo, hi := -1, 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := m.At(i, j)
			if d == model.Forbidden {
				d = c.horizon + 1
			}
			if lo < 0 || d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
			rows = append(rows, []int{i, j, d})
		}
	}
	gap := c.newAux(lo, hi)
	c.prog.Add(ir.Table{Vars: []ir.VarID{from, to, gap}, Rows: rows})
	return gap
}
