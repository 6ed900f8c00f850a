package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// lowerSeqNoOverlap orders the members of a sequence without overlap.
// Without Direct, transition times bind every ordered pair; with Direct
// they bind only immediately adjacent pairs, through the adjacency
// booleans.
func (c *compiler) lowerSeqNoOverlap(sn model.SeqNoOverlapConstraint) {
	members := sn.Seq.Intervals()
	types := sn.Seq.Types()

	if !sn.Direct {
		c.lowerNoOverlap(members, types, sn.Matrix, true)
		return
	}

	c.lowerNoOverlap(members, types, nil, false)
	if sn.Matrix == nil {
		return
	}
	for i := range members {
		for j := range members {
			if i == j {
				continue
			}
			t := transition(sn.Matrix, sn.Seq.TypeOf(i), sn.Seq.TypeOf(j))
			if t == 0 {
				continue
			}
			bAdj := c.adjacent(sn.Seq, i, j)
			if t == model.Forbidden {
				c.addClause(ir.Not(bAdj))
				continue
			}
			a, b := c.vars(members[i]), c.vars(members[j])
			gap := c.linCmp(
				[]ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, -t)
			c.addClause(ir.Not(bAdj), ir.Lit(gap))
		}
	}
}

// lowerSeqPosition pins a member first, last, before, or immediately
// previous within its sequence.
func (c *compiler) lowerSeqPosition(sp model.SeqPosition) {
	members := sp.Seq.Intervals()
	a := c.vars(sp.A)

	switch sp.Kind {
	case model.SeqFirstKind:
		for _, o := range members {
			if o == sp.A {
				continue
			}
			g := c.guards(sp.A, o)
			c.postCmp(g, ir.Comparison{A: a.start, Op: ir.Le, B: c.vars(o).start})
		}
	case model.SeqLastKind:
		for _, o := range members {
			if o == sp.A {
				continue
			}
			g := c.guards(sp.A, o)
			ov := c.vars(o)
			c.postLin(g,
				[]ir.VarID{a.start, a.length, ov.start, ov.length},
				[]int{1, 1, -1, -1}, ir.Ge, 0)
		}
	case model.SeqBeforeKind:
		b := c.vars(sp.B)
		g := c.guards(sp.A, sp.B)
		c.postLin(g, []ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, 0)
	case model.SeqPreviousKind:
		b := c.vars(sp.B)
		g := c.guards(sp.A, sp.B)
		c.postLin(g, []ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, 0)

		// No present third member fits between the two: it ends before a
		// ends or starts after b starts.
		for _, k := range members {
			if k == sp.A || k == sp.B {
				continue
			}
			kv := c.vars(k)
			lits := append(guardSet(nil), c.guards(sp.A, sp.B, k)...)
			lits = append(lits,
				ir.Lit(c.linCmp(
					[]ir.VarID{kv.start, kv.length, a.start, a.length},
					[]int{1, 1, -1, -1}, ir.Le, -1)),
				ir.Lit(c.reifyCmp(ir.Comparison{A: b.start, K: 1, Op: ir.Le, B: kv.start})),
			)
			c.addClause(lits...)
		}
	}
}

// adjKey identifies one adjacency boolean: member i immediately precedes
// member j in the sequence.
type adjKey struct {
	seq  *model.SequenceVar
	i, j int
}

// adjacent returns a 0/1 variable true exactly when member i immediately
// precedes member j: both present, i ends before j starts, and no present
// third member sits between them. Defined under sequence no-overlap.
func (c *compiler) adjacent(seq *model.SequenceVar, i, j int) ir.VarID {
	key := adjKey{seq: seq, i: i, j: j}
	if b, ok := c.adj[key]; ok {
		return b
	}

	members := seq.Intervals()
	a, b := c.vars(members[i]), c.vars(members[j])

	lits := []ir.Literal{
		ir.Lit(a.pres),
		ir.Lit(b.pres),
		ir.Lit(c.linCmp(
			[]ir.VarID{a.start, a.length, b.start}, []int{1, 1, -1}, ir.Le, 0)),
	}
	for k, other := range members {
		if k == i || k == j {
			continue
		}
		kv := c.vars(other)
		notBetween := c.boolOr(
			ir.Not(kv.pres),
			ir.Lit(c.linCmp(
				[]ir.VarID{kv.start, kv.length, a.start, a.length},
				[]int{1, 1, -1, -1}, ir.Le, -1)),
			ir.Lit(c.reifyCmp(ir.Comparison{A: b.start, K: 1, Op: ir.Le, B: kv.start})),
		)
		lits = append(lits, ir.Lit(notBetween))
	}

	adj := c.boolAnd(lits...)
	c.adj[key] = adj
	return adj
}

// nextTypeVar builds the variable holding the type of the member that
// immediately follows itv: the last value when itv closes the sequence,
// the absent value when itv is absent. Exactly one case holds; the value
// channels through a weighted sum over the case booleans.
func (c *compiler) nextTypeVar(seq *model.SequenceVar, itv *model.IntervalVar, last, absent int) ir.VarID {
	members := seq.Intervals()
	self := memberIndex(seq, itv)
	iv := c.vars(itv)

	caseVars := []ir.VarID{}
	caseVals := []int{}

	noSucc := []ir.Literal{ir.Lit(iv.pres)}
	for o, other := range members {
		if o == self {
			continue
		}
		ov := c.vars(other)

		bNext := c.adjacent(seq, self, o)
		caseVars = append(caseVars, bNext)
		caseVals = append(caseVals, seq.TypeOf(o))

		// other is no successor of itv: absent or starts before itv ends.
		noSucc = append(noSucc, ir.Lit(c.boolOr(
			ir.Not(ov.pres),
			ir.Lit(c.linCmp(
				[]ir.VarID{ov.start, iv.start, iv.length}, []int{1, -1, -1}, ir.Le, -1)),
		)))
	}

	bLast := c.boolAnd(noSucc...)
	caseVars = append(caseVars, bLast)
	caseVals = append(caseVals, last)

	if itv.Optional() {
		bAbsent := c.defineSum([]ir.VarID{iv.pres}, []int{-1}, 1)
		caseVars = append(caseVars, bAbsent)
		caseVals = append(caseVals, absent)
	}

	return c.channelCases(caseVars, caseVals)
}

// prevTypeVar is the mirror of nextTypeVar: the type of the immediately
// preceding member, first when itv opens the sequence, absent when itv is
// absent.
func (c *compiler) prevTypeVar(seq *model.SequenceVar, itv *model.IntervalVar, first, absent int) ir.VarID {
	members := seq.Intervals()
	self := memberIndex(seq, itv)
	iv := c.vars(itv)

	caseVars := []ir.VarID{}
	caseVals := []int{}

	noPred := []ir.Literal{ir.Lit(iv.pres)}
	for o, other := range members {
		if o == self {
			continue
		}
		ov := c.vars(other)

		bPrev := c.adjacent(seq, o, self)
		caseVars = append(caseVars, bPrev)
		caseVals = append(caseVals, seq.TypeOf(o))

		// other is no predecessor of itv: absent or ends after itv starts.
		noPred = append(noPred, ir.Lit(c.boolOr(
			ir.Not(ov.pres),
			ir.Lit(c.linCmp(
				[]ir.VarID{ov.start, ov.length, iv.start}, []int{1, 1, -1}, ir.Ge, 1)),
		)))
	}

	bFirst := c.boolAnd(noPred...)
	caseVars = append(caseVars, bFirst)
	caseVals = append(caseVals, first)

	if itv.Optional() {
		bAbsent := c.defineSum([]ir.VarID{iv.pres}, []int{-1}, 1)
		caseVars = append(caseVars, bAbsent)
		caseVals = append(caseVals, absent)
	}

	return c.channelCases(caseVars, caseVals)
}

// channelCases pins a fresh variable to the value of the single true case
// boolean: exactly one holds, and the weighted sum channels the value.
func (c *compiler) channelCases(caseVars []ir.VarID, caseVals []int) ir.VarID {
	ones := make([]int, len(caseVars))
	for i := range ones {
		ones[i] = 1
	}
	c.prog.Add(ir.LinearSum{
		Vars:   append([]ir.VarID(nil), caseVars...),
		Coeffs: ones,
		Op:     ir.Eq,
		K:      1,
	})

	lo, hi := caseVals[0], caseVals[0]
	for _, v := range caseVals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	y := c.newAux(lo, hi)

	vars := append(append([]ir.VarID(nil), caseVars...), y)
	coeffs := append(append([]int(nil), caseVals...), -1)
	c.prog.Add(ir.LinearSum{Vars: vars, Coeffs: coeffs, Op: ir.Eq, K: 0})
	return y
}

func memberIndex(seq *model.SequenceVar, itv *model.IntervalVar) int {
	for i, m := range seq.Intervals() {
		if m == itv {
			return i
		}
	}
	return -1
}
