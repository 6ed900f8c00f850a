package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// guardSet is the list of discharge literals of one constraint: one
// negated presence per distinct optional operand. An empty set means the
// constraint binds unconditionally.
type guardSet []ir.Literal

// guards builds the guard set of a constraint from its operand intervals.
// Every family passes its operands through here; no family builds guard
// literals by hand.
func (c *compiler) guards(ops ...*model.IntervalVar) guardSet {
	var g guardSet
	seen := make(map[*model.IntervalVar]bool, len(ops))
	for _, itv := range ops {
		if itv == nil || seen[itv] || !itv.Optional() {
			continue
		}
		seen[itv] = true
		g = append(g, ir.Not(c.vars(itv).pres))
	}
	return g
}

// addClause emits a disjunction of literals.
func (c *compiler) addClause(lits ...ir.Literal) {
	c.prog.Add(ir.Clause{Lits: lits})
}

// reifyCmp returns a 0/1 variable equivalent to the comparison,
// allocating at most one per distinct comparison.
func (c *compiler) reifyCmp(cmp ir.Comparison) ir.VarID {
	if b, ok := c.reused[cmp]; ok {
		return b
	}
	b := c.newBool()
	c.prog.Add(ir.Reified{Bool: b, C: cmp})
	c.reused[cmp] = b
	return b
}

// cmpConst turns a unary comparison into a binary one against a constant
// variable, the only comparison shape the reifier accepts.
func (c *compiler) cmpConst(a ir.VarID, op ir.Op, k int) ir.Comparison {
	return ir.Comparison{A: a, Op: op, B: c.constVar(k)}
}

// postCmp emits one comparison under a guard.
func (c *compiler) postCmp(g guardSet, cmp ir.Comparison) {
	if len(g) == 0 {
		c.prog.Add(cmp)
		return
	}
	c.addClause(append(append(guardSet(nil), g...), ir.Lit(c.reifyCmp(cmp)))...)
}

// postAny emits a disjunction of comparisons under a guard. With no guard
// and a single alternative the comparison is emitted directly; an empty
// alternative list under an empty guard is a false constraint.
func (c *compiler) postAny(g guardSet, cmps ...ir.Comparison) {
	if len(g) == 0 && len(cmps) == 1 {
		c.prog.Add(cmps[0])
		return
	}
	lits := append(guardSet(nil), g...)
	for _, cmp := range cmps {
		lits = append(lits, ir.Lit(c.reifyCmp(cmp)))
	}
	c.addClause(lits...)
}

// postLin emits sum(coeffs[i]*vars[i]) op k under a guard. The guarded
// form materializes the sum and reifies a comparison against the bound.
// An empty sum folds to its truth value.
func (c *compiler) postLin(g guardSet, vars []ir.VarID, coeffs []int, op ir.Op, k int) {
	if len(vars) == 0 {
		if !opHolds(op, 0, k) {
			c.addClause(g...)
		}
		return
	}
	if len(g) == 0 {
		c.prog.Add(ir.LinearSum{
			Vars:   append([]ir.VarID(nil), vars...),
			Coeffs: append([]int(nil), coeffs...),
			Op:     op,
			K:      k,
		})
		return
	}
	t := c.defineSum(vars, coeffs, 0)
	c.postCmp(g, c.cmpConst(t, op, k))
}

func opHolds(op ir.Op, a, b int) bool {
	switch op {
	case ir.Le:
		return a <= b
	case ir.Lt:
		return a < b
	case ir.Ge:
		return a >= b
	case ir.Gt:
		return a > b
	case ir.Eq:
		return a == b
	default:
		return a != b
	}
}

// linCmp reifies sum(coeffs[i]*vars[i]) op k into a 0/1 variable for use
// inside disjunctions.
func (c *compiler) linCmp(vars []ir.VarID, coeffs []int, op ir.Op, k int) ir.VarID {
	t := c.defineSum(vars, coeffs, 0)
	return c.reifyCmp(c.cmpConst(t, op, k))
}

// boolAnd returns a 0/1 variable equivalent to the conjunction of the
// literals.
func (c *compiler) boolAnd(lits ...ir.Literal) ir.VarID {
	b := c.newBool()
	inverse := make(guardSet, 0, len(lits)+1)
	inverse = append(inverse, ir.Lit(b))
	for _, l := range lits {
		c.addClause(ir.Not(b), l)
		inverse = append(inverse, negate(l))
	}
	c.addClause(inverse...)
	return b
}

// boolOr returns a 0/1 variable equivalent to the disjunction of the
// literals.
func (c *compiler) boolOr(lits ...ir.Literal) ir.VarID {
	b := c.newBool()
	forward := make(guardSet, 0, len(lits)+1)
	forward = append(forward, ir.Not(b))
	for _, l := range lits {
		c.addClause(negate(l), ir.Lit(b))
		forward = append(forward, l)
	}
	c.addClause(forward...)
	return b
}

func negate(l ir.Literal) ir.Literal {
	l.Neg = !l.Neg
	return l
}
