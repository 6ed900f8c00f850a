package lower

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// exprVar materializes an integer expression as a program variable.
// Interval accessors flow through substitution variables carrying the
// expression's absent value, so aggregates stay total over optional
// intervals. Empty aggregate sets fold to their neutral constant.
func (c *compiler) exprVar(e model.Expr) (ir.VarID, error) {
	switch x := e.(type) {
	case model.Lit:
		return c.constVar(int(x)), nil
	case model.StartOfExpr:
		return c.substVar(x.Itv, 's', x.Absent), nil
	case model.EndOfExpr:
		return c.substVar(x.Itv, 'e', x.Absent), nil
	case model.LengthOfExpr:
		return c.substVar(x.Itv, 'l', x.Absent), nil
	case model.SizeOfExpr:
		return c.substVar(x.Itv, 'z', x.Absent), nil
	case model.PresenceOfExpr:
		return c.vars(x.Itv).pres, nil
	case model.SumExpr:
		vars, err := c.exprVars(x.Terms)
		if err != nil {
			return 0, err
		}
		if len(vars) == 0 {
			return c.constVar(0), nil
		}
		return c.defineSum(vars, ones(len(vars)), 0), nil
	case model.SubExpr:
		a, err := c.exprVar(x.A)
		if err != nil {
			return 0, err
		}
		b, err := c.exprVar(x.B)
		if err != nil {
			return 0, err
		}
		return c.defineSum([]ir.VarID{a, b}, []int{1, -1}, 0), nil
	case model.NegExpr:
		v, err := c.exprVar(x.E)
		if err != nil {
			return 0, err
		}
		return c.defineSum([]ir.VarID{v}, []int{-1}, 0), nil
	case model.MinExpr:
		vars, err := c.exprVars(x.Args)
		if err != nil {
			return 0, err
		}
		if len(vars) == 0 {
			return 0, fmt.Errorf("min of no arguments")
		}
		return c.foldMinMax(false, vars), nil
	case model.MaxExpr:
		vars, err := c.exprVars(x.Args)
		if err != nil {
			return 0, err
		}
		if len(vars) == 0 {
			return 0, fmt.Errorf("max of no arguments")
		}
		return c.foldMinMax(true, vars), nil
	case model.CountPresentExpr:
		if len(x.Itvs) == 0 {
			return c.constVar(0), nil
		}
		vars := make([]ir.VarID, len(x.Itvs))
		for i, itv := range x.Itvs {
			vars[i] = c.vars(itv).pres
		}
		return c.defineSum(vars, ones(len(vars)), 0), nil
	case model.EarliestStartExpr:
		if len(x.Itvs) == 0 {
			return c.constVar(c.horizon), nil
		}
		return c.foldMinMax(false, c.substVars(x.Itvs, 's', c.horizon)), nil
	case model.LatestEndExpr:
		if len(x.Itvs) == 0 {
			return c.constVar(0), nil
		}
		return c.foldMinMax(true, c.substVars(x.Itvs, 'e', 0)), nil
	case model.MakespanExpr:
		if len(x.Itvs) == 0 {
			return c.constVar(0), nil
		}
		return c.foldMinMax(true, c.substVars(x.Itvs, 'e', 0)), nil
	case model.SpanLengthExpr:
		if len(x.Itvs) == 0 {
			return c.constVar(0), nil
		}
		hi := c.foldMinMax(true, c.substVars(x.Itvs, 'e', 0))
		lo := c.foldMinMax(false, c.substVars(x.Itvs, 's', c.horizon))
		diff := c.defineSum([]ir.VarID{hi, lo}, []int{1, -1}, 0)
		return c.foldMinMax(true, []ir.VarID{diff, c.constVar(0)}), nil
	case model.TypeOfNextExpr:
		return c.nextTypeVar(x.Seq, x.Itv, x.Last, x.Absent), nil
	case model.TypeOfPrevExpr:
		return c.prevTypeVar(x.Seq, x.Itv, x.First, x.Absent), nil
	default:
		return 0, fmt.Errorf("unsupported expression type %T", e)
	}
}

func (c *compiler) exprVars(es []model.Expr) ([]ir.VarID, error) {
	vars := make([]ir.VarID, 0, len(es))
	for _, e := range es {
		v, err := c.exprVar(e)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func (c *compiler) substVars(itvs []*model.IntervalVar, field byte, absent int) []ir.VarID {
	vars := make([]ir.VarID, len(itvs))
	for i, itv := range itvs {
		vars[i] = c.substVar(itv, field, absent)
	}
	return vars
}

// foldMinMax materializes the min or max of the variables, with target
// bounds folded from the operand bounds.
func (c *compiler) foldMinMax(isMax bool, vars []ir.VarID) ir.VarID {
	if len(vars) == 1 {
		return vars[0]
	}
	lo, hi := c.prog.Var(vars[0]).Lo, c.prog.Var(vars[0]).Hi
	for _, id := range vars[1:] {
		v := c.prog.Var(id)
		if isMax {
			if v.Lo > lo {
				lo = v.Lo
			}
			if v.Hi > hi {
				hi = v.Hi
			}
		} else {
			if v.Lo < lo {
				lo = v.Lo
			}
			if v.Hi < hi {
				hi = v.Hi
			}
		}
	}
	t := c.newAux(lo, hi)
	c.prog.Add(ir.MinMax{IsMax: isMax, Target: t, Vars: append([]ir.VarID(nil), vars...)})
	return t
}

func ones(n int) []int {
	co := make([]int, n)
	for i := range co {
		co[i] = 1
	}
	return co
}

// lowerCmp posts a comparison between two expressions. Substitution
// variables already carry the absent values, so the comparison itself
// needs no presence guard.
func (c *compiler) lowerCmp(x model.CmpConstraint) error {
	a, err := c.exprVar(x.A)
	if err != nil {
		return err
	}
	b, err := c.exprVar(x.B)
	if err != nil {
		return err
	}
	c.prog.Add(ir.Comparison{A: a, Op: lowerOp(x.Op), B: b})
	return nil
}
