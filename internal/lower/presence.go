package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// lowerPresence links presence booleans directly. Mandatory intervals
// carry a pinned presence variable, so the counting forms need no
// special casing; only the vacuous pair forms are skipped.
func (c *compiler) lowerPresence(x model.PresenceLogic) {
	switch x.Kind {
	case model.IfPresentThenKind:
		if !x.B.Optional() {
			return
		}
		c.addClause(ir.Not(c.vars(x.A).pres), ir.Lit(c.vars(x.B).pres))
	case model.PresenceOrKind:
		if !x.A.Optional() || !x.B.Optional() {
			return
		}
		c.addClause(ir.Lit(c.vars(x.A).pres), ir.Lit(c.vars(x.B).pres))
	case model.PresenceXorKind:
		c.prog.Add(ir.LinearSum{
			Vars:   []ir.VarID{c.vars(x.A).pres, c.vars(x.B).pres},
			Coeffs: []int{1, 1},
			Op:     ir.Eq,
			K:      1,
		})
	case model.AllOrNoneKind:
		for i := 0; i+1 < len(x.Itvs); i++ {
			c.prog.Add(ir.Comparison{
				A:  c.vars(x.Itvs[i]).pres,
				Op: ir.Eq,
				B:  c.vars(x.Itvs[i+1]).pres,
			})
		}
	default:
		vars := make([]ir.VarID, len(x.Itvs))
		coeffs := make([]int, len(x.Itvs))
		for i, itv := range x.Itvs {
			vars[i] = c.vars(itv).pres
			coeffs[i] = 1
		}
		op := ir.Eq
		switch x.Kind {
		case model.AtLeastKKind:
			op = ir.Ge
		case model.AtMostKKind:
			op = ir.Le
		}
		c.prog.Add(ir.LinearSum{Vars: vars, Coeffs: coeffs, Op: op, K: x.K})
	}
}
