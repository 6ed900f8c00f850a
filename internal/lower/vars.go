package lower

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// computeHorizon fixes the scheduling horizon. An explicit session horizon
// wins; otherwise each interval contributes its end maximum when bounded,
// its start maximum plus length maximum when only the start is bounded,
// and its length maximum into a running sum otherwise. Times named by
// constraints (deadlines, windows, forbidden periods, fixed steps) and
// positive delays widen the result, so a serial schedule always fits.
func (c *compiler) computeHorizon() error {
	if h := c.s.Horizon(); h != 0 {
		if h < 0 {
			return fmt.Errorf("lower: horizon %d is negative", h)
		}
		c.horizon = h
		return nil
	}

	base := 0
	for _, itv := range c.s.Intervals() {
		switch {
		case itv.EndBounds().Hi < model.MaxTime:
			base += itv.EndBounds().Hi
		case itv.StartBounds().Hi < model.MaxTime:
			if itv.LengthBounds().Hi >= model.MaxTime {
				return fmt.Errorf("lower: interval %q has no bounded end, start, or length; set a horizon", itv.Name())
			}
			base += itv.StartBounds().Hi + itv.LengthBounds().Hi
		default:
			if itv.LengthBounds().Hi >= model.MaxTime {
				return fmt.Errorf("lower: interval %q has no bounded end, start, or length; set a horizon", itv.Name())
			}
			base += itv.LengthBounds().Hi
		}
	}

	widen := 0
	bump := func(t int) {
		if t > widen {
			widen = t
		}
	}
	delays := 0
	for _, hc := range c.s.Constraints() {
		switch x := hc.(type) {
		case model.TimeBound:
			bump(x.T)
		case model.TimeWindowConstraint:
			bump(x.Latest)
		case model.ForbiddenPeriods:
			for _, p := range x.Periods {
				bump(p.Hi)
			}
		case model.Precedence:
			if x.Delay > 0 {
				delays += x.Delay
			}
		case model.ChainConstraint:
			for i := 0; i < len(x.Itvs)-1; i++ {
				if d := x.DelayAt(i); d > 0 {
					delays += d
				}
			}
		case model.CumulBound:
			for _, a := range x.F.Atoms() {
				if a.Kind == model.AtomStepAt {
					bump(a.Time)
				}
			}
		case model.AlwaysInConstraint:
			bump(x.To)
		}
	}

	c.horizon = base + widen + delays
	if c.horizon < 1 {
		c.horizon = 1
	}
	return nil
}

// allocateIntervals mints the primitive variables of every interval in
// declaration order and posts the declared bound constraints. The end
// window and the horizon cap bind only while the interval is present.
func (c *compiler) allocateIntervals() {
	c.ivars = make([]intervalVars, len(c.s.Intervals()))
	for i, itv := range c.s.Intervals() {
		name := itv.Name()
		sb := clampRange(itv.StartBounds(), c.horizon)
		lb := clampRange(itv.LengthBounds(), c.horizon)

		iv := intervalVars{
			start:  c.prog.NewVar(name+".start", sb.Lo, sb.Hi),
			length: c.prog.NewVar(name+".length", lb.Lo, lb.Hi),
		}
		if itv.Optional() {
			iv.pres = c.prog.NewBool(name + ".presence")
		} else {
			iv.pres = c.prog.NewVar(name+".presence", 1, 1)
		}
		if len(itv.Intensity()) > 0 {
			zb := clampRange(itv.SizeBounds(), c.horizon)
			iv.size = c.prog.NewVar(name+".size", zb.Lo, zb.Hi)
		} else {
			iv.size = iv.length
		}
		c.ivars[i] = iv
	}

	for _, itv := range c.s.Intervals() {
		iv := c.vars(itv)
		g := c.guards(itv)

		// start + length <= horizon while present.
		c.postLin(g, []ir.VarID{iv.start, iv.length}, []int{1, 1}, ir.Le, c.horizon)

		eb := itv.EndBounds()
		if eb.Lo > 0 {
			c.postLin(g, []ir.VarID{iv.start, iv.length}, []int{1, 1}, ir.Ge, eb.Lo)
		}
		if eb.Hi < model.MaxTime {
			c.postLin(g, []ir.VarID{iv.start, iv.length}, []int{1, 1}, ir.Le, eb.Hi)
		}

		// Without intensity the size is the length; size bounds declared
		// on their own bind the length variable while present.
		if zb := itv.SizeBounds(); len(itv.Intensity()) == 0 && zb != itv.LengthBounds() {
			if zb.Lo > 0 {
				c.postCmp(g, c.cmpConst(iv.length, ir.Ge, zb.Lo))
			}
			if zb.Hi < model.MaxTime {
				c.postCmp(g, c.cmpConst(iv.length, ir.Le, zb.Hi))
			}
		}
	}
}

func clampRange(r model.Range, horizon int) model.Range {
	if r.Hi > horizon {
		r.Hi = horizon
		if r.Hi < r.Lo {
			// A bound entirely beyond the horizon keeps its single lowest
			// value; the horizon cap then forbids presence there.
			r.Hi = r.Lo
		}
	}
	return r
}

// constVar returns a variable fixed to v, allocating at most one per value.
func (c *compiler) constVar(v int) ir.VarID {
	if id, ok := c.consts[v]; ok {
		return id
	}
	id := c.prog.NewConst(fmt.Sprintf("_c%d", v), v)
	c.consts[v] = id
	return id
}

// newBool mints a fresh auxiliary 0/1 variable.
func (c *compiler) newBool() ir.VarID {
	c.auxN++
	return c.prog.NewBool(fmt.Sprintf("_b%d", c.auxN))
}

// newAux mints a fresh auxiliary integer variable.
func (c *compiler) newAux(lo, hi int) ir.VarID {
	c.auxN++
	return c.prog.NewVar(fmt.Sprintf("_x%d", c.auxN), lo, hi)
}

// endVar returns a variable defined as start+length of itv, allocating it
// on first use. The defining sum holds unconditionally; the variable is
// an expression materialization, not an interval primitive.
func (c *compiler) endVar(itv *model.IntervalVar) ir.VarID {
	if id, ok := c.ends[itv]; ok {
		return id
	}
	iv := c.vars(itv)
	lo := c.prog.Var(iv.start).Lo + c.prog.Var(iv.length).Lo
	hi := c.prog.Var(iv.start).Hi + c.prog.Var(iv.length).Hi
	id := c.newAux(lo, hi)
	c.prog.Add(ir.LinearSum{
		Vars:   []ir.VarID{iv.start, iv.length, id},
		Coeffs: []int{1, 1, -1},
		Op:     ir.Eq,
		K:      0,
	})
	c.ends[itv] = id
	return id
}

// defineSum materializes sum(coeffs[i]*vars[i]) + k as a fresh variable
// with bounds computed from the operand bounds.
func (c *compiler) defineSum(vars []ir.VarID, coeffs []int, k int) ir.VarID {
	lo, hi := k, k
	for i, id := range vars {
		v := c.prog.Var(id)
		a, b := coeffs[i]*v.Lo, coeffs[i]*v.Hi
		if a > b {
			a, b = b, a
		}
		lo += a
		hi += b
	}
	t := c.newAux(lo, hi)
	allVars := append(append([]ir.VarID(nil), vars...), t)
	allCoeffs := append(append([]int(nil), coeffs...), -1)
	c.prog.Add(ir.LinearSum{Vars: allVars, Coeffs: allCoeffs, Op: ir.Eq, K: -k})
	return t
}

// substKey identifies one absent-substitution variable.
type substKey struct {
	itv    *model.IntervalVar
	field  byte // 's' start, 'e' end, 'l' length, 'z' size
	absent int
}

// substVar returns a variable equal to the named field while itv is
// present and to the absent value otherwise. Mandatory intervals skip the
// substitution when the field is already a plain variable.
func (c *compiler) substVar(itv *model.IntervalVar, field byte, absent int) ir.VarID {
	iv := c.vars(itv)

	var src ir.VarID
	switch field {
	case 's':
		src = iv.start
	case 'l':
		src = iv.length
	case 'z':
		src = iv.size
	case 'e':
		src = c.endVar(itv)
	}
	if !itv.Optional() {
		return src
	}

	key := substKey{itv: itv, field: field, absent: absent}
	if id, ok := c.subst[key]; ok {
		return id
	}

	sv := c.prog.Var(src)
	lo, hi := sv.Lo, sv.Hi
	if absent < lo {
		lo = absent
	}
	if absent > hi {
		hi = absent
	}
	x := c.newAux(lo, hi)

	p := iv.pres
	c.addClause(ir.Not(p), ir.Lit(c.reifyCmp(ir.Comparison{A: x, Op: ir.Eq, B: src})))
	c.addClause(ir.Lit(p), ir.Lit(c.reifyCmp(ir.Comparison{A: x, Op: ir.Eq, B: c.constVar(absent)})))

	c.subst[key] = x
	return x
}
