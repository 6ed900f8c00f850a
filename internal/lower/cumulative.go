package lower

import (
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// linTerm is an affine expression sum(coeffs[i]*vars[i]) + k. Profile
// events are terms, not constants, because pulse and step anchors move
// with their interval.
type linTerm struct {
	vars   []ir.VarID
	coeffs []int
	k      int
}

func termConst(k int) linTerm { return linTerm{k: k} }

func (c *compiler) termStart(itv *model.IntervalVar) linTerm {
	v := c.vars(itv)
	return linTerm{vars: []ir.VarID{v.start}, coeffs: []int{1}}
}

func (c *compiler) termEnd(itv *model.IntervalVar) linTerm {
	v := c.vars(itv)
	return linTerm{vars: []ir.VarID{v.start, v.length}, coeffs: []int{1, 1}}
}

// sub returns a - b.
func sub(a, b linTerm) linTerm {
	t := linTerm{
		vars:   append(append([]ir.VarID(nil), a.vars...), b.vars...),
		coeffs: append([]int(nil), a.coeffs...),
		k:      a.k - b.k,
	}
	for _, co := range b.coeffs {
		t.coeffs = append(t.coeffs, -co)
	}
	return t
}

// norm merges repeated variables and drops zero coefficients, keeping
// first-occurrence order.
func (t linTerm) norm() linTerm {
	at := make(map[ir.VarID]int, len(t.vars))
	out := linTerm{k: t.k}
	for i, v := range t.vars {
		if j, ok := at[v]; ok {
			out.coeffs[j] += t.coeffs[i]
			continue
		}
		at[v] = len(out.vars)
		out.vars = append(out.vars, v)
		out.coeffs = append(out.coeffs, t.coeffs[i])
	}
	n := out.vars[:0]
	co := out.coeffs[:0]
	for i, v := range out.vars {
		if out.coeffs[i] != 0 {
			n = append(n, v)
			co = append(co, out.coeffs[i])
		}
	}
	out.vars, out.coeffs = n, co
	return out
}

// termCmp reifies (t op k). Constant terms fold to a pinned boolean.
func (c *compiler) termCmp(t linTerm, op ir.Op, k int) ir.VarID {
	t = t.norm()
	if len(t.vars) == 0 {
		if opHolds(op, t.k, k) {
			return c.constVar(1)
		}
		return c.constVar(0)
	}
	return c.linCmp(t.vars, t.coeffs, op, k-t.k)
}

// lowerCumulative bounds a renewable resource shared by intervals with
// fixed demands. At each present interval's start, the demands of the
// intervals covering that start must fit the capacity.
func (c *compiler) lowerCumulative(x model.CumulativeConstraint) {
	for i, a := range x.Itvs {
		if x.Heights[i] == 0 {
			continue
		}
		av := c.vars(a)
		var vars []ir.VarID
		var coeffs []int
		for j, b := range x.Itvs {
			if j == i || x.Heights[j] == 0 {
				continue
			}
			bv := c.vars(b)
			lits := make([]ir.Literal, 0, 3)
			if b.Optional() {
				lits = append(lits, ir.Lit(bv.pres))
			}
			lits = append(lits,
				ir.Lit(c.reifyCmp(ir.Comparison{A: bv.start, Op: ir.Le, B: av.start})),
				ir.Lit(c.linCmp(
					[]ir.VarID{av.start, bv.start, bv.length},
					[]int{1, -1, -1}, ir.Le, -1)))
			vars = append(vars, c.boolAnd(lits...))
			coeffs = append(coeffs, x.Heights[j])
		}
		c.postLin(c.guards(a), vars, coeffs, ir.Le, x.Capacity-x.Heights[i])
	}
}

// profileEvent is one time point where the profile of a cumul function
// can change, with the literals that discharge it when its anchor
// interval is absent.
type profileEvent struct {
	t    linTerm
	lits []ir.Literal
}

// profileEvents lists the change points of f plus the origin. The
// profile is constant between consecutive events, so bounding it at
// every event bounds it everywhere.
func (c *compiler) profileEvents(f *model.CumulFunction) []profileEvent {
	evs := []profileEvent{{t: termConst(0)}}
	for _, a := range f.Atoms() {
		switch a.Kind {
		case model.AtomPulse:
			g := c.guards(a.Interval)
			evs = append(evs, profileEvent{t: c.termStart(a.Interval), lits: g})
			evs = append(evs, profileEvent{t: c.termEnd(a.Interval), lits: g})
		case model.AtomStepAtStart:
			evs = append(evs, profileEvent{t: c.termStart(a.Interval), lits: c.guards(a.Interval)})
		case model.AtomStepAtEnd:
			evs = append(evs, profileEvent{t: c.termEnd(a.Interval), lits: c.guards(a.Interval)})
		case model.AtomStepAt:
			evs = append(evs, profileEvent{t: termConst(a.Time)})
		}
	}
	return evs
}

// atomActive reifies whether atom a contributes at time point at. A
// pulse covers [start, end), steps persist from their anchor on.
func (c *compiler) atomActive(a model.CumulAtom, at linTerm) ir.VarID {
	if a.Kind == model.AtomStepAt {
		return c.termCmp(at, ir.Ge, a.Time)
	}
	lits := make([]ir.Literal, 0, 3)
	if a.Interval.Optional() {
		lits = append(lits, ir.Lit(c.vars(a.Interval).pres))
	}
	switch a.Kind {
	case model.AtomPulse:
		lits = append(lits,
			ir.Lit(c.termCmp(sub(at, c.termStart(a.Interval)), ir.Ge, 0)),
			ir.Lit(c.termCmp(sub(at, c.termEnd(a.Interval)), ir.Le, -1)))
	case model.AtomStepAtStart:
		lits = append(lits, ir.Lit(c.termCmp(sub(at, c.termStart(a.Interval)), ir.Ge, 0)))
	case model.AtomStepAtEnd:
		lits = append(lits, ir.Lit(c.termCmp(sub(at, c.termEnd(a.Interval)), ir.Ge, 0)))
	}
	if len(lits) == 1 {
		return lits[0].Var
	}
	return c.boolAnd(lits...)
}

type heightKey struct {
	f   *model.CumulFunction
	idx int
}

// atomHeight returns the chosen height of a variable-height atom,
// shared across every bound on the same function.
func (c *compiler) atomHeight(f *model.CumulFunction, idx int) ir.VarID {
	key := heightKey{f: f, idx: idx}
	if h, ok := c.heights[key]; ok {
		return h
	}
	a := f.Atoms()[idx]
	h := c.newAux(a.HeightLo, a.HeightHi)
	c.heights[key] = h
	return h
}

// profileAt builds the contribution sum of f at a time point. Fixed
// heights weight the activity boolean directly; a variable height h
// goes through a product variable z = h*active.
func (c *compiler) profileAt(f *model.CumulFunction, at linTerm) ([]ir.VarID, []int) {
	var vars []ir.VarID
	var coeffs []int
	for idx, a := range f.Atoms() {
		b := c.atomActive(a, at)
		sign := 1
		if a.Negated {
			sign = -1
		}
		if a.HeightLo == a.HeightHi {
			if a.HeightLo != 0 {
				vars = append(vars, b)
				coeffs = append(coeffs, sign*a.HeightLo)
			}
			continue
		}
		h := c.atomHeight(f, idx)
		hi := a.HeightHi
		z := c.newAux(0, hi)
		c.prog.Add(ir.LinearSum{Vars: []ir.VarID{z, b}, Coeffs: []int{1, -hi}, Op: ir.Le, K: 0})
		c.prog.Add(ir.Comparison{A: z, Op: ir.Le, B: h})
		c.prog.Add(ir.LinearSum{Vars: []ir.VarID{z, h, b}, Coeffs: []int{1, -1, -hi}, Op: ir.Ge, K: -hi})
		vars = append(vars, z)
		coeffs = append(coeffs, sign)
	}
	return vars, coeffs
}

// lowerCumulBound holds a cumul function inside its bound at every
// change point of its profile.
func (c *compiler) lowerCumulBound(x model.CumulBound) {
	for _, ev := range c.profileEvents(x.F) {
		vars, coeffs := c.profileAt(x.F, ev.t)
		g := guardSet(ev.lits)
		switch x.Kind {
		case model.CumulLEKind:
			c.postLin(g, vars, coeffs, ir.Le, x.Max)
		case model.CumulGEKind:
			c.postLin(g, vars, coeffs, ir.Ge, x.Min)
		default:
			c.postLin(g, vars, coeffs, ir.Le, x.Max)
			c.postLin(g, vars, coeffs, ir.Ge, x.Min)
		}
	}
}

// lowerAlwaysIn bounds a cumul function over a window, either fixed or
// an interval's extent. Each profile event is constrained only when it
// falls inside the window; the window start itself is an extra event
// so the incoming level is checked even when no atom changes there.
func (c *compiler) lowerAlwaysIn(x model.AlwaysInConstraint) {
	var winStart, winEnd linTerm
	var winLits []ir.Literal
	if x.Itv != nil {
		winStart, winEnd = c.termStart(x.Itv), c.termEnd(x.Itv)
		winLits = c.guards(x.Itv)
	} else {
		winStart, winEnd = termConst(x.From), termConst(x.To)
	}

	evs := c.profileEvents(x.F)
	evs = append(evs, profileEvent{t: winStart})
	for _, ev := range evs {
		inLo := c.termCmp(sub(ev.t, winStart), ir.Ge, 0)
		inHi := c.termCmp(sub(ev.t, winEnd), ir.Le, -1)
		g := make(guardSet, 0, len(ev.lits)+len(winLits)+2)
		g = append(g, ev.lits...)
		g = append(g, winLits...)
		g = append(g, ir.Not(inLo), ir.Not(inHi))
		vars, coeffs := c.profileAt(x.F, ev.t)
		c.postLin(g, vars, coeffs, ir.Ge, x.Min)
		c.postLin(g, vars, coeffs, ir.Le, x.Max)
	}
}
