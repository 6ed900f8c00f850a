package gokano

import (
	"fmt"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

// maxDomainValue bounds the largest 1-based value any encoded variable may
// take. Bitset domains allocate storage up to their maximum value, so a
// variable spanning an oversized horizon is rejected instead of encoded.
const maxDomainValue = 1 << 20

// encoder translates one program into a gokanlogic model. The backend works
// on 1-based bitset domains: integer variables shift by 1-Lo into positive
// range, and 0/1 variables map onto the backend's {1,2} boolean convention
// (1 false, 2 true) so reification and boolean sums line up.
//
// Program variables are created first, in id order, so a solution row's
// leading entries decode positionally. Auxiliary variables (negation
// aliases, offset copies, slacks) follow and are never decoded.
type encoder struct {
	p     *ir.Program
	model *minikanren.Model

	vars   []*minikanren.FDVariable
	shifts []int

	one   *minikanren.FDVariable
	three *minikanren.FDVariable
	negs  map[ir.VarID]*minikanren.FDVariable
	lifts map[liftKey]*minikanren.FDVariable

	// infeasible marks a constraint that can never hold; the solve
	// short-circuits to an unsatisfiable outcome without searching.
	infeasible bool
}

type liftKey struct {
	v     ir.VarID
	delta int
}

func newEncoder(p *ir.Program) (*encoder, error) {
	e := &encoder{
		p:      p,
		model:  minikanren.NewModel(),
		vars:   make([]*minikanren.FDVariable, len(p.Vars)),
		shifts: make([]int, len(p.Vars)),
		negs:   make(map[ir.VarID]*minikanren.FDVariable),
		lifts:  make(map[liftKey]*minikanren.FDVariable),
	}
	for i, v := range p.Vars {
		shift := 1 - v.Lo
		if v.Bool() {
			shift = 1
		}
		e.shifts[i] = shift
		if v.Lo > v.Hi {
			// Placeholder keeps ids aligned; never searched.
			e.infeasible = true
			e.vars[i] = e.model.NewVariableWithName(minikanren.NewBitSetDomain(1), v.Name)
			continue
		}
		if v.Hi+shift > maxDomainValue {
			return nil, e.fail("variable %s spans [%d,%d], beyond the backend's %d-value domain limit",
				v.Name, v.Lo, v.Hi, maxDomainValue)
		}
		e.vars[i] = e.model.NewVariableWithName(rangeDomain(v.Lo+shift, v.Hi+shift), v.Name)
	}
	return e, nil
}

func rangeDomain(lo, hi int) *minikanren.BitSetDomain {
	if lo == 1 {
		return minikanren.NewBitSetDomain(hi)
	}
	values := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, v)
	}
	return minikanren.NewBitSetDomainFromValues(hi, values)
}

// run encodes every constraint. Constraints found impossible set the
// infeasible flag and stop the walk; errors report shapes the backend
// cannot represent.
func (e *encoder) run() error {
	for _, c := range e.p.Constraints {
		if e.infeasible {
			return nil
		}
		var err error
		switch x := c.(type) {
		case ir.Comparison:
			err = e.comparison(x)
		case ir.Clause:
			err = e.clause(x)
		case ir.Reified:
			err = e.reified(x)
		case ir.LinearSum:
			err = e.linearSum(x)
		case ir.MinMax:
			err = e.minMax(x)
		case ir.Table:
			err = e.table(x)
		default:
			err = e.fail("unhandled constraint %T", c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) comparison(c ir.Comparison) error {
	if c.Op == ir.Eq {
		arith, err := minikanren.NewArithmetic(e.vars[c.A], e.vars[c.B], e.offset(c))
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(arith)
		return nil
	}
	u, w, err := e.ineqPair(c.A, c.K, c.B)
	if err != nil {
		return err
	}
	ineq, err := minikanren.NewInequality(u, w, kindOf(c.Op))
	if err != nil {
		return e.wrap(err)
	}
	e.model.AddConstraint(ineq)
	return nil
}

func (e *encoder) clause(c ir.Clause) error {
	if len(c.Lits) == 0 {
		e.infeasible = true
		return nil
	}
	lits := make([]*minikanren.FDVariable, 0, len(c.Lits))
	for _, l := range c.Lits {
		if !e.p.Vars[l.Var].Bool() {
			return e.fail("clause literal over non-boolean variable %s", e.p.Vars[l.Var].Name)
		}
		fd := e.vars[l.Var]
		if l.Neg {
			var err error
			if fd, err = e.negOf(l.Var); err != nil {
				return err
			}
		}
		lits = append(lits, fd)
	}
	total, err := e.auxVar("", 2, len(lits)+1)
	if err != nil {
		return err
	}
	sum, err := minikanren.NewBoolSum(lits, total)
	if err != nil {
		return e.wrap(err)
	}
	e.model.AddConstraint(sum)
	return nil
}

func (e *encoder) reified(c ir.Reified) error {
	if !e.p.Vars[c.Bool].Bool() {
		return e.fail("reified truth variable %s is not boolean", e.p.Vars[c.Bool].Name)
	}
	var inner minikanren.PropagationConstraint
	if c.C.Op == ir.Eq {
		arith, err := minikanren.NewArithmetic(e.vars[c.C.A], e.vars[c.C.B], e.offset(c.C))
		if err != nil {
			return e.wrap(err)
		}
		inner = arith
	} else {
		u, w, err := e.ineqPair(c.C.A, c.C.K, c.C.B)
		if err != nil {
			return err
		}
		ineq, err := minikanren.NewInequality(u, w, kindOf(c.C.Op))
		if err != nil {
			return e.wrap(err)
		}
		inner = ineq
	}
	rc, err := minikanren.NewReifiedConstraint(inner, e.vars[c.Bool])
	if err != nil {
		return e.wrap(err)
	}
	e.model.AddConstraint(rc)
	return nil
}

func (e *encoder) linearSum(c ir.LinearSum) error {
	op, k := c.Op, c.K
	switch op {
	case ir.Lt:
		op, k = ir.Le, k-1
	case ir.Gt:
		op, k = ir.Ge, k+1
	}
	if len(c.Vars) == 0 {
		if !opHolds(op, 0, k) {
			e.infeasible = true
		}
		return nil
	}

	// Shifted relation: sum a[i]*fd[i] op k + sum a[i]*shift[i].
	target := k
	for i, v := range c.Vars {
		target += c.Coeffs[i] * e.shifts[v]
	}
	lo, hi := e.sumBounds(c.Vars, c.Coeffs)
	fvars := make([]*minikanren.FDVariable, 0, len(c.Vars)+1)
	for _, v := range c.Vars {
		fvars = append(fvars, e.vars[v])
	}

	switch op {
	case ir.Eq:
		if target < lo || target > hi {
			e.infeasible = true
			return nil
		}
		if lo == hi {
			return nil
		}
		coeffs := append(append([]int(nil), c.Coeffs...), 1-target)
		sum, err := minikanren.NewLinearSum(append(fvars, e.constOne()), coeffs, e.constOne())
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(sum)

	case ir.Le:
		if hi <= target {
			return nil
		}
		if lo > target {
			e.infeasible = true
			return nil
		}
		slack, err := e.auxVar("", 1, target-lo+1)
		if err != nil {
			return err
		}
		coeffs := make([]int, 0, len(c.Coeffs)+1)
		for _, a := range c.Coeffs {
			coeffs = append(coeffs, -a)
		}
		coeffs = append(coeffs, target+1)
		sum, err := minikanren.NewLinearSum(append(fvars, e.constOne()), coeffs, slack)
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(sum)

	case ir.Ge:
		if lo >= target {
			return nil
		}
		if hi < target {
			e.infeasible = true
			return nil
		}
		slack, err := e.auxVar("", 1, hi-target+1)
		if err != nil {
			return err
		}
		coeffs := append(append([]int(nil), c.Coeffs...), 1-target)
		sum, err := minikanren.NewLinearSum(append(fvars, e.constOne()), coeffs, slack)
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(sum)

	case ir.Ne:
		if target < lo || target > hi {
			return nil
		}
		pad := 0
		if lo < 1 {
			pad = 1 - lo
		}
		tv, err := e.auxVar("", lo+pad, hi+pad)
		if err != nil {
			return err
		}
		coeffs := append(append([]int(nil), c.Coeffs...), pad)
		sum, err := minikanren.NewLinearSum(append(fvars, e.constOne()), coeffs, tv)
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(sum)
		cv, err := e.auxVar("", target+pad, target+pad)
		if err != nil {
			return err
		}
		ineq, err := minikanren.NewInequality(tv, cv, minikanren.NotEqual)
		if err != nil {
			return e.wrap(err)
		}
		e.model.AddConstraint(ineq)
	}
	return nil
}

func (e *encoder) minMax(c ir.MinMax) error {
	if len(c.Vars) == 0 {
		return e.fail("min/max over no variables")
	}
	common := e.shifts[c.Target]
	for _, v := range c.Vars {
		if s := e.shifts[v]; s > common {
			common = s
		}
	}
	tgt, err := e.lift(c.Target, common-e.shifts[c.Target])
	if err != nil {
		return err
	}
	fvars := make([]*minikanren.FDVariable, 0, len(c.Vars))
	for _, v := range c.Vars {
		fd, err := e.lift(v, common-e.shifts[v])
		if err != nil {
			return err
		}
		fvars = append(fvars, fd)
	}
	var pc minikanren.PropagationConstraint
	if c.IsMax {
		pc, err = minikanren.NewMax(fvars, tgt)
	} else {
		pc, err = minikanren.NewMin(fvars, tgt)
	}
	if err != nil {
		return e.wrap(err)
	}
	e.model.AddConstraint(pc)
	return nil
}

func (e *encoder) table(c ir.Table) error {
	if len(c.Rows) == 0 {
		e.infeasible = true
		return nil
	}
	rows := make([][]int, 0, len(c.Rows))
	for _, row := range c.Rows {
		out := make([]int, len(row))
		ok := true
		for i, v := range row {
			f := v + e.shifts[c.Vars[i]]
			if f < e.fdLo(c.Vars[i]) || f > e.fdHi(c.Vars[i]) {
				ok = false
				break
			}
			out[i] = f
		}
		if ok {
			rows = append(rows, out)
		}
	}
	if len(rows) == 0 {
		e.infeasible = true
		return nil
	}
	fvars := make([]*minikanren.FDVariable, len(c.Vars))
	for i, v := range c.Vars {
		fvars[i] = e.vars[v]
	}
	tab, err := minikanren.NewTable(fvars, rows)
	if err != nil {
		return e.wrap(err)
	}
	e.model.AddConstraint(tab)
	return nil
}

// ineqPair returns variables u, w with (u op w) equivalent to
// Value(a) + k op Value(b). When the shifted offset cannot fold away,
// both sides move into positive range through offset copies.
func (e *encoder) ineqPair(a ir.VarID, k int, b ir.VarID) (u, w *minikanren.FDVariable, err error) {
	kAdj := k + e.shifts[b] - e.shifts[a]
	if kAdj == 0 {
		return e.vars[a], e.vars[b], nil
	}
	pad := 0
	if lo := e.fdLo(a) + kAdj; lo < 1 {
		pad = 1 - lo
	}
	if u, err = e.lift(a, kAdj+pad); err != nil {
		return nil, nil, err
	}
	if w, err = e.lift(b, pad); err != nil {
		return nil, nil, err
	}
	return u, w, nil
}

// lift returns a variable pinned to vars[v] + delta.
func (e *encoder) lift(v ir.VarID, delta int) (*minikanren.FDVariable, error) {
	if delta == 0 {
		return e.vars[v], nil
	}
	key := liftKey{v: v, delta: delta}
	if fd, ok := e.lifts[key]; ok {
		return fd, nil
	}
	u, err := e.auxVar(fmt.Sprintf("%s%+d", e.p.Vars[v].Name, delta), e.fdLo(v)+delta, e.fdHi(v)+delta)
	if err != nil {
		return nil, err
	}
	arith, err := minikanren.NewArithmetic(e.vars[v], u, delta)
	if err != nil {
		return nil, e.wrap(err)
	}
	e.model.AddConstraint(arith)
	e.lifts[key] = u
	return u, nil
}

// negOf returns the complement alias of a boolean variable, defined once
// per variable through vars[v] + alias = 3.
func (e *encoder) negOf(v ir.VarID) (*minikanren.FDVariable, error) {
	if fd, ok := e.negs[v]; ok {
		return fd, nil
	}
	nv, err := e.auxVar(e.p.Vars[v].Name+".not", 3-e.fdHi(v), 3-e.fdLo(v))
	if err != nil {
		return nil, err
	}
	sum, err := minikanren.NewLinearSum(
		[]*minikanren.FDVariable{e.vars[v], nv}, []int{1, 1}, e.constThree())
	if err != nil {
		return nil, e.wrap(err)
	}
	e.model.AddConstraint(sum)
	e.negs[v] = nv
	return nv, nil
}

func (e *encoder) auxVar(name string, lo, hi int) (*minikanren.FDVariable, error) {
	if lo < 1 || hi < lo {
		return nil, e.fail("internal: auxiliary domain [%d,%d]", lo, hi)
	}
	if hi > maxDomainValue {
		return nil, e.fail("auxiliary domain [%d,%d] beyond the %d-value limit", lo, hi, maxDomainValue)
	}
	return e.model.NewVariableWithName(rangeDomain(lo, hi), name), nil
}

func (e *encoder) constOne() *minikanren.FDVariable {
	if e.one == nil {
		e.one = e.model.NewVariableWithName(minikanren.NewBitSetDomain(1), "_one")
	}
	return e.one
}

func (e *encoder) constThree() *minikanren.FDVariable {
	if e.three == nil {
		e.three = e.model.NewVariableWithName(
			minikanren.NewBitSetDomainFromValues(3, []int{3}), "_three")
	}
	return e.three
}

func (e *encoder) decode(row []int) ir.Assignment {
	out := make(ir.Assignment, len(e.p.Vars))
	for i := range e.p.Vars {
		out[ir.VarID(i)] = row[i] - e.shifts[i]
	}
	return out
}

func (e *encoder) offset(c ir.Comparison) int {
	return c.K + e.shifts[c.B] - e.shifts[c.A]
}

func (e *encoder) fdLo(v ir.VarID) int { return e.p.Vars[v].Lo + e.shifts[v] }
func (e *encoder) fdHi(v ir.VarID) int { return e.p.Vars[v].Hi + e.shifts[v] }

// sumBounds returns the reachable range of the shifted weighted sum.
func (e *encoder) sumBounds(vars []ir.VarID, coeffs []int) (lo, hi int) {
	for i, v := range vars {
		if a := coeffs[i]; a >= 0 {
			lo += a * e.fdLo(v)
			hi += a * e.fdHi(v)
		} else {
			lo += a * e.fdHi(v)
			hi += a * e.fdLo(v)
		}
	}
	return lo, hi
}

func (e *encoder) fail(format string, args ...any) error {
	return &solve.AdapterError{
		Adapter: adapterName,
		Stage:   "encode",
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *encoder) wrap(err error) error {
	return &solve.AdapterError{
		Adapter: adapterName,
		Stage:   "encode",
		Message: "backend rejected constraint",
		Err:     err,
	}
}

func kindOf(op ir.Op) minikanren.InequalityKind {
	switch op {
	case ir.Le:
		return minikanren.LessEqual
	case ir.Lt:
		return minikanren.LessThan
	case ir.Ge:
		return minikanren.GreaterEqual
	case ir.Gt:
		return minikanren.GreaterThan
	default:
		return minikanren.NotEqual
	}
}

func opHolds(op ir.Op, a, k int) bool {
	switch op {
	case ir.Le:
		return a <= k
	case ir.Ge:
		return a >= k
	case ir.Eq:
		return a == k
	case ir.Ne:
		return a != k
	}
	return false
}
