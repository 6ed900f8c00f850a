package ir

import "fmt"

// Assignment maps variables to values. Complete assignments cover every
// variable of the program they are checked against.
type Assignment map[VarID]int

// Eval checks a complete assignment against the whole program: every
// variable within bounds, every constraint satisfied. It is the reference
// semantics for the primitive constraints; solver results are checked
// through it.
func (p *Program) Eval(a Assignment) (bool, error) {
	for _, v := range p.Vars {
		val, ok := a[v.ID]
		if !ok {
			return false, fmt.Errorf("eval: variable %d (%s) unassigned", v.ID, v.Name)
		}
		if val < v.Lo || val > v.Hi {
			return false, nil
		}
	}
	for i, c := range p.Constraints {
		ok, err := EvalConstraint(c, a)
		if err != nil {
			return false, fmt.Errorf("eval: constraint %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// EvalConstraint checks one constraint against an assignment.
func EvalConstraint(c Constraint, a Assignment) (bool, error) {
	switch x := c.(type) {
	case Comparison:
		av, err := lookup(a, x.A)
		if err != nil {
			return false, err
		}
		bv, err := lookup(a, x.B)
		if err != nil {
			return false, err
		}
		return x.Op.holds(av+x.K, bv), nil

	case Clause:
		for _, lit := range x.Lits {
			v, err := lookup(a, lit.Var)
			if err != nil {
				return false, err
			}
			if v != 0 && v != 1 {
				return false, fmt.Errorf("literal over non-bool value %d", v)
			}
			if (v == 1) != lit.Neg {
				return true, nil
			}
		}
		return false, nil

	case Reified:
		b, err := lookup(a, x.Bool)
		if err != nil {
			return false, err
		}
		if b != 0 && b != 1 {
			return false, fmt.Errorf("reified bool holds non-bool value %d", b)
		}
		holds, err := EvalConstraint(x.C, a)
		if err != nil {
			return false, err
		}
		return (b == 1) == holds, nil

	case LinearSum:
		if len(x.Vars) != len(x.Coeffs) {
			return false, fmt.Errorf("linear sum: %d vars, %d coeffs", len(x.Vars), len(x.Coeffs))
		}
		sum := 0
		for i, id := range x.Vars {
			v, err := lookup(a, id)
			if err != nil {
				return false, err
			}
			sum += x.Coeffs[i] * v
		}
		return x.Op.holds(sum, x.K), nil

	case MinMax:
		if len(x.Vars) == 0 {
			return false, fmt.Errorf("min/max over no variables")
		}
		t, err := lookup(a, x.Target)
		if err != nil {
			return false, err
		}
		best, err := lookup(a, x.Vars[0])
		if err != nil {
			return false, err
		}
		for _, id := range x.Vars[1:] {
			v, err := lookup(a, id)
			if err != nil {
				return false, err
			}
			if x.IsMax && v > best || !x.IsMax && v < best {
				best = v
			}
		}
		return t == best, nil

	case Table:
		tuple := make([]int, len(x.Vars))
		for i, id := range x.Vars {
			v, err := lookup(a, id)
			if err != nil {
				return false, err
			}
			tuple[i] = v
		}
		for _, row := range x.Rows {
			if len(row) != len(tuple) {
				return false, fmt.Errorf("table row has %d values for %d vars", len(row), len(tuple))
			}
			if equalTuple(row, tuple) {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown constraint type %T", c)
	}
}

func lookup(a Assignment, id VarID) (int, error) {
	v, ok := a[id]
	if !ok {
		return 0, fmt.Errorf("variable %d unassigned", id)
	}
	return v, nil
}

func equalTuple(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
