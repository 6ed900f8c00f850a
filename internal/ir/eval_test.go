package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintSealed(t *testing.T) {
	var _ Constraint = Comparison{}
	var _ Constraint = Clause{}
	var _ Constraint = Reified{}
	var _ Constraint = LinearSum{}
	var _ Constraint = MinMax{}
	var _ Constraint = Table{}
}

func TestEvalComparison(t *testing.T) {
	tests := []struct {
		name string
		c    Comparison
		a    Assignment
		want bool
	}{
		{"le holds", Comparison{A: 0, Op: Le, B: 1}, Assignment{0: 3, 1: 5}, true},
		{"le with offset", Comparison{A: 0, Op: Le, B: 1, K: 3}, Assignment{0: 3, 1: 5}, false},
		{"eq with offset", Comparison{A: 0, Op: Eq, B: 1, K: 2}, Assignment{0: 3, 1: 5}, true},
		{"ne", Comparison{A: 0, Op: Ne, B: 1}, Assignment{0: 4, 1: 4}, false},
		{"gt", Comparison{A: 0, Op: Gt, B: 1}, Assignment{0: 7, 1: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalConstraint(tt.c, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalClause(t *testing.T) {
	tests := []struct {
		name string
		c    Clause
		a    Assignment
		want bool
	}{
		{"positive literal true", Clause{Lits: []Literal{Lit(0)}}, Assignment{0: 1}, true},
		{"positive literal false", Clause{Lits: []Literal{Lit(0)}}, Assignment{0: 0}, false},
		{"negated literal", Clause{Lits: []Literal{Not(0)}}, Assignment{0: 0}, true},
		{
			"guard shape: all present, body true",
			Clause{Lits: []Literal{Not(0), Not(1), Lit(2)}},
			Assignment{0: 1, 1: 1, 2: 1},
			true,
		},
		{
			"guard shape: one absent discharges",
			Clause{Lits: []Literal{Not(0), Not(1), Lit(2)}},
			Assignment{0: 0, 1: 1, 2: 0},
			true,
		},
		{
			"guard shape: all present, body false",
			Clause{Lits: []Literal{Not(0), Not(1), Lit(2)}},
			Assignment{0: 1, 1: 1, 2: 0},
			false,
		},
		{"empty clause is false", Clause{}, Assignment{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalConstraint(tt.c, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalClauseRejectsNonBool(t *testing.T) {
	_, err := EvalConstraint(Clause{Lits: []Literal{Lit(0)}}, Assignment{0: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-bool")
}

func TestEvalReified(t *testing.T) {
	cmp := Comparison{A: 1, Op: Le, B: 2}

	tests := []struct {
		name string
		a    Assignment
		want bool
	}{
		{"bool 1, holds", Assignment{0: 1, 1: 2, 2: 5}, true},
		{"bool 0, violated", Assignment{0: 0, 1: 7, 2: 5}, true},
		{"bool 1, violated", Assignment{0: 1, 1: 7, 2: 5}, false},
		{"bool 0, holds", Assignment{0: 0, 1: 2, 2: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalConstraint(Reified{Bool: 0, C: cmp}, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalLinearSum(t *testing.T) {
	tests := []struct {
		name string
		c    LinearSum
		a    Assignment
		want bool
	}{
		{
			"weighted eq",
			LinearSum{Vars: []VarID{0, 1}, Coeffs: []int{2, 3}, Op: Eq, K: 13},
			Assignment{0: 2, 1: 3},
			true,
		},
		{
			"sum against variable via coefficient -1",
			LinearSum{Vars: []VarID{0, 1, 2}, Coeffs: []int{1, 1, -1}, Op: Eq, K: 0},
			Assignment{0: 4, 1: 6, 2: 10},
			true,
		},
		{
			"le violated",
			LinearSum{Vars: []VarID{0}, Coeffs: []int{1}, Op: Le, K: 3},
			Assignment{0: 4},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalConstraint(tt.c, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalMinMax(t *testing.T) {
	a := Assignment{0: 3, 1: 7, 2: 2, 3: 2}

	min, err := EvalConstraint(MinMax{Target: 3, Vars: []VarID{0, 1, 2}}, a)
	require.NoError(t, err)
	assert.True(t, min)

	max, err := EvalConstraint(MinMax{IsMax: true, Target: 1, Vars: []VarID{0, 1, 2}}, a)
	require.NoError(t, err)
	assert.True(t, max)

	wrong, err := EvalConstraint(MinMax{IsMax: true, Target: 0, Vars: []VarID{0, 1, 2}}, a)
	require.NoError(t, err)
	assert.False(t, wrong)
}

func TestEvalTable(t *testing.T) {
	table := Table{
		Vars: []VarID{0, 1},
		Rows: [][]int{{0, 4}, {2, 5}, {3, 1}},
	}

	ok, err := EvalConstraint(table, Assignment{0: 2, 1: 5})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalConstraint(table, Assignment{0: 2, 1: 4})
	require.NoError(t, err)
	assert.False(t, ok)

	// An empty table is unsatisfiable no matter the assignment.
	ok, err = EvalConstraint(Table{Vars: []VarID{0}}, Assignment{0: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProgramEval(t *testing.T) {
	var p Program
	x := p.NewVar("x", 0, 10)
	y := p.NewVar("y", 0, 10)
	eight := p.NewConst("eight", 8)
	p.Add(Comparison{A: x, Op: Le, B: y, K: 2})
	p.Add(Comparison{A: y, Op: Le, B: eight})

	t.Run("satisfied", func(t *testing.T) {
		ok, err := p.Eval(Assignment{x: 1, y: 4, eight: 8})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("constraint violated", func(t *testing.T) {
		ok, err := p.Eval(Assignment{x: 7, y: 4, eight: 8})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("out of bounds", func(t *testing.T) {
		ok, err := p.Eval(Assignment{x: 1, y: 11, eight: 8})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unassigned variable", func(t *testing.T) {
		_, err := p.Eval(Assignment{x: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unassigned")
	})
}

func TestProgramIDsAreAppendOrder(t *testing.T) {
	var p Program
	a := p.NewVar("a", 0, 1)
	b := p.NewBool("b")
	c := p.NewConst("c", 7)

	assert.Equal(t, VarID(0), a)
	assert.Equal(t, VarID(1), b)
	assert.Equal(t, VarID(2), c)
	assert.True(t, p.Var(b).Bool())
	assert.False(t, p.Var(c).Bool())
	assert.Equal(t, 7, p.Var(c).Lo)
}

func TestFingerprintStable(t *testing.T) {
	build := func() *Program {
		var p Program
		x := p.NewVar("x", 0, 10)
		y := p.NewVar("y", 0, 10)
		p.Add(Comparison{A: x, Op: Le, B: y})
		p.Horizon = 20
		return &p
	}

	a := build()
	b := build()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// Any structural change must change the fingerprint.
	c := build()
	c.Add(Clause{Lits: []Literal{Lit(0)}})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := build()
	d.Vars[0].Name = "renamed"
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
