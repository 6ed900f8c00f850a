package ir

// Op is a comparison operator between integer values.
type Op int

const (
	Le Op = iota
	Lt
	Ge
	Gt
	Eq
	Ne
)

// String returns the operator spelling.
func (op Op) String() string {
	switch op {
	case Le:
		return "<="
	case Lt:
		return "<"
	case Ge:
		return ">="
	case Gt:
		return ">"
	case Eq:
		return "=="
	case Ne:
		return "!="
	default:
		return "?"
	}
}

// holds evaluates a op b.
func (op Op) holds(a, b int) bool {
	switch op {
	case Le:
		return a <= b
	case Lt:
		return a < b
	case Ge:
		return a >= b
	case Gt:
		return a > b
	case Eq:
		return a == b
	case Ne:
		return a != b
	default:
		return false
	}
}

// Constraint is a primitive constraint. The variant set is sealed; solver
// adapters switch over it exhaustively.
type Constraint interface {
	isConstraint()
}

// Literal is a possibly negated 0/1 variable. With Neg false the literal
// is true when the variable is 1.
type Literal struct {
	Var VarID
	Neg bool
}

// Lit returns the positive literal of v.
func Lit(v VarID) Literal { return Literal{Var: v} }

// Not returns the negated literal of v.
func Not(v VarID) Literal { return Literal{Var: v, Neg: true} }

// Comparison relates two variables: Value(A) + K op Value(B).
type Comparison struct {
	A  VarID
	Op Op
	B  VarID
	K  int
}

// Clause is a disjunction of literals. An empty clause is false. Presence
// guards are emitted as clauses.
type Clause struct {
	Lits []Literal
}

// Reified ties a 0/1 variable to a comparison: Value(Bool) == 1 exactly
// when C holds.
type Reified struct {
	Bool VarID
	C    Comparison
}

// LinearSum bounds a weighted sum: sum(Coeffs[i] * Value(Vars[i])) op K.
// Equality against a variable is expressed by giving that variable
// coefficient -1 and K = 0.
type LinearSum struct {
	Vars   []VarID
	Coeffs []int
	Op     Op
	K      int
}

// MinMax pins Target to the minimum or maximum of Vars.
type MinMax struct {
	IsMax  bool
	Target VarID
	Vars   []VarID
}

// Table restricts Vars to the listed tuples. An empty table is false.
type Table struct {
	Vars []VarID
	Rows [][]int
}

func (Comparison) isConstraint() {}
func (Clause) isConstraint()     {}
func (Reified) isConstraint()    {}
func (LinearSum) isConstraint()  {}
func (MinMax) isConstraint()     {}
func (Table) isConstraint()      {}
