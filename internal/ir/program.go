package ir

// VarID identifies a variable inside one Program. IDs are the append
// positions of NewVar, so a Program built in a fixed order always has the
// same ids.
type VarID int

// IntVar is a bounded integer variable.
type IntVar struct {
	ID   VarID
	Name string
	Lo   int
	Hi   int
}

// Bool reports whether the variable can only hold 0 or 1.
func (v IntVar) Bool() bool { return v.Lo >= 0 && v.Hi <= 1 }

// Objective selects a variable to optimize.
type Objective struct {
	Var      VarID
	Maximize bool
}

// Program is a complete primitive constraint program: variables,
// constraints, an optional objective, and the scheduling horizon the
// lowering ran under.
type Program struct {
	Vars        []IntVar
	Constraints []Constraint
	Objective   *Objective
	Horizon     int
}

// NewVar appends a variable and returns its id.
func (p *Program) NewVar(name string, lo, hi int) VarID {
	id := VarID(len(p.Vars))
	p.Vars = append(p.Vars, IntVar{ID: id, Name: name, Lo: lo, Hi: hi})
	return id
}

// NewBool appends a 0/1 variable and returns its id.
func (p *Program) NewBool(name string) VarID {
	return p.NewVar(name, 0, 1)
}

// NewConst appends a variable fixed to v.
func (p *Program) NewConst(name string, v int) VarID {
	return p.NewVar(name, v, v)
}

// Add appends a constraint.
func (p *Program) Add(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// Var returns the variable with the given id.
func (p *Program) Var(id VarID) IntVar {
	return p.Vars[int(id)]
}
