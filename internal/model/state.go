package model

// Forbidden marks a transition that may never occur.
const Forbidden = -1

// TransitionMatrix holds minimum switch-over times between types or
// states. Entry [i][j] is the minimum gap when j follows i; Forbidden
// rules the transition out entirely.
type TransitionMatrix struct {
	rows [][]int
}

// NewTransitionMatrix validates and copies a square matrix. Entries must
// be >= 0 or Forbidden.
func NewTransitionMatrix(rows [][]int) (*TransitionMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, validationf("transitions", "empty matrix")
	}
	copied := make([][]int, n)
	for i, row := range rows {
		if len(row) != n {
			return nil, validationf("transitions", "row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 && v != Forbidden {
				return nil, validationf("transitions", "entry [%d][%d] = %d; use %d to forbid", i, j, v, Forbidden)
			}
		}
		copied[i] = append([]int(nil), row...)
	}
	return &TransitionMatrix{rows: copied}, nil
}

// Size returns the number of types covered.
func (m *TransitionMatrix) Size() int { return len(m.rows) }

// At returns the entry for the transition from -> to.
func (m *TransitionMatrix) At(from, to int) int { return m.rows[from][to] }

// Rows returns a deep copy of the matrix.
func (m *TransitionMatrix) Rows() [][]int {
	out := make([][]int, len(m.rows))
	for i, row := range m.rows {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// StateFunction tracks the state of a resource over time. Intervals
// constrain it through the RequireState variants and SetState; the number
// of states is the transition matrix size, or inferred from the largest
// state named.
type StateFunction struct {
	session     *Session
	id          int
	name        string
	transitions *TransitionMatrix
}

type stateConfig struct {
	name        string
	transitions *TransitionMatrix
}

// StateOption configures NewStateFunction.
type StateOption func(*stateConfig)

// WithStateName names the state function.
func WithStateName(name string) StateOption {
	return func(c *stateConfig) { c.name = name }
}

// WithTransitions attaches a transition matrix over the states.
func WithTransitions(m *TransitionMatrix) StateOption {
	return func(c *stateConfig) { c.transitions = m }
}

// NewStateFunction declares a state function on the session.
func (s *Session) NewStateFunction(opts ...StateOption) (*StateFunction, error) {
	var cfg stateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	name, err := s.register(cfg.name, "_state_")
	if err != nil {
		return nil, err
	}
	f := &StateFunction{
		session:     s,
		id:          len(s.stateFuncs),
		name:        name,
		transitions: cfg.transitions,
	}
	s.stateFuncs = append(s.stateFuncs, f)
	return f, nil
}

// Name returns the registered name.
func (f *StateFunction) Name() string { return f.name }

// ID returns the per-session declaration index.
func (f *StateFunction) ID() int { return f.id }

// Transitions returns the attached matrix, nil when none.
func (f *StateFunction) Transitions() *TransitionMatrix { return f.transitions }
