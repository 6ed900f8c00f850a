package solve

import (
	"context"
	"strings"
	"time"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/lower"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// Outcome classifies the result of a solve.
type Outcome int

const (
	// Satisfiable: a feasible assignment was found for a decision problem.
	Satisfiable Outcome = iota
	// Optimal: the objective value of the assignment is proved best.
	Optimal
	// Unsatisfiable: no assignment exists.
	Unsatisfiable
	// TimeoutUnknown: the time limit expired first. The result may still
	// carry the best incumbent found.
	TimeoutUnknown
)

func (o Outcome) String() string {
	switch o {
	case Satisfiable:
		return "satisfiable"
	case Optimal:
		return "optimal"
	case Unsatisfiable:
		return "unsatisfiable"
	case TimeoutUnknown:
		return "timeout"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(s) {
	case "satisfiable":
		return Satisfiable, true
	case "optimal":
		return Optimal, true
	case "unsatisfiable":
		return Unsatisfiable, true
	case "timeout":
		return TimeoutUnknown, true
	}
	return 0, false
}

// Options configure one solve call.
type Options struct {
	// Timeout bounds solver wall time. Zero means no limit.
	Timeout time.Duration
	// Workers is the solver parallelism hint. Zero means one.
	Workers int
}

// Option mutates Options.
type Option func(*Options)

// WithTimeout bounds solver wall time.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithWorkers sets the solver parallelism hint.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// Result is an adapter's answer: the outcome, the raw assignment when
// one exists, and the solver wall time.
type Result struct {
	Outcome    Outcome
	Assignment ir.Assignment
	// Objective is the objective value of Assignment. Meaningful only
	// when the program has an objective and Assignment is non-nil.
	Objective int
	Wall      time.Duration
}

// Value returns the assigned value of a variable, 0 when unassigned.
func (r *Result) Value(id ir.VarID) int { return r.Assignment[id] }

// Adapter binds an external solver engine.
//
// Solve must honor ctx and opts.Timeout, return outcomes rather than
// errors for infeasible and timed-out programs, and wrap engine
// failures in *AdapterError.
type Adapter interface {
	Name() string
	Solve(ctx context.Context, p *ir.Program, opts Options) (*Result, error)
}

// Solve lowers the session, delegates to the adapter, and extracts the
// solution. Validation errors from lowering and adapter errors pass
// through; infeasibility and timeout come back as the solution outcome.
func Solve(ctx context.Context, s *model.Session, a Adapter, opts ...Option) (*Solution, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}

	p, err := lower.Compile(s)
	if err != nil {
		return nil, err
	}
	log := s.Logger()
	log.Debug("solving",
		"adapter", a.Name(),
		"vars", len(p.Vars),
		"constraints", len(p.Constraints),
		"horizon", p.Horizon)

	res, err := a.Solve(ctx, p, o)
	if err != nil {
		return nil, err
	}

	sol := Extract(s, p, res)
	log.Info("solve finished",
		"adapter", a.Name(),
		"outcome", sol.Outcome.String(),
		"wall", res.Wall)
	return sol, nil
}

// Extract turns a raw adapter result into per-interval values for the
// session that produced p. Variables are found by their allocation
// names; the size variable exists only for intensity intervals and
// falls back to the length otherwise. Callers that drive an adapter
// directly (rather than through Solve) use this to reconstruct the
// schedule.
func Extract(s *model.Session, p *ir.Program, res *Result) *Solution {
	sol := &Solution{
		Outcome:   res.Outcome,
		Objective: res.Objective,
		Wall:      res.Wall,
		horizon:   p.Horizon,
		intervals: make(map[*model.IntervalVar]*IntervalValue),
	}
	if res.Assignment == nil {
		return sol
	}
	sol.HasAssignment = true
	if p.Objective != nil {
		sol.HasObjective = true
	}

	byName := make(map[string]ir.VarID, len(p.Vars))
	for _, v := range p.Vars {
		byName[v.Name] = v.ID
	}

	for _, itv := range s.Intervals() {
		name := itv.Name()
		if res.Value(byName[name+".presence"]) == 0 {
			sol.intervals[itv] = nil
			continue
		}
		start := res.Value(byName[name+".start"])
		length := res.Value(byName[name+".length"])
		size := length
		if id, ok := byName[name+".size"]; ok {
			size = res.Value(id)
		}
		sol.intervals[itv] = &IntervalValue{
			Start:   start,
			End:     start + length,
			Length:  length,
			Size:    size,
			Present: true,
		}
	}
	return sol
}
