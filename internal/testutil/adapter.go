package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

// ScriptStep produces one scripted adapter response. The step receives the
// lowered program so it can build its assignment from variable names.
type ScriptStep func(p *ir.Program, opts solve.Options) (*solve.Result, error)

// ScriptAdapter is a solve.Adapter that replays scripted steps in order.
//
// Orchestration tests use it to exercise solve.Solve without a real engine.
// Each call pops the next step; the adapter records the programs and options
// it saw for later assertions. A call past the last step fails the solve.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ScriptAdapter struct {
	mu       sync.Mutex
	name     string
	steps    []ScriptStep
	calls    int
	programs []*ir.Program
	options  []solve.Options
}

// NewScriptAdapter creates a ScriptAdapter replaying steps in order.
func NewScriptAdapter(name string, steps ...ScriptStep) *ScriptAdapter {
	return &ScriptAdapter{name: name, steps: steps}
}

// Name implements solve.Adapter.
func (a *ScriptAdapter) Name() string { return a.name }

// Solve implements solve.Adapter by replaying the next scripted step.
func (a *ScriptAdapter) Solve(ctx context.Context, p *ir.Program, opts solve.Options) (*solve.Result, error) {
	a.mu.Lock()
	i := a.calls
	a.calls++
	a.programs = append(a.programs, p)
	a.options = append(a.options, opts)
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i >= len(a.steps) {
		return nil, fmt.Errorf("testutil: adapter %q called %d times, only %d steps scripted", a.name, i+1, len(a.steps))
	}
	return a.steps[i](p, opts)
}

// Calls returns how many times Solve ran.
func (a *ScriptAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Program returns the lowered program the i-th call received.
func (a *ScriptAdapter) Program(i int) *ir.Program {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.programs[i]
}

// Options returns the options the i-th call received.
func (a *ScriptAdapter) Options(i int) solve.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.options[i]
}

// Solved scripts a result carrying an assignment built by NamedAssignment.
func Solved(outcome solve.Outcome, objective int, values map[string]int) ScriptStep {
	return func(p *ir.Program, _ solve.Options) (*solve.Result, error) {
		asg, err := NamedAssignment(p, values)
		if err != nil {
			return nil, err
		}
		return &solve.Result{Outcome: outcome, Assignment: asg, Objective: objective}, nil
	}
}

// Infeasible scripts an unsatisfiable result without an assignment.
func Infeasible() ScriptStep {
	return func(*ir.Program, solve.Options) (*solve.Result, error) {
		return &solve.Result{Outcome: solve.Unsatisfiable}, nil
	}
}

// TimedOut scripts a timeout without an incumbent.
func TimedOut() ScriptStep {
	return func(*ir.Program, solve.Options) (*solve.Result, error) {
		return &solve.Result{Outcome: solve.TimeoutUnknown}, nil
	}
}

// Failing scripts an adapter failure.
func Failing(err error) ScriptStep {
	return func(*ir.Program, solve.Options) (*solve.Result, error) {
		return nil, err
	}
}

// NamedAssignment builds an assignment from variable names. Every variable
// not named in values is filled with its lower bound, so pinned variables
// such as mandatory presences come out assigned without listing them.
func NamedAssignment(p *ir.Program, values map[string]int) (ir.Assignment, error) {
	byName := make(map[string]ir.VarID, len(p.Vars))
	out := make(ir.Assignment, len(p.Vars))
	for _, v := range p.Vars {
		byName[v.Name] = v.ID
		out[v.ID] = v.Lo
	}
	for name, val := range values {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("testutil: no variable named %q", name)
		}
		out[id] = val
	}
	return out, nil
}
