package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sohaibafifi/schedkit/internal/instance"
	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/lower"
	"github.com/sohaibafifi/schedkit/internal/model"
	"github.com/sohaibafifi/schedkit/internal/solve"
	"github.com/sohaibafifi/schedkit/internal/solve/gokano"
)

type options struct {
	adapter solve.Adapter
	timeout time.Duration
	logger  *slog.Logger
}

// Option adjusts how a scenario runs.
type Option func(*options)

// WithAdapter substitutes the solver backend. The default is the
// gokanlogic adapter.
func WithAdapter(a solve.Adapter) Option {
	return func(o *options) { o.adapter = a }
}

// WithTimeout bounds solver wall time for the scenario.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger routes harness and session logs. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario: load the instance directory, build and
// lower the named instance, solve it, then check the schedule against
// the scenario's expectations.
//
// Expectation failures land in the result's Errors and flip Pass to
// false. The returned error covers mechanical failures only, such as
// an unreadable instance or a crashed backend.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		adapter: gokano.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	loaded, errs := instance.Load(scenario.Dir, instance.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load instances from %s: %w", scenario.Dir, errs[0])
	}

	name := scenario.InstanceName()
	var inst *instance.Instance
	for _, in := range loaded.Instances {
		if in.Name == name {
			inst = in
			break
		}
	}
	if inst == nil {
		return nil, fmt.Errorf("instance %q not found in %s", name, scenario.Dir)
	}

	session, tasks, err := inst.Build(model.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build instance %q: %w", name, err)
	}
	program, err := lower.Compile(session)
	if err != nil {
		return nil, fmt.Errorf("failed to lower instance %q: %w", name, err)
	}

	res, err := o.adapter.Solve(context.Background(), program, solve.Options{
		Timeout: o.timeout,
		Workers: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", o.adapter.Name(), err)
	}
	sol := solve.Extract(session, program, res)

	result := NewResult()
	result.Solution = sol
	result.Tasks = tasks
	checkExpectations(scenario, sol, tasks, result)
	verifyAssignment(program, res, result)

	o.logger.Info("scenario finished",
		"name", scenario.Name,
		"outcome", sol.Outcome.String(),
		"pass", result.Pass,
	)
	return result, nil
}

func checkExpectations(scenario *Scenario, sol *solve.Solution, tasks map[string]*model.IntervalVar, result *Result) {
	want, _ := solve.ParseOutcome(scenario.Expect.Outcome)
	if sol.Outcome != want {
		result.AddError(fmt.Sprintf("outcome = %s, want %s", sol.Outcome, want))
		// Placement expectations say nothing useful under the wrong
		// outcome, so stop here.
		return
	}

	if scenario.Expect.Objective != nil {
		switch {
		case !sol.HasObjective:
			result.AddError("expected an objective value, solution has none")
		case sol.Objective != *scenario.Expect.Objective:
			result.AddError(fmt.Sprintf("objective = %d, want %d", sol.Objective, *scenario.Expect.Objective))
		}
	}

	for _, te := range scenario.Tasks {
		itv, ok := tasks[te.Name]
		if !ok {
			result.AddError(fmt.Sprintf("task %q: not in the instance", te.Name))
			continue
		}
		v := sol.Interval(itv)
		if te.Present != nil && *te.Present != (v != nil) {
			result.AddError(fmt.Sprintf("task %q: present = %t, want %t", te.Name, v != nil, *te.Present))
			continue
		}
		if v == nil {
			if te.Start != nil || te.End != nil || te.Length != nil || te.Size != nil {
				result.AddError(fmt.Sprintf("task %q: absent, cannot check placement", te.Name))
			}
			continue
		}
		checkField(result, te.Name, "start", te.Start, v.Start)
		checkField(result, te.Name, "end", te.End, v.End)
		checkField(result, te.Name, "length", te.Length, v.Length)
		checkField(result, te.Name, "size", te.Size, v.Size)
	}
}

func checkField(result *Result, task, field string, want *int, got int) {
	if want != nil && got != *want {
		result.AddError(fmt.Sprintf("task %q: %s = %d, want %d", task, field, got, *want))
	}
}

// verifyAssignment replays the raw assignment through the reference
// semantics. A backend bug that returns an inconsistent schedule fails
// here even when the fixture numbers happen to line up.
func verifyAssignment(p *ir.Program, res *solve.Result, result *Result) {
	if res.Assignment == nil {
		return
	}
	ok, err := p.Eval(res.Assignment)
	if err != nil {
		result.AddError(fmt.Sprintf("assignment check: %v", err))
		return
	}
	if !ok {
		result.AddError("assignment violates the lowered program")
	}
	if p.Objective != nil {
		if got := res.Assignment[p.Objective.Var]; got != res.Objective {
			result.AddError(fmt.Sprintf("objective variable = %d, adapter reported %d", got, res.Objective))
		}
	}
}
