// Package gokano runs compiled scheduling programs on the gokanlogic
// finite-domain solver.
//
// The encoder maps the primitive constraint vocabulary onto the backend's
// propagators: comparisons become arithmetic links or inequalities,
// clauses become boolean sums over complement aliases, reified
// comparisons wrap the backend's reification, and intensity tables map
// to extensional tables. Decision programs run a first-solution search;
// programs with an objective run branch and bound.
package gokano

import (
	"context"
	"errors"
	"time"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

const adapterName = "gokano"

// Adapter implements solve.Adapter on gokanlogic.
type Adapter struct{}

// New creates the adapter. It is stateless; one instance serves any
// number of concurrent solves.
func New() *Adapter { return &Adapter{} }

// Name implements solve.Adapter.
func (*Adapter) Name() string { return adapterName }

// Solve implements solve.Adapter. Infeasibility and expired limits come
// back as outcomes; only unencodable programs and backend failures error.
// The workers option takes effect on objective searches, where the
// backend supports parallel branch and bound.
func (a *Adapter) Solve(ctx context.Context, p *ir.Program, opts solve.Options) (*solve.Result, error) {
	started := time.Now()

	enc, err := newEncoder(p)
	if err != nil {
		return nil, err
	}
	if err := enc.run(); err != nil {
		return nil, err
	}
	if enc.infeasible {
		return &solve.Result{Outcome: solve.Unsatisfiable, Wall: time.Since(started)}, nil
	}

	solver := minikanren.NewSolver(enc.model)
	if p.Objective != nil {
		return solveOptimal(ctx, solver, enc, opts, started)
	}
	return solveDecision(ctx, solver, enc, opts, started)
}

func solveDecision(ctx context.Context, solver *minikanren.Solver, enc *encoder, opts solve.Options, started time.Time) (*solve.Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sols, err := solver.Solve(ctx, 1)
	wall := time.Since(started)
	switch {
	case len(sols) > 0:
		return &solve.Result{Outcome: solve.Satisfiable, Assignment: enc.decode(sols[0]), Wall: wall}, nil
	case interrupted(err):
		return &solve.Result{Outcome: solve.TimeoutUnknown, Wall: wall}, nil
	case err != nil:
		return nil, &solve.AdapterError{Adapter: adapterName, Stage: "search", Message: "backend search failed", Err: err}
	default:
		return &solve.Result{Outcome: solve.Unsatisfiable, Wall: wall}, nil
	}
}

func solveOptimal(ctx context.Context, solver *minikanren.Solver, enc *encoder, opts solve.Options, started time.Time) (*solve.Result, error) {
	obj := enc.p.Objective
	var oopts []minikanren.OptimizeOption
	if opts.Timeout > 0 {
		oopts = append(oopts, minikanren.WithTimeLimit(opts.Timeout))
	}
	if opts.Workers > 1 {
		oopts = append(oopts, minikanren.WithParallelWorkers(opts.Workers))
	}

	sol, val, err := solver.SolveOptimalWithOptions(ctx, enc.vars[obj.Var], !obj.Maximize, oopts...)
	wall := time.Since(started)
	switch {
	case interrupted(err):
		res := &solve.Result{Outcome: solve.TimeoutUnknown, Wall: wall}
		if sol != nil {
			res.Assignment = enc.decode(sol)
			res.Objective = val - enc.shifts[obj.Var]
		}
		return res, nil
	case err != nil:
		return nil, &solve.AdapterError{Adapter: adapterName, Stage: "search", Message: "backend optimization failed", Err: err}
	case sol == nil:
		return &solve.Result{Outcome: solve.Unsatisfiable, Wall: wall}, nil
	default:
		return &solve.Result{
			Outcome:    solve.Optimal,
			Assignment: enc.decode(sol),
			Objective:  val - enc.shifts[obj.Var],
			Wall:       wall,
		}, nil
	}
}

// interrupted reports limit-style terminations: context expiry and the
// backend's own search limits. Both leave any incumbent valid.
func interrupted(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, minikanren.ErrSearchLimitReached)
}
