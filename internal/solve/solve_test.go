package solve_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/model"
	"github.com/sohaibafifi/schedkit/internal/solve"
	"github.com/sohaibafifi/schedkit/internal/testutil"
)

func mustInterval(t *testing.T, s *model.Session, opts ...model.IntervalOption) *model.IntervalVar {
	t.Helper()
	itv, err := s.NewInterval(opts...)
	require.NoError(t, err)
	return itv
}

func TestSolveExtractsIntervals(t *testing.T) {
	s := model.NewSession(model.WithHorizon(20))
	a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(4)))
	b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(3)), model.Optional())
	c := mustInterval(t, s, model.WithName("c"),
		model.WithIntensity([]model.Step{{0, 50}}, 100),
		model.WithSize(model.Between(0, 5)))

	ad := testutil.NewScriptAdapter("fake",
		testutil.Solved(solve.Satisfiable, 0, map[string]int{
			"a.start": 2,
			"c.start": 0, "c.size": 2, "c.length": 4,
		}))

	sol, err := solve.Solve(context.Background(), s, ad)
	require.NoError(t, err)
	assert.Equal(t, solve.Satisfiable, sol.Outcome)
	require.True(t, sol.HasAssignment)
	assert.False(t, sol.HasObjective)

	av := sol.Interval(a)
	require.NotNil(t, av)
	assert.Equal(t, 2, av.Start)
	assert.Equal(t, 6, av.End)
	assert.Equal(t, 4, av.Length)
	assert.Equal(t, 4, av.Size, "size aliases length without an intensity")
	assert.True(t, av.Present)

	assert.Nil(t, sol.Interval(b), "optional interval left absent")

	cv := sol.Interval(c)
	require.NotNil(t, cv)
	assert.Equal(t, 2, cv.Size, "intensity interval reads its own size variable")
	assert.Equal(t, 4, cv.Length)
}

func TestSolveObjective(t *testing.T) {
	s := model.NewSession(model.WithHorizon(20))
	a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(4)))
	s.Minimize(model.Makespan(a))

	ad := testutil.NewScriptAdapter("fake",
		testutil.Solved(solve.Optimal, 4, map[string]int{"a.start": 0}))

	sol, err := solve.Solve(context.Background(), s, ad)
	require.NoError(t, err)
	assert.Equal(t, solve.Optimal, sol.Outcome)
	require.True(t, sol.HasObjective)
	assert.Equal(t, 4, sol.Objective)
}

func TestSolveOutcomes(t *testing.T) {
	build := func(t *testing.T) (*model.Session, *model.IntervalVar) {
		s := model.NewSession(model.WithHorizon(10))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(2)))
		return s, a
	}

	t.Run("unsatisfiable has no assignment", func(t *testing.T) {
		s, a := build(t)
		ad := testutil.NewScriptAdapter("fake", testutil.Infeasible())

		sol, err := solve.Solve(context.Background(), s, ad)
		require.NoError(t, err)
		assert.Equal(t, solve.Unsatisfiable, sol.Outcome)
		assert.False(t, sol.HasAssignment)
		assert.Nil(t, sol.Interval(a))

		_, err = sol.Value(model.StartOf(a, 0))
		assert.Error(t, err)
	})

	t.Run("timeout without incumbent", func(t *testing.T) {
		s, _ := build(t)
		ad := testutil.NewScriptAdapter("fake", testutil.TimedOut())

		sol, err := solve.Solve(context.Background(), s, ad)
		require.NoError(t, err)
		assert.Equal(t, solve.TimeoutUnknown, sol.Outcome)
		assert.False(t, sol.HasAssignment)
	})

	t.Run("timeout with incumbent keeps the assignment", func(t *testing.T) {
		s, a := build(t)
		ad := testutil.NewScriptAdapter("fake",
			testutil.Solved(solve.TimeoutUnknown, 0, map[string]int{"a.start": 3}))

		sol, err := solve.Solve(context.Background(), s, ad)
		require.NoError(t, err)
		assert.Equal(t, solve.TimeoutUnknown, sol.Outcome)
		require.True(t, sol.HasAssignment)
		assert.Equal(t, 3, sol.Interval(a).Start)
	})
}

func TestSolveAdapterFailure(t *testing.T) {
	s := model.NewSession(model.WithHorizon(10))
	mustInterval(t, s, model.WithName("a"))

	cause := &solve.AdapterError{Adapter: "fake", Stage: "search", Message: "backend gave up"}
	ad := testutil.NewScriptAdapter("fake", testutil.Failing(cause))

	sol, err := solve.Solve(context.Background(), s, ad)
	assert.Nil(t, sol)
	require.Error(t, err)
	assert.True(t, solve.IsAdapterError(err))
}

func TestSolveOptions(t *testing.T) {
	build := func(t *testing.T) *model.Session {
		s := model.NewSession(model.WithHorizon(10))
		mustInterval(t, s, model.WithName("a"))
		return s
	}

	t.Run("workers default to one", func(t *testing.T) {
		ad := testutil.NewScriptAdapter("fake", testutil.Infeasible())
		_, err := solve.Solve(context.Background(), build(t), ad)
		require.NoError(t, err)
		assert.Equal(t, 1, ad.Options(0).Workers)
		assert.Equal(t, time.Duration(0), ad.Options(0).Timeout)
	})

	t.Run("explicit options pass through", func(t *testing.T) {
		ad := testutil.NewScriptAdapter("fake", testutil.Infeasible())
		_, err := solve.Solve(context.Background(), build(t), ad,
			solve.WithWorkers(4), solve.WithTimeout(time.Second))
		require.NoError(t, err)
		assert.Equal(t, 4, ad.Options(0).Workers)
		assert.Equal(t, time.Second, ad.Options(0).Timeout)
	})
}

func TestSolutionValues(t *testing.T) {
	s := model.NewSession(model.WithHorizon(30))
	a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(2)))
	b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(2)), model.Optional())
	c := mustInterval(t, s, model.WithName("c"), model.WithLength(model.Exactly(2)))
	seq, err := s.NewSequence([]*model.IntervalVar{a, b, c}, model.WithTypes([]int{4, 5, 6}))
	require.NoError(t, err)

	ad := testutil.NewScriptAdapter("fake",
		testutil.Solved(solve.Satisfiable, 0, map[string]int{
			"a.start": 0,
			"c.start": 8,
		}))
	sol, err := solve.Solve(context.Background(), s, ad)
	require.NoError(t, err)

	cases := []struct {
		name string
		expr model.Expr
		want int
	}{
		{"start", model.StartOf(a, -1), 0},
		{"end", model.EndOf(c, -1), 10},
		{"absent accessor", model.StartOf(b, -1), -1},
		{"presence", model.PresenceOf(b), 0},
		{"sum", model.Sum(model.StartOf(c, 0), model.Lit(5)), 13},
		{"sub", model.Sub(model.EndOf(c, 0), model.StartOf(a, 0)), 10},
		{"neg", model.Neg(model.StartOf(c, 0)), -8},
		{"min", model.Min(model.StartOf(a, 0), model.StartOf(c, 0)), 0},
		{"max", model.Max(model.EndOf(a, 0), model.EndOf(c, 0)), 10},
		{"count present", model.CountPresent(a, b, c), 2},
		{"earliest start", model.EarliestStart(a, b, c), 0},
		{"latest end", model.LatestEnd(a, b, c), 10},
		{"makespan", model.Makespan(a, b, c), 10},
		{"span length", model.SpanLength(a, b, c), 10},
		{"successor type", model.TypeOfNext(seq, a, 9, 8), 6},
		{"no successor", model.TypeOfNext(seq, c, 9, 8), 9},
		{"absent member type", model.TypeOfNext(seq, b, 9, 8), 8},
		{"predecessor type", model.TypeOfPrev(seq, c, 7, 8), 4},
		{"no predecessor", model.TypeOfPrev(seq, a, 7, 8), 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sol.Value(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSolutionAggregateNeutrals(t *testing.T) {
	s := model.NewSession(model.WithHorizon(25))
	a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(2)), model.Optional())

	ad := testutil.NewScriptAdapter("fake",
		testutil.Solved(solve.Satisfiable, 0, nil))
	sol, err := solve.Solve(context.Background(), s, ad)
	require.NoError(t, err)
	require.Nil(t, sol.Interval(a))

	got, err := sol.Value(model.EarliestStart(a))
	require.NoError(t, err)
	assert.Equal(t, 25, got, "earliest start over no intervals is the horizon")

	got, err = sol.Value(model.Makespan(a))
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = sol.Value(model.SpanLength(a))
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestOutcomeRoundTrip(t *testing.T) {
	for _, o := range []solve.Outcome{solve.Satisfiable, solve.Optimal, solve.Unsatisfiable, solve.TimeoutUnknown} {
		got, ok := solve.ParseOutcome(o.String())
		require.True(t, ok, o.String())
		assert.Equal(t, o, got)
	}

	got, ok := solve.ParseOutcome("OPTIMAL")
	require.True(t, ok)
	assert.Equal(t, solve.Optimal, got)

	_, ok = solve.ParseOutcome("maybe")
	assert.False(t, ok)
}

func TestAdapterError(t *testing.T) {
	cause := errors.New("socket closed")
	err := &solve.AdapterError{Adapter: "gokano", Stage: "search", Message: "engine call failed", Err: cause}

	assert.Equal(t, "adapter gokano: search: engine call failed: socket closed", err.Error())
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("solving instance: %w", err)
	assert.True(t, solve.IsAdapterError(wrapped))
	assert.False(t, solve.IsAdapterError(errors.New("plain")))

	bare := &solve.AdapterError{Adapter: "gokano", Stage: "encode", Message: "domain too wide"}
	assert.Equal(t, "adapter gokano: encode: domain too wide", bare.Error())
}
