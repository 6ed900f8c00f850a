package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

func findTable(t *testing.T, p *ir.Program) ir.Table {
	t.Helper()
	for _, cst := range p.Constraints {
		if tab, ok := cst.(ir.Table); ok {
			return tab
		}
	}
	t.Fatal("no table constraint in program")
	return ir.Table{}
}

func TestIntensityTable(t *testing.T) {
	t.Run("half intensity doubles the length", func(t *testing.T) {
		s := model.NewSession(model.WithHorizon(20))
		a := mustInterval(t, s,
			model.WithName("a"),
			model.WithStart(model.Exactly(0)),
			model.WithLength(model.Between(0, 10)),
			model.WithSize(model.Between(0, 2)),
			model.WithIntensity([]model.Step{{From: 0, Value: 50}}, 100),
		)
		p := mustCompile(t, s)

		tab := findTable(t, p)
		assert.Equal(t, []ir.VarID{
			findVar(t, p, "a.start"), findVar(t, p, "a.size"), findVar(t, p, "a.length"),
		}, tab.Vars)
		assert.Equal(t, [][]int{{0, 0, 0}, {0, 1, 2}, {0, 2, 4}}, tab.Rows)
	})

	t.Run("sizes beyond the reachable intensity vanish", func(t *testing.T) {
		s := model.NewSession(model.WithHorizon(20))
		mustInterval(t, s,
			model.WithName("a"),
			model.WithLength(model.Between(0, 10)),
			model.WithSize(model.Exactly(4)),
			model.WithIntensity([]model.Step{{From: 0, Value: 100}, {From: 4, Value: 0}}, 100),
		)
		p := mustCompile(t, s)

		tab := findTable(t, p)
		assert.Equal(t, [][]int{{0, 4, 4}}, tab.Rows)
	})

	t.Run("optional interval carries an absent row", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			s := model.NewSession(model.WithHorizon(20))
			mustInterval(t, s,
				model.WithName("a"),
				model.Optional(),
				model.WithStart(model.Exactly(0)),
				model.WithLength(model.Between(0, 10)),
				model.WithSize(model.Between(0, 1)),
				model.WithIntensity([]model.Step{{From: 0, Value: 100}}, 100),
			)
			return s
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{
			"a.presence": 1, "a.start": 0, "a.size": 1, "a.length": 1,
		}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{
			"a.presence": 1, "a.start": 0, "a.size": 1, "a.length": 2,
		}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{
			"a.presence": 0, "a.start": 0, "a.size": 0, "a.length": 0,
		}))
	})

	t.Run("no accumulation makes a mandatory size infeasible", func(t *testing.T) {
		s := model.NewSession(model.WithHorizon(10))
		mustInterval(t, s,
			model.WithName("a"),
			model.WithStart(model.Exactly(0)),
			model.WithLength(model.Between(0, 5)),
			model.WithSize(model.Exactly(2)),
			model.WithIntensity([]model.Step{{From: 8, Value: 100}}, 100),
		)
		p := mustCompile(t, s)

		// Intensity is zero over every reachable window, so no row exists.
		assert.False(t, sat(t, p, map[string]int{
			"a.start": 0, "a.size": 2, "a.length": 2,
		}))
	})
}

func TestMinimalLength(t *testing.T) {
	steps := func(ss ...model.Step) []model.Step { return ss }

	tests := []struct {
		name   string
		steps  []model.Step
		s, z   int
		lim    int
		want   int
		wantOK bool
	}{
		{"zero size needs no time", steps(model.Step{From: 0, Value: 100}), 0, 0, 10, 0, true},
		{"full intensity", steps(model.Step{From: 0, Value: 100}), 0, 3, 10, 3, true},
		{"half intensity", steps(model.Step{From: 0, Value: 50}), 0, 2, 10, 4, true},
		{"rounding up", steps(model.Step{From: 0, Value: 30}), 0, 1, 10, 4, true},
		{"leading zero segment defers accumulation", steps(model.Step{From: 2, Value: 100}), 0, 1, 10, 3, true},
		{"start after threshold", steps(model.Step{From: 2, Value: 100}), 5, 2, 10, 2, true},
		{"tail drop caps the size", steps(model.Step{From: 0, Value: 100}, model.Step{From: 4, Value: 0}), 0, 5, 10, 0, false},
		{"limit too tight", steps(model.Step{From: 0, Value: 100}), 0, 5, 3, 0, false},
		{"no steps accumulate nothing", nil, 0, 1, 10, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := minimalLength(tc.steps, 100, tc.s, tc.z, tc.lim)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
