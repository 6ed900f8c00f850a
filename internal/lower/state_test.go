package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/model"
)

func TestStateRequirements(t *testing.T) {
	build := func(t *testing.T, matrix *model.TransitionMatrix, post func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint) *model.Session {
		s := model.NewSession(model.WithHorizon(30))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(3)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(3)))
		var opts []model.StateOption
		if matrix != nil {
			opts = append(opts, model.WithTransitions(matrix))
		}
		f, err := s.NewStateFunction(opts...)
		require.NoError(t, err)
		require.NoError(t, s.PostAll(post(f, a, b)...))
		return s
	}

	t.Run("different states respect transitions", func(t *testing.T) {
		matrix, err := model.NewTransitionMatrix([][]int{{0, 5}, {4, 0}})
		require.NoError(t, err)
		mk := func(t *testing.T) *model.Session {
			return build(t, matrix, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 0, false, false),
					model.RequireState(f, b, 1, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 8}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 7}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"b.start": 0, "a.start": 7}))
	})

	t.Run("forbidden arc removes one ordering", func(t *testing.T) {
		matrix, err := model.NewTransitionMatrix([][]int{{0, model.Forbidden}, {2, 0}})
		require.NoError(t, err)
		mk := func(t *testing.T) *model.Session {
			return build(t, matrix, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 0, false, false),
					model.RequireState(f, b, 1, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"b.start": 0, "a.start": 5}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 12}))
	})

	t.Run("same state overlaps freely", func(t *testing.T) {
		p := mustCompile(t, build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
			return []model.Constraint{
				model.RequireState(f, a, 1, false, false),
				model.RequireState(f, b, 1, false, false),
			}
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 1}))
	})

	t.Run("start alignment binds overlapping pairs", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			return build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 0, true, false),
					model.RequireState(f, b, 0, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 2, "b.start": 2}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 2, "b.start": 3}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 5}))
	})

	t.Run("setting a state never aligns", func(t *testing.T) {
		p := mustCompile(t, build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
			return []model.Constraint{
				model.SetState(f, a, 0),
				model.RequireState(f, b, 0, true, false),
			}
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 2, "b.start": 3}))
	})

	t.Run("ranged requirement accepts an overlapping pin", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			return build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 1, false, false),
					model.RequireStateIn(f, b, 0, 2, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 1}))
	})

	t.Run("range missing the pin pushes apart", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			return build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 1, false, false),
					model.RequireStateIn(f, b, 2, 2, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 1}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 3}))
	})

	t.Run("constant span adopts the states it overlaps", func(t *testing.T) {
		mk := func(t *testing.T, last int) *model.Session {
			s := model.NewSession(model.WithHorizon(30))
			a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(3)))
			b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(3)))
			c := mustInterval(t, s, model.WithName("c"), model.WithLength(model.Exactly(3)))
			f, err := s.NewStateFunction()
			require.NoError(t, err)
			require.NoError(t, s.PostAll(
				model.RequireState(f, a, 0, false, false),
				model.RequireConstantState(f, b, false, false),
				model.RequireState(f, c, last, false, false),
			))
			return s
		}
		// b overlaps both a and c, so one state must satisfy both pins.
		p := mustCompile(t, mk(t, 0))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 2, "c.start": 4}))
		p = mustCompile(t, mk(t, 2))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 2, "c.start": 4}))
	})

	t.Run("no state excludes a defining requirement", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			return build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireNoState(f, a),
					model.RequireState(f, b, 1, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 1}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 3}))
	})

	t.Run("undefined spans overlap freely", func(t *testing.T) {
		p := mustCompile(t, build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
			return []model.Constraint{
				model.RequireNoState(f, a),
				model.RequireNoState(f, b),
			}
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 1}))
	})

	t.Run("ranged states read the matrix gaps", func(t *testing.T) {
		matrix, err := model.NewTransitionMatrix([][]int{{0, 5}, {4, 0}})
		require.NoError(t, err)
		mk := func(t *testing.T) *model.Session {
			return build(t, matrix, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 0, false, false),
					model.RequireStateIn(f, b, 1, 1, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 8}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 7}))
		p = mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"b.start": 0, "a.start": 7}))
	})

	t.Run("forbidden arc reaches ranged states", func(t *testing.T) {
		matrix, err := model.NewTransitionMatrix([][]int{{0, model.Forbidden}, {2, 0}})
		require.NoError(t, err)
		mk := func(t *testing.T) *model.Session {
			return build(t, matrix, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 0, false, false),
					model.RequireStateIn(f, b, 1, 1, false, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"b.start": 0, "a.start": 5}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 12}))
	})

	t.Run("alignment reaches ranged requirements", func(t *testing.T) {
		mk := func(t *testing.T) *model.Session {
			return build(t, nil, func(f *model.StateFunction, a, b *model.IntervalVar) []model.Constraint {
				return []model.Constraint{
					model.RequireState(f, a, 1, false, false),
					model.RequireStateIn(f, b, 1, 1, true, false),
				}
			})
		}
		p := mustCompile(t, mk(t))
		assert.True(t, sat(t, p, map[string]int{"a.start": 2, "b.start": 2}))
		p = mustCompile(t, mk(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 2, "b.start": 3}))
	})
}
