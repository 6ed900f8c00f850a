package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/model"
)

func TestSeqNoOverlapTransitions(t *testing.T) {
	build := func(t *testing.T) (*model.Session, *model.SequenceVar) {
		s := model.NewSession(model.WithHorizon(30))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(4)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(4)))
		seq, err := s.NewSequence([]*model.IntervalVar{a, b}, model.WithTypes([]int{0, 1}))
		require.NoError(t, err)
		return s, seq
	}
	matrix, err := model.NewTransitionMatrix([][]int{{0, 2}, {3, 0}})
	require.NoError(t, err)

	tests := []struct {
		name   string
		starts map[string]int
		want   bool
	}{
		{"gap covers 0->1 transition", map[string]int{"a.start": 0, "b.start": 6}, true},
		{"gap short of 0->1 transition", map[string]int{"a.start": 0, "b.start": 5}, false},
		{"gap covers 1->0 transition", map[string]int{"b.start": 0, "a.start": 7}, true},
		{"gap short of 1->0 transition", map[string]int{"b.start": 0, "a.start": 6}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, seq := build(t)
			require.NoError(t, s.Post(model.SeqNoOverlap(seq, matrix, false)))
			p := mustCompile(t, s)
			assert.Equal(t, tc.want, sat(t, p, tc.starts))
		})
	}
}

func TestSeqNoOverlapDirect(t *testing.T) {
	// Direct transitions bind adjacent pairs only; a forbidden arc bans
	// the adjacency itself. With two members the earlier one is always
	// adjacent to the later, so 0->1 being forbidden forces b first.
	matrix, err := model.NewTransitionMatrix([][]int{{0, model.Forbidden}, {0, 0}})
	require.NoError(t, err)

	build := func(t *testing.T) *model.Session {
		s := model.NewSession(model.WithHorizon(30))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(3)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(3)))
		seq, err := s.NewSequence([]*model.IntervalVar{a, b}, model.WithTypes([]int{0, 1}))
		require.NoError(t, err)
		require.NoError(t, s.Post(model.SeqNoOverlap(seq, matrix, true)))
		return s
	}

	t.Run("b before a", func(t *testing.T) {
		p := mustCompile(t, build(t))
		assert.True(t, sat(t, p, map[string]int{"b.start": 0, "a.start": 4}))
	})
	t.Run("a before b touching", func(t *testing.T) {
		p := mustCompile(t, build(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 3}))
	})
	t.Run("a before b with gap", func(t *testing.T) {
		p := mustCompile(t, build(t))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 9}))
	})
}

func TestSeqPositions(t *testing.T) {
	build := func(t *testing.T, post func(seq *model.SequenceVar, a, b, c *model.IntervalVar) model.Constraint) *model.Session {
		s := model.NewSession(model.WithHorizon(20))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(2)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(2)))
		c := mustInterval(t, s, model.WithName("c"), model.WithLength(model.Exactly(2)))
		seq, err := s.NewSequence([]*model.IntervalVar{a, b, c})
		require.NoError(t, err)
		require.NoError(t, s.Post(post(seq, a, b, c)))
		return s
	}

	t.Run("first", func(t *testing.T) {
		p := mustCompile(t, build(t, func(seq *model.SequenceVar, a, _, _ *model.IntervalVar) model.Constraint {
			return model.First(seq, a)
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 4, "c.start": 8}))
		assert.False(t, sat(t, p, map[string]int{"a.start": 5, "b.start": 4, "c.start": 8}))
	})

	t.Run("last", func(t *testing.T) {
		p := mustCompile(t, build(t, func(seq *model.SequenceVar, _, b, _ *model.IntervalVar) model.Constraint {
			return model.Last(seq, b)
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 8, "c.start": 4}))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 4, "c.start": 8}))
	})

	t.Run("before", func(t *testing.T) {
		p := mustCompile(t, build(t, func(seq *model.SequenceVar, a, b, _ *model.IntervalVar) model.Constraint {
			return model.Before(seq, a, b)
		}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 2, "c.start": 8}))
		assert.False(t, sat(t, p, map[string]int{"a.start": 3, "b.start": 2, "c.start": 8}))
	})

	t.Run("previous rejects a member between", func(t *testing.T) {
		prev := func(seq *model.SequenceVar, a, b, _ *model.IntervalVar) model.Constraint {
			return model.Previous(seq, a, b)
		}
		p := mustCompile(t, build(t, prev))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 4, "c.start": 6}))

		p = mustCompile(t, build(t, prev))
		assert.False(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 4, "c.start": 2}))

		p = mustCompile(t, build(t, prev))
		assert.True(t, sat(t, p, map[string]int{"c.start": 0, "a.start": 2, "b.start": 6}))
	})
}

func TestTypeOfNextPrev(t *testing.T) {
	build := func(t *testing.T, posts ...func(seq *model.SequenceVar, a, b *model.IntervalVar) model.Constraint) *model.Session {
		s := model.NewSession(model.WithHorizon(20))
		a := mustInterval(t, s, model.WithName("a"), model.WithLength(model.Exactly(2)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(2)))
		seq, err := s.NewSequence([]*model.IntervalVar{a, b}, model.WithTypes([]int{3, 7}))
		require.NoError(t, err)
		require.NoError(t, s.Post(model.SeqNoOverlap(seq, nil, false)))
		for _, post := range posts {
			require.NoError(t, s.Post(post(seq, a, b)))
		}
		return s
	}

	t.Run("successor and predecessor types channel", func(t *testing.T) {
		p := mustCompile(t, build(t,
			func(seq *model.SequenceVar, a, b *model.IntervalVar) model.Constraint {
				return model.Eq(model.TypeOfNext(seq, a, 9, 8), model.Lit(7))
			},
			func(seq *model.SequenceVar, a, b *model.IntervalVar) model.Constraint {
				return model.Eq(model.TypeOfPrev(seq, b, 5, 4), model.Lit(3))
			}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 0, "b.start": 3}))
	})

	t.Run("last member takes the last value", func(t *testing.T) {
		p := mustCompile(t, build(t,
			func(seq *model.SequenceVar, a, b *model.IntervalVar) model.Constraint {
				return model.Eq(model.TypeOfNext(seq, a, 9, 8), model.Lit(7))
			}))
		assert.False(t, sat(t, p, map[string]int{"a.start": 5, "b.start": 0}))

		p = mustCompile(t, build(t,
			func(seq *model.SequenceVar, a, b *model.IntervalVar) model.Constraint {
				return model.Eq(model.TypeOfNext(seq, a, 9, 8), model.Lit(9))
			}))
		assert.True(t, sat(t, p, map[string]int{"a.start": 5, "b.start": 0}))
	})

	t.Run("absent member takes the absent value", func(t *testing.T) {
		s := model.NewSession(model.WithHorizon(20))
		a := mustInterval(t, s, model.WithName("a"), model.Optional(), model.WithLength(model.Exactly(2)))
		b := mustInterval(t, s, model.WithName("b"), model.WithLength(model.Exactly(2)))
		seq, err := s.NewSequence([]*model.IntervalVar{a, b}, model.WithTypes([]int{3, 7}))
		require.NoError(t, err)
		require.NoError(t, s.Post(model.SeqNoOverlap(seq, nil, false)))
		require.NoError(t, s.Post(model.Eq(model.TypeOfNext(seq, a, 9, 8), model.Lit(8))))
		p := mustCompile(t, s)

		assert.True(t, sat(t, p, map[string]int{
			"a.presence": 0, "a.start": 0, "b.start": 0,
		}))
	})
}
