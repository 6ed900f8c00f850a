package instance

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/model"
)

// Build realizes the instance as a model session: one interval per
// task, a cumulative constraint per demanded resource, the precedences,
// a no-overlap per sequence, and the objective. The returned map keys
// every interval by its task name. The instance horizon applies first,
// then opts, so callers can attach a logger or override the horizon.
func (in *Instance) Build(opts ...model.Option) (*model.Session, map[string]*model.IntervalVar, error) {
	sopts := make([]model.Option, 0, len(opts)+1)
	sopts = append(sopts, model.WithHorizon(in.Horizon))
	sopts = append(sopts, opts...)
	s := model.NewSession(sopts...)

	byName := make(map[string]*model.IntervalVar, len(in.Tasks))
	order := make([]*model.IntervalVar, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		itv, err := buildTask(s, t)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", t.Name, err)
		}
		byName[t.Name] = itv
		order = append(order, itv)
	}

	for _, r := range in.Resources {
		var used []*model.IntervalVar
		var heights []int
		for i, t := range in.Tasks {
			if h, ok := t.Demands[r.Name]; ok && h > 0 {
				used = append(used, order[i])
				heights = append(heights, h)
			}
		}
		if len(used) == 0 {
			continue
		}
		if err := s.Post(model.SeqCumulative(used, heights, r.Capacity)); err != nil {
			return nil, nil, fmt.Errorf("resource %s: %w", r.Name, err)
		}
	}

	for i, p := range in.Precedences {
		c := model.Precedence{Kind: p.Kind, A: byName[p.A], B: byName[p.B], Delay: p.Delay}
		if err := s.Post(c); err != nil {
			return nil, nil, fmt.Errorf("precedence %d: %w", i, err)
		}
	}

	for _, sq := range in.Sequences {
		if err := buildSequence(s, sq, byName); err != nil {
			return nil, nil, fmt.Errorf("sequence %s: %w", sq.Name, err)
		}
	}

	switch in.Objective {
	case "", ObjectiveMakespan:
		if len(order) > 0 {
			s.Minimize(model.Makespan(order...))
		}
	case ObjectiveNone:
	default:
		return nil, nil, fmt.Errorf("unknown objective %q", in.Objective)
	}

	return s, byName, nil
}

func buildTask(s *model.Session, t Task) (*model.IntervalVar, error) {
	opts := []model.IntervalOption{model.WithName(t.Name)}
	if t.Length != nil {
		opts = append(opts, model.WithLength(model.Between(t.Length.Min, t.Length.Max)))
	}
	if t.Size != nil {
		opts = append(opts, model.WithSize(model.Between(t.Size.Min, t.Size.Max)))
	}
	if t.Optional {
		opts = append(opts, model.Optional())
	}
	if len(t.Intensity) > 0 {
		steps := make([]model.Step, len(t.Intensity))
		for i, st := range t.Intensity {
			steps[i] = model.Step{From: st.From, Value: st.Value}
		}
		opts = append(opts, model.WithIntensity(steps, t.Granularity))
	}

	itv, err := s.NewInterval(opts...)
	if err != nil {
		return nil, err
	}
	if t.Release != nil {
		if err := s.Post(model.ReleaseDate(itv, *t.Release)); err != nil {
			return nil, err
		}
	}
	if t.Deadline != nil {
		if err := s.Post(model.Deadline(itv, *t.Deadline)); err != nil {
			return nil, err
		}
	}
	return itv, nil
}

// buildSequence declares the sequence and posts its no-overlap. A
// declared sequence always gets the no-overlap; listing tasks on a
// machine without ordering them would mean nothing.
func buildSequence(s *model.Session, sq Sequence, byName map[string]*model.IntervalVar) error {
	members := make([]*model.IntervalVar, len(sq.Tasks))
	for i, name := range sq.Tasks {
		members[i] = byName[name]
	}
	opts := []model.SequenceOption{model.WithSequenceName(sq.Name)}
	if sq.Types != nil {
		opts = append(opts, model.WithTypes(sq.Types))
	}
	seq, err := s.NewSequence(members, opts...)
	if err != nil {
		return err
	}

	var m *model.TransitionMatrix
	if len(sq.Transitions) > 0 {
		if m, err = model.NewTransitionMatrix(sq.Transitions); err != nil {
			return err
		}
	}
	return s.Post(model.SeqNoOverlap(seq, m, sq.Direct))
}
