package interchange

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// Session rebuilds a model session from the document declarations. The
// document horizon applies first, then opts, so callers can attach a
// logger or override the horizon. The lowered program section is not
// consulted; relowering the result reproduces it.
func (d *Document) Session(opts ...model.Option) (*model.Session, error) {
	sopts := make([]model.Option, 0, len(opts)+1)
	sopts = append(sopts, model.WithHorizon(d.Horizon))
	sopts = append(sopts, opts...)
	s := model.NewSession(sopts...)

	rb := &rebuild{
		itvs:   make(map[string]*model.IntervalVar, len(d.Intervals)),
		seqs:   make(map[string]*model.SequenceVar, len(d.Sequences)),
		states: make(map[string]*model.StateFunction, len(d.States)),
	}
	for _, rec := range d.Intervals {
		itv, err := buildInterval(s, rec)
		if err != nil {
			return nil, fmt.Errorf("interchange: interval %q: %w", rec.Name, err)
		}
		rb.itvs[rec.Name] = itv
	}
	for _, rec := range d.Sequences {
		seq, err := rb.buildSequence(s, rec)
		if err != nil {
			return nil, fmt.Errorf("interchange: sequence %q: %w", rec.Name, err)
		}
		rb.seqs[rec.Name] = seq
	}
	for _, rec := range d.States {
		f, err := buildState(s, rec)
		if err != nil {
			return nil, fmt.Errorf("interchange: state function %q: %w", rec.Name, err)
		}
		rb.states[rec.Name] = f
	}
	for i, rec := range d.Constraints.Items {
		c, err := rb.constraint(rec)
		if err != nil {
			return nil, fmt.Errorf("interchange: constraint %d (%s): %w", i, rec.constraintElem(), err)
		}
		if err := s.Post(c); err != nil {
			return nil, fmt.Errorf("interchange: constraint %d (%s): %w", i, rec.constraintElem(), err)
		}
	}
	if d.Objective != nil {
		expr, err := rb.expr(d.Objective.Expr)
		if err != nil {
			return nil, fmt.Errorf("interchange: objective: %w", err)
		}
		if d.Objective.Maximize {
			s.Maximize(expr)
		} else {
			s.Minimize(expr)
		}
	}
	return s, nil
}

type rebuild struct {
	itvs   map[string]*model.IntervalVar
	seqs   map[string]*model.SequenceVar
	states map[string]*model.StateFunction
}

func buildInterval(s *model.Session, rec Interval) (*model.IntervalVar, error) {
	opts := []model.IntervalOption{
		model.WithName(rec.Name),
		model.WithStart(rangeOf(rec.Start)),
		model.WithEnd(rangeOf(rec.End)),
		model.WithLength(rangeOf(rec.Length)),
		model.WithSize(rangeOf(rec.Size)),
	}
	if rec.Optional {
		opts = append(opts, model.Optional())
	}
	if len(rec.Intensity) > 0 {
		steps := make([]model.Step, len(rec.Intensity))
		for i, st := range rec.Intensity {
			steps[i] = model.Step{From: st.From, Value: st.Value}
		}
		opts = append(opts, model.WithIntensity(steps, rec.Granularity))
	} else if rec.Granularity != 0 {
		return nil, fmt.Errorf("granularity %d without intensity steps", rec.Granularity)
	}
	return s.NewInterval(opts...)
}

func (rb *rebuild) buildSequence(s *model.Session, rec Sequence) (*model.SequenceVar, error) {
	members, err := rb.intervals(rec.Members)
	if err != nil {
		return nil, err
	}
	opts := []model.SequenceOption{model.WithSequenceName(rec.Name)}
	if rec.Types != nil {
		opts = append(opts, model.WithTypes(rec.Types))
	}
	return s.NewSequence(members, opts...)
}

func buildState(s *model.Session, rec StateFunc) (*model.StateFunction, error) {
	opts := []model.StateOption{model.WithStateName(rec.Name)}
	if rec.Transitions != nil {
		m, err := buildMatrix(rec.Transitions)
		if err != nil {
			return nil, err
		}
		opts = append(opts, model.WithTransitions(m))
	}
	return s.NewStateFunction(opts...)
}

func buildMatrix(rec *Matrix) (*model.TransitionMatrix, error) {
	rows := make([][]int, len(rec.Rows))
	for i, row := range rec.Rows {
		rows[i] = row
	}
	return model.NewTransitionMatrix(rows)
}

func rangeOf(b Bound) model.Range { return model.Range{Lo: b.Lo, Hi: b.Hi} }

func (rb *rebuild) interval(name string) (*model.IntervalVar, error) {
	if name == "" {
		return nil, fmt.Errorf("missing interval reference")
	}
	itv, ok := rb.itvs[name]
	if !ok {
		return nil, fmt.Errorf("unknown interval %q", name)
	}
	return itv, nil
}

// optionalInterval resolves a reference that may legitimately be empty.
func (rb *rebuild) optionalInterval(name string) (*model.IntervalVar, error) {
	if name == "" {
		return nil, nil
	}
	return rb.interval(name)
}

func (rb *rebuild) intervals(refs []Ref) ([]*model.IntervalVar, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]*model.IntervalVar, len(refs))
	for i, ref := range refs {
		itv, err := rb.interval(ref.Name)
		if err != nil {
			return nil, err
		}
		out[i] = itv
	}
	return out, nil
}

func (rb *rebuild) sequence(name string) (*model.SequenceVar, error) {
	seq, ok := rb.seqs[name]
	if !ok {
		return nil, fmt.Errorf("unknown sequence %q", name)
	}
	return seq, nil
}

func (rb *rebuild) state(name string) (*model.StateFunction, error) {
	f, ok := rb.states[name]
	if !ok {
		return nil, fmt.Errorf("unknown state function %q", name)
	}
	return f, nil
}

func (rb *rebuild) constraint(rec ConstraintRec) (model.Constraint, error) {
	switch x := rec.(type) {
	case Precedence:
		kind, err := parseKind(precKinds, x.Kind, "precedence kind")
		if err != nil {
			return nil, err
		}
		a, err := rb.interval(x.A)
		if err != nil {
			return nil, err
		}
		b, err := rb.interval(x.B)
		if err != nil {
			return nil, err
		}
		return model.Precedence{Kind: kind, A: a, B: b, Delay: x.Delay}, nil

	case Span:
		main, err := rb.interval(x.Main)
		if err != nil {
			return nil, err
		}
		subs, err := rb.intervals(x.Subs)
		if err != nil {
			return nil, err
		}
		return model.Span(main, subs...), nil

	case Alternative:
		main, err := rb.interval(x.Main)
		if err != nil {
			return nil, err
		}
		alts, err := rb.intervals(x.Alts)
		if err != nil {
			return nil, err
		}
		return model.Alternative(main, alts, x.Cardinality), nil

	case Synchronize:
		main, err := rb.interval(x.Main)
		if err != nil {
			return nil, err
		}
		others, err := rb.intervals(x.Others)
		if err != nil {
			return nil, err
		}
		return model.Synchronize(main, others...), nil

	case SeqNoOverlap:
		seq, err := rb.sequence(x.Sequence)
		if err != nil {
			return nil, err
		}
		var m *model.TransitionMatrix
		if x.Transitions != nil {
			if m, err = buildMatrix(x.Transitions); err != nil {
				return nil, err
			}
		}
		return model.SeqNoOverlap(seq, m, x.Direct), nil

	case Position:
		kind, err := parseKind(posKinds, x.Kind, "position kind")
		if err != nil {
			return nil, err
		}
		seq, err := rb.sequence(x.Sequence)
		if err != nil {
			return nil, err
		}
		a, err := rb.interval(x.A)
		if err != nil {
			return nil, err
		}
		b, err := rb.optionalInterval(x.B)
		if err != nil {
			return nil, err
		}
		return model.SeqPosition{Kind: kind, Seq: seq, A: a, B: b}, nil

	case Overlap:
		kind, err := parseKind(overlapKinds, x.Kind, "overlap kind")
		if err != nil {
			return nil, err
		}
		a, err := rb.interval(x.A)
		if err != nil {
			return nil, err
		}
		b, err := rb.interval(x.B)
		if err != nil {
			return nil, err
		}
		return model.Overlap{Kind: kind, A: a, B: b, K: x.K}, nil

	case NoOverlap:
		itvs, err := rb.intervals(x.Itvs)
		if err != nil {
			return nil, err
		}
		return model.NoOverlapPairwise(itvs...), nil

	case Chain:
		itvs, err := rb.intervals(x.Itvs)
		if err != nil {
			return nil, err
		}
		return model.ChainConstraint{Itvs: itvs, Delays: x.Delays, Strict: x.Strict}, nil

	case CumulBound:
		kind, err := parseKind(cumulKinds, x.Kind, "cumul bound kind")
		if err != nil {
			return nil, err
		}
		f, err := rb.cumul(x.Atoms)
		if err != nil {
			return nil, err
		}
		return model.CumulBound{Kind: kind, F: f, Min: x.Min, Max: x.Max}, nil

	case AlwaysIn:
		f, err := rb.cumul(x.Atoms)
		if err != nil {
			return nil, err
		}
		itv, err := rb.optionalInterval(x.Interval)
		if err != nil {
			return nil, err
		}
		return model.AlwaysInConstraint{F: f, Itv: itv, From: x.From, To: x.To, Min: x.Min, Max: x.Max}, nil

	case Cumulative:
		itvs := make([]*model.IntervalVar, len(x.Tasks))
		heights := make([]int, len(x.Tasks))
		for i, task := range x.Tasks {
			itv, err := rb.interval(task.Name)
			if err != nil {
				return nil, err
			}
			itvs[i] = itv
			heights[i] = task.Height
		}
		return model.SeqCumulative(itvs, heights, x.Capacity), nil

	case Forbidden:
		kind, err := parseKind(forbidKinds, x.Kind, "forbidden kind")
		if err != nil {
			return nil, err
		}
		itv, err := rb.interval(x.Interval)
		if err != nil {
			return nil, err
		}
		periods := make([]model.Period, len(x.Periods))
		for i, p := range x.Periods {
			periods[i] = model.Period{Lo: p.Lo, Hi: p.Hi}
		}
		return model.ForbiddenPeriods{Kind: kind, Itv: itv, Periods: periods}, nil

	case Presence:
		kind, err := parseKind(presenceKinds, x.Kind, "presence kind")
		if err != nil {
			return nil, err
		}
		a, err := rb.optionalInterval(x.A)
		if err != nil {
			return nil, err
		}
		b, err := rb.optionalInterval(x.B)
		if err != nil {
			return nil, err
		}
		itvs, err := rb.intervals(x.Itvs)
		if err != nil {
			return nil, err
		}
		return model.PresenceLogic{Kind: kind, A: a, B: b, Itvs: itvs, K: x.K}, nil

	case TimeBound:
		kind, err := parseKind(boundKinds, x.Kind, "time bound kind")
		if err != nil {
			return nil, err
		}
		itv, err := rb.interval(x.Interval)
		if err != nil {
			return nil, err
		}
		return model.TimeBound{Kind: kind, Itv: itv, T: x.T, Strict: x.Strict}, nil

	case TimeWindow:
		itv, err := rb.interval(x.Interval)
		if err != nil {
			return nil, err
		}
		return model.TimeWindow(itv, x.Earliest, x.Latest), nil

	case StateUse:
		kind, err := parseKind(stateKinds, x.Kind, "state constraint kind")
		if err != nil {
			return nil, err
		}
		f, err := rb.state(x.Function)
		if err != nil {
			return nil, err
		}
		itv, err := rb.interval(x.Interval)
		if err != nil {
			return nil, err
		}
		return model.StateConstraint{
			Kind:         kind,
			F:            f,
			Itv:          itv,
			State:        x.State,
			Min:          x.Min,
			Max:          x.Max,
			StartAligned: x.StartAligned,
			EndAligned:   x.EndAligned,
		}, nil

	case Compare:
		op, err := parseKind(cmpOps, x.Op, "comparison operator")
		if err != nil {
			return nil, err
		}
		a, err := rb.expr(x.A)
		if err != nil {
			return nil, err
		}
		b, err := rb.expr(x.B)
		if err != nil {
			return nil, err
		}
		return model.CmpConstraint{Op: op, A: a, B: b}, nil

	default:
		return nil, fmt.Errorf("unsupported constraint record %T", rec)
	}
}

// cumul rebuilds a cumul function by folding the atoms through Plus and
// Minus, which reproduces the original contribution order exactly.
func (rb *rebuild) cumul(atoms []Atom) (*model.CumulFunction, error) {
	if len(atoms) == 0 {
		return nil, fmt.Errorf("empty cumul function")
	}
	var f *model.CumulFunction
	for i, a := range atoms {
		g, err := rb.atom(a)
		if err != nil {
			return nil, fmt.Errorf("atom %d: %w", i, err)
		}
		switch {
		case i == 0 && a.Negated:
			return nil, fmt.Errorf("atom %d: leading negated contribution", i)
		case i == 0:
			f = g
		case a.Negated:
			f = f.Minus(g)
		default:
			f = f.Plus(g)
		}
	}
	return f, nil
}

func (rb *rebuild) atom(a Atom) (*model.CumulFunction, error) {
	switch a.Kind {
	case "pulse":
		if a.Time != 0 {
			return nil, fmt.Errorf("pulse carries a time attribute")
		}
		itv, err := rb.interval(a.Interval)
		if err != nil {
			return nil, err
		}
		return model.PulseRange(itv, a.Lo, a.Hi), nil
	case "step_at_start", "step_at_end":
		if a.Time != 0 {
			return nil, fmt.Errorf("%s carries a time attribute", a.Kind)
		}
		if a.Lo != a.Hi {
			return nil, fmt.Errorf("%s with height range [%d, %d]", a.Kind, a.Lo, a.Hi)
		}
		itv, err := rb.interval(a.Interval)
		if err != nil {
			return nil, err
		}
		if a.Kind == "step_at_start" {
			return model.StepAtStart(itv, a.Lo), nil
		}
		return model.StepAtEnd(itv, a.Lo), nil
	case "step_at":
		if a.Interval != "" {
			return nil, fmt.Errorf("step_at carries an interval reference")
		}
		if a.Lo != a.Hi {
			return nil, fmt.Errorf("step_at with height range [%d, %d]", a.Lo, a.Hi)
		}
		return model.StepAt(a.Time, a.Lo), nil
	default:
		return nil, fmt.Errorf("unknown atom kind %q", a.Kind)
	}
}

func (rb *rebuild) expr(node ExprNode) (model.Expr, error) {
	switch node.Op {
	case "lit":
		return model.Lit(node.Value), nil
	case "start_of", "end_of", "length_of", "size_of", "presence_of":
		itv, err := rb.interval(node.Interval)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case "start_of":
			return model.StartOf(itv, node.Absent), nil
		case "end_of":
			return model.EndOf(itv, node.Absent), nil
		case "length_of":
			return model.LengthOf(itv, node.Absent), nil
		case "size_of":
			return model.SizeOf(itv, node.Absent), nil
		default:
			return model.PresenceOf(itv), nil
		}
	case "sum":
		args, err := rb.exprs(node.Args)
		if err != nil {
			return nil, err
		}
		return model.Sum(args...), nil
	case "sub":
		if len(node.Args) != 2 {
			return nil, fmt.Errorf("sub needs two operands, got %d", len(node.Args))
		}
		a, err := rb.expr(node.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := rb.expr(node.Args[1])
		if err != nil {
			return nil, err
		}
		return model.Sub(a, b), nil
	case "neg":
		if len(node.Args) != 1 {
			return nil, fmt.Errorf("neg needs one operand, got %d", len(node.Args))
		}
		e, err := rb.expr(node.Args[0])
		if err != nil {
			return nil, err
		}
		return model.Neg(e), nil
	case "min", "max":
		args, err := rb.exprs(node.Args)
		if err != nil {
			return nil, err
		}
		if node.Op == "min" {
			return model.Min(args...), nil
		}
		return model.Max(args...), nil
	case "count_present", "earliest_start", "latest_end", "span_length", "makespan":
		itvs, err := rb.intervals(node.Intervals)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case "count_present":
			return model.CountPresent(itvs...), nil
		case "earliest_start":
			return model.EarliestStart(itvs...), nil
		case "latest_end":
			return model.LatestEnd(itvs...), nil
		case "span_length":
			return model.SpanLength(itvs...), nil
		default:
			return model.Makespan(itvs...), nil
		}
	case "type_of_next", "type_of_prev":
		seq, err := rb.sequence(node.Sequence)
		if err != nil {
			return nil, err
		}
		itv, err := rb.interval(node.Interval)
		if err != nil {
			return nil, err
		}
		if node.Op == "type_of_next" {
			return model.TypeOfNext(seq, itv, node.Edge, node.Absent), nil
		}
		return model.TypeOfPrev(seq, itv, node.Edge, node.Absent), nil
	default:
		return nil, fmt.Errorf("unknown expression op %q", node.Op)
	}
}

func (rb *rebuild) exprs(nodes []ExprNode) ([]model.Expr, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]model.Expr, len(nodes))
	for i, node := range nodes {
		e, err := rb.expr(node)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Build reconstructs the primitive program from the program section.
func (p *Program) Build() (*ir.Program, error) {
	out := &ir.Program{Horizon: p.Horizon}
	for i, v := range p.Vars {
		if v.ID != i {
			return nil, fmt.Errorf("interchange: program variable %q: id %d at position %d", v.Name, v.ID, i)
		}
		out.NewVar(v.Name, v.Lo, v.Hi)
	}
	n := len(p.Vars)
	for i, rec := range p.Constraints.Items {
		c, err := buildPrimitive(rec, n)
		if err != nil {
			return nil, fmt.Errorf("interchange: program constraint %d: %w", i, err)
		}
		out.Add(c)
	}
	if p.Objective != nil {
		if err := checkVar(p.Objective.Var, n); err != nil {
			return nil, fmt.Errorf("interchange: program objective: %w", err)
		}
		out.Objective = &ir.Objective{Var: ir.VarID(p.Objective.Var), Maximize: p.Objective.Maximize}
	}
	return out, nil
}

func buildPrimitive(rec PrimitiveRec, n int) (ir.Constraint, error) {
	switch x := rec.(type) {
	case Comparison:
		return buildComparison(x, n)
	case Clause:
		out := ir.Clause{}
		for _, lit := range x.Lits {
			if err := checkVar(lit.Var, n); err != nil {
				return nil, err
			}
			out.Lits = append(out.Lits, ir.Literal{Var: ir.VarID(lit.Var), Neg: lit.Neg})
		}
		return out, nil
	case Reified:
		if err := checkVar(x.Bool, n); err != nil {
			return nil, err
		}
		inner, err := buildComparison(x.C, n)
		if err != nil {
			return nil, err
		}
		return ir.Reified{Bool: ir.VarID(x.Bool), C: inner}, nil
	case LinearSum:
		if len(x.Vars) != len(x.Coeffs) {
			return nil, fmt.Errorf("%d coefficients for %d variables", len(x.Coeffs), len(x.Vars))
		}
		op, err := parseKind(irOps, x.Op, "operator")
		if err != nil {
			return nil, err
		}
		ids, err := varIDList(x.Vars, n)
		if err != nil {
			return nil, err
		}
		return ir.LinearSum{Vars: ids, Coeffs: append([]int(nil), x.Coeffs...), Op: op, K: x.K}, nil
	case MinMax:
		if err := checkVar(x.Target, n); err != nil {
			return nil, err
		}
		ids, err := varIDList(x.Vars, n)
		if err != nil {
			return nil, err
		}
		return ir.MinMax{IsMax: x.IsMax, Target: ir.VarID(x.Target), Vars: ids}, nil
	case Table:
		ids, err := varIDList(x.Vars, n)
		if err != nil {
			return nil, err
		}
		out := ir.Table{Vars: ids}
		for j, row := range x.Rows {
			if len(row) != len(ids) {
				return nil, fmt.Errorf("row %d has %d values for %d variables", j, len(row), len(ids))
			}
			out.Rows = append(out.Rows, append([]int(nil), row...))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported primitive record %T", rec)
	}
}

func buildComparison(rec Comparison, n int) (ir.Comparison, error) {
	op, err := parseKind(irOps, rec.Op, "operator")
	if err != nil {
		return ir.Comparison{}, err
	}
	if err := checkVar(rec.A, n); err != nil {
		return ir.Comparison{}, err
	}
	if err := checkVar(rec.B, n); err != nil {
		return ir.Comparison{}, err
	}
	return ir.Comparison{A: ir.VarID(rec.A), Op: op, B: ir.VarID(rec.B), K: rec.K}, nil
}

func varIDList(xs Ints, n int) ([]ir.VarID, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	out := make([]ir.VarID, len(xs))
	for i, v := range xs {
		if err := checkVar(v, n); err != nil {
			return nil, err
		}
		out[i] = ir.VarID(v)
	}
	return out, nil
}

func checkVar(id, n int) error {
	if id < 0 || id >= n {
		return fmt.Errorf("variable id %d outside [0, %d)", id, n)
	}
	return nil
}
