package interchange

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/lower"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// FromSession captures a complete session as a document: every
// declaration in session order, every constraint in posting order, the
// objective, and the lowered program. The session must lower cleanly;
// lowering errors surface here.
func FromSession(s *model.Session) (*Document, error) {
	if s == nil {
		return nil, fmt.Errorf("interchange: nil session")
	}
	p, err := lower.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("interchange: lower session: %w", err)
	}

	doc := &Document{Horizon: s.Horizon()}
	for _, itv := range s.Intervals() {
		doc.Intervals = append(doc.Intervals, captureInterval(itv))
	}
	for _, seq := range s.Sequences() {
		doc.Sequences = append(doc.Sequences, captureSequence(seq))
	}
	for _, f := range s.StateFunctions() {
		doc.States = append(doc.States, captureState(f))
	}
	for i, c := range s.Constraints() {
		rec, err := captureConstraint(c)
		if err != nil {
			return nil, fmt.Errorf("interchange: constraint %d: %w", i, err)
		}
		doc.Constraints.Items = append(doc.Constraints.Items, rec)
	}
	if obj := s.Objective(); obj != nil {
		expr, err := captureExpr(obj.Expr)
		if err != nil {
			return nil, fmt.Errorf("interchange: objective: %w", err)
		}
		doc.Objective = &Objective{Maximize: obj.Maximize, Expr: expr}
	}
	doc.Program, err = captureProgram(p)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func captureInterval(itv *model.IntervalVar) Interval {
	rec := Interval{
		Name:        itv.Name(),
		Optional:    itv.Optional(),
		Granularity: itv.Granularity(),
		Start:       boundOf(itv.StartBounds()),
		End:         boundOf(itv.EndBounds()),
		Length:      boundOf(itv.LengthBounds()),
		Size:        boundOf(itv.SizeBounds()),
	}
	for _, st := range itv.Intensity() {
		rec.Intensity = append(rec.Intensity, Step{From: st.From, Value: st.Value})
	}
	return rec
}

func captureSequence(seq *model.SequenceVar) Sequence {
	rec := Sequence{Name: seq.Name(), Members: refsOf(seq.Intervals())}
	if seq.Typed() {
		rec.Types = Ints(seq.Types())
	}
	return rec
}

func captureState(f *model.StateFunction) StateFunc {
	rec := StateFunc{Name: f.Name()}
	if m := f.Transitions(); m != nil {
		rec.Transitions = captureMatrix(m)
	}
	return rec
}

func captureMatrix(m *model.TransitionMatrix) *Matrix {
	out := &Matrix{}
	for _, row := range m.Rows() {
		out.Rows = append(out.Rows, Ints(row))
	}
	return out
}

func boundOf(r model.Range) Bound { return Bound{Lo: r.Lo, Hi: r.Hi} }

func refsOf(itvs []*model.IntervalVar) []Ref {
	if len(itvs) == 0 {
		return nil
	}
	out := make([]Ref, len(itvs))
	for i, itv := range itvs {
		out[i] = Ref{Name: itv.Name()}
	}
	return out
}

func nameOrEmpty(itv *model.IntervalVar) string {
	if itv == nil {
		return ""
	}
	return itv.Name()
}

func captureAtoms(f *model.CumulFunction) ([]Atom, error) {
	atoms := f.Atoms()
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		kind, err := nameOf(atomKindNames, a.Kind, "cumul atom kind")
		if err != nil {
			return nil, err
		}
		rec := Atom{
			Kind:    kind,
			Time:    a.Time,
			Lo:      a.HeightLo,
			Hi:      a.HeightHi,
			Negated: a.Negated,
		}
		if a.Interval != nil {
			rec.Interval = a.Interval.Name()
		}
		out[i] = rec
	}
	return out, nil
}

func captureConstraint(c model.Constraint) (ConstraintRec, error) {
	switch x := c.(type) {
	case model.Precedence:
		return Precedence{Kind: x.Kind.String(), A: x.A.Name(), B: x.B.Name(), Delay: x.Delay}, nil

	case model.SpanConstraint:
		return Span{Main: x.Main.Name(), Subs: refsOf(x.Subs)}, nil

	case model.AlternativeConstraint:
		return Alternative{Main: x.Main.Name(), Cardinality: x.Cardinality, Alts: refsOf(x.Alts)}, nil

	case model.SynchronizeConstraint:
		return Synchronize{Main: x.Main.Name(), Others: refsOf(x.Others)}, nil

	case model.SeqNoOverlapConstraint:
		rec := SeqNoOverlap{Sequence: x.Seq.Name(), Direct: x.Direct}
		if x.Matrix != nil {
			rec.Transitions = captureMatrix(x.Matrix)
		}
		return rec, nil

	case model.SeqPosition:
		kind, err := nameOf(posKindNames, x.Kind, "position kind")
		if err != nil {
			return nil, err
		}
		return Position{Kind: kind, Sequence: x.Seq.Name(), A: x.A.Name(), B: nameOrEmpty(x.B)}, nil

	case model.Overlap:
		kind, err := nameOf(overlapKindNames, x.Kind, "overlap kind")
		if err != nil {
			return nil, err
		}
		return Overlap{Kind: kind, A: x.A.Name(), B: x.B.Name(), K: x.K}, nil

	case model.NoOverlapConstraint:
		return NoOverlap{Itvs: refsOf(x.Itvs)}, nil

	case model.ChainConstraint:
		return Chain{Strict: x.Strict, Itvs: refsOf(x.Itvs), Delays: append(Ints(nil), x.Delays...)}, nil

	case model.CumulBound:
		kind, err := nameOf(cumulKindNames, x.Kind, "cumul bound kind")
		if err != nil {
			return nil, err
		}
		atoms, err := captureAtoms(x.F)
		if err != nil {
			return nil, err
		}
		return CumulBound{Kind: kind, Min: x.Min, Max: x.Max, Atoms: atoms}, nil

	case model.AlwaysInConstraint:
		atoms, err := captureAtoms(x.F)
		if err != nil {
			return nil, err
		}
		return AlwaysIn{
			Interval: nameOrEmpty(x.Itv),
			From:     x.From,
			To:       x.To,
			Min:      x.Min,
			Max:      x.Max,
			Atoms:    atoms,
		}, nil

	case model.CumulativeConstraint:
		rec := Cumulative{Capacity: x.Capacity}
		for i, itv := range x.Itvs {
			rec.Tasks = append(rec.Tasks, Demand{Name: itv.Name(), Height: x.Heights[i]})
		}
		return rec, nil

	case model.ForbiddenPeriods:
		rec := Forbidden{Interval: x.Itv.Name()}
		kind, err := nameOf(forbidKindNames, x.Kind, "forbidden kind")
		if err != nil {
			return nil, err
		}
		rec.Kind = kind
		for _, p := range x.Periods {
			rec.Periods = append(rec.Periods, Period{Lo: p.Lo, Hi: p.Hi})
		}
		return rec, nil

	case model.PresenceLogic:
		kind, err := nameOf(presenceKindNames, x.Kind, "presence kind")
		if err != nil {
			return nil, err
		}
		return Presence{Kind: kind, A: nameOrEmpty(x.A), B: nameOrEmpty(x.B), K: x.K, Itvs: refsOf(x.Itvs)}, nil

	case model.TimeBound:
		kind, err := nameOf(boundKindNames, x.Kind, "time bound kind")
		if err != nil {
			return nil, err
		}
		return TimeBound{Kind: kind, Interval: x.Itv.Name(), T: x.T, Strict: x.Strict}, nil

	case model.TimeWindowConstraint:
		return TimeWindow{Interval: x.Itv.Name(), Earliest: x.Earliest, Latest: x.Latest}, nil

	case model.StateConstraint:
		kind, err := nameOf(stateKindNames, x.Kind, "state constraint kind")
		if err != nil {
			return nil, err
		}
		return StateUse{
			Kind:         kind,
			Function:     x.F.Name(),
			Interval:     x.Itv.Name(),
			State:        x.State,
			Min:          x.Min,
			Max:          x.Max,
			StartAligned: x.StartAligned,
			EndAligned:   x.EndAligned,
		}, nil

	case model.CmpConstraint:
		op, err := nameOf(cmpOpNames, x.Op, "comparison operator")
		if err != nil {
			return nil, err
		}
		a, err := captureExpr(x.A)
		if err != nil {
			return nil, err
		}
		b, err := captureExpr(x.B)
		if err != nil {
			return nil, err
		}
		return Compare{Op: op, A: a, B: b}, nil

	default:
		return nil, fmt.Errorf("unsupported constraint %T", c)
	}
}

func captureExpr(e model.Expr) (ExprNode, error) {
	switch x := e.(type) {
	case model.Lit:
		return ExprNode{Op: "lit", Value: int(x)}, nil
	case model.StartOfExpr:
		return ExprNode{Op: "start_of", Interval: x.Itv.Name(), Absent: x.Absent}, nil
	case model.EndOfExpr:
		return ExprNode{Op: "end_of", Interval: x.Itv.Name(), Absent: x.Absent}, nil
	case model.LengthOfExpr:
		return ExprNode{Op: "length_of", Interval: x.Itv.Name(), Absent: x.Absent}, nil
	case model.SizeOfExpr:
		return ExprNode{Op: "size_of", Interval: x.Itv.Name(), Absent: x.Absent}, nil
	case model.PresenceOfExpr:
		return ExprNode{Op: "presence_of", Interval: x.Itv.Name()}, nil
	case model.SumExpr:
		args, err := captureExprs(x.Terms)
		if err != nil {
			return ExprNode{}, err
		}
		return ExprNode{Op: "sum", Args: args}, nil
	case model.SubExpr:
		args, err := captureExprs([]model.Expr{x.A, x.B})
		if err != nil {
			return ExprNode{}, err
		}
		return ExprNode{Op: "sub", Args: args}, nil
	case model.NegExpr:
		args, err := captureExprs([]model.Expr{x.E})
		if err != nil {
			return ExprNode{}, err
		}
		return ExprNode{Op: "neg", Args: args}, nil
	case model.MinExpr:
		args, err := captureExprs(x.Args)
		if err != nil {
			return ExprNode{}, err
		}
		return ExprNode{Op: "min", Args: args}, nil
	case model.MaxExpr:
		args, err := captureExprs(x.Args)
		if err != nil {
			return ExprNode{}, err
		}
		return ExprNode{Op: "max", Args: args}, nil
	case model.CountPresentExpr:
		return ExprNode{Op: "count_present", Intervals: refsOf(x.Itvs)}, nil
	case model.EarliestStartExpr:
		return ExprNode{Op: "earliest_start", Intervals: refsOf(x.Itvs)}, nil
	case model.LatestEndExpr:
		return ExprNode{Op: "latest_end", Intervals: refsOf(x.Itvs)}, nil
	case model.SpanLengthExpr:
		return ExprNode{Op: "span_length", Intervals: refsOf(x.Itvs)}, nil
	case model.MakespanExpr:
		return ExprNode{Op: "makespan", Intervals: refsOf(x.Itvs)}, nil
	case model.TypeOfNextExpr:
		return ExprNode{
			Op:       "type_of_next",
			Sequence: x.Seq.Name(),
			Interval: x.Itv.Name(),
			Edge:     x.Last,
			Absent:   x.Absent,
		}, nil
	case model.TypeOfPrevExpr:
		return ExprNode{
			Op:       "type_of_prev",
			Sequence: x.Seq.Name(),
			Interval: x.Itv.Name(),
			Edge:     x.First,
			Absent:   x.Absent,
		}, nil
	default:
		return ExprNode{}, fmt.Errorf("unsupported expression %T", e)
	}
}

func captureExprs(es []model.Expr) ([]ExprNode, error) {
	if len(es) == 0 {
		return nil, nil
	}
	out := make([]ExprNode, len(es))
	for i, e := range es {
		node, err := captureExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

func captureProgram(p *ir.Program) (*Program, error) {
	out := &Program{Horizon: p.Horizon}
	for _, v := range p.Vars {
		out.Vars = append(out.Vars, ProgramVar{ID: int(v.ID), Name: v.Name, Lo: v.Lo, Hi: v.Hi})
	}
	for i, c := range p.Constraints {
		rec, err := capturePrimitive(c)
		if err != nil {
			return nil, fmt.Errorf("interchange: program constraint %d: %w", i, err)
		}
		out.Constraints.Items = append(out.Constraints.Items, rec)
	}
	if p.Objective != nil {
		out.Objective = &ProgramObjective{Var: int(p.Objective.Var), Maximize: p.Objective.Maximize}
	}
	return out, nil
}

func capturePrimitive(c ir.Constraint) (PrimitiveRec, error) {
	switch x := c.(type) {
	case ir.Comparison:
		rec, err := captureComparison(x)
		if err != nil {
			return nil, err
		}
		return rec, nil
	case ir.Clause:
		rec := Clause{}
		for _, lit := range x.Lits {
			rec.Lits = append(rec.Lits, Literal{Var: int(lit.Var), Neg: lit.Neg})
		}
		return rec, nil
	case ir.Reified:
		inner, err := captureComparison(x.C)
		if err != nil {
			return nil, err
		}
		return Reified{Bool: int(x.Bool), C: inner}, nil
	case ir.LinearSum:
		op, err := nameOf(irOpNames, x.Op, "operator")
		if err != nil {
			return nil, err
		}
		return LinearSum{Op: op, K: x.K, Vars: varList(x.Vars), Coeffs: append(Ints(nil), x.Coeffs...)}, nil
	case ir.MinMax:
		return MinMax{IsMax: x.IsMax, Target: int(x.Target), Vars: varList(x.Vars)}, nil
	case ir.Table:
		rec := Table{Vars: varList(x.Vars)}
		for _, row := range x.Rows {
			rec.Rows = append(rec.Rows, append(Ints(nil), row...))
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unsupported primitive %T", c)
	}
}

func captureComparison(c ir.Comparison) (Comparison, error) {
	op, err := nameOf(irOpNames, c.Op, "operator")
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{A: int(c.A), Op: op, B: int(c.B), K: c.K}, nil
}

func varList(ids []ir.VarID) Ints {
	if len(ids) == 0 {
		return nil
	}
	out := make(Ints, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
