package solve

import (
	"fmt"
	"sort"
	"time"

	"github.com/sohaibafifi/schedkit/internal/model"
)

// IntervalValue is the scheduled placement of one present interval.
// End is Start+Length exactly.
type IntervalValue struct {
	Start   int
	End     int
	Length  int
	Size    int
	Present bool
}

// Solution is the extracted answer for one session.
type Solution struct {
	Outcome Outcome
	// HasAssignment reports whether interval values are available.
	// Unsatisfiable outcomes and timeouts without an incumbent have none.
	HasAssignment bool
	// Objective is the objective value, meaningful when HasObjective.
	Objective    int
	HasObjective bool
	Wall         time.Duration

	horizon   int
	intervals map[*model.IntervalVar]*IntervalValue
}

// Interval returns the placement of itv, nil when itv is absent or no
// assignment exists.
func (s *Solution) Interval(itv *model.IntervalVar) *IntervalValue {
	return s.intervals[itv]
}

// Value evaluates an expression against the solution, with the same
// absent-value semantics the expression carries during modeling.
func (s *Solution) Value(e model.Expr) (int, error) {
	if !s.HasAssignment {
		return 0, fmt.Errorf("solve: no assignment to evaluate against (outcome %s)", s.Outcome)
	}
	return s.eval(e)
}

func (s *Solution) eval(e model.Expr) (int, error) {
	switch x := e.(type) {
	case model.Lit:
		return int(x), nil
	case model.StartOfExpr:
		if v := s.intervals[x.Itv]; v != nil {
			return v.Start, nil
		}
		return x.Absent, nil
	case model.EndOfExpr:
		if v := s.intervals[x.Itv]; v != nil {
			return v.End, nil
		}
		return x.Absent, nil
	case model.LengthOfExpr:
		if v := s.intervals[x.Itv]; v != nil {
			return v.Length, nil
		}
		return x.Absent, nil
	case model.SizeOfExpr:
		if v := s.intervals[x.Itv]; v != nil {
			return v.Size, nil
		}
		return x.Absent, nil
	case model.PresenceOfExpr:
		if s.intervals[x.Itv] != nil {
			return 1, nil
		}
		return 0, nil
	case model.SumExpr:
		total := 0
		for _, t := range x.Terms {
			v, err := s.eval(t)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	case model.SubExpr:
		a, err := s.eval(x.A)
		if err != nil {
			return 0, err
		}
		b, err := s.eval(x.B)
		if err != nil {
			return 0, err
		}
		return a - b, nil
	case model.NegExpr:
		v, err := s.eval(x.E)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case model.MinExpr:
		return s.fold(x.Args, false)
	case model.MaxExpr:
		return s.fold(x.Args, true)
	case model.CountPresentExpr:
		n := 0
		for _, itv := range x.Itvs {
			if s.intervals[itv] != nil {
				n++
			}
		}
		return n, nil
	case model.EarliestStartExpr:
		best, any := s.horizon, false
		for _, itv := range x.Itvs {
			if v := s.intervals[itv]; v != nil {
				if !any || v.Start < best {
					best = v.Start
				}
				any = true
			}
		}
		return best, nil
	case model.LatestEndExpr:
		return s.latestEnd(x.Itvs), nil
	case model.MakespanExpr:
		return s.latestEnd(x.Itvs), nil
	case model.SpanLengthExpr:
		lo, any := 0, false
		for _, itv := range x.Itvs {
			if v := s.intervals[itv]; v != nil {
				if !any || v.Start < lo {
					lo = v.Start
				}
				any = true
			}
		}
		if !any {
			return 0, nil
		}
		if d := s.latestEnd(x.Itvs) - lo; d > 0 {
			return d, nil
		}
		return 0, nil
	case model.TypeOfNextExpr:
		return s.neighborType(x.Seq, x.Itv, +1, x.Last, x.Absent)
	case model.TypeOfPrevExpr:
		return s.neighborType(x.Seq, x.Itv, -1, x.First, x.Absent)
	default:
		return 0, fmt.Errorf("solve: unsupported expression type %T", e)
	}
}

func (s *Solution) fold(args []model.Expr, isMax bool) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("solve: min/max of no arguments")
	}
	best, err := s.eval(args[0])
	if err != nil {
		return 0, err
	}
	for _, a := range args[1:] {
		v, err := s.eval(a)
		if err != nil {
			return 0, err
		}
		if (isMax && v > best) || (!isMax && v < best) {
			best = v
		}
	}
	return best, nil
}

func (s *Solution) latestEnd(itvs []*model.IntervalVar) int {
	best := 0
	for _, itv := range itvs {
		if v := s.intervals[itv]; v != nil && v.End > best {
			best = v.End
		}
	}
	return best
}

// neighborType reads the realized order of the sequence's present
// members and returns the type of the member one step away from itv.
func (s *Solution) neighborType(seq *model.SequenceVar, itv *model.IntervalVar, dir, edge, absent int) (int, error) {
	if s.intervals[itv] == nil {
		return absent, nil
	}

	type member struct {
		idx   int
		start int
	}
	var present []member
	self := -1
	for i, m := range seq.Intervals() {
		v := s.intervals[m]
		if v == nil {
			continue
		}
		if m == itv {
			self = len(present)
		}
		present = append(present, member{idx: i, start: v.Start})
	}
	if self < 0 {
		return 0, fmt.Errorf("solve: interval %q is not in sequence %q", itv.Name(), seq.Name())
	}
	selfIdx := present[self].idx
	sort.SliceStable(present, func(i, j int) bool {
		if present[i].start != present[j].start {
			return present[i].start < present[j].start
		}
		return present[i].idx < present[j].idx
	})
	for pos, m := range present {
		if m.idx == selfIdx {
			n := pos + dir
			if n < 0 || n >= len(present) {
				return edge, nil
			}
			return seq.TypeOf(present[n].idx), nil
		}
	}
	return 0, fmt.Errorf("solve: interval %q lost during ordering", itv.Name())
}
