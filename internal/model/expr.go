package model

// Expr is an integer expression over the model. The variant set is sealed:
// lowering type-switches over it exhaustively.
//
// Accessor expressions carry an absent value, returned when the named
// interval is absent; this keeps aggregates total over optional intervals.
type Expr interface {
	isExpr()
}

// Lit is an integer literal.
type Lit int

// StartOfExpr is the start time of an interval, or Absent when absent.
type StartOfExpr struct {
	Itv    *IntervalVar
	Absent int
}

// EndOfExpr is the end time of an interval, or Absent when absent.
type EndOfExpr struct {
	Itv    *IntervalVar
	Absent int
}

// LengthOfExpr is the length of an interval, or Absent when absent.
type LengthOfExpr struct {
	Itv    *IntervalVar
	Absent int
}

// SizeOfExpr is the size of an interval, or Absent when absent.
type SizeOfExpr struct {
	Itv    *IntervalVar
	Absent int
}

// PresenceOfExpr is 1 when the interval is present, else 0.
type PresenceOfExpr struct {
	Itv *IntervalVar
}

// SumExpr is the sum of its terms.
type SumExpr struct {
	Terms []Expr
}

// SubExpr is A - B.
type SubExpr struct {
	A Expr
	B Expr
}

// NegExpr is -E.
type NegExpr struct {
	E Expr
}

// MinExpr is the minimum of its arguments (at least two).
type MinExpr struct {
	Args []Expr
}

// MaxExpr is the maximum of its arguments (at least two).
type MaxExpr struct {
	Args []Expr
}

// CountPresentExpr counts the present intervals of the set.
type CountPresentExpr struct {
	Itvs []*IntervalVar
}

// EarliestStartExpr is the minimum start over present intervals; absent
// intervals do not participate.
type EarliestStartExpr struct {
	Itvs []*IntervalVar
}

// LatestEndExpr is the maximum end over present intervals; absent
// intervals do not participate.
type LatestEndExpr struct {
	Itvs []*IntervalVar
}

// SpanLengthExpr is LatestEnd - EarliestStart over the set.
type SpanLengthExpr struct {
	Itvs []*IntervalVar
}

// MakespanExpr is the maximum end over present intervals, 0 when none.
type MakespanExpr struct {
	Itvs []*IntervalVar
}

// TypeOfNextExpr is the type of the member scheduled immediately after Itv
// in Seq. Last carries the value when Itv is last; Absent the value when
// Itv is absent.
type TypeOfNextExpr struct {
	Seq    *SequenceVar
	Itv    *IntervalVar
	Last   int
	Absent int
}

// TypeOfPrevExpr is the type of the member scheduled immediately before
// Itv in Seq. First carries the value when Itv is first; Absent the value
// when Itv is absent.
type TypeOfPrevExpr struct {
	Seq    *SequenceVar
	Itv    *IntervalVar
	First  int
	Absent int
}

func (Lit) isExpr()               {}
func (StartOfExpr) isExpr()       {}
func (EndOfExpr) isExpr()         {}
func (LengthOfExpr) isExpr()      {}
func (SizeOfExpr) isExpr()        {}
func (PresenceOfExpr) isExpr()    {}
func (SumExpr) isExpr()           {}
func (SubExpr) isExpr()           {}
func (NegExpr) isExpr()           {}
func (MinExpr) isExpr()           {}
func (MaxExpr) isExpr()           {}
func (CountPresentExpr) isExpr()  {}
func (EarliestStartExpr) isExpr() {}
func (LatestEndExpr) isExpr()     {}
func (SpanLengthExpr) isExpr()    {}
func (MakespanExpr) isExpr()      {}
func (TypeOfNextExpr) isExpr()    {}
func (TypeOfPrevExpr) isExpr()    {}

// StartOf returns the start-time expression with the given absent value.
func StartOf(itv *IntervalVar, absent int) Expr { return StartOfExpr{Itv: itv, Absent: absent} }

// EndOf returns the end-time expression with the given absent value.
func EndOf(itv *IntervalVar, absent int) Expr { return EndOfExpr{Itv: itv, Absent: absent} }

// LengthOf returns the length expression with the given absent value.
func LengthOf(itv *IntervalVar, absent int) Expr { return LengthOfExpr{Itv: itv, Absent: absent} }

// SizeOf returns the size expression with the given absent value.
func SizeOf(itv *IntervalVar, absent int) Expr { return SizeOfExpr{Itv: itv, Absent: absent} }

// PresenceOf returns the 0/1 presence expression.
func PresenceOf(itv *IntervalVar) Expr { return PresenceOfExpr{Itv: itv} }

// Sum returns the sum of the terms.
func Sum(terms ...Expr) Expr { return SumExpr{Terms: terms} }

// Sub returns a - b.
func Sub(a, b Expr) Expr { return SubExpr{A: a, B: b} }

// Neg returns -e.
func Neg(e Expr) Expr { return NegExpr{E: e} }

// Min returns the minimum of the arguments.
func Min(args ...Expr) Expr { return MinExpr{Args: args} }

// Max returns the maximum of the arguments.
func Max(args ...Expr) Expr { return MaxExpr{Args: args} }

// CountPresent counts the present intervals.
func CountPresent(itvs ...*IntervalVar) Expr { return CountPresentExpr{Itvs: itvs} }

// EarliestStart is the minimum start over present intervals.
func EarliestStart(itvs ...*IntervalVar) Expr { return EarliestStartExpr{Itvs: itvs} }

// LatestEnd is the maximum end over present intervals.
func LatestEnd(itvs ...*IntervalVar) Expr { return LatestEndExpr{Itvs: itvs} }

// SpanLength is LatestEnd minus EarliestStart.
func SpanLength(itvs ...*IntervalVar) Expr { return SpanLengthExpr{Itvs: itvs} }

// Makespan is the maximum end over present intervals, 0 when none present.
func Makespan(itvs ...*IntervalVar) Expr { return MakespanExpr{Itvs: itvs} }

// TypeOfNext queries the type of the successor of itv in seq.
func TypeOfNext(seq *SequenceVar, itv *IntervalVar, last, absent int) Expr {
	return TypeOfNextExpr{Seq: seq, Itv: itv, Last: last, Absent: absent}
}

// TypeOfPrev queries the type of the predecessor of itv in seq.
func TypeOfPrev(seq *SequenceVar, itv *IntervalVar, first, absent int) Expr {
	return TypeOfPrevExpr{Seq: seq, Itv: itv, First: first, Absent: absent}
}

// exprOperands collects the intervals an expression touches, for ownership
// checks and presence guards.
func exprOperands(e Expr) []*IntervalVar {
	switch x := e.(type) {
	case Lit:
		return nil
	case StartOfExpr:
		return []*IntervalVar{x.Itv}
	case EndOfExpr:
		return []*IntervalVar{x.Itv}
	case LengthOfExpr:
		return []*IntervalVar{x.Itv}
	case SizeOfExpr:
		return []*IntervalVar{x.Itv}
	case PresenceOfExpr:
		return []*IntervalVar{x.Itv}
	case SumExpr:
		var out []*IntervalVar
		for _, t := range x.Terms {
			out = append(out, exprOperands(t)...)
		}
		return out
	case SubExpr:
		return append(exprOperands(x.A), exprOperands(x.B)...)
	case NegExpr:
		return exprOperands(x.E)
	case MinExpr:
		var out []*IntervalVar
		for _, a := range x.Args {
			out = append(out, exprOperands(a)...)
		}
		return out
	case MaxExpr:
		var out []*IntervalVar
		for _, a := range x.Args {
			out = append(out, exprOperands(a)...)
		}
		return out
	case CountPresentExpr:
		return x.Itvs
	case EarliestStartExpr:
		return x.Itvs
	case LatestEndExpr:
		return x.Itvs
	case SpanLengthExpr:
		return x.Itvs
	case MakespanExpr:
		return x.Itvs
	case TypeOfNextExpr:
		return []*IntervalVar{x.Itv}
	case TypeOfPrevExpr:
		return []*IntervalVar{x.Itv}
	default:
		return nil
	}
}
