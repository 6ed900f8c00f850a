package model

// Constraint is a high-level scheduling constraint. The variant set is
// sealed; Session.Post validates, the lowering engine decomposes.
type Constraint interface {
	// validate reports structural problems with the constraint itself.
	validate() error

	// operands lists every interval the constraint names, in a fixed
	// order. The presence guard of the lowered form is built from exactly
	// this list.
	operands() []*IntervalVar

	isConstraint()
}

// CmpOp is a comparison operator.
type CmpOp int

const (
	OpLe CmpOp = iota
	OpLt
	OpGe
	OpGt
	OpEq
	OpNe
)

// String returns the operator spelling.
func (op CmpOp) String() string {
	switch op {
	case OpLe:
		return "<="
	case OpLt:
		return "<"
	case OpGe:
		return ">="
	case OpGt:
		return ">"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	default:
		return "?"
	}
}

// PrecKind names the eight interval precedence forms. Before-forms lower
// to >= on the later side, at-forms to ==.
type PrecKind int

const (
	EndBeforeStartKind PrecKind = iota
	StartBeforeEndKind
	StartBeforeStartKind
	EndBeforeEndKind
	StartAtStartKind
	StartAtEndKind
	EndAtStartKind
	EndAtEndKind
)

// String returns the precedence form name.
func (k PrecKind) String() string {
	switch k {
	case EndBeforeStartKind:
		return "end_before_start"
	case StartBeforeEndKind:
		return "start_before_end"
	case StartBeforeStartKind:
		return "start_before_start"
	case EndBeforeEndKind:
		return "end_before_end"
	case StartAtStartKind:
		return "start_at_start"
	case StartAtEndKind:
		return "start_at_end"
	case EndAtStartKind:
		return "end_at_start"
	case EndAtEndKind:
		return "end_at_end"
	default:
		return "?"
	}
}

// Precedence relates two intervals: <left of A> + Delay <op> <left of B>.
type Precedence struct {
	Kind  PrecKind
	A     *IntervalVar
	B     *IntervalVar
	Delay int
}

func (c Precedence) validate() error {
	if c.A == nil || c.B == nil {
		return validationf("precedence", "nil interval")
	}
	return nil
}
func (c Precedence) operands() []*IntervalVar { return []*IntervalVar{c.A, c.B} }
func (Precedence) isConstraint()              {}

// EndBeforeStart posts end(a) + delay <= start(b).
func EndBeforeStart(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: EndBeforeStartKind, A: a, B: b, Delay: delay}
}

// StartBeforeEnd posts start(a) + delay <= end(b).
func StartBeforeEnd(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: StartBeforeEndKind, A: a, B: b, Delay: delay}
}

// StartBeforeStart posts start(a) + delay <= start(b).
func StartBeforeStart(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: StartBeforeStartKind, A: a, B: b, Delay: delay}
}

// EndBeforeEnd posts end(a) + delay <= end(b).
func EndBeforeEnd(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: EndBeforeEndKind, A: a, B: b, Delay: delay}
}

// StartAtStart posts start(a) + delay == start(b).
func StartAtStart(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: StartAtStartKind, A: a, B: b, Delay: delay}
}

// StartAtEnd posts start(a) + delay == end(b).
func StartAtEnd(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: StartAtEndKind, A: a, B: b, Delay: delay}
}

// EndAtStart posts end(a) + delay == start(b).
func EndAtStart(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: EndAtStartKind, A: a, B: b, Delay: delay}
}

// EndAtEnd posts end(a) + delay == end(b).
func EndAtEnd(a, b *IntervalVar, delay int) Constraint {
	return Precedence{Kind: EndAtEndKind, A: a, B: b, Delay: delay}
}

// SpanConstraint makes Main cover its present subtasks: Main is present
// iff at least one subtask is, and then spans from the earliest start to
// the latest end.
type SpanConstraint struct {
	Main *IntervalVar
	Subs []*IntervalVar
}

func (c SpanConstraint) validate() error {
	if c.Main == nil {
		return validationf("span", "nil main interval")
	}
	if len(c.Subs) == 0 {
		return validationf("span", "no subtasks")
	}
	for _, itv := range c.Subs {
		if itv == c.Main {
			return namedValidationf("span", c.Main.name, "main interval cannot be its own subtask")
		}
	}
	return nil
}
func (c SpanConstraint) operands() []*IntervalVar {
	return append([]*IntervalVar{c.Main}, c.Subs...)
}
func (SpanConstraint) isConstraint() {}

// Span builds a SpanConstraint.
func Span(main *IntervalVar, subs ...*IntervalVar) Constraint {
	return SpanConstraint{Main: main, Subs: subs}
}

// AlternativeConstraint selects exactly Cardinality of the alternatives
// when Main is present; a selected alternative mirrors Main's start, end,
// and size.
type AlternativeConstraint struct {
	Main        *IntervalVar
	Alts        []*IntervalVar
	Cardinality int
}

func (c AlternativeConstraint) validate() error {
	if c.Main == nil {
		return validationf("alternative", "nil main interval")
	}
	if len(c.Alts) == 0 {
		return validationf("alternative", "no alternatives")
	}
	if c.Cardinality < 1 {
		return validationf("cardinality", "must be >= 1, got %d", c.Cardinality)
	}
	if c.Cardinality > len(c.Alts) {
		return validationf("cardinality", "%d exceeds %d alternatives", c.Cardinality, len(c.Alts))
	}
	for _, alt := range c.Alts {
		if alt == nil {
			return validationf("alternative", "nil alternative")
		}
		if !alt.optional {
			return namedValidationf("alternative", alt.name, "alternatives must be optional intervals")
		}
	}
	return nil
}
func (c AlternativeConstraint) operands() []*IntervalVar {
	return append([]*IntervalVar{c.Main}, c.Alts...)
}
func (AlternativeConstraint) isConstraint() {}

// Alternative builds an AlternativeConstraint with the given cardinality.
func Alternative(main *IntervalVar, alts []*IntervalVar, cardinality int) Constraint {
	return AlternativeConstraint{Main: main, Alts: alts, Cardinality: cardinality}
}

// SynchronizeConstraint makes every present other start and end exactly
// with Main.
type SynchronizeConstraint struct {
	Main   *IntervalVar
	Others []*IntervalVar
}

func (c SynchronizeConstraint) validate() error {
	if c.Main == nil {
		return validationf("synchronize", "nil main interval")
	}
	if len(c.Others) == 0 {
		return validationf("synchronize", "no intervals to synchronize")
	}
	return nil
}
func (c SynchronizeConstraint) operands() []*IntervalVar {
	return append([]*IntervalVar{c.Main}, c.Others...)
}
func (SynchronizeConstraint) isConstraint() {}

// Synchronize builds a SynchronizeConstraint.
func Synchronize(main *IntervalVar, others ...*IntervalVar) Constraint {
	return SynchronizeConstraint{Main: main, Others: others}
}

// SeqNoOverlapConstraint orders the members of a sequence without overlap,
// honoring transition times between member types. Direct restricts
// transition times to immediately adjacent pairs.
type SeqNoOverlapConstraint struct {
	Seq    *SequenceVar
	Matrix *TransitionMatrix
	Direct bool
}

func (c SeqNoOverlapConstraint) validate() error {
	if c.Seq == nil {
		return validationf("sequence", "nil sequence")
	}
	if c.Matrix != nil {
		if !c.Seq.Typed() {
			return namedValidationf("transitions", c.Seq.name, "transition matrix requires a typed sequence")
		}
		if max := c.Seq.MaxType(); max >= c.Matrix.Size() {
			return namedValidationf("transitions", c.Seq.name,
				"matrix covers %d types but sequence uses type %d", c.Matrix.Size(), max)
		}
	}
	return nil
}
func (c SeqNoOverlapConstraint) operands() []*IntervalVar {
	if c.Seq == nil {
		return nil
	}
	return c.Seq.intervals
}
func (SeqNoOverlapConstraint) isConstraint() {}

// SeqNoOverlap builds a SeqNoOverlapConstraint. Matrix may be nil.
func SeqNoOverlap(seq *SequenceVar, matrix *TransitionMatrix, direct bool) Constraint {
	return SeqNoOverlapConstraint{Seq: seq, Matrix: matrix, Direct: direct}
}

// SeqPosKind names the four membership-position constraints.
type SeqPosKind int

const (
	SeqFirstKind SeqPosKind = iota
	SeqLastKind
	SeqBeforeKind
	SeqPreviousKind
)

// SeqPosition pins members of a sequence: first, last, relative order, or
// immediate adjacency. B is nil for first/last.
type SeqPosition struct {
	Kind SeqPosKind
	Seq  *SequenceVar
	A    *IntervalVar
	B    *IntervalVar
}

func (c SeqPosition) validate() error {
	if c.Seq == nil {
		return validationf("sequence", "nil sequence")
	}
	if c.A == nil {
		return validationf("sequence", "nil interval")
	}
	if c.Seq.indexOf(c.A) < 0 {
		return namedValidationf("sequence", c.A.name, "interval is not in sequence %q", c.Seq.name)
	}
	if c.Kind == SeqBeforeKind || c.Kind == SeqPreviousKind {
		if c.B == nil {
			return validationf("sequence", "nil interval")
		}
		if c.A == c.B {
			return validationf("sequence", "the two intervals must be different")
		}
		if c.Seq.indexOf(c.B) < 0 {
			return namedValidationf("sequence", c.B.name, "interval is not in sequence %q", c.Seq.name)
		}
	}
	return nil
}
func (c SeqPosition) operands() []*IntervalVar {
	if c.Seq == nil {
		return nil
	}
	// The whole membership participates: first/last/previous quantify over
	// every other member.
	return c.Seq.intervals
}
func (SeqPosition) isConstraint() {}

// First pins itv as the earliest present member of seq.
func First(seq *SequenceVar, itv *IntervalVar) Constraint {
	return SeqPosition{Kind: SeqFirstKind, Seq: seq, A: itv}
}

// Last pins itv as the latest present member of seq.
func Last(seq *SequenceVar, itv *IntervalVar) Constraint {
	return SeqPosition{Kind: SeqLastKind, Seq: seq, A: itv}
}

// Before orders a entirely before b within seq.
func Before(seq *SequenceVar, a, b *IntervalVar) Constraint {
	return SeqPosition{Kind: SeqBeforeKind, Seq: seq, A: a, B: b}
}

// Previous makes a the immediate predecessor of b within seq.
func Previous(seq *SequenceVar, a, b *IntervalVar) Constraint {
	return SeqPosition{Kind: SeqPreviousKind, Seq: seq, A: a, B: b}
}

// OverlapKind names the pairwise overlap constraints.
type OverlapKind int

const (
	MustOverlapKind OverlapKind = iota
	OverlapAtLeastKind
)

// Overlap relates two intervals by their common extent.
type Overlap struct {
	Kind OverlapKind
	A    *IntervalVar
	B    *IntervalVar
	K    int
}

func (c Overlap) validate() error {
	if c.A == nil || c.B == nil {
		return validationf("overlap", "nil interval")
	}
	if c.Kind == OverlapAtLeastKind && c.K < 0 {
		return validationf("overlap", "minimum overlap %d is negative", c.K)
	}
	return nil
}
func (c Overlap) operands() []*IntervalVar { return []*IntervalVar{c.A, c.B} }
func (Overlap) isConstraint()              {}

// MustOverlap requires a and b to share at least one time point.
func MustOverlap(a, b *IntervalVar) Constraint {
	return Overlap{Kind: MustOverlapKind, A: a, B: b}
}

// OverlapAtLeast requires a and b to overlap for at least k time units.
// k == 0 is vacuous.
func OverlapAtLeast(a, b *IntervalVar, k int) Constraint {
	return Overlap{Kind: OverlapAtLeastKind, A: a, B: b, K: k}
}

// NoOverlapConstraint forbids any pairwise overlap among the intervals.
type NoOverlapConstraint struct {
	Itvs []*IntervalVar
}

func (c NoOverlapConstraint) validate() error {
	for _, itv := range c.Itvs {
		if itv == nil {
			return validationf("no_overlap", "nil interval")
		}
	}
	return nil
}
func (c NoOverlapConstraint) operands() []*IntervalVar { return c.Itvs }
func (NoOverlapConstraint) isConstraint()              {}

// NoOverlapPairwise forbids overlap among the intervals. Fewer than two
// intervals is vacuous.
func NoOverlapPairwise(itvs ...*IntervalVar) Constraint {
	return NoOverlapConstraint{Itvs: itvs}
}

// ChainConstraint orders the intervals consecutively with per-gap delays.
// Strict pins each gap exactly; otherwise the delay is a minimum.
type ChainConstraint struct {
	Itvs   []*IntervalVar
	Delays []int
	Strict bool
}

func (c ChainConstraint) validate() error {
	if len(c.Itvs) < 2 {
		return validationf("chain", "needs at least two intervals, got %d", len(c.Itvs))
	}
	for _, itv := range c.Itvs {
		if itv == nil {
			return validationf("chain", "nil interval")
		}
	}
	if c.Delays != nil && len(c.Delays) != 1 && len(c.Delays) != len(c.Itvs)-1 {
		return validationf("delays", "got %d delays for %d gaps", len(c.Delays), len(c.Itvs)-1)
	}
	return nil
}
func (c ChainConstraint) operands() []*IntervalVar { return c.Itvs }
func (ChainConstraint) isConstraint()              {}

// DelayAt returns the delay of gap i under the scalar/list convention.
func (c ChainConstraint) DelayAt(i int) int {
	switch {
	case len(c.Delays) == 0:
		return 0
	case len(c.Delays) == 1:
		return c.Delays[0]
	default:
		return c.Delays[i]
	}
}

// Chain posts end(itvs[i]) + delay(i) <= start(itvs[i+1]) for each gap.
// Delays may be nil (all zero), a single shared value, or one per gap.
func Chain(itvs []*IntervalVar, delays []int) Constraint {
	return ChainConstraint{Itvs: itvs, Delays: delays}
}

// StrictChain is Chain with equality on every gap.
func StrictChain(itvs []*IntervalVar, delays []int) Constraint {
	return ChainConstraint{Itvs: itvs, Delays: delays, Strict: true}
}

// CumulKind names the profile-bounding constraints.
type CumulKind int

const (
	CumulLEKind CumulKind = iota
	CumulGEKind
	CumulRangeKind
)

// CumulBound bounds a cumul function everywhere on the horizon.
type CumulBound struct {
	Kind CumulKind
	F    *CumulFunction
	Min  int
	Max  int
}

func (c CumulBound) validate() error {
	if err := c.F.validate(); err != nil {
		return err
	}
	switch c.Kind {
	case CumulLEKind:
		if c.Max < 0 {
			return validationf("cumul", "upper bound %d is negative", c.Max)
		}
	case CumulRangeKind:
		if c.Min > c.Max {
			return validationf("cumul", "min %d exceeds max %d", c.Min, c.Max)
		}
	}
	return nil
}
func (c CumulBound) operands() []*IntervalVar { return c.F.operands() }
func (CumulBound) isConstraint()              {}

// CumulLE bounds the profile above: f(t) <= max for all t.
func CumulLE(f *CumulFunction, max int) Constraint {
	return CumulBound{Kind: CumulLEKind, F: f, Max: max}
}

// CumulGE bounds the profile below: f(t) >= min for all t.
func CumulGE(f *CumulFunction, min int) Constraint {
	return CumulBound{Kind: CumulGEKind, F: f, Min: min}
}

// CumulRange bounds the profile on both sides.
func CumulRange(f *CumulFunction, min, max int) Constraint {
	return CumulBound{Kind: CumulRangeKind, F: f, Min: min, Max: max}
}

// AlwaysInConstraint bounds a cumul function inside a window: either the
// extent of Itv, or the fixed window [From, To).
type AlwaysInConstraint struct {
	F    *CumulFunction
	Itv  *IntervalVar
	From int
	To   int
	Min  int
	Max  int
}

func (c AlwaysInConstraint) validate() error {
	if err := c.F.validate(); err != nil {
		return err
	}
	if c.Min > c.Max {
		return validationf("always_in", "min %d exceeds max %d", c.Min, c.Max)
	}
	if c.Itv == nil && c.From >= c.To {
		return validationf("always_in", "window [%d, %d) is empty", c.From, c.To)
	}
	return nil
}
func (c AlwaysInConstraint) operands() []*IntervalVar {
	ops := c.F.operands()
	if c.Itv != nil {
		ops = append(ops, c.Itv)
	}
	return ops
}
func (AlwaysInConstraint) isConstraint() {}

// AlwaysIn bounds f within the extent of itv.
func AlwaysIn(f *CumulFunction, itv *IntervalVar, min, max int) Constraint {
	return AlwaysInConstraint{F: f, Itv: itv, Min: min, Max: max}
}

// AlwaysInWindow bounds f within the fixed window [from, to).
func AlwaysInWindow(f *CumulFunction, from, to, min, max int) Constraint {
	return AlwaysInConstraint{F: f, From: from, To: to, Min: min, Max: max}
}

// CumulativeConstraint is the classic cumulative resource: each interval
// demands a height while it runs, and the sum never exceeds Capacity.
type CumulativeConstraint struct {
	Itvs     []*IntervalVar
	Heights  []int
	Capacity int
}

func (c CumulativeConstraint) validate() error {
	if len(c.Itvs) != len(c.Heights) {
		return validationf("heights", "got %d heights for %d intervals", len(c.Heights), len(c.Itvs))
	}
	if c.Capacity < 0 {
		return validationf("capacity", "must be non-negative, got %d", c.Capacity)
	}
	for i, h := range c.Heights {
		if h < 0 {
			return validationf("heights", "height %d at position %d is negative", h, i)
		}
	}
	for _, itv := range c.Itvs {
		if itv == nil {
			return validationf("intervals", "nil interval")
		}
	}
	return nil
}
func (c CumulativeConstraint) operands() []*IntervalVar { return c.Itvs }
func (CumulativeConstraint) isConstraint()              {}

// SeqCumulative bounds the demand profile of the intervals by capacity.
func SeqCumulative(itvs []*IntervalVar, heights []int, capacity int) Constraint {
	return CumulativeConstraint{Itvs: itvs, Heights: heights, Capacity: capacity}
}

// Period is a half-open forbidden window [Lo, Hi).
type Period struct {
	Lo int
	Hi int
}

// ForbidKind names the forbidden-period constraints.
type ForbidKind int

const (
	ForbidStartKind ForbidKind = iota
	ForbidEndKind
	ForbidExtentKind
)

// ForbiddenPeriods keeps an interval clear of the given windows: its
// start, its end, or its whole extent depending on Kind.
type ForbiddenPeriods struct {
	Kind    ForbidKind
	Itv     *IntervalVar
	Periods []Period
}

func (c ForbiddenPeriods) validate() error {
	if c.Itv == nil {
		return validationf("forbidden", "nil interval")
	}
	for i, p := range c.Periods {
		if p.Lo < 0 {
			return validationf("periods", "period %d starts at %d, must be non-negative", i, p.Lo)
		}
		if p.Lo >= p.Hi {
			return validationf("periods", "period %d [%d, %d) is empty", i, p.Lo, p.Hi)
		}
	}
	return nil
}
func (c ForbiddenPeriods) operands() []*IntervalVar { return []*IntervalVar{c.Itv} }
func (ForbiddenPeriods) isConstraint()              {}

// ForbidStart keeps start(itv) outside every period.
func ForbidStart(itv *IntervalVar, periods []Period) Constraint {
	return ForbiddenPeriods{Kind: ForbidStartKind, Itv: itv, Periods: periods}
}

// ForbidEnd keeps end(itv) outside every period: not lo < end <= hi.
func ForbidEnd(itv *IntervalVar, periods []Period) Constraint {
	return ForbiddenPeriods{Kind: ForbidEndKind, Itv: itv, Periods: periods}
}

// ForbidExtent keeps the whole extent clear of every period.
func ForbidExtent(itv *IntervalVar, periods []Period) Constraint {
	return ForbiddenPeriods{Kind: ForbidExtentKind, Itv: itv, Periods: periods}
}

// PresenceKind names the presence-logic constraints.
type PresenceKind int

const (
	IfPresentThenKind PresenceKind = iota
	PresenceOrKind
	PresenceXorKind
	AllOrNoneKind
	AtLeastKKind
	AtMostKKind
	ExactlyKKind
)

// PresenceLogic relates interval presences. A and B carry the binary
// forms; Itvs and K the counted group forms.
type PresenceLogic struct {
	Kind PresenceKind
	A    *IntervalVar
	B    *IntervalVar
	Itvs []*IntervalVar
	K    int
}

func (c PresenceLogic) validate() error {
	switch c.Kind {
	case IfPresentThenKind, PresenceOrKind, PresenceXorKind:
		if c.A == nil || c.B == nil {
			return validationf("presence", "nil interval")
		}
	case AllOrNoneKind:
		for _, itv := range c.Itvs {
			if itv == nil {
				return validationf("presence", "nil interval")
			}
		}
	case AtLeastKKind, AtMostKKind, ExactlyKKind:
		if c.K < 0 {
			return validationf("presence", "count %d is negative", c.K)
		}
		for _, itv := range c.Itvs {
			if itv == nil {
				return validationf("presence", "nil interval")
			}
		}
	}
	return nil
}
func (c PresenceLogic) operands() []*IntervalVar {
	switch c.Kind {
	case IfPresentThenKind, PresenceOrKind, PresenceXorKind:
		return []*IntervalVar{c.A, c.B}
	default:
		return c.Itvs
	}
}
func (PresenceLogic) isConstraint() {}

// IfPresentThen posts presence(a) implies presence(b).
func IfPresentThen(a, b *IntervalVar) Constraint {
	return PresenceLogic{Kind: IfPresentThenKind, A: a, B: b}
}

// PresenceOr posts presence(a) or presence(b).
func PresenceOr(a, b *IntervalVar) Constraint {
	return PresenceLogic{Kind: PresenceOrKind, A: a, B: b}
}

// PresenceXor posts exactly one of a, b present.
func PresenceXor(a, b *IntervalVar) Constraint {
	return PresenceLogic{Kind: PresenceXorKind, A: a, B: b}
}

// AllPresentOrAllAbsent ties the presences of the group together.
func AllPresentOrAllAbsent(itvs ...*IntervalVar) Constraint {
	return PresenceLogic{Kind: AllOrNoneKind, Itvs: itvs}
}

// AtLeastKPresent requires at least k of the intervals present.
func AtLeastKPresent(k int, itvs ...*IntervalVar) Constraint {
	return PresenceLogic{Kind: AtLeastKKind, Itvs: itvs, K: k}
}

// AtMostKPresent requires at most k of the intervals present.
func AtMostKPresent(k int, itvs ...*IntervalVar) Constraint {
	return PresenceLogic{Kind: AtMostKKind, Itvs: itvs, K: k}
}

// ExactlyKPresent requires exactly k of the intervals present.
func ExactlyKPresent(k int, itvs ...*IntervalVar) Constraint {
	return PresenceLogic{Kind: ExactlyKKind, Itvs: itvs, K: k}
}

// BoundKind names the absolute time-bound constraints.
type BoundKind int

const (
	ReleaseDateKind BoundKind = iota
	DeadlineKind
)

// TimeBound pins an interval against an absolute time: release dates
// bound the start below, deadlines bound the end above. Strict uses the
// strict comparison.
type TimeBound struct {
	Kind   BoundKind
	Itv    *IntervalVar
	T      int
	Strict bool
}

func (c TimeBound) validate() error {
	if c.Itv == nil {
		return validationf("bound", "nil interval")
	}
	if c.T < 0 {
		return validationf("bound", "time %d is negative", c.T)
	}
	return nil
}
func (c TimeBound) operands() []*IntervalVar { return []*IntervalVar{c.Itv} }
func (TimeBound) isConstraint()              {}

// ReleaseDate posts start(itv) >= t.
func ReleaseDate(itv *IntervalVar, t int) Constraint {
	return TimeBound{Kind: ReleaseDateKind, Itv: itv, T: t}
}

// StrictReleaseDate posts start(itv) > t.
func StrictReleaseDate(itv *IntervalVar, t int) Constraint {
	return TimeBound{Kind: ReleaseDateKind, Itv: itv, T: t, Strict: true}
}

// Deadline posts end(itv) <= t.
func Deadline(itv *IntervalVar, t int) Constraint {
	return TimeBound{Kind: DeadlineKind, Itv: itv, T: t}
}

// StrictDeadline posts end(itv) < t.
func StrictDeadline(itv *IntervalVar, t int) Constraint {
	return TimeBound{Kind: DeadlineKind, Itv: itv, T: t, Strict: true}
}

// TimeWindowConstraint is a release date and a deadline together.
type TimeWindowConstraint struct {
	Itv      *IntervalVar
	Earliest int
	Latest   int
}

func (c TimeWindowConstraint) validate() error {
	if c.Itv == nil {
		return validationf("time_window", "nil interval")
	}
	if c.Earliest < 0 {
		return validationf("time_window", "earliest %d is negative", c.Earliest)
	}
	if c.Earliest > c.Latest {
		return validationf("time_window", "earliest %d exceeds latest %d", c.Earliest, c.Latest)
	}
	return nil
}
func (c TimeWindowConstraint) operands() []*IntervalVar { return []*IntervalVar{c.Itv} }
func (TimeWindowConstraint) isConstraint()              {}

// TimeWindow posts start(itv) >= earliest and end(itv) <= latest.
func TimeWindow(itv *IntervalVar, earliest, latest int) Constraint {
	return TimeWindowConstraint{Itv: itv, Earliest: earliest, Latest: latest}
}

// StateKind names the state-function constraints.
type StateKind int

const (
	RequireStateKind StateKind = iota
	SetStateKind
	StateInKind
	StateConstantKind
	NoStateKind
)

// StateConstraint ties an interval to a state of a state function.
// RequireState demands a named state over the extent (with the alignment
// flags choosing which endpoint transitions are pinned); RequireStateIn
// demands any state within [Min, Max]; RequireConstantState demands an
// unchanged state without naming it; RequireNoState keeps the function
// undefined over the extent; SetState leaves the state behind after the
// interval ends.
type StateConstraint struct {
	Kind         StateKind
	F            *StateFunction
	Itv          *IntervalVar
	State        int
	Min, Max     int
	StartAligned bool
	EndAligned   bool
}

func (c StateConstraint) validate() error {
	if c.F == nil {
		return validationf("state", "nil state function")
	}
	if c.Itv == nil {
		return validationf("state", "nil interval")
	}
	switch c.Kind {
	case RequireStateKind, SetStateKind:
		if c.State < 0 {
			return validationf("state", "state %d is negative", c.State)
		}
		if m := c.F.transitions; m != nil && c.State >= m.Size() {
			return validationf("state", "state %d outside matrix of size %d", c.State, m.Size())
		}
	case StateInKind:
		if c.Min < 0 {
			return validationf("state", "min state %d is negative", c.Min)
		}
		if c.Min > c.Max {
			return validationf("state", "min state %d exceeds max %d", c.Min, c.Max)
		}
		if m := c.F.transitions; m != nil && c.Max >= m.Size() {
			return validationf("state", "max state %d outside matrix of size %d", c.Max, m.Size())
		}
	}
	return nil
}
func (c StateConstraint) operands() []*IntervalVar { return []*IntervalVar{c.Itv} }
func (StateConstraint) isConstraint()              {}

// RequireState demands f holds state over the extent of itv.
func RequireState(f *StateFunction, itv *IntervalVar, state int, startAligned, endAligned bool) Constraint {
	return StateConstraint{
		Kind: RequireStateKind, F: f, Itv: itv, State: state,
		StartAligned: startAligned, EndAligned: endAligned,
	}
}

// RequireStateIn demands f holds some state within [min, max] over the
// extent of itv.
func RequireStateIn(f *StateFunction, itv *IntervalVar, min, max int, startAligned, endAligned bool) Constraint {
	return StateConstraint{
		Kind: StateInKind, F: f, Itv: itv, Min: min, Max: max,
		StartAligned: startAligned, EndAligned: endAligned,
	}
}

// RequireConstantState demands f holds one unchanged state over the
// extent of itv, without naming which.
func RequireConstantState(f *StateFunction, itv *IntervalVar, startAligned, endAligned bool) Constraint {
	return StateConstraint{
		Kind: StateConstantKind, F: f, Itv: itv,
		StartAligned: startAligned, EndAligned: endAligned,
	}
}

// RequireNoState keeps f undefined over the extent of itv.
func RequireNoState(f *StateFunction, itv *IntervalVar) Constraint {
	return StateConstraint{Kind: NoStateKind, F: f, Itv: itv}
}

// SetState makes itv leave f in state from its end onward.
func SetState(f *StateFunction, itv *IntervalVar, state int) Constraint {
	return StateConstraint{Kind: SetStateKind, F: f, Itv: itv, State: state}
}

// CmpConstraint compares two expressions.
type CmpConstraint struct {
	Op CmpOp
	A  Expr
	B  Expr
}

func (c CmpConstraint) validate() error {
	if c.A == nil || c.B == nil {
		return validationf("compare", "nil expression")
	}
	if err := validateExpr(c.A); err != nil {
		return err
	}
	return validateExpr(c.B)
}
func (c CmpConstraint) operands() []*IntervalVar {
	return append(exprOperands(c.A), exprOperands(c.B)...)
}
func (CmpConstraint) isConstraint() {}

// validateExpr checks arity rules on expression trees.
func validateExpr(e Expr) error {
	switch x := e.(type) {
	case MinExpr:
		if len(x.Args) < 2 {
			return validationf("min", "needs at least two arguments, got %d", len(x.Args))
		}
		for _, a := range x.Args {
			if err := validateExpr(a); err != nil {
				return err
			}
		}
	case MaxExpr:
		if len(x.Args) < 2 {
			return validationf("max", "needs at least two arguments, got %d", len(x.Args))
		}
		for _, a := range x.Args {
			if err := validateExpr(a); err != nil {
				return err
			}
		}
	case SumExpr:
		for _, t := range x.Terms {
			if err := validateExpr(t); err != nil {
				return err
			}
		}
	case SubExpr:
		if err := validateExpr(x.A); err != nil {
			return err
		}
		return validateExpr(x.B)
	case NegExpr:
		return validateExpr(x.E)
	case TypeOfNextExpr:
		if x.Seq == nil || x.Itv == nil {
			return validationf("type_of_next", "nil sequence or interval")
		}
		if !x.Seq.Typed() {
			return namedValidationf("type_of_next", x.Seq.name, "requires a typed sequence")
		}
		if x.Seq.indexOf(x.Itv) < 0 {
			return namedValidationf("type_of_next", x.Itv.name, "interval is not in sequence %q", x.Seq.name)
		}
	case TypeOfPrevExpr:
		if x.Seq == nil || x.Itv == nil {
			return validationf("type_of_prev", "nil sequence or interval")
		}
		if !x.Seq.Typed() {
			return namedValidationf("type_of_prev", x.Seq.name, "requires a typed sequence")
		}
		if x.Seq.indexOf(x.Itv) < 0 {
			return namedValidationf("type_of_prev", x.Itv.name, "interval is not in sequence %q", x.Seq.name)
		}
	}
	return nil
}

// Le posts a <= b.
func Le(a, b Expr) Constraint { return CmpConstraint{Op: OpLe, A: a, B: b} }

// Lt posts a < b.
func Lt(a, b Expr) Constraint { return CmpConstraint{Op: OpLt, A: a, B: b} }

// Ge posts a >= b.
func Ge(a, b Expr) Constraint { return CmpConstraint{Op: OpGe, A: a, B: b} }

// Gt posts a > b.
func Gt(a, b Expr) Constraint { return CmpConstraint{Op: OpGt, A: a, B: b} }

// Eq posts a == b.
func Eq(a, b Expr) Constraint { return CmpConstraint{Op: OpEq, A: a, B: b} }

// Ne posts a != b.
func Ne(a, b Expr) Constraint { return CmpConstraint{Op: OpNe, A: a, B: b} }
