package interchange

import "encoding/xml"

// Document is the root of the interchange format. Field order is the
// emission order, so encoded documents always read declarations first,
// then constraints, then the objective and the lowered program.
type Document struct {
	XMLName xml.Name `xml:"schedule"`
	Horizon int      `xml:"horizon,attr"`

	Intervals []Interval  `xml:"intervals>interval"`
	Sequences []Sequence  `xml:"sequences>sequence"`
	States    []StateFunc `xml:"states>state"`

	Constraints ConstraintList `xml:"constraints"`
	Objective   *Objective     `xml:"objective"`
	Program     *Program       `xml:"program"`
}

// Bound is an inclusive integer bound pair.
type Bound struct {
	Lo int `xml:"lo,attr"`
	Hi int `xml:"hi,attr"`
}

// Step is one breakpoint of a stepwise intensity function.
type Step struct {
	From  int `xml:"from,attr"`
	Value int `xml:"value,attr"`
}

// Interval is one interval declaration. Granularity is zero exactly when
// no intensity steps are attached.
type Interval struct {
	Name        string `xml:"name,attr"`
	Optional    bool   `xml:"optional,attr,omitempty"`
	Granularity int    `xml:"granularity,attr,omitempty"`
	Start       Bound  `xml:"start"`
	End         Bound  `xml:"end"`
	Length      Bound  `xml:"length"`
	Size        Bound  `xml:"size"`
	Intensity   []Step `xml:"intensity>step"`
}

// Ref names a declared interval.
type Ref struct {
	Name string `xml:"name,attr"`
}

// Sequence is one sequence declaration. Types is empty for untyped
// sequences and carries one type per member otherwise.
type Sequence struct {
	Name    string `xml:"name,attr"`
	Members []Ref  `xml:"member"`
	Types   Ints   `xml:"types,omitempty"`
}

// StateFunc is one state function declaration.
type StateFunc struct {
	Name        string  `xml:"name,attr"`
	Transitions *Matrix `xml:"transitions"`
}

// Matrix is a square transition-time matrix; -1 forbids a transition.
type Matrix struct {
	Rows []Ints `xml:"row"`
}

// ExprNode is one node of an expression tree. Op selects the variant and
// decides which of the remaining fields carry meaning: literals use
// Value, interval accessors use Interval and Absent, aggregates list
// Intervals, sequence lookups add Sequence and Edge, and the arithmetic
// forms nest their operands in Args.
type ExprNode struct {
	Op        string     `xml:"op,attr"`
	Value     int        `xml:"value,attr,omitempty"`
	Interval  string     `xml:"interval,attr,omitempty"`
	Sequence  string     `xml:"sequence,attr,omitempty"`
	Absent    int        `xml:"absent,attr,omitempty"`
	Edge      int        `xml:"edge,attr,omitempty"`
	Intervals []Ref      `xml:"of"`
	Args      []ExprNode `xml:"expr"`
}

// Objective is the session objective.
type Objective struct {
	Maximize bool     `xml:"maximize,attr,omitempty"`
	Expr     ExprNode `xml:"expr"`
}

// ConstraintRec is one posted constraint in document form. The concrete
// record types below mirror the model constraint variants; the interface
// is sealed so the element namespace stays closed.
type ConstraintRec interface {
	constraintElem() string
}

// ConstraintList carries the posted constraints in posting order. The
// record types share one element namespace, so the order survives the
// trip through XML without positional bookkeeping.
type ConstraintList struct {
	Items []ConstraintRec
}

// Precedence relates two interval endpoints.
type Precedence struct {
	Kind  string `xml:"kind,attr"`
	A     string `xml:"a,attr"`
	B     string `xml:"b,attr"`
	Delay int    `xml:"delay,attr,omitempty"`
}

// Span makes the main interval cover its subtasks.
type Span struct {
	Main string `xml:"main,attr"`
	Subs []Ref  `xml:"of"`
}

// Alternative selects a cardinality of alternatives for the main interval.
type Alternative struct {
	Main        string `xml:"main,attr"`
	Cardinality int    `xml:"cardinality,attr"`
	Alts        []Ref  `xml:"of"`
}

// Synchronize aligns the others with the main interval.
type Synchronize struct {
	Main   string `xml:"main,attr"`
	Others []Ref  `xml:"of"`
}

// SeqNoOverlap orders a sequence without overlap, with optional
// transition times.
type SeqNoOverlap struct {
	Sequence    string  `xml:"sequence,attr"`
	Direct      bool    `xml:"direct,attr,omitempty"`
	Transitions *Matrix `xml:"transitions"`
}

// Position pins sequence members: first, last, before, or previous.
// B is empty for first and last.
type Position struct {
	Kind     string `xml:"kind,attr"`
	Sequence string `xml:"sequence,attr"`
	A        string `xml:"a,attr"`
	B        string `xml:"b,attr,omitempty"`
}

// Overlap relates two intervals by their common extent.
type Overlap struct {
	Kind string `xml:"kind,attr"`
	A    string `xml:"a,attr"`
	B    string `xml:"b,attr"`
	K    int    `xml:"k,attr,omitempty"`
}

// NoOverlap forbids pairwise overlap among the listed intervals.
type NoOverlap struct {
	Itvs []Ref `xml:"of"`
}

// Chain orders the listed intervals consecutively with per-gap delays.
type Chain struct {
	Strict bool  `xml:"strict,attr,omitempty"`
	Itvs   []Ref `xml:"of"`
	Delays Ints  `xml:"delays,omitempty"`
}

// Atom is one cumul contribution. Interval is empty only for step_at.
type Atom struct {
	Kind     string `xml:"kind,attr"`
	Interval string `xml:"interval,attr,omitempty"`
	Time     int    `xml:"time,attr,omitempty"`
	Lo       int    `xml:"lo,attr"`
	Hi       int    `xml:"hi,attr"`
	Negated  bool   `xml:"negated,attr,omitempty"`
}

// CumulBound bounds a cumul function everywhere on the horizon.
type CumulBound struct {
	Kind  string `xml:"kind,attr"`
	Min   int    `xml:"min,attr,omitempty"`
	Max   int    `xml:"max,attr,omitempty"`
	Atoms []Atom `xml:"atom"`
}

// AlwaysIn bounds a cumul function inside a window: the extent of
// Interval when named, else the fixed window [From, To).
type AlwaysIn struct {
	Interval string `xml:"interval,attr,omitempty"`
	From     int    `xml:"from,attr,omitempty"`
	To       int    `xml:"to,attr,omitempty"`
	Min      int    `xml:"min,attr,omitempty"`
	Max      int    `xml:"max,attr,omitempty"`
	Atoms    []Atom `xml:"atom"`
}

// Demand is one interval's height on a cumulative resource.
type Demand struct {
	Name   string `xml:"name,attr"`
	Height int    `xml:"height,attr"`
}

// Cumulative is the classic cumulative resource.
type Cumulative struct {
	Capacity int      `xml:"capacity,attr"`
	Tasks    []Demand `xml:"task"`
}

// Period is a half-open forbidden window.
type Period struct {
	Lo int `xml:"lo,attr"`
	Hi int `xml:"hi,attr"`
}

// Forbidden keeps an interval's start, end, or extent clear of the
// listed periods.
type Forbidden struct {
	Kind     string   `xml:"kind,attr"`
	Interval string   `xml:"interval,attr"`
	Periods  []Period `xml:"period"`
}

// Presence relates interval presences. A and B carry the binary forms;
// Itvs and K the counted group forms.
type Presence struct {
	Kind string `xml:"kind,attr"`
	A    string `xml:"a,attr,omitempty"`
	B    string `xml:"b,attr,omitempty"`
	K    int    `xml:"k,attr,omitempty"`
	Itvs []Ref  `xml:"of"`
}

// TimeBound pins an interval against an absolute time.
type TimeBound struct {
	Kind     string `xml:"kind,attr"`
	Interval string `xml:"interval,attr"`
	T        int    `xml:"t,attr,omitempty"`
	Strict   bool   `xml:"strict,attr,omitempty"`
}

// TimeWindow is a release date and a deadline together.
type TimeWindow struct {
	Interval string `xml:"interval,attr"`
	Earliest int    `xml:"earliest,attr,omitempty"`
	Latest   int    `xml:"latest,attr"`
}

// StateUse ties an interval to a state of a state function. State
// carries the value for require and set uses; Min and Max carry the
// range for in uses.
type StateUse struct {
	Kind         string `xml:"kind,attr"`
	Function     string `xml:"function,attr"`
	Interval     string `xml:"interval,attr"`
	State        int    `xml:"state,attr"`
	Min          int    `xml:"min,attr,omitempty"`
	Max          int    `xml:"max,attr,omitempty"`
	StartAligned bool   `xml:"start_aligned,attr,omitempty"`
	EndAligned   bool   `xml:"end_aligned,attr,omitempty"`
}

// Compare relates two expressions.
type Compare struct {
	Op string   `xml:"op,attr"`
	A  ExprNode `xml:"a"`
	B  ExprNode `xml:"b"`
}

func (Precedence) constraintElem() string   { return "precedence" }
func (Span) constraintElem() string         { return "span" }
func (Alternative) constraintElem() string  { return "alternative" }
func (Synchronize) constraintElem() string  { return "synchronize" }
func (SeqNoOverlap) constraintElem() string { return "sequence_no_overlap" }
func (Position) constraintElem() string     { return "position" }
func (Overlap) constraintElem() string      { return "overlap" }
func (NoOverlap) constraintElem() string    { return "no_overlap" }
func (Chain) constraintElem() string        { return "chain" }
func (CumulBound) constraintElem() string   { return "cumul_bound" }
func (AlwaysIn) constraintElem() string     { return "always_in" }
func (Cumulative) constraintElem() string   { return "cumulative" }
func (Forbidden) constraintElem() string    { return "forbidden" }
func (Presence) constraintElem() string     { return "presence" }
func (TimeBound) constraintElem() string    { return "time_bound" }
func (TimeWindow) constraintElem() string   { return "time_window" }
func (StateUse) constraintElem() string     { return "state_use" }
func (Compare) constraintElem() string      { return "compare" }

// Program is the lowered primitive program.
type Program struct {
	Horizon     int               `xml:"horizon,attr"`
	Vars        []ProgramVar      `xml:"var"`
	Constraints PrimitiveList     `xml:"constraints"`
	Objective   *ProgramObjective `xml:"objective"`
}

// ProgramVar is one bounded integer variable. IDs are list positions.
type ProgramVar struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Lo   int    `xml:"lo,attr"`
	Hi   int    `xml:"hi,attr"`
}

// ProgramObjective selects a program variable to optimize.
type ProgramObjective struct {
	Var      int  `xml:"var,attr"`
	Maximize bool `xml:"maximize,attr,omitempty"`
}

// PrimitiveRec is one primitive constraint in document form.
type PrimitiveRec interface {
	primitiveElem() string
}

// PrimitiveList carries primitive constraints in program order.
type PrimitiveList struct {
	Items []PrimitiveRec
}

// Comparison is value(a) + k op value(b).
type Comparison struct {
	A  int    `xml:"a,attr"`
	Op string `xml:"op,attr"`
	B  int    `xml:"b,attr"`
	K  int    `xml:"k,attr,omitempty"`
}

// Literal is a possibly negated 0/1 variable.
type Literal struct {
	Var int  `xml:"var,attr"`
	Neg bool `xml:"neg,attr,omitempty"`
}

// Clause is a disjunction of literals.
type Clause struct {
	Lits []Literal `xml:"lit"`
}

// Reified ties a 0/1 variable to a comparison.
type Reified struct {
	Bool int        `xml:"bool,attr"`
	C    Comparison `xml:"comparison"`
}

// LinearSum bounds a weighted sum of variables against k.
type LinearSum struct {
	Op     string `xml:"op,attr"`
	K      int    `xml:"k,attr,omitempty"`
	Vars   Ints   `xml:"vars"`
	Coeffs Ints   `xml:"coeffs"`
}

// MinMax pins a target variable to the minimum or maximum of the rest.
type MinMax struct {
	IsMax  bool `xml:"max,attr,omitempty"`
	Target int  `xml:"target,attr"`
	Vars   Ints `xml:"vars"`
}

// Table restricts the variables to the listed tuples.
type Table struct {
	Vars Ints   `xml:"vars"`
	Rows []Ints `xml:"row"`
}

func (Comparison) primitiveElem() string { return "comparison" }
func (Clause) primitiveElem() string     { return "clause" }
func (Reified) primitiveElem() string    { return "reified" }
func (LinearSum) primitiveElem() string  { return "linear" }
func (MinMax) primitiveElem() string     { return "minmax" }
func (Table) primitiveElem() string      { return "table" }
