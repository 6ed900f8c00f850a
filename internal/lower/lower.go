// Package lower compiles a model session into the primitive constraint
// program solver adapters accept.
//
// The compilation is deterministic: variables are allocated in interval
// declaration order, constraints are lowered in post order, and every
// auxiliary variable is minted from a running counter. Equal sessions
// produce byte-equal programs.
//
// Every lowered constraint passes through one guard builder. A constraint
// over operand intervals o1..ok holds vacuously when any optional operand
// is absent; the builder emits the clause (!p1 | ... | !pk | body) with
// the body reified, or the body directly when every operand is mandatory.
package lower

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// compiler carries the state of one compilation.
type compiler struct {
	s       *model.Session
	prog    *ir.Program
	horizon int

	ivars   []intervalVars
	consts  map[int]ir.VarID
	ends    map[*model.IntervalVar]ir.VarID
	subst   map[substKey]ir.VarID
	reused  map[ir.Comparison]ir.VarID
	adj     map[adjKey]ir.VarID
	heights map[heightKey]ir.VarID

	// stateCs collects state constraints per function; their semantics
	// are pairwise, so they lower after the main pass.
	stateCs map[*model.StateFunction][]model.StateConstraint

	auxN int
}

// intervalVars are the primitive variables of one interval. End is never
// allocated; it lives only in start+length sums. Size equals the length
// variable unless an intensity function forces a separate one.
type intervalVars struct {
	start  ir.VarID
	length ir.VarID
	pres   ir.VarID
	size   ir.VarID
}

// Compile lowers a session to a primitive program.
func Compile(s *model.Session) (*ir.Program, error) {
	if s == nil {
		return nil, fmt.Errorf("lower: nil session")
	}
	c := &compiler{
		s:       s,
		prog:    &ir.Program{},
		consts:  make(map[int]ir.VarID),
		ends:    make(map[*model.IntervalVar]ir.VarID),
		subst:   make(map[substKey]ir.VarID),
		reused:  make(map[ir.Comparison]ir.VarID),
		adj:     make(map[adjKey]ir.VarID),
		heights: make(map[heightKey]ir.VarID),
		stateCs: make(map[*model.StateFunction][]model.StateConstraint),
	}

	if err := c.computeHorizon(); err != nil {
		return nil, err
	}
	c.prog.Horizon = c.horizon

	c.allocateIntervals()

	for _, itv := range s.Intervals() {
		if len(itv.Intensity()) > 0 {
			if err := c.lowerIntensity(itv); err != nil {
				return nil, err
			}
		}
	}

	for i, hc := range s.Constraints() {
		if err := c.lowerConstraint(hc); err != nil {
			return nil, fmt.Errorf("lower: constraint %d: %w", i, err)
		}
	}
	c.lowerStatePairs()

	if obj := s.Objective(); obj != nil {
		v, err := c.exprVar(obj.Expr)
		if err != nil {
			return nil, fmt.Errorf("lower: objective: %w", err)
		}
		c.prog.Objective = &ir.Objective{Var: v, Maximize: obj.Maximize}
	}

	s.Logger().Debug("lowered model",
		"intervals", len(s.Intervals()),
		"vars", len(c.prog.Vars),
		"constraints", len(c.prog.Constraints),
		"horizon", c.horizon,
	)
	return c.prog, nil
}

// lowerConstraint dispatches one high-level constraint to its family.
func (c *compiler) lowerConstraint(hc model.Constraint) error {
	switch x := hc.(type) {
	case model.Precedence:
		c.lowerPrecedence(x)
	case model.ChainConstraint:
		c.lowerChain(x)
	case model.TimeBound:
		c.lowerTimeBound(x)
	case model.TimeWindowConstraint:
		c.lowerTimeWindow(x)
	case model.ForbiddenPeriods:
		c.lowerForbidden(x)
	case model.SpanConstraint:
		c.lowerSpan(x)
	case model.AlternativeConstraint:
		c.lowerAlternative(x)
	case model.SynchronizeConstraint:
		c.lowerSynchronize(x)
	case model.Overlap:
		c.lowerOverlap(x)
	case model.NoOverlapConstraint:
		c.lowerNoOverlap(x.Itvs, nil, nil, false)
	case model.SeqNoOverlapConstraint:
		c.lowerSeqNoOverlap(x)
	case model.SeqPosition:
		c.lowerSeqPosition(x)
	case model.CumulativeConstraint:
		c.lowerCumulative(x)
	case model.CumulBound:
		c.lowerCumulBound(x)
	case model.AlwaysInConstraint:
		c.lowerAlwaysIn(x)
	case model.PresenceLogic:
		c.lowerPresence(x)
	case model.StateConstraint:
		c.stateCs[x.F] = append(c.stateCs[x.F], x)
	case model.CmpConstraint:
		return c.lowerCmp(x)
	default:
		return fmt.Errorf("unsupported constraint type %T", hc)
	}
	return nil
}

// vars returns the primitive variables of an interval.
func (c *compiler) vars(itv *model.IntervalVar) intervalVars {
	return c.ivars[itv.ID()]
}

// lowerOp maps the model operator to the primitive one.
func lowerOp(op model.CmpOp) ir.Op {
	switch op {
	case model.OpLe:
		return ir.Le
	case model.OpLt:
		return ir.Lt
	case model.OpGe:
		return ir.Ge
	case model.OpGt:
		return ir.Gt
	case model.OpEq:
		return ir.Eq
	default:
		return ir.Ne
	}
}
