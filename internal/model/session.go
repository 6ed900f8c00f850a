package model

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/unicode/norm"
)

// MaxTime is the default inclusive upper bound for time values. Bounds that
// the caller leaves open default to [0, MaxTime] and are tightened by the
// horizon inference pass during lowering.
const MaxTime = 1 << 30

// Session owns every declaration of one scheduling model: interval and
// sequence variables, cumul and state functions, posted constraints, and
// the objective. Names are unique per session.
//
// Sessions are single-threaded. Callers that want concurrent model
// construction must create one session per goroutine.
type Session struct {
	logger  *slog.Logger
	horizon int // 0 means infer during lowering

	intervals   []*IntervalVar
	sequences   []*SequenceVar
	stateFuncs  []*StateFunction
	constraints []Constraint

	objective *Objective

	names       map[string]struct{}
	autoCounter int
}

// Option configures a Session.
type Option func(*Session)

// WithHorizon fixes the scheduling horizon instead of inferring it from the
// interval bounds. Lowering rejects a non-positive value.
func WithHorizon(h int) Option {
	return func(s *Session) { s.horizon = h }
}

// WithLogger sets the logger used for model statistics. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an empty model.
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		names:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset drops every declaration and forgets every registered name. The
// session is never reset implicitly; this is the only way to reuse one.
func (s *Session) Reset() {
	s.intervals = nil
	s.sequences = nil
	s.stateFuncs = nil
	s.constraints = nil
	s.objective = nil
	s.names = make(map[string]struct{})
	s.autoCounter = 0
}

// Horizon returns the explicit horizon, or 0 when it is inferred.
func (s *Session) Horizon() int { return s.horizon }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Intervals returns the declared intervals in declaration order.
func (s *Session) Intervals() []*IntervalVar { return s.intervals }

// Sequences returns the declared sequences in declaration order.
func (s *Session) Sequences() []*SequenceVar { return s.sequences }

// StateFunctions returns the declared state functions in declaration order.
func (s *Session) StateFunctions() []*StateFunction { return s.stateFuncs }

// Constraints returns the posted constraints in post order.
func (s *Session) Constraints() []Constraint { return s.constraints }

// register claims a name, minting an automatic one when empty. Names are
// NFC-normalized first so visually identical spellings collide instead of
// silently coexisting.
func (s *Session) register(name, autoPrefix string) (string, error) {
	if name == "" {
		s.autoCounter++
		name = fmt.Sprintf("%s%d", autoPrefix, s.autoCounter)
	} else {
		name = norm.NFC.String(name)
	}
	if _, dup := s.names[name]; dup {
		return "", namedValidationf("name", name, "already declared in this session")
	}
	s.names[name] = struct{}{}
	return name, nil
}

// Post validates a high-level constraint and records it for lowering.
func (s *Session) Post(c Constraint) error {
	if c == nil {
		return validationf("constraint", "nil constraint")
	}
	if err := c.validate(); err != nil {
		return err
	}
	if err := s.checkOwnership(c); err != nil {
		return err
	}
	s.constraints = append(s.constraints, c)
	return nil
}

// PostAll posts each constraint in order, stopping at the first error.
func (s *Session) PostAll(cs ...Constraint) error {
	for _, c := range cs {
		if err := s.Post(c); err != nil {
			return err
		}
	}
	return nil
}

// checkOwnership rejects constraints whose operands belong to another
// session. Mixing sessions would silently cross-wire variable ids.
func (s *Session) checkOwnership(c Constraint) error {
	for _, itv := range c.operands() {
		if itv == nil {
			return validationf("interval", "nil interval operand")
		}
		if itv.session != s {
			return namedValidationf("interval", itv.name, "belongs to a different session")
		}
	}
	return nil
}

// Objective is the optimization goal. Direction false means minimize.
type Objective struct {
	Expr     Expr
	Maximize bool
}

// Minimize sets the objective to minimize e. The last call wins.
func (s *Session) Minimize(e Expr) { s.objective = &Objective{Expr: e} }

// Maximize sets the objective to maximize e. The last call wins.
func (s *Session) Maximize(e Expr) { s.objective = &Objective{Expr: e, Maximize: true} }

// Objective returns the current objective, or nil for a decision problem.
func (s *Session) Objective() *Objective { return s.objective }
