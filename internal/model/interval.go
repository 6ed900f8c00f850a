package model

// Range is an inclusive integer bound pair. Every interval bound is
// expressed this way; fixed values are ranges with Lo == Hi.
type Range struct {
	Lo int
	Hi int
}

// Exactly returns the degenerate range [v, v].
func Exactly(v int) Range { return Range{Lo: v, Hi: v} }

// Between returns the range [lo, hi].
func Between(lo, hi int) Range { return Range{Lo: lo, Hi: hi} }

func (r Range) valid() bool { return r.Lo <= r.Hi }

// Fixed reports whether the range pins a single value.
func (r Range) Fixed() bool { return r.Lo == r.Hi }

// Step is one breakpoint of a stepwise intensity function: from time From
// onward the intensity is Value, until the next breakpoint. The intensity
// is 0 before the first breakpoint.
type Step struct {
	From  int
	Value int
}

// DefaultGranularity is the intensity granularity used when an intensity
// function is attached without an explicit granularity.
const DefaultGranularity = 100

// IntervalVar is a unit of work with a start, a length, and a presence.
//
// The decomposition contract: an interval owns primitive variables for
// start, length, and presence only. End is always the expression
// start+length and never becomes a primitive variable of its own. Size is
// a separate primitive variable only when an intensity function is
// attached; otherwise size and length coincide.
type IntervalVar struct {
	session *Session
	id      int
	name    string

	start  Range
	end    Range
	length Range
	size   Range

	optional    bool
	intensity   []Step
	granularity int

	// seq is the owning sequence, set by NewSequence. At most one.
	seq *SequenceVar
}

type intervalConfig struct {
	name        string
	start       Range
	end         Range
	length      Range
	size        Range
	sizeSet     bool
	optional    bool
	intensity   []Step
	granularity int
}

// IntervalOption configures NewInterval.
type IntervalOption func(*intervalConfig)

// WithName names the interval. Empty names are minted automatically.
func WithName(name string) IntervalOption {
	return func(c *intervalConfig) { c.name = name }
}

// WithStart bounds the start time.
func WithStart(r Range) IntervalOption {
	return func(c *intervalConfig) { c.start = r }
}

// WithEnd bounds the end time.
func WithEnd(r Range) IntervalOption {
	return func(c *intervalConfig) { c.end = r }
}

// WithLength bounds the length.
func WithLength(r Range) IntervalOption {
	return func(c *intervalConfig) { c.length = r }
}

// WithSize bounds the size. Without an intensity function the size is the
// length and the bounds simply intersect.
func WithSize(r Range) IntervalOption {
	return func(c *intervalConfig) { c.size = r; c.sizeSet = true }
}

// Optional marks the interval as optional: the solver may leave it absent,
// and every constraint naming it is conditioned on its presence.
func Optional() IntervalOption {
	return func(c *intervalConfig) { c.optional = true }
}

// WithIntensity attaches a stepwise intensity function. A granularity of 0
// selects DefaultGranularity.
func WithIntensity(steps []Step, granularity int) IntervalOption {
	return func(c *intervalConfig) {
		c.intensity = steps
		c.granularity = granularity
	}
}

// NewInterval declares an interval variable on the session.
func (s *Session) NewInterval(opts ...IntervalOption) (*IntervalVar, error) {
	cfg := intervalConfig{
		start:  Range{0, MaxTime},
		end:    Range{0, MaxTime},
		length: Range{0, MaxTime},
		size:   Range{0, MaxTime},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := checkBound("start", cfg.start); err != nil {
		return nil, err
	}
	if err := checkBound("end", cfg.end); err != nil {
		return nil, err
	}
	if err := checkBound("length", cfg.length); err != nil {
		return nil, err
	}
	if err := checkBound("size", cfg.size); err != nil {
		return nil, err
	}

	if len(cfg.intensity) > 0 {
		if cfg.granularity == 0 {
			cfg.granularity = DefaultGranularity
		}
		if cfg.granularity < 1 {
			return nil, validationf("granularity", "must be >= 1, got %d", cfg.granularity)
		}
		prev := -1
		for i, st := range cfg.intensity {
			if st.From < 0 {
				return nil, validationf("intensity", "step %d: threshold %d is negative", i, st.From)
			}
			if st.From <= prev && i > 0 {
				return nil, validationf("intensity", "step thresholds must be strictly increasing")
			}
			if st.Value < 0 {
				return nil, validationf("intensity", "step %d: value %d is negative", i, st.Value)
			}
			if st.Value > cfg.granularity {
				return nil, validationf("intensity", "step %d: value %d exceeds granularity %d", i, st.Value, cfg.granularity)
			}
			prev = st.From
		}
	} else if cfg.granularity != 0 {
		return nil, validationf("granularity", "set without an intensity function")
	}

	if !cfg.sizeSet && len(cfg.intensity) == 0 {
		// Size aliases length when no intensity function is attached.
		cfg.size = cfg.length
	}

	name, err := s.register(cfg.name, "_interval_")
	if err != nil {
		return nil, err
	}

	itv := &IntervalVar{
		session:     s,
		id:          len(s.intervals),
		name:        name,
		start:       cfg.start,
		end:         cfg.end,
		length:      cfg.length,
		size:        cfg.size,
		optional:    cfg.optional,
		intensity:   mergeSteps(cfg.intensity),
		granularity: cfg.granularity,
	}
	s.intervals = append(s.intervals, itv)
	return itv, nil
}

func checkBound(field string, r Range) error {
	if !r.valid() {
		return validationf(field, "min %d exceeds max %d", r.Lo, r.Hi)
	}
	if r.Lo < 0 {
		return validationf(field, "must be non-negative, got min %d", r.Lo)
	}
	return nil
}

// mergeSteps collapses consecutive steps with equal values. The stepwise
// function they describe is identical; the merged form keeps the lowered
// tables minimal.
func mergeSteps(steps []Step) []Step {
	if len(steps) == 0 {
		return nil
	}
	out := make([]Step, 0, len(steps))
	for _, st := range steps {
		if n := len(out); n > 0 && out[n-1].Value == st.Value {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Name returns the registered name.
func (v *IntervalVar) Name() string { return v.name }

// ID returns the per-session declaration index.
func (v *IntervalVar) ID() int { return v.id }

// Optional reports whether the interval may be absent.
func (v *IntervalVar) Optional() bool { return v.optional }

// StartBounds returns the declared start range.
func (v *IntervalVar) StartBounds() Range { return v.start }

// EndBounds returns the declared end range.
func (v *IntervalVar) EndBounds() Range { return v.end }

// LengthBounds returns the declared length range.
func (v *IntervalVar) LengthBounds() Range { return v.length }

// SizeBounds returns the declared size range.
func (v *IntervalVar) SizeBounds() Range { return v.size }

// Intensity returns the stepwise intensity function, nil when none.
func (v *IntervalVar) Intensity() []Step { return v.intensity }

// Granularity returns the intensity granularity, 0 when no intensity.
func (v *IntervalVar) Granularity() int { return v.granularity }

// Sequence returns the owning sequence, nil when unsequenced.
func (v *IntervalVar) Sequence() *SequenceVar { return v.seq }

// Start returns the start-time expression (absent value 0).
func (v *IntervalVar) Start() Expr { return StartOf(v, 0) }

// End returns the end-time expression (absent value 0).
func (v *IntervalVar) End() Expr { return EndOf(v, 0) }

// Length returns the length expression (absent value 0).
func (v *IntervalVar) Length() Expr { return LengthOf(v, 0) }

// Size returns the size expression (absent value 0).
func (v *IntervalVar) Size() Expr { return SizeOf(v, 0) }

// Presence returns the 0/1 presence expression.
func (v *IntervalVar) Presence() Expr { return PresenceOf(v) }
