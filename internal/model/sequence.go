package model

// SequenceVar orders a set of interval variables on one unary resource.
// Types are optional non-negative labels used by transition matrices; an
// untyped sequence behaves as if Types[i] == i.
type SequenceVar struct {
	session   *Session
	id        int
	name      string
	intervals []*IntervalVar
	types     []int
}

type sequenceConfig struct {
	name  string
	types []int
}

// SequenceOption configures NewSequence.
type SequenceOption func(*sequenceConfig)

// WithSequenceName names the sequence. Empty names are minted automatically.
func WithSequenceName(name string) SequenceOption {
	return func(c *sequenceConfig) { c.name = name }
}

// WithTypes attaches one non-negative type per interval.
func WithTypes(types []int) SequenceOption {
	return func(c *sequenceConfig) { c.types = types }
}

// NewSequence declares a sequence over the given intervals. An interval
// may belong to at most one sequence.
func (s *Session) NewSequence(intervals []*IntervalVar, opts ...SequenceOption) (*SequenceVar, error) {
	var cfg sequenceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(intervals) == 0 {
		return nil, validationf("intervals", "sequence needs at least one interval")
	}
	if cfg.types != nil && len(cfg.types) != len(intervals) {
		return nil, validationf("types", "got %d types for %d intervals", len(cfg.types), len(intervals))
	}
	for i, t := range cfg.types {
		if t < 0 {
			return nil, validationf("types", "type %d at position %d is negative", t, i)
		}
	}
	for _, itv := range intervals {
		if itv == nil {
			return nil, validationf("intervals", "nil interval")
		}
		if itv.session != s {
			return nil, namedValidationf("intervals", itv.name, "belongs to a different session")
		}
		if itv.seq != nil {
			return nil, namedValidationf("intervals", itv.name,
				"already sequenced in %q; an interval may belong to at most one sequence", itv.seq.name)
		}
	}

	name, err := s.register(cfg.name, "_sequence_")
	if err != nil {
		return nil, err
	}

	seq := &SequenceVar{
		session:   s,
		id:        len(s.sequences),
		name:      name,
		intervals: append([]*IntervalVar(nil), intervals...),
	}
	if cfg.types != nil {
		seq.types = append([]int(nil), cfg.types...)
	}
	for _, itv := range intervals {
		itv.seq = seq
	}
	s.sequences = append(s.sequences, seq)
	return seq, nil
}

// Name returns the registered name.
func (q *SequenceVar) Name() string { return q.name }

// ID returns the per-session declaration index.
func (q *SequenceVar) ID() int { return q.id }

// Intervals returns the members in declaration order.
func (q *SequenceVar) Intervals() []*IntervalVar { return q.intervals }

// Typed reports whether explicit types were attached.
func (q *SequenceVar) Typed() bool { return q.types != nil }

// TypeOf returns the type of the i-th member. Untyped sequences use the
// member index.
func (q *SequenceVar) TypeOf(i int) int {
	if q.types == nil {
		return i
	}
	return q.types[i]
}

// Types returns the effective type slice (member indexes when untyped).
func (q *SequenceVar) Types() []int {
	out := make([]int, len(q.intervals))
	for i := range q.intervals {
		out[i] = q.TypeOf(i)
	}
	return out
}

// MaxType returns the largest effective type.
func (q *SequenceVar) MaxType() int {
	max := 0
	for i := range q.intervals {
		if t := q.TypeOf(i); t > max {
			max = t
		}
	}
	return max
}

// indexOf returns the member position of itv, or -1.
func (q *SequenceVar) indexOf(itv *IntervalVar) int {
	for i, m := range q.intervals {
		if m == itv {
			return i
		}
	}
	return -1
}
