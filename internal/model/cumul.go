package model

// CumulAtomKind discriminates the contribution shapes of a CumulFunction.
type CumulAtomKind int

const (
	// AtomPulse contributes height over [start, end) of an interval.
	AtomPulse CumulAtomKind = iota
	// AtomStepAtStart contributes height from the interval start onward.
	AtomStepAtStart
	// AtomStepAtEnd contributes height from the interval end onward.
	AtomStepAtEnd
	// AtomStepAt contributes height from a fixed time onward.
	AtomStepAt
)

// CumulAtom is one elementary contribution. Interval is nil only for
// AtomStepAt. Negated atoms subtract instead of add. HeightLo == HeightHi
// for fixed heights; a true range lets the solver choose the height.
type CumulAtom struct {
	Kind     CumulAtomKind
	Interval *IntervalVar
	Time     int
	HeightLo int
	HeightHi int
	Negated  bool
}

// CumulFunction is a sum of elementary contributions. Values never mutate:
// Plus and Minus return fresh functions, so partially built profiles can be
// shared freely.
type CumulFunction struct {
	atoms []CumulAtom
}

// Atoms returns the contribution list.
func (f *CumulFunction) Atoms() []CumulAtom { return f.atoms }

// PulseOnly reports whether every contribution is a non-negated pulse.
func (f *CumulFunction) PulseOnly() bool {
	for _, a := range f.atoms {
		if a.Kind != AtomPulse || a.Negated {
			return false
		}
	}
	return true
}

func atomFunc(a CumulAtom) *CumulFunction {
	return &CumulFunction{atoms: []CumulAtom{a}}
}

// Pulse contributes height over the extent of itv.
func Pulse(itv *IntervalVar, height int) *CumulFunction {
	return atomFunc(CumulAtom{Kind: AtomPulse, Interval: itv, HeightLo: height, HeightHi: height})
}

// PulseRange contributes a solver-chosen height in [lo, hi] over the
// extent of itv.
func PulseRange(itv *IntervalVar, lo, hi int) *CumulFunction {
	return atomFunc(CumulAtom{Kind: AtomPulse, Interval: itv, HeightLo: lo, HeightHi: hi})
}

// StepAtStart contributes height from the start of itv onward.
func StepAtStart(itv *IntervalVar, height int) *CumulFunction {
	return atomFunc(CumulAtom{Kind: AtomStepAtStart, Interval: itv, HeightLo: height, HeightHi: height})
}

// StepAtEnd contributes height from the end of itv onward.
func StepAtEnd(itv *IntervalVar, height int) *CumulFunction {
	return atomFunc(CumulAtom{Kind: AtomStepAtEnd, Interval: itv, HeightLo: height, HeightHi: height})
}

// StepAt contributes height from time t onward.
func StepAt(t, height int) *CumulFunction {
	return atomFunc(CumulAtom{Kind: AtomStepAt, Time: t, HeightLo: height, HeightHi: height})
}

// Plus returns f + g without mutating either.
func (f *CumulFunction) Plus(g *CumulFunction) *CumulFunction {
	out := &CumulFunction{atoms: make([]CumulAtom, 0, len(f.atoms)+len(g.atoms))}
	out.atoms = append(out.atoms, f.atoms...)
	out.atoms = append(out.atoms, g.atoms...)
	return out
}

// Minus returns f - g without mutating either.
func (f *CumulFunction) Minus(g *CumulFunction) *CumulFunction {
	out := &CumulFunction{atoms: make([]CumulAtom, 0, len(f.atoms)+len(g.atoms))}
	out.atoms = append(out.atoms, f.atoms...)
	for _, a := range g.atoms {
		a.Negated = !a.Negated
		out.atoms = append(out.atoms, a)
	}
	return out
}

// validate checks atom well-formedness; called from Session.Post through
// the cumul constraints.
func (f *CumulFunction) validate() error {
	if f == nil {
		return validationf("cumul", "nil cumul function")
	}
	if len(f.atoms) == 0 {
		return validationf("cumul", "empty cumul function")
	}
	for i, a := range f.atoms {
		if a.HeightLo > a.HeightHi {
			return validationf("cumul", "atom %d: height min %d exceeds max %d", i, a.HeightLo, a.HeightHi)
		}
		if a.HeightLo < 0 {
			return validationf("cumul", "atom %d: height must be non-negative, got %d", i, a.HeightLo)
		}
		switch a.Kind {
		case AtomStepAt:
			if a.Interval != nil {
				return validationf("cumul", "atom %d: fixed-time step cannot name an interval", i)
			}
			if a.Time < 0 {
				return validationf("cumul", "atom %d: time %d is negative", i, a.Time)
			}
		default:
			if a.Interval == nil {
				return validationf("cumul", "atom %d: missing interval", i)
			}
		}
	}
	return nil
}

// operands lists the intervals contributing to f.
func (f *CumulFunction) operands() []*IntervalVar {
	var out []*IntervalVar
	for _, a := range f.atoms {
		if a.Interval != nil {
			out = append(out, a.Interval)
		}
	}
	return out
}
