package interchange

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// The kind tables pair every model enum with its document spelling. The
// value-to-name direction is authoritative; the parse maps are inverses.

var precKinds = map[string]model.PrecKind{
	"end_before_start":   model.EndBeforeStartKind,
	"start_before_end":   model.StartBeforeEndKind,
	"start_before_start": model.StartBeforeStartKind,
	"end_before_end":     model.EndBeforeEndKind,
	"start_at_start":     model.StartAtStartKind,
	"start_at_end":       model.StartAtEndKind,
	"end_at_start":       model.EndAtStartKind,
	"end_at_end":         model.EndAtEndKind,
}

var posKindNames = map[model.SeqPosKind]string{
	model.SeqFirstKind:    "first",
	model.SeqLastKind:     "last",
	model.SeqBeforeKind:   "before",
	model.SeqPreviousKind: "previous",
}

var overlapKindNames = map[model.OverlapKind]string{
	model.MustOverlapKind:    "must",
	model.OverlapAtLeastKind: "at_least",
}

var cumulKindNames = map[model.CumulKind]string{
	model.CumulLEKind:    "le",
	model.CumulGEKind:    "ge",
	model.CumulRangeKind: "range",
}

var forbidKindNames = map[model.ForbidKind]string{
	model.ForbidStartKind:  "start",
	model.ForbidEndKind:    "end",
	model.ForbidExtentKind: "extent",
}

var presenceKindNames = map[model.PresenceKind]string{
	model.IfPresentThenKind: "implies",
	model.PresenceOrKind:    "or",
	model.PresenceXorKind:   "xor",
	model.AllOrNoneKind:     "all_or_none",
	model.AtLeastKKind:      "at_least",
	model.AtMostKKind:       "at_most",
	model.ExactlyKKind:      "exactly",
}

var boundKindNames = map[model.BoundKind]string{
	model.ReleaseDateKind: "release",
	model.DeadlineKind:    "deadline",
}

var stateKindNames = map[model.StateKind]string{
	model.RequireStateKind:  "require",
	model.SetStateKind:      "set",
	model.StateInKind:       "in",
	model.StateConstantKind: "constant",
	model.NoStateKind:       "no_state",
}

var atomKindNames = map[model.CumulAtomKind]string{
	model.AtomPulse:       "pulse",
	model.AtomStepAtStart: "step_at_start",
	model.AtomStepAtEnd:   "step_at_end",
	model.AtomStepAt:      "step_at",
}

var cmpOpNames = map[model.CmpOp]string{
	model.OpLe: "le",
	model.OpLt: "lt",
	model.OpGe: "ge",
	model.OpGt: "gt",
	model.OpEq: "eq",
	model.OpNe: "ne",
}

var irOpNames = map[ir.Op]string{
	ir.Le: "le",
	ir.Lt: "lt",
	ir.Ge: "ge",
	ir.Gt: "gt",
	ir.Eq: "eq",
	ir.Ne: "ne",
}

var (
	posKinds      = invert(posKindNames)
	overlapKinds  = invert(overlapKindNames)
	cumulKinds    = invert(cumulKindNames)
	forbidKinds   = invert(forbidKindNames)
	presenceKinds = invert(presenceKindNames)
	boundKinds    = invert(boundKindNames)
	stateKinds    = invert(stateKindNames)
	cmpOps        = invert(cmpOpNames)
	irOps         = invert(irOpNames)
)

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func nameOf[K comparable](names map[K]string, k K, what string) (string, error) {
	name, ok := names[k]
	if !ok {
		return "", fmt.Errorf("interchange: unknown %s %v", what, k)
	}
	return name, nil
}

func parseKind[K any](kinds map[string]K, name, what string) (K, error) {
	k, ok := kinds[name]
	if !ok {
		var zero K
		return zero, fmt.Errorf("interchange: unknown %s %q", what, name)
	}
	return k, nil
}
