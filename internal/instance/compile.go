package instance

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/sohaibafifi/schedkit/internal/model"
)

// precKinds maps the model's precedence spellings back to kinds, so the
// schema and the model can never drift apart.
var precKinds = func() map[string]model.PrecKind {
	out := make(map[string]model.PrecKind, 8)
	for k := model.EndBeforeStartKind; k <= model.EndAtEndKind; k++ {
		out[k.String()] = k
	}
	return out
}()

// Compile parses a CUE value into an Instance.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the instance struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`instance: line: { ... }`)
//	inst, err := Compile(v.LookupPath(cue.ParsePath("instance.line")))
func Compile(v cue.Value) (*Instance, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	inst := &Instance{Objective: ObjectiveMakespan}

	// The instance name is the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		inst.Name = labels[len(labels)-1].String()
	}

	if hv := v.LookupPath(cue.ParsePath("horizon")); hv.Exists() {
		h, err := intOf(hv)
		if err != nil {
			return nil, err
		}
		if h < 0 {
			return nil, &CompileError{Field: "horizon", Message: "must not be negative", Pos: hv.Pos()}
		}
		inst.Horizon = h
	}

	var err error
	inst.Resources, err = parseResources(v)
	if err != nil {
		return nil, err
	}

	inst.Tasks, err = parseTasks(v, inst.Resources)
	if err != nil {
		return nil, err
	}
	if len(inst.Tasks) == 0 {
		return nil, &CompileError{
			Field:   "tasks",
			Message: "at least one task is required",
			Pos:     v.Pos(),
		}
	}
	tasks := make(map[string]bool, len(inst.Tasks))
	for _, t := range inst.Tasks {
		tasks[t.Name] = true
	}

	inst.Precedences, err = parsePrecedences(v, tasks)
	if err != nil {
		return nil, err
	}

	inst.Sequences, err = parseSequences(v, tasks)
	if err != nil {
		return nil, err
	}

	if ov := v.LookupPath(cue.ParsePath("objective")); ov.Exists() {
		obj, err := ov.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if obj != ObjectiveMakespan && obj != ObjectiveNone {
			return nil, &CompileError{
				Field:   "objective",
				Message: fmt.Sprintf("unknown objective %q, want %q or %q", obj, ObjectiveMakespan, ObjectiveNone),
				Pos:     ov.Pos(),
			}
		}
		inst.Objective = obj
	}

	return inst, nil
}

// parseResources extracts the resource declarations.
func parseResources(v cue.Value) ([]Resource, error) {
	rv := v.LookupPath(cue.ParsePath("resources"))
	if !rv.Exists() {
		return nil, nil
	}

	iter, err := rv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var resources []Resource
	seen := make(map[string]bool)
	for iter.Next() {
		el := iter.Value()
		name, err := requiredString(el, "name", "resources.name")
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &CompileError{
				Field:   "resources",
				Message: fmt.Sprintf("duplicate resource name %q", name),
				Pos:     el.Pos(),
			}
		}
		seen[name] = true

		field := fmt.Sprintf("resources.%s.capacity", name)
		cv := el.LookupPath(cue.ParsePath("capacity"))
		if !cv.Exists() {
			return nil, &CompileError{Field: field, Message: "capacity is required", Pos: el.Pos()}
		}
		capacity, err := intOf(cv)
		if err != nil {
			return nil, err
		}
		if capacity < 0 {
			return nil, &CompileError{Field: field, Message: "must not be negative", Pos: cv.Pos()}
		}

		resources = append(resources, Resource{Name: name, Capacity: capacity})
	}
	return resources, nil
}

// parseTasks extracts the task declarations, checking demand references
// against the declared resources.
func parseTasks(v cue.Value, resources []Resource) ([]Task, error) {
	tv := v.LookupPath(cue.ParsePath("tasks"))
	if !tv.Exists() {
		return nil, nil
	}

	known := make(map[string]bool, len(resources))
	for _, r := range resources {
		known[r.Name] = true
	}

	iter, err := tv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Task
	seen := make(map[string]bool)
	for iter.Next() {
		t, err := parseTask(iter.Value(), known)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, &CompileError{
				Field:   "tasks",
				Message: fmt.Sprintf("duplicate task name %q", t.Name),
				Pos:     iter.Value().Pos(),
			}
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out, nil
}

// parseTask parses a single task struct.
func parseTask(v cue.Value, resources map[string]bool) (Task, error) {
	var t Task

	name, err := requiredString(v, "name", "tasks.name")
	if err != nil {
		return t, err
	}
	t.Name = name
	field := func(f string) string { return fmt.Sprintf("tasks.%s.%s", name, f) }

	if lv := v.LookupPath(cue.ParsePath("length")); lv.Exists() {
		span, err := parseSpan(lv, field("length"))
		if err != nil {
			return t, err
		}
		t.Length = &span
	}
	if sv := v.LookupPath(cue.ParsePath("size")); sv.Exists() {
		span, err := parseSpan(sv, field("size"))
		if err != nil {
			return t, err
		}
		t.Size = &span
	}

	if ov := v.LookupPath(cue.ParsePath("optional")); ov.Exists() {
		b, err := ov.Bool()
		if err != nil {
			return t, formatCUEError(err)
		}
		t.Optional = b
	}

	if dv := v.LookupPath(cue.ParsePath("demands")); dv.Exists() {
		fields, err := dv.Fields()
		if err != nil {
			return t, formatCUEError(err)
		}
		t.Demands = make(map[string]int)
		for fields.Next() {
			res := fields.Label()
			if !resources[res] {
				return t, &CompileError{
					Field:   field("demands"),
					Message: fmt.Sprintf("unknown resource %q", res),
					Pos:     fields.Value().Pos(),
				}
			}
			h, err := intOf(fields.Value())
			if err != nil {
				return t, err
			}
			if h < 0 {
				return t, &CompileError{
					Field:   field("demands." + res),
					Message: "must not be negative",
					Pos:     fields.Value().Pos(),
				}
			}
			t.Demands[res] = h
		}
	}

	if rv := v.LookupPath(cue.ParsePath("release")); rv.Exists() {
		n, err := intOf(rv)
		if err != nil {
			return t, err
		}
		if n < 0 {
			return t, &CompileError{Field: field("release"), Message: "must not be negative", Pos: rv.Pos()}
		}
		t.Release = &n
	}
	if dv := v.LookupPath(cue.ParsePath("deadline")); dv.Exists() {
		n, err := intOf(dv)
		if err != nil {
			return t, err
		}
		if n < 0 {
			return t, &CompileError{Field: field("deadline"), Message: "must not be negative", Pos: dv.Pos()}
		}
		t.Deadline = &n
	}

	if iv := v.LookupPath(cue.ParsePath("intensity")); iv.Exists() {
		list, err := iv.List()
		if err != nil {
			return t, formatCUEError(err)
		}
		for list.Next() {
			el := list.Value()
			fv := el.LookupPath(cue.ParsePath("from"))
			vv := el.LookupPath(cue.ParsePath("value"))
			if !fv.Exists() || !vv.Exists() {
				return t, &CompileError{
					Field:   field("intensity"),
					Message: "each step needs from and value",
					Pos:     el.Pos(),
				}
			}
			from, err := intOf(fv)
			if err != nil {
				return t, err
			}
			value, err := intOf(vv)
			if err != nil {
				return t, err
			}
			t.Intensity = append(t.Intensity, Step{From: from, Value: value})
		}
	}
	if gv := v.LookupPath(cue.ParsePath("granularity")); gv.Exists() {
		n, err := intOf(gv)
		if err != nil {
			return t, err
		}
		if len(t.Intensity) == 0 {
			return t, &CompileError{
				Field:   field("granularity"),
				Message: "granularity without intensity steps",
				Pos:     gv.Pos(),
			}
		}
		t.Granularity = n
	}

	return t, nil
}

// parseSpan accepts either a plain int or a [min, max] pair.
func parseSpan(v cue.Value, field string) (Span, error) {
	if n, err := v.Int64(); err == nil {
		if n < 0 {
			return Span{}, &CompileError{Field: field, Message: "must not be negative", Pos: v.Pos()}
		}
		return Span{Min: int(n), Max: int(n)}, nil
	}

	iter, err := v.List()
	if err != nil {
		return Span{}, &CompileError{
			Field:   field,
			Message: "want an int or a [min, max] pair",
			Pos:     v.Pos(),
		}
	}
	var bounds []int
	for iter.Next() {
		n, err := intOf(iter.Value())
		if err != nil {
			return Span{}, err
		}
		bounds = append(bounds, n)
	}
	if len(bounds) != 2 {
		return Span{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("want 2 bounds, got %d", len(bounds)),
			Pos:     v.Pos(),
		}
	}
	if bounds[0] < 0 || bounds[0] > bounds[1] {
		return Span{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("bad range [%d, %d]", bounds[0], bounds[1]),
			Pos:     v.Pos(),
		}
	}
	return Span{Min: bounds[0], Max: bounds[1]}, nil
}

// parsePrecedences extracts the precedence list. Kind defaults to
// end_before_start, the classic finish-to-start dependency.
func parsePrecedences(v cue.Value, tasks map[string]bool) ([]Precedence, error) {
	pv := v.LookupPath(cue.ParsePath("precedences"))
	if !pv.Exists() {
		return nil, nil
	}

	iter, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Precedence
	for iter.Next() {
		el := iter.Value()
		p := Precedence{Kind: model.EndBeforeStartKind}

		if kv := el.LookupPath(cue.ParsePath("kind")); kv.Exists() {
			ks, err := kv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			kind, ok := precKinds[ks]
			if !ok {
				return nil, &CompileError{
					Field:   "precedences.kind",
					Message: fmt.Sprintf("unknown kind %q", ks),
					Pos:     kv.Pos(),
				}
			}
			p.Kind = kind
		}

		if p.A, err = taskRef(el, "a", tasks); err != nil {
			return nil, err
		}
		if p.B, err = taskRef(el, "b", tasks); err != nil {
			return nil, err
		}

		if dv := el.LookupPath(cue.ParsePath("delay")); dv.Exists() {
			if p.Delay, err = intOf(dv); err != nil {
				return nil, err
			}
		}

		out = append(out, p)
	}
	return out, nil
}

// parseSequences extracts the sequence declarations.
func parseSequences(v cue.Value, tasks map[string]bool) ([]Sequence, error) {
	sv := v.LookupPath(cue.ParsePath("sequences"))
	if !sv.Exists() {
		return nil, nil
	}

	iter, err := sv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Sequence
	seen := make(map[string]bool)
	for iter.Next() {
		el := iter.Value()
		var sq Sequence

		if sq.Name, err = requiredString(el, "name", "sequences.name"); err != nil {
			return nil, err
		}
		if seen[sq.Name] {
			return nil, &CompileError{
				Field:   "sequences",
				Message: fmt.Sprintf("duplicate sequence name %q", sq.Name),
				Pos:     el.Pos(),
			}
		}
		seen[sq.Name] = true
		field := func(f string) string { return fmt.Sprintf("sequences.%s.%s", sq.Name, f) }

		tv := el.LookupPath(cue.ParsePath("tasks"))
		if !tv.Exists() {
			return nil, &CompileError{Field: field("tasks"), Message: "tasks are required", Pos: el.Pos()}
		}
		list, err := tv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			name, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if !tasks[name] {
				return nil, &CompileError{
					Field:   field("tasks"),
					Message: fmt.Sprintf("unknown task %q", name),
					Pos:     list.Value().Pos(),
				}
			}
			sq.Tasks = append(sq.Tasks, name)
		}

		if yv := el.LookupPath(cue.ParsePath("types")); yv.Exists() {
			list, err := yv.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for list.Next() {
				n, err := intOf(list.Value())
				if err != nil {
					return nil, err
				}
				sq.Types = append(sq.Types, n)
			}
			if len(sq.Types) != len(sq.Tasks) {
				return nil, &CompileError{
					Field:   field("types"),
					Message: fmt.Sprintf("%d types for %d tasks", len(sq.Types), len(sq.Tasks)),
					Pos:     yv.Pos(),
				}
			}
		}

		if mv := el.LookupPath(cue.ParsePath("transitions")); mv.Exists() {
			rows, err := mv.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for rows.Next() {
				cols, err := rows.Value().List()
				if err != nil {
					return nil, formatCUEError(err)
				}
				var row []int
				for cols.Next() {
					n, err := intOf(cols.Value())
					if err != nil {
						return nil, err
					}
					row = append(row, n)
				}
				sq.Transitions = append(sq.Transitions, row)
			}
		}

		if dv := el.LookupPath(cue.ParsePath("isDirect")); dv.Exists() {
			if sq.Direct, err = dv.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		out = append(out, sq)
	}
	return out, nil
}

// taskRef reads a required field holding a declared task name.
func taskRef(v cue.Value, path string, tasks map[string]bool) (string, error) {
	name, err := requiredString(v, path, "precedences."+path)
	if err != nil {
		return "", err
	}
	if !tasks[name] {
		return "", &CompileError{
			Field:   "precedences." + path,
			Message: fmt.Sprintf("unknown task %q", name),
			Pos:     v.LookupPath(cue.ParsePath(path)).Pos(),
		}
	}
	return name, nil
}

// requiredString reads a required non-empty string field.
func requiredString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", &CompileError{Field: field, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Field: field, Message: "must not be empty", Pos: sv.Pos()}
	}
	return s, nil
}

// intOf reads an integer value. Floats are forbidden throughout the
// schema; durations and heights are integer ticks.
func intOf(v cue.Value) (int, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
