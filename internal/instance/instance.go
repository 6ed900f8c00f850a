// Package instance loads scheduling problem instances authored in CUE.
//
// An instance file declares tasks, resources, precedences, and
// sequences under a named label:
//
//	instance: line: {
//		horizon: 40
//		tasks: [
//			{name: "grind", length: 5, demands: {mill: 2}},
//			{name: "polish", length: [2, 9], optional: true},
//		]
//		resources: [{name: "mill", capacity: 4}]
//		precedences: [{a: "grind", b: "polish"}]
//		objective: "makespan"
//	}
//
// Compile parses one such value into an Instance; Build realizes an
// Instance as a model session. Load walks a directory of CUE files and
// compiles every instance it finds, either failing fast or collecting
// all errors.
package instance

import "github.com/sohaibafifi/schedkit/internal/model"

// Objective names accepted by the schema.
const (
	ObjectiveMakespan = "makespan"
	ObjectiveNone     = "none"
)

// Instance is one compiled problem instance.
type Instance struct {
	Name        string
	Horizon     int
	Tasks       []Task
	Resources   []Resource
	Precedences []Precedence
	Sequences   []Sequence
	Objective   string
}

// Span is an inclusive bound pair. Fixed values have Min == Max.
type Span struct {
	Min int
	Max int
}

// Task is one task declaration. Length and Size are nil when the file
// leaves them unbounded; Release and Deadline are nil when absent.
type Task struct {
	Name        string
	Length      *Span
	Size        *Span
	Optional    bool
	Demands     map[string]int
	Release     *int
	Deadline    *int
	Intensity   []Step
	Granularity int
}

// Step is one breakpoint of a task's intensity function.
type Step struct {
	From  int
	Value int
}

// Resource is a cumulative resource with a fixed capacity.
type Resource struct {
	Name     string
	Capacity int
}

// Precedence relates two tasks by name.
type Precedence struct {
	Kind  model.PrecKind
	A     string
	B     string
	Delay int
}

// Sequence is an ordered machine: its tasks never overlap, with
// optional per-type transition times.
type Sequence struct {
	Name        string
	Tasks       []string
	Types       []int
	Transitions [][]int
	Direct      bool
}
