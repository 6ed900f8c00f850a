package runquery

import (
	"time"

	"github.com/sohaibafifi/schedkit/internal/solve"
)

// Filter selects runs from the run log. The variant set is sealed;
// backends switch over it exhaustively. A nil Filter matches every
// run.
type Filter interface {
	isFilter()
}

// Instance matches runs of one instance name.
type Instance struct {
	Name string
}

// Outcome matches runs that finished with one outcome.
type Outcome struct {
	Is solve.Outcome
}

// Program matches runs whose lowered program carries the given
// fingerprint. The fingerprint groups runs of the same model, so this
// filter follows a model across instance renames.
type Program struct {
	Digest string
}

// Since matches runs created at or after At.
type Since struct {
	At time.Time
}

// Until matches runs created strictly before At. Since and Until
// together select a half-open interval [Since.At, Until.At).
type Until struct {
	At time.Time
}

// And matches runs passing every member filter. An empty And matches
// every run.
type And struct {
	Filters []Filter
}

func (Instance) isFilter() {}
func (Outcome) isFilter()  {}
func (Program) isFilter()  {}
func (Since) isFilter()    {}
func (Until) isFilter()    {}
func (And) isFilter()      {}
