package harness

import (
	"github.com/sohaibafifi/schedkit/internal/model"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass indicates overall success. True when every expectation held
	// and the returned assignment satisfies the lowered program.
	Pass bool

	// Errors lists expectation failures. Empty when Pass is true.
	Errors []string

	// Solution is the extracted schedule.
	Solution *solve.Solution

	// Tasks maps task names to their intervals, for reading placements
	// out of Solution.
	Tasks map[string]*model.IntervalVar
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records an expectation failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
