package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sohaibafifi/schedkit/internal/solve"
)

// Scenario describes one end-to-end fixture: which instance to solve
// and what the schedule must look like afterwards.
type Scenario struct {
	// Name identifies the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Dir is the directory holding the instance files. Relative paths
	// are resolved against the scenario file's location.
	Dir string `yaml:"dir"`

	// Instance selects an instance from Dir by name. Defaults to Name.
	Instance string `yaml:"instance,omitempty"`

	// Expect states the required solve outcome.
	Expect ExpectClause `yaml:"expect"`

	// Tasks lists per-task placement expectations. Optional.
	Tasks []TaskExpectation `yaml:"tasks,omitempty"`
}

// ExpectClause pins the outcome of a solve, and optionally the
// objective value the backend must prove.
type ExpectClause struct {
	Outcome   string `yaml:"outcome"`
	Objective *int   `yaml:"objective,omitempty"`
}

// TaskExpectation pins fields of one task's placement. Nil fields are
// not checked.
type TaskExpectation struct {
	Name    string `yaml:"name"`
	Present *bool  `yaml:"present,omitempty"`
	Start   *int   `yaml:"start,omitempty"`
	End     *int   `yaml:"end,omitempty"`
	Length  *int   `yaml:"length,omitempty"`
	Size    *int   `yaml:"size,omitempty"`
}

// InstanceName returns the name of the instance the scenario targets.
func (s *Scenario) InstanceName() string {
	if s.Instance != "" {
		return s.Instance
	}
	return s.Name
}

// LoadScenario loads and validates a scenario from a YAML file. The
// instance directory is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if scenario.Dir != "" && !filepath.IsAbs(scenario.Dir) {
		scenario.Dir = filepath.Join(filepath.Dir(path), scenario.Dir)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		return fmt.Errorf("instance directory not found: %s", s.Dir)
	}
	if s.Expect.Outcome == "" {
		return fmt.Errorf("expect.outcome is required")
	}
	if _, ok := solve.ParseOutcome(s.Expect.Outcome); !ok {
		return fmt.Errorf("unknown outcome %q", s.Expect.Outcome)
	}
	for i, te := range s.Tasks {
		if te.Name == "" {
			return fmt.Errorf("tasks[%d]: name is required", i)
		}
	}
	return nil
}
