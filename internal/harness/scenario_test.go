package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario drops a scenario file into a fresh temp dir that also
// holds an empty instances directory for dir resolution.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "instances"), 0755))
	path := filepath.Join(tmpDir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	content := `name: ramp_up
description: "Checks the ramp placement"
dir: instances
instance: ramp
expect:
  outcome: optimal
  objective: 10
tasks:
  - name: ramp
    present: true
    start: 0
    end: 10
    length: 10
    size: 10
`
	path := writeScenario(t, content)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "ramp_up", scenario.Name)
	assert.Equal(t, "Checks the ramp placement", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "instances"), scenario.Dir)
	assert.Equal(t, "ramp", scenario.InstanceName())
	assert.Equal(t, "optimal", scenario.Expect.Outcome)
	require.NotNil(t, scenario.Expect.Objective)
	assert.Equal(t, 10, *scenario.Expect.Objective)

	require.Len(t, scenario.Tasks, 1)
	te := scenario.Tasks[0]
	assert.Equal(t, "ramp", te.Name)
	require.NotNil(t, te.Present)
	assert.True(t, *te.Present)
	require.NotNil(t, te.Start)
	assert.Equal(t, 0, *te.Start)
	require.NotNil(t, te.End)
	assert.Equal(t, 10, *te.End)
	require.NotNil(t, te.Length)
	assert.Equal(t, 10, *te.Length)
	require.NotNil(t, te.Size)
	assert.Equal(t, 10, *te.Size)
}

func TestLoadScenario_DefaultsInstanceToName(t *testing.T) {
	content := `name: plain
description: "No instance override"
dir: instances
expect:
  outcome: satisfiable
`
	scenario, err := LoadScenario(writeScenario(t, content))
	require.NoError(t, err)

	assert.Empty(t, scenario.Instance)
	assert.Equal(t, "plain", scenario.InstanceName())
	assert.Nil(t, scenario.Expect.Objective)
	assert.Empty(t, scenario.Tasks)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_InvalidYAML(t *testing.T) {
	content := `name: broken
description: [unclosed
`
	_, err := LoadScenario(writeScenario(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse scenario YAML")
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	content := `name: typo
description: "Misspelled expect key"
dir: instances
expect:
  outcom: optimal
`
	_, err := LoadScenario(writeScenario(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field outcom not found")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `description: "x"
dir: instances
expect:
  outcome: optimal
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `name: x
dir: instances
expect:
  outcome: optimal
`,
			wantErr: "description is required",
		},
		{
			name: "missing dir",
			content: `name: x
description: "x"
expect:
  outcome: optimal
`,
			wantErr: "dir is required",
		},
		{
			name: "dir does not exist",
			content: `name: x
description: "x"
dir: no_such_dir
expect:
  outcome: optimal
`,
			wantErr: "instance directory not found",
		},
		{
			name: "missing outcome",
			content: `name: x
description: "x"
dir: instances
expect:
  objective: 3
`,
			wantErr: "expect.outcome is required",
		},
		{
			name: "unknown outcome",
			content: `name: x
description: "x"
dir: instances
expect:
  outcome: sideways
`,
			wantErr: `unknown outcome "sideways"`,
		},
		{
			name: "task expectation without name",
			content: `name: x
description: "x"
dir: instances
expect:
  outcome: optimal
tasks:
  - start: 0
`,
			wantErr: "tasks[0]: name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_AbsoluteDirKept(t *testing.T) {
	instDir := t.TempDir()
	content := `name: abs
description: "Absolute dir is used as is"
dir: ` + instDir + `
expect:
  outcome: optimal
`
	scenario, err := LoadScenario(writeScenario(t, content))
	require.NoError(t, err)
	assert.Equal(t, instDir, scenario.Dir)
}
