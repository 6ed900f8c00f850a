package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/solve"
	"github.com/sohaibafifi/schedkit/internal/store"
)

// seedRunsDB records two runs a day apart and returns the database path.
func seedRunsDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	older := 13
	_, err = st.RecordRun(ctx, store.Run{
		Instance:  "older",
		Adapter:   "gokano",
		Program:   strings.Repeat("a", 64),
		Outcome:   solve.Optimal,
		Objective: &older,
		Wall:      250 * time.Millisecond,
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = st.RecordRun(ctx, store.Run{
		Instance:  "newer",
		Adapter:   "gokano",
		Program:   strings.Repeat("b", 64),
		Outcome:   solve.Unsatisfiable,
		Wall:      40 * time.Millisecond,
		CreatedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return dbPath
}

func TestRunsListsNewestFirst(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "newer")
	assert.Contains(t, output, "older")
	assert.Contains(t, output, "objective 13")
	assert.Less(t, strings.Index(output, "newer"), strings.Index(output, "older"))
}

func TestRunsJSON(t *testing.T) {
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []RunReport `json:"data"`
	}
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)

	newest := resp.Data[0]
	assert.Equal(t, "newer", newest.Instance)
	assert.Equal(t, "gokano", newest.Adapter)
	assert.Equal(t, strings.Repeat("b", 64), newest.Program)
	assert.Equal(t, "unsatisfiable", newest.Outcome)
	assert.Nil(t, newest.Objective)

	_, err = time.Parse(time.RFC3339, newest.CreatedAt)
	assert.NoError(t, err)
}

func TestRunsLimit(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--limit", "1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "newer")
	assert.NotContains(t, output, "older")
}

func TestRunsFilterByInstance(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--instance", "older"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "older")
	assert.NotContains(t, output, "newer")
}

func TestRunsFilterByOutcome(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--outcome", "unsatisfiable"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "newer")
	assert.NotContains(t, output, "older")
}

func TestRunsFilterByTimeWindow(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	// A bare date parses as midnight UTC, so --until 2025-06-02 keeps
	// only the run recorded the day before.
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--until", "2025-06-02"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "older")
	assert.NotContains(t, buf.String(), "newer")

	buf.Reset()
	cmd = NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--since", "2025-06-02"})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "newer")
	assert.NotContains(t, buf.String(), "older")
}

func TestRunsFilterConjunction(t *testing.T) {
	disableColor(t)
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--instance", "newer", "--outcome", "optimal"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no runs recorded")
}

func TestRunsInvalidOutcome(t *testing.T) {
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--outcome", "sometimes"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --outcome")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "sometimes")
}

func TestRunsInvalidSince(t *testing.T) {
	dbPath := seedRunsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--since", "yesterday"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunsEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no runs recorded")
}

func TestRunsMissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "database not found")
}

func TestRunsMissingDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}
