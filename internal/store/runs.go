package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sohaibafifi/schedkit/internal/runquery"
	"github.com/sohaibafifi/schedkit/internal/runsql"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

// createdAtLayout is fixed-width (millisecond fraction, UTC offset), so
// lexicographic ordering on the TEXT column matches chronological
// ordering. RFC3339Nano would drop trailing zeros and break that.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// TaskPlacement is one task's placement inside a stored solution
// document. Absent optional tasks keep Present false and zero times.
type TaskPlacement struct {
	Task    string `json:"task"`
	Present bool   `json:"present"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Length  int    `json:"length"`
	Size    int    `json:"size"`
}

// Run is one recorded solve.
type Run struct {
	ID       string
	Instance string
	Adapter  string
	// Program is the fingerprint of the lowered program, grouping runs
	// of the same model.
	Program string
	Outcome solve.Outcome
	// Objective is nil when the model carried no objective.
	Objective *int
	Wall      time.Duration
	// Solution is nil when the solve produced no assignment.
	Solution  []TaskPlacement
	CreatedAt time.Time
}

// RecordRun inserts one run record and returns it with the generated
// fields filled in: an empty ID gets a fresh UUIDv7, a zero CreatedAt
// gets the current time. CreatedAt is stored in UTC at millisecond
// resolution; the returned record matches what a later GetRun returns.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same
// id twice leaves the first record in place.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.Must(uuid.NewV7()).String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC().Truncate(time.Millisecond)

	solutionJSON, err := marshalSolution(run.Solution)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	var objective any
	if run.Objective != nil {
		objective = *run.Objective
	}
	var solution any
	if solutionJSON != "" {
		solution = solutionJSON
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, instance, adapter, program, outcome, objective, wall_ms, solution, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Instance,
		run.Adapter,
		run.Program,
		run.Outcome.String(),
		objective,
		run.Wall.Milliseconds(),
		solution,
		run.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	return run, nil
}

// ListRuns returns recorded runs, newest first: ORDER BY created_at
// DESC, id DESC COLLATE BINARY, so results are deterministic and ties
// within one millisecond resolve in reverse insertion order (UUIDv7
// ids are time-sortable). A non-positive limit returns every run.
//
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	return s.QueryRuns(ctx, nil, limit)
}

// QueryRuns returns the runs matching a filter, with the same ordering
// and limit semantics as ListRuns. A nil filter matches every run. The
// filter is validated before compiling, so a structurally bad filter
// comes back as an error rather than an empty result.
func (s *Store) QueryRuns(ctx context.Context, f runquery.Filter, limit int) ([]Run, error) {
	query, params, err := runsql.Listing(f, limit)
	if err != nil {
		return nil, fmt.Errorf("compile runs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// GetRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instance, adapter, program, outcome, objective, wall_ms, solution, created_at
		FROM runs
		WHERE id = ?
	`, id)

	return scanRunRow(row)
}

// scanRun decodes one runs row from a multi-row query.
func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run          Run
		outcome      string
		objective    sql.NullInt64
		wallMS       int64
		solutionJSON sql.NullString
		createdAt    string
	)
	if err := rows.Scan(
		&run.ID, &run.Instance, &run.Adapter, &run.Program, &outcome,
		&objective, &wallMS, &solutionJSON, &createdAt,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	return decodeRun(run, outcome, objective, wallMS, solutionJSON, createdAt)
}

// scanRunRow decodes the runs row of a single-row query. Scan errors
// pass through bare so callers can test for sql.ErrNoRows.
func scanRunRow(row *sql.Row) (Run, error) {
	var (
		run          Run
		outcome      string
		objective    sql.NullInt64
		wallMS       int64
		solutionJSON sql.NullString
		createdAt    string
	)
	if err := row.Scan(
		&run.ID, &run.Instance, &run.Adapter, &run.Program, &outcome,
		&objective, &wallMS, &solutionJSON, &createdAt,
	); err != nil {
		return Run{}, err
	}

	return decodeRun(run, outcome, objective, wallMS, solutionJSON, createdAt)
}

// decodeRun finishes a scan: parses the outcome, the solution document
// and the timestamp.
func decodeRun(run Run, outcome string, objective sql.NullInt64, wallMS int64, solutionJSON sql.NullString, createdAt string) (Run, error) {
	oc, ok := solve.ParseOutcome(outcome)
	if !ok {
		return Run{}, fmt.Errorf("run %s: unknown outcome %q", run.ID, outcome)
	}
	run.Outcome = oc

	if objective.Valid {
		v := int(objective.Int64)
		run.Objective = &v
	}
	run.Wall = time.Duration(wallMS) * time.Millisecond

	if solutionJSON.Valid {
		sol, err := unmarshalSolution(solutionJSON.String)
		if err != nil {
			return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
		}
		run.Solution = sol
	}

	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", run.ID, createdAt, err)
	}
	run.CreatedAt = t

	return run, nil
}

// marshalSolution converts placements to JSON TEXT for storage.
// The encoder keeps HTML characters literal so stored documents read
// back byte-identical.
func marshalSolution(placements []TaskPlacement) (string, error) {
	if placements == nil {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(placements); err != nil {
		return "", fmt.Errorf("marshal solution: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalSolution parses JSON TEXT back to placements.
func unmarshalSolution(data string) ([]TaskPlacement, error) {
	if data == "" {
		return nil, nil
	}
	var placements []TaskPlacement
	if err := json.Unmarshal([]byte(data), &placements); err != nil {
		return nil, fmt.Errorf("unmarshal solution: %w", err)
	}
	return placements, nil
}
