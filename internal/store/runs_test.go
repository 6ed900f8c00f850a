package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sohaibafifi/schedkit/internal/runquery"
	"github.com/sohaibafifi/schedkit/internal/runsql"
	"github.com/sohaibafifi/schedkit/internal/solve"
)

func intptr(v int) *int { return &v }

// testRun builds a run with a solution document and an objective.
func testRun(id, instance string, createdAt time.Time) Run {
	return Run{
		ID:        id,
		Instance:  instance,
		Adapter:   "gokano",
		Program:   "3f5a",
		Outcome:   solve.Optimal,
		Objective: intptr(10),
		Wall:      125 * time.Millisecond,
		Solution: []TaskPlacement{
			{Task: "t0", Present: true, Start: 0, End: 3, Length: 3, Size: 3},
			{Task: "t1", Present: true, Start: 0, End: 2, Length: 2, Size: 2},
		},
		CreatedAt: createdAt,
	}
}

func TestRecordRun_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	rec, err := s.RecordRun(ctx, testRun("run-1", "rcpsp", created))
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}

	if got.ID != "run-1" {
		t.Errorf("id = %q, want %q", got.ID, "run-1")
	}
	if got.Instance != "rcpsp" {
		t.Errorf("instance = %q, want %q", got.Instance, "rcpsp")
	}
	if got.Adapter != "gokano" {
		t.Errorf("adapter = %q, want %q", got.Adapter, "gokano")
	}
	if got.Program != "3f5a" {
		t.Errorf("program = %q, want %q", got.Program, "3f5a")
	}
	if got.Outcome != solve.Optimal {
		t.Errorf("outcome = %v, want %v", got.Outcome, solve.Optimal)
	}
	if got.Objective == nil || *got.Objective != 10 {
		t.Errorf("objective = %v, want 10", got.Objective)
	}
	if got.Wall != 125*time.Millisecond {
		t.Errorf("wall = %v, want 125ms", got.Wall)
	}
	if len(got.Solution) != 2 || got.Solution[0] != rec.Solution[0] || got.Solution[1] != rec.Solution[1] {
		t.Errorf("solution = %+v, want %+v", got.Solution, rec.Solution)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestRecordRun_MintsUUIDv7(t *testing.T) {
	s := createTestStore(t)

	run := testRun("", "rcpsp", time.Time{})
	rec, err := s.RecordRun(context.Background(), run)
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	parsed, err := uuid.Parse(rec.ID)
	if err != nil {
		t.Fatalf("minted id %q is not a UUID: %v", rec.ID, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("minted id version = %v, want 7", parsed.Version())
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt was not filled in")
	}
	if loc := rec.CreatedAt.Location(); loc != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", loc)
	}
}

func TestRecordRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	if _, err := s.RecordRun(ctx, testRun("run-1", "first", created)); err != nil {
		t.Fatalf("first RecordRun() failed: %v", err)
	}
	// Same id again - silently ignored, first record wins
	if _, err := s.RecordRun(ctx, testRun("run-1", "second", created)); err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Instance != "first" {
		t.Errorf("instance = %q, want %q", got.Instance, "first")
	}
}

func TestRecordRun_NullColumns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// No objective, no assignment: unsatisfiable run
	run := Run{
		ID:        "run-unsat",
		Instance:  "overfull",
		Adapter:   "gokano",
		Outcome:   solve.Unsatisfiable,
		Wall:      3 * time.Millisecond,
		CreatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	if _, err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	// Verify the columns really are NULL
	var objective sql.NullInt64
	var solution sql.NullString
	err := s.db.QueryRow(
		"SELECT objective, solution FROM runs WHERE id = ?", "run-unsat",
	).Scan(&objective, &solution)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if objective.Valid {
		t.Errorf("objective stored as %d, want NULL", objective.Int64)
	}
	if solution.Valid {
		t.Errorf("solution stored as %q, want NULL", solution.String)
	}

	got, err := s.GetRun(ctx, "run-unsat")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Objective != nil {
		t.Errorf("objective = %v, want nil", got.Objective)
	}
	if got.Solution != nil {
		t.Errorf("solution = %v, want nil", got.Solution)
	}
	if got.Outcome != solve.Unsatisfiable {
		t.Errorf("outcome = %v, want %v", got.Outcome, solve.Unsatisfiable)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := testRun(id, "rcpsp", base.Add(time.Duration(i)*time.Second))
		if _, err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i, want := range []string{"run-3", "run-2", "run-1"} {
		if runs[i].ID != want {
			t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, want)
		}
	}

	// Limit keeps only the newest
	runs, err = s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns(2) failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Errorf("limited runs = %q, %q, want run-3, run-2", runs[0].ID, runs[1].ID)
	}
}

func TestListRuns_TieBreakByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Identical created_at: id breaks the tie, descending
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"run-a", "run-b"} {
		if _, err := s.RecordRun(ctx, testRun(id, "rcpsp", created)); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-b" || runs[1].ID != "run-a" {
		t.Errorf("runs = %q, %q, want run-b, run-a", runs[0].ID, runs[1].ID)
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestQueryRuns_ByInstance(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, inst := range []string{"rcpsp", "machines", "rcpsp"} {
		run := testRun(fmt.Sprintf("run-%d", i), inst, base.Add(time.Duration(i)*time.Second))
		if _, err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	runs, err := s.QueryRuns(ctx, runquery.Instance{Name: "rcpsp"}, 0)
	if err != nil {
		t.Fatalf("QueryRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	// Newest first, same as ListRuns
	if runs[0].ID != "run-2" || runs[1].ID != "run-0" {
		t.Errorf("runs = %q, %q, want run-2, run-0", runs[0].ID, runs[1].ID)
	}
}

func TestQueryRuns_Conjunction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	if _, err := s.RecordRun(ctx, testRun("run-opt", "rcpsp", base)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	unsat := Run{
		ID:        "run-unsat",
		Instance:  "rcpsp",
		Adapter:   "gokano",
		Outcome:   solve.Unsatisfiable,
		Wall:      2 * time.Millisecond,
		CreatedAt: base.Add(time.Second),
	}
	if _, err := s.RecordRun(ctx, unsat); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	filter := runquery.And{Filters: []runquery.Filter{
		runquery.Instance{Name: "rcpsp"},
		runquery.Outcome{Is: solve.Unsatisfiable},
	}}
	runs, err := s.QueryRuns(ctx, filter, 0)
	if err != nil {
		t.Fatalf("QueryRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].ID != "run-unsat" {
		t.Errorf("runs[0].ID = %q, want run-unsat", runs[0].ID)
	}
}

func TestQueryRuns_TimeWindow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := testRun(fmt.Sprintf("run-%d", i), "rcpsp", base.Add(time.Duration(i)*time.Minute))
		if _, err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	// Half-open window [base+1m, base+2m): exactly the middle run.
	// Since is inclusive, Until exclusive.
	filter := runquery.And{Filters: []runquery.Filter{
		runquery.Since{At: base.Add(time.Minute)},
		runquery.Until{At: base.Add(2 * time.Minute)},
	}}
	runs, err := s.QueryRuns(ctx, filter, 0)
	if err != nil {
		t.Fatalf("QueryRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].ID != "run-1" {
		t.Errorf("runs[0].ID = %q, want run-1", runs[0].ID)
	}
}

func TestQueryRuns_ByProgram(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	a := testRun("run-a", "before-rename", base)
	b := testRun("run-b", "after-rename", base.Add(time.Second))
	other := testRun("run-c", "machines", base.Add(2*time.Second))
	other.Program = "9c1d"
	for _, run := range []Run{a, b, other} {
		if _, err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	// The fingerprint follows the model across instance renames.
	runs, err := s.QueryRuns(ctx, runquery.Program{Digest: "3f5a"}, 0)
	if err != nil {
		t.Fatalf("QueryRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-b" || runs[1].ID != "run-a" {
		t.Errorf("runs = %q, %q, want run-b, run-a", runs[0].ID, runs[1].ID)
	}
}

func TestQueryRuns_InvalidFilter(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryRuns(context.Background(), runquery.Instance{}, 0)
	if err == nil {
		t.Fatal("QueryRuns() with empty instance name should fail")
	}
	if !strings.Contains(err.Error(), "name is empty") {
		t.Errorf("err = %v, want mention of empty name", err)
	}
}

func TestCreatedAtLayoutMatchesRunSQL(t *testing.T) {
	// Time filters compare as text against the created_at column, so
	// the two layouts must never drift apart.
	if createdAtLayout != runsql.TimeLayout {
		t.Errorf("createdAtLayout = %q, runsql.TimeLayout = %q", createdAtLayout, runsql.TimeLayout)
	}
}

func TestMarshalSolution_RoundTrip(t *testing.T) {
	placements := []TaskPlacement{
		{Task: "a", Present: true, Start: 0, End: 5, Length: 5, Size: 5},
		{Task: "b", Present: false},
	}

	data, err := marshalSolution(placements)
	if err != nil {
		t.Fatalf("marshalSolution() failed: %v", err)
	}

	got, err := unmarshalSolution(data)
	if err != nil {
		t.Fatalf("unmarshalSolution() failed: %v", err)
	}
	if len(got) != 2 || got[0] != placements[0] || got[1] != placements[1] {
		t.Errorf("round trip = %+v, want %+v", got, placements)
	}
}

func TestMarshalSolution_NilIsEmpty(t *testing.T) {
	data, err := marshalSolution(nil)
	if err != nil {
		t.Fatalf("marshalSolution(nil) failed: %v", err)
	}
	if data != "" {
		t.Errorf("marshalSolution(nil) = %q, want empty", data)
	}

	got, err := unmarshalSolution("")
	if err != nil {
		t.Fatalf("unmarshalSolution(\"\") failed: %v", err)
	}
	if got != nil {
		t.Errorf("unmarshalSolution(\"\") = %v, want nil", got)
	}
}
