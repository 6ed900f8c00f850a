// Package runsql compiles run-log filters to parameterized SQLite
// queries over the runs table.
//
// Every emitted statement carries a deterministic ORDER BY and binds
// all values through placeholders; nothing from a filter is ever
// interpolated into SQL text.
package runsql

import (
	"fmt"
	"strings"

	"github.com/sohaibafifi/schedkit/internal/runquery"
)

// TimeLayout renders time bounds the way the runs schema stores
// created_at: fixed-width millisecond UTC text. Lexicographic
// comparison on the column is then chronological comparison, so time
// filters work as plain text comparisons.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// runColumns is the selection the store's row scanners expect, in
// scan order.
const runColumns = "id, instance, adapter, program, outcome, objective, wall_ms, solution, created_at"

// Listing assembles the complete runs query for a filter: selection,
// WHERE clause, deterministic newest-first ordering, and a LIMIT
// bound. The filter is validated first; a nil filter lists every run.
// A non-positive limit means no limit.
func Listing(f runquery.Filter, limit int) (string, []any, error) {
	if err := runquery.Validate(f); err != nil {
		return "", nil, err
	}

	where, params, err := Compile(f)
	if err != nil {
		return "", nil, err
	}

	if limit <= 0 {
		limit = -1 // SQLite reads a negative LIMIT as unlimited
	}

	query := fmt.Sprintf(
		"SELECT %s FROM runs WHERE %s ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?",
		runColumns, where)
	return query, append(params, limit), nil
}

// Compile renders a filter as a parameterized WHERE fragment. A nil
// filter and an empty And both compile to "1 = 1".
func Compile(f runquery.Filter) (string, []any, error) {
	if f == nil {
		return "1 = 1", nil, nil
	}

	switch ft := f.(type) {
	case runquery.Instance:
		return "instance = ?", []any{ft.Name}, nil
	case runquery.Outcome:
		return "outcome = ?", []any{ft.Is.String()}, nil
	case runquery.Program:
		return "program = ?", []any{ft.Digest}, nil
	case runquery.Since:
		return "created_at >= ?", []any{ft.At.UTC().Format(TimeLayout)}, nil
	case runquery.Until:
		return "created_at < ?", []any{ft.At.UTC().Format(TimeLayout)}, nil
	case runquery.And:
		return compileAnd(ft)
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

// compileAnd joins member fragments with AND. AND is associative, so
// nested conjunctions flatten without parentheses.
func compileAnd(and runquery.And) (string, []any, error) {
	if len(and.Filters) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Filters))
	var params []any
	for _, member := range and.Filters {
		sql, memberParams, err := Compile(member)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, memberParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
