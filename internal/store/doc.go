// Package store provides the SQLite-backed run log.
//
// Every solve can be recorded as one row in the runs table: which
// instance ran, which adapter solved it, the outcome, the objective
// value, solver wall time, and the extracted schedule as a JSON
// document. The log is append-only; recording the same run id twice is
// a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// # Ordering
//
// created_at is stored as fixed-width UTC text, so lexicographic order
// on the column is chronological order. Run ids are UUIDv7 and
// therefore time-sortable, which breaks created_at ties in insertion
// order. ListRuns and QueryRuns order by both and are deterministic.
package store
