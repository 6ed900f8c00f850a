// Package runquery defines the typed filter language for the run log.
//
// A Filter selects a subset of recorded runs: by instance name, by
// outcome, by program fingerprint, or by creation time, with And for
// conjunction. Filters are plain values with no behavior; backends
// such as runsql compile them into queries, and callers validate them
// with Validate before handing them to a backend.
//
// Filter is a sealed interface using the marker method pattern, the
// same discipline the constraint program uses. Backends switch over
// the variant set exhaustively and reject anything else, so adding a
// variant means visiting every backend.
//
// The variant set stays deliberately small: equality matches and
// half-open time ranges, conjunction only. Disjunction, negation and
// free-text matching are out; a caller wanting OR runs two queries.
package runquery
