// Package ir defines the primitive constraint program handed to solver
// adapters.
//
// This package contains type definitions and the reference evaluator
// only. All other internal packages import ir; ir imports nothing
// internal. This keeps the program representation the foundational layer
// with no circular dependencies.
//
// Key design constraints:
//   - Integer times only; bool variables are IntVars bounded by [0, 1]
//   - Interval ends never appear as variables, only as start+length sums
//   - Construction order is identity: variable and constraint ids are
//     append positions, so equal models produce equal programs
package ir
