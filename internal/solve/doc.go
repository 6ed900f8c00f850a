// Package solve runs a compiled scheduling program through a solver
// adapter and turns the raw assignment back into interval values.
//
// The package owns the adapter boundary: adapters receive an ir.Program
// and options, and report one of four outcomes. Infeasibility and
// timeout are outcomes, not errors; errors are reserved for broken
// adapters and invalid programs.
package solve
