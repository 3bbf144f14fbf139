// Package layout contains the pure planning logic for the distribution tree.
//
// It maps component identifiers to destination sub-paths and turns a set of
// resolved components plus the fixed root files into a sorted, deterministic
// copy plan. The package performs no I/O; the assembler executes the plan.
package layout
