// Package assembler executes a layout plan by copying artifacts into the
// staging directory that becomes the distribution tree.
//
// It enforces that no two sources claim the same target path, stages the
// generated documentation tree under docs, and applies executable permission
// bits to shell and batch scripts regardless of the host platform.
package assembler
