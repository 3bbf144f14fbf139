// Package source exports the checked-in working tree state as a compressed
// source archive via git archive.
//
// The export writes to a temporary name and renames into place on success, so
// a failed run leaves no partial archive at the final path.
package source
