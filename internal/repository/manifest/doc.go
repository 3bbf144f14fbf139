// Package manifest persists the release manifest written at the end of a run.
//
// The manifest lists every produced archive together with its SHA-512 digest
// and detached signature, plus the run identifier and builder identity.
package manifest
