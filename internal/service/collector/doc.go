// Package collector resolves the already-built outputs of every configured
// component before staging begins.
//
// For each component it verifies the primary artifact on disk and filters the
// dependency closure by excluded group identifiers. Compilation is never
// triggered here; a missing artifact aborts the whole run.
package collector
