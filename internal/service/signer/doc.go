// Package signer produces detached armored signatures for release archives by
// invoking an external signing tool (gpg by default).
//
// The signing key precondition is exposed via Validate so the releaser can
// fail fast before any staging or archival work begins.
package signer
