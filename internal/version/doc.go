// Package version exposes build metadata for the project.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. Version doubles
// as the default release version when the settings file leaves it unset.
// Helper functions Short and Full render the version string for CLI output and logs.
package version
