// Package config defines the release assembly settings and provides helpers
// to load, validate and save them in YAML format.
//
// The Config type lists the component descriptors whose artifacts are staged,
// the archive formats to produce, and the signing and source snapshot options.
// Configuration is passed explicitly into every service; nothing here is
// ambient state.
package config
