package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mettallan/jmh-lucene/internal/version"
)

// Config describes one release assembly run: which components to stage,
// where the distribution is produced, and how archives are finished.
type Config struct {
	// Distribution is the base name used for the staging tree and archives.
	Distribution string `yaml:"distribution"`
	// Version is the release version; defaults to the build version.
	Version string `yaml:"version"`
	// OutputDir is the directory where the staging tree and archives are written.
	OutputDir string `yaml:"output_dir"`
	// RootPrefix is the common component identifier prefix stripped by the layout planner.
	RootPrefix string `yaml:"root_prefix"`
	// Formats lists the binary archive formats to produce (tar.gz, zip).
	Formats []string `yaml:"formats"`
	// ExcludedGroups lists dependency group identifiers dropped from lib folders.
	ExcludedGroups []string `yaml:"excluded_groups,omitempty"`
	// RootFiles are files copied verbatim to the distribution root.
	RootFiles []string `yaml:"root_files,omitempty"`
	// ExtraFiles are additional fixed files taken from specific components.
	ExtraFiles []ExtraFile `yaml:"extra_files,omitempty"`
	// DocsDir is an optional generated documentation tree staged under docs.
	DocsDir string `yaml:"docs_dir,omitempty"`
	// Source controls the version-control source snapshot.
	Source Source `yaml:"source"`
	// Signing controls detached signature production.
	Signing Signing `yaml:"signing"`
	// Components are the sub-components whose artifacts form the distribution.
	Components []Component `yaml:"components"`
}

// Component declares one sub-component's already-built outputs.
type Component struct {
	// ID is the hierarchical component identifier, e.g. ":jmh-lucene:core".
	ID string `yaml:"id"`
	// Artifact is the path to the component's primary build output.
	Artifact string `yaml:"artifact"`
	// Dependencies is the resolved runtime dependency closure of the component.
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// Dependency is one entry of a component's runtime dependency closure.
type Dependency struct {
	// Group is the group identifier used by the exclusion filter.
	Group string `yaml:"group"`
	// Artifact is the path to the dependency file.
	Artifact string `yaml:"artifact"`
}

// ExtraFile names a fixed file contributed by a specific component
// and copied verbatim to the distribution root.
type ExtraFile struct {
	// Component is the identifier of the contributing component.
	Component string `yaml:"component"`
	// File is the path of the file to copy.
	File string `yaml:"file"`
}

// Source configures the version-control source snapshot export.
type Source struct {
	// Enabled toggles source snapshot production.
	Enabled bool `yaml:"enabled"`
	// Reference is the version-control reference to export (defaults to HEAD).
	Reference string `yaml:"reference,omitempty"`
}

// Signing configures detached signature production for archives.
type Signing struct {
	// Enabled toggles signing of the produced archives.
	Enabled bool `yaml:"enabled"`
	// Key is the signing key identity passed to the signing tool.
	// It must be set when signing is enabled.
	Key string `yaml:"key,omitempty"`
	// Command overrides the signing tool binary (defaults to gpg).
	Command string `yaml:"command,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for release settings.
	DefaultConfigFilename = "release-settings.yaml"

	// DefaultOutputDir is where the distribution is produced when unset.
	DefaultOutputDir = "dist"

	// DefaultSourceReference is exported when no reference is configured.
	DefaultSourceReference = "HEAD"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// FormatTarGz is the tar+gzip binary archive format.
	FormatTarGz = "tar.gz"

	// FormatZip is the zip binary archive format.
	FormatZip = "zip"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDistributionRequired is returned when the distribution name is missing.
	errDistributionRequired = errors.New("distribution name must be provided")
	// errNoComponents is returned when the component list is empty.
	errNoComponents = errors.New("at least one component must be provided")
	// errComponentIDRequired is returned when a component has an empty identifier.
	errComponentIDRequired = errors.New("component identifier must be provided")
	// errComponentArtifactRequired is returned when a component has no primary artifact.
	errComponentArtifactRequired = errors.New("component artifact must be provided")
	// errDuplicateComponent is returned when two components share an identifier.
	errDuplicateComponent = errors.New("duplicate component identifier")
	// errComponentOutsidePrefix is returned when an identifier is not under the root prefix.
	errComponentOutsidePrefix = errors.New("component identifier is outside the root prefix")
	// errUnknownFormat is returned when an archive format is not supported.
	errUnknownFormat = errors.New("unknown archive format")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided configuration for required fields
// and fills in defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.Distribution) == "" {
		return errDistributionRequired
	}

	// Default the release version to the build version.
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{FormatTarGz, FormatZip}
	}

	for _, format := range cfg.Formats {
		if format != FormatTarGz && format != FormatZip {
			return fmt.Errorf("%w: %q", errUnknownFormat, format)
		}
	}

	if cfg.Source.Reference == "" {
		cfg.Source.Reference = DefaultSourceReference
	}

	return validateComponents(cfg)
}

// validateComponents checks component identifiers and artifact references.
func validateComponents(cfg *Config) error {
	if len(cfg.Components) == 0 {
		return errNoComponents
	}

	seen := make(map[string]struct{}, len(cfg.Components))

	for _, component := range cfg.Components {
		if component.ID == "" {
			return errComponentIDRequired
		}

		if component.Artifact == "" {
			return fmt.Errorf("%w: %s", errComponentArtifactRequired, component.ID)
		}

		if _, ok := seen[component.ID]; ok {
			return fmt.Errorf("%w: %s", errDuplicateComponent, component.ID)
		}

		seen[component.ID] = struct{}{}

		if cfg.RootPrefix != "" && !strings.HasPrefix(component.ID, cfg.RootPrefix) {
			return fmt.Errorf("%w: %s", errComponentOutsidePrefix, component.ID)
		}
	}

	return nil
}
