package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for release settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing distribution name.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// No components.
	cfg = &Config{
		Distribution: "jmh-lucene",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Unknown archive format.
	cfg = &Config{
		Distribution: "jmh-lucene",
		Formats:      []string{"rar"},
		Components: []Component{
			{ID: ":jmh-lucene:core", Artifact: "core.jar"},
		},
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Duplicate component identifier.
	cfg = &Config{
		Distribution: "jmh-lucene",
		Components: []Component{
			{ID: ":jmh-lucene:core", Artifact: "core.jar"},
			{ID: ":jmh-lucene:core", Artifact: "core-again.jar"},
		},
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Component outside the root prefix.
	cfg = &Config{
		Distribution: "jmh-lucene",
		RootPrefix:   ":jmh-lucene",
		Components: []Component{
			{ID: ":elsewhere:core", Artifact: "core.jar"},
		},
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay with defaults applied.
	cfg = &Config{
		Distribution: "jmh-lucene",
		RootPrefix:   ":jmh-lucene",
		Components: []Component{
			{ID: ":jmh-lucene:core", Artifact: "core.jar"},
		},
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultOutputDir, cfg.OutputDir)
	require.Equal(t, []string{FormatTarGz, FormatZip}, cfg.Formats)
	require.Equal(t, DefaultSourceReference, cfg.Source.Reference)
	require.NotEmpty(t, cfg.Version)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		Distribution:   "jmh-lucene",
		Version:        "10.3.0",
		RootPrefix:     ":jmh-lucene",
		ExcludedGroups: []string{"org.slf4j"},
		RootFiles:      []string{"LICENSE.txt", "README.txt"},
		Components: []Component{
			{
				ID:       ":jmh-lucene:core",
				Artifact: "build/core.jar",
				Dependencies: []Dependency{
					{Group: "org.apache.commons", Artifact: "build/deps/commons-codec.jar"},
				},
			},
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Distribution, loaded.Distribution)
	require.Equal(t, cfg.Version, loaded.Version)
	require.Equal(t, cfg.Components, loaded.Components)
	require.Equal(t, cfg.ExcludedGroups, loaded.ExcludedGroups)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
