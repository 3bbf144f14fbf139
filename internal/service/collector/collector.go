package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mettallan/jmh-lucene/internal/config"
	"github.com/mettallan/jmh-lucene/internal/domain/layout"
	"github.com/mettallan/jmh-lucene/internal/logger"
)

var (
	// errMissingArtifact is returned when a component's primary artifact is absent.
	errMissingArtifact = errors.New("component artifact not found")
	// errMissingDependency is returned when a dependency file is absent.
	errMissingDependency = errors.New("dependency artifact not found")
)

// Collect resolves every configured component against the filesystem.
// It never triggers a build: the artifacts must already exist, and a single
// missing one fails the whole run because a partial distribution is worthless.
// The dependency closure of each component is filtered by excluded groups and
// deduplicated by filename.
func Collect(ctx context.Context, cfg *config.Config) ([]layout.Component, error) {
	excluded := sliceToSet(cfg.ExcludedGroups)
	components := make([]layout.Component, 0, len(cfg.Components))

	for _, descriptor := range cfg.Components {
		component, err := resolve(descriptor, excluded)
		if err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Collected component",
			"component", component.ID,
			"artifact", component.Artifact,
			"libraries", len(component.Libraries))

		components = append(components, component)
	}

	return components, nil
}

// resolve checks one component's outputs on disk and applies the exclusion filter.
func resolve(descriptor config.Component, excluded map[string]struct{}) (layout.Component, error) {
	component := layout.Component{
		ID:       descriptor.ID,
		Artifact: descriptor.Artifact,
	}

	if err := statFile(descriptor.Artifact); err != nil {
		return component, fmt.Errorf("%w: %s: %s", errMissingArtifact, descriptor.ID, descriptor.Artifact)
	}

	seen := make(map[string]struct{}, len(descriptor.Dependencies))

	for _, dependency := range descriptor.Dependencies {
		if _, ok := excluded[dependency.Group]; ok {
			continue
		}

		name := filepath.Base(dependency.Artifact)
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}

		if err := statFile(dependency.Artifact); err != nil {
			return component, fmt.Errorf("%w: %s: %s", errMissingDependency, descriptor.ID, dependency.Artifact)
		}

		component.Libraries = append(component.Libraries, dependency.Artifact)
	}

	return component, nil
}

// statFile reports whether the path exists as a regular file.
func statFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, os.ErrInvalid)
	}

	return nil
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))
	for _, value := range elements {
		result[value] = struct{}{}
	}

	return result
}
