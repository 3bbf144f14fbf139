package layout

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	// Separator is the hierarchy separator used in component identifiers.
	Separator = ":"

	// LibDirName is the per-component folder holding the dependency closure.
	LibDirName = "lib"

	// DocsDirName is the folder holding the generated documentation tree.
	DocsDirName = "docs"
)

var (
	// errEmptyIdentifier is returned for an empty component identifier.
	errEmptyIdentifier = errors.New("component identifier is empty")
	// errIdentifierOutsidePrefix is returned when the identifier does not start with the root prefix.
	errIdentifierOutsidePrefix = errors.New("component identifier is outside the root prefix")
	// errUnknownExtraComponent is returned when an extra file references an unknown component.
	errUnknownExtraComponent = errors.New("extra file references unknown component")
)

// Component is a sub-component whose outputs were already resolved and
// filtered by the collector.
type Component struct {
	// ID is the hierarchical component identifier.
	ID string
	// Artifact is the path to the component's primary build output.
	Artifact string
	// Libraries are the paths of the component's runtime dependency closure,
	// already filtered by group exclusions and deduplicated.
	Libraries []string
}

// Entry maps one source file to its path relative to the distribution root.
type Entry struct {
	// Source is the path of the file to copy.
	Source string
	// Target is the destination path relative to the distribution root.
	Target string
}

// Plan is the complete copy plan for one distribution tree.
// Entries are sorted by target path, so identical input always yields an
// identical plan regardless of the order components were supplied in.
type Plan struct {
	// Entries lists every file copy, sorted by target path.
	Entries []Entry
	// DocsDir is the generated documentation tree staged under docs,
	// or empty when no documentation is shipped.
	DocsDir string
}

// Input carries everything the planner needs; it has no other dependencies
// and performs no I/O.
type Input struct {
	// RootPrefix is the common identifier prefix stripped from component ids.
	RootPrefix string
	// RootFiles are copied verbatim to the distribution root.
	RootFiles []string
	// ExtraFiles maps a component identifier to one fixed file copied to the root.
	ExtraFiles map[string]string
	// DocsDir is the optional generated documentation tree.
	DocsDir string
	// Components are the resolved components to stage.
	Components []Component
}

// DestinationPath maps a component identifier to its destination sub-path
// inside the distribution tree by stripping the root prefix and converting
// hierarchy separators to path separators.
func DestinationPath(id, rootPrefix string) (string, error) {
	if id == "" {
		return "", errEmptyIdentifier
	}

	trimmed := id
	if rootPrefix != "" {
		if !strings.HasPrefix(trimmed, rootPrefix) {
			return "", fmt.Errorf("%w: %s", errIdentifierOutsidePrefix, id)
		}

		trimmed = strings.TrimPrefix(trimmed, rootPrefix)
	}

	trimmed = strings.TrimPrefix(trimmed, Separator)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s", errEmptyIdentifier, id)
	}

	return strings.ReplaceAll(trimmed, Separator, "/"), nil
}

// BuildPlan produces the copy plan for the distribution tree.
// A component's own primary artifact is never planned into its lib folder,
// even when the dependency closure lists a file with the same name.
func BuildPlan(in Input) (*Plan, error) {
	plan := &Plan{
		DocsDir: in.DocsDir,
	}

	for _, file := range in.RootFiles {
		plan.Entries = append(plan.Entries, Entry{
			Source: file,
			Target: path.Base(file),
		})
	}

	known := make(map[string]struct{}, len(in.Components))

	for _, component := range in.Components {
		known[component.ID] = struct{}{}

		destination, err := DestinationPath(component.ID, in.RootPrefix)
		if err != nil {
			return nil, err
		}

		artifactName := path.Base(component.Artifact)
		plan.Entries = append(plan.Entries, Entry{
			Source: component.Artifact,
			Target: path.Join(destination, artifactName),
		})

		for _, library := range component.Libraries {
			libraryName := path.Base(library)

			// The primary artifact is already staged directly under the
			// destination path; shipping a second copy in lib is forbidden.
			if libraryName == artifactName {
				continue
			}

			plan.Entries = append(plan.Entries, Entry{
				Source: library,
				Target: path.Join(destination, LibDirName, libraryName),
			})
		}
	}

	for componentID, file := range in.ExtraFiles {
		if _, ok := known[componentID]; !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownExtraComponent, componentID)
		}

		plan.Entries = append(plan.Entries, Entry{
			Source: file,
			Target: path.Base(file),
		})
	}

	sort.Slice(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Target < plan.Entries[j].Target
	})

	return plan, nil
}
