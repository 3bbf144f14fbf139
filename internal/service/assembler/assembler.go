package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mettallan/jmh-lucene/internal/domain/layout"
	"github.com/mettallan/jmh-lucene/internal/logger"
)

const (
	// ScriptFileMode is applied to shell and batch scripts so archives built
	// on platforms without an executable bit still extract correctly elsewhere.
	ScriptFileMode os.FileMode = 0o755

	// regularFileMode is applied to every other staged file.
	regularFileMode os.FileMode = 0o644

	// stagingDirMode is used for directories created inside the staging tree.
	stagingDirMode os.FileMode = 0o755
)

// errStagingConflict is returned when two different sources map to one target path.
var errStagingConflict = errors.New("staging conflict")

// Assembler copies a layout plan into a staging directory it owns exclusively
// for the duration of one run.
type Assembler struct {
	// root is the staging directory receiving the distribution tree.
	root string
	// staged maps relative target paths to the source that produced them.
	staged map[string]string
}

// New returns an assembler writing into the provided staging root.
func New(root string) *Assembler {
	return &Assembler{
		root:   root,
		staged: make(map[string]string),
	}
}

// Execute copies every plan entry and, when configured, the documentation tree.
// The first missing source or conflicting target aborts the run.
func (a *Assembler) Execute(ctx context.Context, plan *layout.Plan) error {
	if err := os.MkdirAll(a.root, stagingDirMode); err != nil {
		return fmt.Errorf("create staging root: %w", err)
	}

	for _, entry := range plan.Entries {
		if err := a.stageFile(entry.Source, entry.Target); err != nil {
			return err
		}
	}

	if plan.DocsDir != "" {
		if err := a.stageDocs(plan.DocsDir); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Staged distribution tree", "root", a.root, "files", len(a.staged))

	return nil
}

// Root returns the staging directory.
func (a *Assembler) Root() string {
	return a.root
}

// IsScript reports whether the file is a shell or batch script that must carry
// executable permission bits in the distribution.
func IsScript(name string) bool {
	lower := strings.ToLower(name)

	return strings.HasSuffix(lower, ".sh") || strings.HasSuffix(lower, ".bat")
}

// stageFile copies one source into the tree at the relative target path.
// Re-staging the identical source is a no-op; a different source for an
// already-staged target is a conflict and aborts rather than silently
// overwriting with ambiguous precedence.
func (a *Assembler) stageFile(source, target string) error {
	if previous, ok := a.staged[target]; ok {
		if previous == source {
			return nil
		}

		return fmt.Errorf("%w: %s claimed by both %s and %s", errStagingConflict, target, previous, source)
	}

	destination := filepath.Join(a.root, filepath.FromSlash(target))
	if err := os.MkdirAll(filepath.Dir(destination), stagingDirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}

	if err := copyFile(source, destination); err != nil {
		return fmt.Errorf("stage %s: %w", target, err)
	}

	mode := regularFileMode
	if IsScript(target) {
		mode = ScriptFileMode
	}

	if err := os.Chmod(destination, mode); err != nil {
		return fmt.Errorf("set permissions on %s: %w", target, err)
	}

	a.staged[target] = source

	return nil
}

// stageDocs walks the generated documentation tree into the docs folder.
func (a *Assembler) stageDocs(docsDir string) error {
	return filepath.WalkDir(docsDir, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk docs: %w", err)
		}

		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(docsDir, current)
		if err != nil {
			return fmt.Errorf("walk docs: %w", err)
		}

		target := path.Join(layout.DocsDirName, filepath.ToSlash(relative))

		return a.stageFile(current, target)
	})
}

// copyFile copies source contents to destination, truncating any previous file.
func copyFile(source, destination string) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return err
	}

	// Best-effort cleanup.
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
