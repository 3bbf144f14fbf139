package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mettallan/jmh-lucene/internal/logger"
)

// temporarySuffix is appended while git writes the archive; the file is
// renamed to its final path only on full success, so a failed export never
// leaves a partial archive in place.
const temporarySuffix = ".tmp"

// errReferenceRequired is returned when no version-control reference is provided.
var errReferenceRequired = errors.New("source reference must be provided")

// Options are inputs for one source snapshot export.
type Options struct {
	// Reference is the version-control reference to export, e.g. HEAD or a tag.
	Reference string
	// Prefix is the top-level folder recorded for every entry of the archive.
	Prefix string
	// OutputPath is where the tar+gzip source archive is written.
	OutputPath string
	// WorkDir is the repository working tree; empty means the current directory.
	WorkDir string
}

// Export asks git to archive the exact checked-in tree state at the reference.
// The invocation is synchronous; a non-zero exit surfaces git's error output
// and aborts the run.
func Export(ctx context.Context, opts *Options) error {
	if opts.Reference == "" {
		return errReferenceRequired
	}

	temporaryPath := opts.OutputPath + temporarySuffix

	//nolint:gosec // Arguments come from validated release settings, not user input.
	cmd := exec.CommandContext(ctx, "git", "archive",
		"--format=tar.gz",
		"--prefix="+opts.Prefix+"/",
		"--output="+temporaryPath,
		opts.Reference)
	cmd.Dir = opts.WorkDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Never leave a corrupt file behind.
		_ = os.Remove(temporaryPath)

		message := strings.TrimSpace(stderr.String())
		if message != "" {
			return fmt.Errorf("git archive %s: %s: %w", opts.Reference, message, err)
		}

		return fmt.Errorf("git archive %s: %w", opts.Reference, err)
	}

	if err := os.Rename(temporaryPath, opts.OutputPath); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("finalize source archive: %w", err)
	}

	logger.InfoKV(ctx, "Exported source snapshot",
		"reference", opts.Reference,
		"path", opts.OutputPath)

	return nil
}
