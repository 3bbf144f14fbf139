package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// initRepository creates a git repository with one committed file.
func initRepository(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("readme"), 0o600))

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir

		output, err := cmd.CombinedOutput()
		require.NoError(t, err, string(output))
	}

	run("init", "-q")
	run("add", "README.txt")
	run("-c", "user.email=test@example.com", "-c", "user.name=test", "commit", "-q", "-m", "initial")

	return dir
}

// TestExport verifies a snapshot archive is produced for a valid reference.
func TestExport(t *testing.T) {
	t.Parallel()

	repo := initRepository(t)
	output := filepath.Join(t.TempDir(), "demo-1.0.0-src.tar.gz")

	err := Export(context.Background(), &Options{
		Reference:  "HEAD",
		Prefix:     "demo-1.0.0",
		OutputPath: output,
		WorkDir:    repo,
	})
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

// TestExportBadReference verifies git's error output is surfaced and no
// partial archive is left at the final path.
func TestExportBadReference(t *testing.T) {
	t.Parallel()

	repo := initRepository(t)
	output := filepath.Join(t.TempDir(), "demo-src.tar.gz")

	err := Export(context.Background(), &Options{
		Reference:  "does-not-exist",
		Prefix:     "demo",
		OutputPath: output,
		WorkDir:    repo,
	})
	require.Error(t, err)

	_, err = os.Stat(output)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(output + temporarySuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestExportMissingReference verifies an empty reference is rejected upfront.
func TestExportMissingReference(t *testing.T) {
	t.Parallel()

	err := Export(context.Background(), &Options{
		Prefix:     "demo",
		OutputPath: filepath.Join(t.TempDir(), "demo-src.tar.gz"),
	})
	require.ErrorIs(t, err, errReferenceRequired)
}
