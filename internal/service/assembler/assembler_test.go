package assembler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mettallan/jmh-lucene/internal/domain/layout"
)

// writeFile creates a file with the given contents and returns its path.
func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestExecuteCopiesPlan verifies files land at their planned relative paths.
func TestExecuteCopiesPlan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifact := writeFile(t, dir, "a.jar", "artifact-a")
	license := writeFile(t, dir, "LICENSE.txt", "license")

	staging := filepath.Join(dir, "staging")
	asm := New(staging)

	err := asm.Execute(context.Background(), &layout.Plan{
		Entries: []layout.Entry{
			{Source: license, Target: "LICENSE.txt"},
			{Source: artifact, Target: "a/a.jar"},
		},
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(staging, "a", "a.jar"))
	require.NoError(t, err)
	require.Equal(t, "artifact-a", string(contents))

	_, err = os.Stat(filepath.Join(staging, "LICENSE.txt"))
	require.NoError(t, err)
}

// TestExecuteScriptPermissions verifies shell scripts get the executable bit.
func TestExecuteScriptPermissions(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not observable on Windows")
	}

	dir := t.TempDir()
	script := writeFile(t, dir, "run.sh", "#!/bin/sh\n")
	staging := filepath.Join(dir, "staging")

	asm := New(staging)
	err := asm.Execute(context.Background(), &layout.Plan{
		Entries: []layout.Entry{
			{Source: script, Target: "bin/run.sh"},
		},
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(staging, "bin", "run.sh"))
	require.NoError(t, err)
	require.Equal(t, ScriptFileMode, info.Mode().Perm())
}

// TestExecuteConflictAborts verifies two different sources for one target abort the run.
func TestExecuteConflictAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, dir, "first.jar", "first")
	second := writeFile(t, dir, "second.jar", "second")
	staging := filepath.Join(dir, "staging")

	asm := New(staging)
	err := asm.Execute(context.Background(), &layout.Plan{
		Entries: []layout.Entry{
			{Source: first, Target: "lib/dep.jar"},
			{Source: second, Target: "lib/dep.jar"},
		},
	})
	require.ErrorIs(t, err, errStagingConflict)
}

// TestExecuteSameSourceTwice verifies re-staging the identical source is a no-op.
func TestExecuteSameSourceTwice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "dep.jar", "dep")
	staging := filepath.Join(dir, "staging")

	asm := New(staging)
	err := asm.Execute(context.Background(), &layout.Plan{
		Entries: []layout.Entry{
			{Source: file, Target: "lib/dep.jar"},
			{Source: file, Target: "lib/dep.jar"},
		},
	})
	require.NoError(t, err)
}

// TestExecuteMissingSourceAborts verifies a missing source file aborts the run.
func TestExecuteMissingSourceAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	staging := filepath.Join(dir, "staging")

	asm := New(staging)
	err := asm.Execute(context.Background(), &layout.Plan{
		Entries: []layout.Entry{
			{Source: filepath.Join(dir, "absent.jar"), Target: "a/absent.jar"},
		},
	})
	require.Error(t, err)
}

// TestExecuteStagesDocs verifies the documentation tree is copied under docs.
func TestExecuteStagesDocs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	docs := filepath.Join(dir, "build-docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "api", "index.html"), []byte("<html/>"), 0o600))

	staging := filepath.Join(dir, "staging")
	asm := New(staging)

	err := asm.Execute(context.Background(), &layout.Plan{DocsDir: docs})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(staging, "docs", "api", "index.html"))
	require.NoError(t, err)
}

// TestIsScript covers the script filename patterns.
func TestIsScript(t *testing.T) {
	t.Parallel()

	require.True(t, IsScript("run.sh"))
	require.True(t, IsScript("RUN.BAT"))
	require.False(t, IsScript("library.jar"))
	require.False(t, IsScript("readme.txt"))
}
