package archiver

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildStagingTree creates a small distribution tree and returns its root.
func buildStagingTree(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "staging")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "core", "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))

	files := map[string]string{
		"LICENSE.txt":      "license",
		"core/core.jar":    "core-artifact",
		"core/lib/dep.jar": "dep",
		"bin/run.sh":       "#!/bin/sh\n",
		"bin/run.bat":      "@echo off\r\n",
	}
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte(contents), 0o600))
	}

	return root
}

// readTarEntries returns name->header for every entry of a tar.gz archive.
func readTarEntries(t *testing.T, path string) map[string]*tar.Header {
	t.Helper()

	in, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		_ = in.Close()
	}()

	gz, err := gzip.NewReader(in)
	require.NoError(t, err)

	entries := make(map[string]*tar.Header)
	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
		entries[header.Name] = header
	}

	return entries
}

// TestWriteTarGzDeterministic verifies the same tree yields byte-identical archives.
func TestWriteTarGzDeterministic(t *testing.T) {
	t.Parallel()

	root := buildStagingTree(t)
	dir := t.TempDir()

	first := filepath.Join(dir, "first.tar.gz")
	second := filepath.Join(dir, "second.tar.gz")

	ctx := context.Background()
	require.NoError(t, WriteTarGz(ctx, root, "demo-1.0.0", first))
	require.NoError(t, WriteTarGz(ctx, root, "demo-1.0.0", second))

	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)

	secondBytes, err := os.ReadFile(second)
	require.NoError(t, err)

	require.Equal(t, firstBytes, secondBytes)
}

// TestWriteTarGzPrefixAndScripts verifies the top-level prefix and script modes.
func TestWriteTarGzPrefixAndScripts(t *testing.T) {
	t.Parallel()

	root := buildStagingTree(t)
	out := filepath.Join(t.TempDir(), "demo.tar.gz")

	require.NoError(t, WriteTarGz(context.Background(), root, "demo-1.0.0", out))

	entries := readTarEntries(t, out)
	require.Contains(t, entries, "demo-1.0.0/LICENSE.txt")
	require.Contains(t, entries, "demo-1.0.0/core/core.jar")
	require.Contains(t, entries, "demo-1.0.0/core/lib/dep.jar")

	// Scripts carry the executable bit no matter what the host filesystem says.
	require.Equal(t, int64(0o755), entries["demo-1.0.0/bin/run.sh"].Mode)
	require.Equal(t, int64(0o755), entries["demo-1.0.0/bin/run.bat"].Mode)
	require.Equal(t, int64(0o644), entries["demo-1.0.0/core/core.jar"].Mode)
}

// TestWriteZip verifies zip entries, prefix and script permission bits.
func TestWriteZip(t *testing.T) {
	t.Parallel()

	root := buildStagingTree(t)
	out := filepath.Join(t.TempDir(), "demo.zip")

	require.NoError(t, WriteZip(context.Background(), root, "demo-1.0.0", out))

	reader, err := zip.OpenReader(out)
	require.NoError(t, err)

	defer func() {
		_ = reader.Close()
	}()

	modes := make(map[string]fs.FileMode, len(reader.File))
	for _, file := range reader.File {
		modes[file.Name] = file.Mode()
	}

	require.Contains(t, modes, "demo-1.0.0/LICENSE.txt")
	require.Contains(t, modes, "demo-1.0.0/core/lib/dep.jar")
	require.Equal(t, fs.FileMode(0o755), modes["demo-1.0.0/bin/run.sh"].Perm())
	require.Equal(t, fs.FileMode(0o644), modes["demo-1.0.0/core/core.jar"].Perm())
}
