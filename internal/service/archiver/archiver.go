package archiver

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/mettallan/jmh-lucene/internal/logger"
	"github.com/mettallan/jmh-lucene/internal/service/assembler"
)

const (
	// scriptEntryMode marks scripts executable inside archive headers so the
	// permission survives extraction on any platform.
	scriptEntryMode fs.FileMode = 0o755

	// regularEntryMode is the mode recorded for every other archive entry.
	regularEntryMode fs.FileMode = 0o644

	// archiveFileMode is the permission of the produced archive file itself.
	archiveFileMode os.FileMode = 0o644
)

// entryTimestamp is the fixed modification time recorded for every archive
// entry. Same input tree must yield byte-identical archives across runs.
var entryTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// entry is one file of the staging tree, addressed by its slash-separated
// path relative to the tree root.
type entry struct {
	relative string
	absolute string
	size     int64
}

// WriteTarGz packages the staging tree into a tar+gzip archive at outputPath,
// placing every entry under the given top-level prefix folder.
func WriteTarGz(ctx context.Context, stagingRoot, prefix, outputPath string) error {
	entries, err := collectEntries(stagingRoot)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(outputPath), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, archiveFileMode)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     path.Join(prefix, e.relative),
			Size:     e.size,
			Mode:     int64(entryMode(e.relative)),
			ModTime:  entryTimestamp,
			Format:   tar.FormatUSTAR,
		}

		if err = tw.WriteHeader(header); err != nil {
			_ = out.Close()
			return fmt.Errorf("write tar header %s: %w", e.relative, err)
		}

		if err = copyEntry(tw, e.absolute); err != nil {
			_ = out.Close()
			return fmt.Errorf("write tar entry %s: %w", e.relative, err)
		}
	}

	if err = tw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize tar: %w", err)
	}

	if err = gz.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize gzip: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	logger.InfoKV(ctx, "Produced tar+gzip archive", "path", outputPath, "entries", len(entries))

	return nil
}

// WriteZip packages the staging tree into a zip archive at outputPath,
// placing every entry under the given top-level prefix folder.
func WriteZip(ctx context.Context, stagingRoot, prefix, outputPath string) error {
	entries, err := collectEntries(stagingRoot)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(outputPath), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, archiveFileMode)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)

	for _, e := range entries {
		header := &zip.FileHeader{
			Name:     path.Join(prefix, e.relative),
			Method:   zip.Deflate,
			Modified: entryTimestamp,
		}
		header.SetMode(entryMode(e.relative))

		var writer io.Writer

		writer, err = zw.CreateHeader(header)
		if err != nil {
			_ = out.Close()
			return fmt.Errorf("write zip header %s: %w", e.relative, err)
		}

		if err = copyEntry(writer, e.absolute); err != nil {
			_ = out.Close()
			return fmt.Errorf("write zip entry %s: %w", e.relative, err)
		}
	}

	if err = zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize zip: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	logger.InfoKV(ctx, "Produced zip archive", "path", outputPath, "entries", len(entries))

	return nil
}

// collectEntries walks the staging tree and returns its files sorted by
// relative path, so archive ordering never depends on directory read order.
func collectEntries(root string) ([]entry, error) {
	var entries []entry

	err := filepath.WalkDir(root, func(current string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk staging tree: %w", err)
		}

		if dirEntry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(root, current)
		if err != nil {
			return fmt.Errorf("walk staging tree: %w", err)
		}

		info, err := dirEntry.Info()
		if err != nil {
			return fmt.Errorf("walk staging tree: %w", err)
		}

		entries = append(entries, entry{
			relative: filepath.ToSlash(relative),
			absolute: current,
			size:     info.Size(),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].relative < entries[j].relative
	})

	return entries, nil
}

// entryMode returns the mode recorded in archive headers for a file,
// independent of the permissions the host filesystem happens to report.
func entryMode(relative string) fs.FileMode {
	if assembler.IsScript(relative) {
		return scriptEntryMode
	}

	return regularEntryMode
}

// copyEntry streams one staged file into the archive writer.
func copyEntry(writer io.Writer, source string) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return err
	}

	// Best-effort cleanup.
	defer func() {
		_ = in.Close()
	}()

	_, err = io.Copy(writer, in)

	return err
}
