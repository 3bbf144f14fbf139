package archiver

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// ChecksumExtension is appended to an archive name to form its sidecar file.
	ChecksumExtension = ".sha512"

	// checksumFileMode is the permission of the sidecar checksum file.
	checksumFileMode os.FileMode = 0o644
)

// DefaultChecksumFunction is used to digest produced archives.
const DefaultChecksumFunction crypto.Hash = crypto.SHA512

var errHashUnavailable = errors.New("hash function unavailable")

// FileChecksum streams the file through DefaultChecksumFunction and returns
// the digest as a lowercase hexadecimal string.
func FileChecksum(path string) (string, error) {
	if !DefaultChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	// Best-effort cleanup.
	defer func() {
		_ = in.Close()
	}()

	hasher := DefaultChecksumFunction.New()
	if _, err = io.Copy(hasher, in); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteChecksumFile digests the archive and writes the sidecar file next to it.
// The line format is "<hex> *<filename>"; the asterisk marks binary mode so
// standard verification tooling (sha512sum -c) accepts the file as-is.
// It returns the digest and the sidecar path.
func WriteChecksumFile(archivePath string) (digest, sidecarPath string, err error) {
	digest, err = FileChecksum(archivePath)
	if err != nil {
		return "", "", err
	}

	sidecarPath = archivePath + ChecksumExtension
	line := fmt.Sprintf("%s *%s\n", digest, filepath.Base(archivePath))

	if err = os.WriteFile(sidecarPath, []byte(line), checksumFileMode); err != nil {
		return "", "", fmt.Errorf("write checksum file: %w", err)
	}

	return digest, sidecarPath, nil
}
