package signer

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

const (
	// SignatureExtension is appended to a file name to form its detached signature.
	SignatureExtension = ".asc"

	// defaultCommand is the signing tool invoked unless overridden.
	defaultCommand = "gpg"
)

// ErrKeyRequired indicates that signing was requested without a configured key.
// The releaser checks this precondition before any staging or archival work,
// so a missing credential fails the run immediately instead of after a long build.
var ErrKeyRequired = errors.New("signing requested but no signing key is configured")

// Options configure the external signing tool.
type Options struct {
	// Key is the signing key identity passed to the tool via --local-user.
	Key string
	// Command overrides the signing binary; defaults to gpg.
	Command string
}

// Validate checks the signing precondition.
func Validate(opts *Options) error {
	if opts == nil || strings.TrimSpace(opts.Key) == "" {
		return ErrKeyRequired
	}

	return nil
}

// Sign produces a detached armored signature for the file and returns the
// signature path. On failure the incomplete signature file is removed so a
// re-run starts clean.
func Sign(ctx context.Context, opts *Options, path string) (string, error) {
	if err := Validate(opts); err != nil {
		return "", err
	}

	command := opts.Command
	if command == "" {
		command = defaultCommand
	}

	signaturePath := path + SignatureExtension

	//nolint:gosec // Arguments come from validated release settings, not user input.
	cmd := exec.CommandContext(ctx, command,
		"--batch",
		"--yes",
		"--armor",
		"--detach-sign",
		"--local-user", opts.Key,
		"--output", signaturePath,
		path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Never leave an incomplete signature behind.
		_ = os.Remove(signaturePath)

		message := strings.TrimSpace(stderr.String())
		if message != "" {
			return "", fmt.Errorf("sign %s: %s: %w", path, message, err)
		}

		return "", fmt.Errorf("sign %s: %w", path, err)
	}

	logger.InfoKV(ctx, "Produced detached signature", "file", path, "signature", signaturePath)

	return signaturePath, nil
}

// SignAll signs every file in order and returns the signature paths.
// The first failure aborts.
func SignAll(ctx context.Context, opts *Options, paths []string) ([]string, error) {
	signatures := make([]string, 0, len(paths))

	for _, path := range paths {
		signature, err := Sign(ctx, opts, path)
		if err != nil {
			return nil, err
		}

		signatures = append(signatures, signature)
	}

	return signatures, nil
}
