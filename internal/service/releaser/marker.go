package releaser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/mettallan/jmh-lucene/internal/logger"
)

const (
	// MarkerFilename claims the output directory while a run is in progress.
	MarkerFilename = "release-packager-marker.bin"

	// markerLifetime is the period after which a stale run marker is ignored.
	markerLifetime = 30 * time.Second

	// packagerExecutable is the process name targeted by stale-marker cleanup.
	packagerExecutable = "release-packager"
)

// IsReleaserRunningNow checks for a run marker in the output directory and
// attempts recovery when it looks stale.
func IsReleaserRunningNow(ctx context.Context, outputDir string) bool {
	logger.Debug(ctx, "Checking for the presence of a run marker")

	markerPath := filepath.Join(outputDir, MarkerFilename)

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, attempting cleanup")

		if err = terminateProcessByName(packagerExecutable); err != nil {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// createMarker claims the output directory for this run.
func createMarker(outputDir string) error {
	marker, err := os.Create(filepath.Join(outputDir, MarkerFilename))
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker releases the output directory claim.
func removeMarker(outputDir string) error {
	err := os.Remove(filepath.Join(outputDir, MarkerFilename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
