package releaser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mettallan/jmh-lucene/internal/config"
	"github.com/mettallan/jmh-lucene/internal/domain/layout"
	"github.com/mettallan/jmh-lucene/internal/logger"
	"github.com/mettallan/jmh-lucene/internal/repository/manifest"
	"github.com/mettallan/jmh-lucene/internal/service/archiver"
	"github.com/mettallan/jmh-lucene/internal/service/assembler"
	"github.com/mettallan/jmh-lucene/internal/service/collector"
	"github.com/mettallan/jmh-lucene/internal/service/signer"
	"github.com/mettallan/jmh-lucene/internal/service/source"
)

const (
	// sourceArchiveSuffix distinguishes the source snapshot from binary archives.
	sourceArchiveSuffix = "-src.tar.gz"

	// sourceKind marks the source snapshot in the manifest.
	sourceKind = "source"

	// outputDirMode is used when creating the output directory.
	outputDirMode os.FileMode = 0o755
)

// errReleaserRunning indicates another packager run owns the output directory.
var errReleaserRunning = errors.New("another release run is in progress")

// Options contains inputs for the releaser entry point.
type Options struct {
	// ConfigPath is an optional path to the release settings YAML.
	ConfigPath string
	// OutputDir optionally overrides the configured output directory.
	OutputDir string
	// SkipSigning disables signing even when the settings enable it.
	SkipSigning bool
}

// releaser holds the state of a single release assembly run.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type releaser struct {
	// cfg holds the validated release settings.
	cfg *config.Config
	// runID uniquely identifies this run in logs and the manifest.
	runID string
	// prefix is the top-level folder name, "<distribution>-<version>".
	prefix string
	// archives accumulates every produced archive for the manifest.
	archives []manifest.Archive
}

// Run executes the whole release assembly workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "release-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if opts.SkipSigning {
		cfg.Signing.Enabled = false
	}

	r, err := newReleaser(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize releaser: %w", err)
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		return fmt.Errorf("release run failed: %w", err)
	}

	logger.InfoKV(ctx, "Release assembled successfully", "run_id", r.runID)

	return nil
}

// newReleaser validates every precondition before any staging or archival
// work begins, then claims the output directory with a marker file.
// The signing check deliberately runs here: a missing credential must fail
// the run before build time is spent on unrelated steps.
func newReleaser(ctx context.Context, cfg *config.Config) (*releaser, error) {
	if cfg.Signing.Enabled {
		if err := signer.Validate(signingOptions(cfg)); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, outputDirMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if IsReleaserRunningNow(ctx, cfg.OutputDir) {
		return nil, errReleaserRunning
	}

	if err := createMarker(cfg.OutputDir); err != nil {
		return nil, err
	}

	return &releaser{
		cfg:    cfg,
		runID:  uuid.NewString(),
		prefix: cfg.Distribution + "-" + cfg.Version,
	}, nil
}

// Run drives the pipeline: collect, plan, stage, archive, snapshot, checksum,
// sign, manifest. Everything happens on one control thread; the first fatal
// error aborts the run.
func (r *releaser) Run(ctx context.Context) error {
	ctx = logger.WithKV(ctx, "run_id", r.runID)

	logger.InfoKV(ctx, "Assembling release",
		"distribution", r.cfg.Distribution,
		"version", r.cfg.Version,
		"output_dir", r.cfg.OutputDir)

	components, err := collector.Collect(ctx, r.cfg)
	if err != nil {
		return err
	}

	plan, err := layout.BuildPlan(layout.Input{
		RootPrefix: r.cfg.RootPrefix,
		RootFiles:  r.cfg.RootFiles,
		ExtraFiles: extraFilesByComponent(r.cfg),
		DocsDir:    r.cfg.DocsDir,
		Components: components,
	})
	if err != nil {
		return err
	}

	stagingRoot := filepath.Join(r.cfg.OutputDir, r.prefix)

	// Outputs must be safely overwritable; discard any stale staging tree.
	if err = os.RemoveAll(stagingRoot); err != nil {
		return fmt.Errorf("clean staging root: %w", err)
	}

	if err = assembler.New(stagingRoot).Execute(ctx, plan); err != nil {
		return err
	}

	if err = r.produceArchives(ctx, stagingRoot); err != nil {
		return err
	}

	if err = r.produceSourceSnapshot(ctx); err != nil {
		return err
	}

	if err = r.writeChecksums(); err != nil {
		return err
	}

	if r.cfg.Signing.Enabled {
		if err = r.signArchives(ctx); err != nil {
			return err
		}
	}

	return r.saveManifest(ctx)
}

// produceArchives packages the staging tree once per configured format.
func (r *releaser) produceArchives(ctx context.Context, stagingRoot string) error {
	for _, format := range r.cfg.Formats {
		outputPath := filepath.Join(r.cfg.OutputDir, r.prefix+"."+format)

		var err error

		switch format {
		case config.FormatTarGz:
			err = archiver.WriteTarGz(ctx, stagingRoot, r.prefix, outputPath)
		case config.FormatZip:
			err = archiver.WriteZip(ctx, stagingRoot, r.prefix, outputPath)
		}

		if err != nil {
			return err
		}

		r.archives = append(r.archives, manifest.Archive{
			Name: filepath.Base(outputPath),
			Kind: format,
		})
	}

	return nil
}

// produceSourceSnapshot exports the checked-in tree state when enabled.
func (r *releaser) produceSourceSnapshot(ctx context.Context) error {
	if !r.cfg.Source.Enabled {
		return nil
	}

	outputPath := filepath.Join(r.cfg.OutputDir, r.prefix+sourceArchiveSuffix)

	err := source.Export(ctx, &source.Options{
		Reference:  r.cfg.Source.Reference,
		Prefix:     r.prefix,
		OutputPath: outputPath,
	})
	if err != nil {
		return err
	}

	r.archives = append(r.archives, manifest.Archive{
		Name: filepath.Base(outputPath),
		Kind: sourceKind,
	})

	return nil
}

// writeChecksums produces a SHA-512 sidecar for every archive and records the digest.
func (r *releaser) writeChecksums() error {
	for i := range r.archives {
		digest, _, err := archiver.WriteChecksumFile(filepath.Join(r.cfg.OutputDir, r.archives[i].Name))
		if err != nil {
			return err
		}

		r.archives[i].Checksum = digest
	}

	return nil
}

// signArchives produces a detached signature per archive and records its name.
func (r *releaser) signArchives(ctx context.Context) error {
	opts := signingOptions(r.cfg)

	for i := range r.archives {
		signaturePath, err := signer.Sign(ctx, opts, filepath.Join(r.cfg.OutputDir, r.archives[i].Name))
		if err != nil {
			return err
		}

		r.archives[i].Signature = filepath.Base(signaturePath)
	}

	return nil
}

// saveManifest records the run's outputs next to the archives.
func (r *releaser) saveManifest(ctx context.Context) error {
	path := filepath.Join(r.cfg.OutputDir, r.prefix+"-manifest.yaml")
	repo := manifest.NewFileRepository(path)

	err := repo.Save(ctx, &manifest.Manifest{
		RunID:        r.runID,
		Distribution: r.cfg.Distribution,
		Version:      r.cfg.Version,
		CreatedAt:    time.Now().UTC(),
		Builder:      detectBuilder(),
		Archives:     r.archives,
	})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saved release manifest", "path", path)

	return nil
}

// cleanup releases the output directory marker.
func (r *releaser) cleanup(ctx context.Context) {
	if err := removeMarker(r.cfg.OutputDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove run marker", "error", err)
	}
}

// signingOptions maps the settings onto signer options.
func signingOptions(cfg *config.Config) *signer.Options {
	return &signer.Options{
		Key:     cfg.Signing.Key,
		Command: cfg.Signing.Command,
	}
}

// extraFilesByComponent converts the settings list into the planner's map form.
func extraFilesByComponent(cfg *config.Config) map[string]string {
	if len(cfg.ExtraFiles) == 0 {
		return nil
	}

	result := make(map[string]string, len(cfg.ExtraFiles))
	for _, extra := range cfg.ExtraFiles {
		result[extra.Component] = extra.File
	}

	return result
}

// detectBuilder identifies the host and user producing the release.
// Failures degrade to empty fields; the manifest stays useful without them.
func detectBuilder() manifest.Builder {
	var builder manifest.Builder

	if hostname, err := os.Hostname(); err == nil {
		builder.Hostname = hostname
	}

	if current, err := user.Current(); err == nil {
		builder.Username = current.Username
	}

	return builder
}
