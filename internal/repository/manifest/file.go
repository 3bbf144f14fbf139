package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mettallan/jmh-lucene/internal/config"
)

// Manifest records what one release run produced.
type Manifest struct {
	// RunID uniquely identifies the release run that wrote this manifest.
	RunID string `yaml:"run_id"`
	// Distribution is the base name of the release.
	Distribution string `yaml:"distribution"`
	// Version is the release version.
	Version string `yaml:"version"`
	// CreatedAt is when the manifest was written.
	CreatedAt time.Time `yaml:"created_at"`
	// Builder identifies who produced the release.
	Builder Builder `yaml:"builder"`
	// Archives lists every produced archive with its verification data.
	Archives []Archive `yaml:"archives"`
}

// Builder identifies the host and user that produced the release.
type Builder struct {
	// Hostname is the machine name where the release was assembled.
	Hostname string `yaml:"hostname"`
	// Username is the system user who ran the packager.
	Username string `yaml:"username"`
}

// Archive is one produced archive file.
type Archive struct {
	// Name is the archive file name.
	Name string `yaml:"name"`
	// Kind distinguishes binary formats from the source snapshot (tar.gz, zip, source).
	Kind string `yaml:"kind"`
	// Checksum is the lowercase hex SHA-512 digest of the archive bytes.
	Checksum string `yaml:"sha512,omitempty"`
	// Signature is the detached signature file name, when signing ran.
	Signature string `yaml:"signature,omitempty"`
}

// Repository defines persistence operations for the release manifest.
type Repository interface {
	Load(ctx context.Context) (*Manifest, error)
	Save(ctx context.Context, m *Manifest) error
}

// FileRepository persists the release manifest to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest file.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("manifest not found")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to disk.
func (r *FileRepository) Save(_ context.Context, m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
