package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Subdirectories of the central NDA repository tree.
const (
	DirTemplates  = "templates"
	DirGenerated  = "generated"
	DirSigned     = "signed"
	DirSignatures = "signatures"
)

// ArtifactStore persists NDA artifacts on disk under a base directory.
// Paths inside each subdirectory are namespaced by reader pin.
type ArtifactStore struct {
	baseDir string
}

// NewArtifactStore ensures the repository tree exists and returns a handle.
func NewArtifactStore(baseDir string) (*ArtifactStore, error) {
	if baseDir == "" {
		baseDir = "./nda-repository"
	}
	for _, sub := range []string{DirTemplates, DirGenerated, DirSigned, DirSignatures} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create artifact directory %s: %w", sub, err)
		}
	}
	return &ArtifactStore{baseDir: baseDir}, nil
}

// Save writes the given bytes to the provided relative path under the base dir.
func (s *ArtifactStore) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return filename, nil
}

// Read returns the full contents of a stored artifact.
func (s *ArtifactStore) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Open returns a read-only handle for the stored file.
func (s *ArtifactStore) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return file, nil
}

// Exists reports whether the artifact is present on disk.
func (s *ArtifactStore) Exists(filename string) bool {
	_, err := os.Stat(s.resolve(filename))
	return err == nil
}

// Delete removes a stored file if present.
func (s *ArtifactStore) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// GeneratedPath returns the pin-namespaced location of an unsigned artifact.
func (s *ArtifactStore) GeneratedPath(pin, name string) string {
	return filepath.Join(DirGenerated, pin, name)
}

// SignedPath returns the pin-namespaced location of a finalized artifact.
func (s *ArtifactStore) SignedPath(pin, name string) string {
	return filepath.Join(DirSigned, pin, name)
}

// SignaturePath returns the pin-namespaced location of a raw signature image.
func (s *ArtifactStore) SignaturePath(pin, name string) string {
	return filepath.Join(DirSignatures, pin, name)
}

// TemplatePath returns the location of an NDA template file.
func (s *ArtifactStore) TemplatePath(name string) string {
	return filepath.Join(DirTemplates, name)
}

// CleanupOlderThan removes generated previews older than the provided TTL.
func (s *ArtifactStore) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	root := filepath.Join(s.baseDir, DirGenerated)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup generated artifacts: %w", err)
	}
	return deleted, nil
}

// Path exposes the underlying absolute path.
func (s *ArtifactStore) Path(filename string) string {
	return s.resolve(filename)
}

func (s *ArtifactStore) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
