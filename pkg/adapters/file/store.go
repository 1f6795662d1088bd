package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Suffix is appended to the key to form the file name ("daily_summary.md").
const Suffix = "_summary.md"

// Store implements ports.ArtifactStore using the local filesystem.
// Each artifact is one markdown file in BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "./AINews".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "AINews"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("artifact key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.BasePath, key+Suffix), nil
}

// Save writes the markdown atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, key string, content string) (domain.ArtifactRef, error) {
	destPath, err := s.path(key)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to ensure artifact directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+key+"-*.md")
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.WriteString(content); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to rename temp file: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return domain.ArtifactRef{Key: key, Location: destPath, UpdatedAt: info.ModTime().UTC()}, nil
}

// Load reads the markdown file for key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Artifact, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ArtifactNotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}

	return &domain.Artifact{
		Ref:     domain.ArtifactRef{Key: key, Location: filePath, UpdatedAt: info.ModTime().UTC()},
		Content: string(data),
	}, nil
}

// Delete removes the artifact file.
func (s *Store) Delete(ctx context.Context, key string) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact file: %w", err)
	}
	return nil
}

// List returns the keys of all stored artifacts.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") || !strings.HasSuffix(name, Suffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, Suffix))
	}
	sort.Strings(keys)
	return keys, nil
}
