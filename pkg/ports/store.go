package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// ArtifactStore persists summary artifacts keyed by frequency tag.
// Save overwrites any previous artifact under the same key.
type ArtifactStore interface {
	// Save persists content under key and returns a reference to it.
	Save(ctx context.Context, key string, content string) (domain.ArtifactRef, error)

	// Load retrieves the artifact stored under key.
	// Returns an error matching domain.ErrArtifactNotFound if nothing is stored.
	Load(ctx context.Context, key string) (*domain.Artifact, error)

	// Delete removes the artifact under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys that currently hold an artifact.
	List(ctx context.Context) ([]string, error)
}
