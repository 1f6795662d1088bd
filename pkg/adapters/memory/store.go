package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.ArtifactStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Artifact
	mu   sync.RWMutex
	now  func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]domain.Artifact),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores content under key, replacing any previous artifact.
func (s *Store) Save(ctx context.Context, key string, content string) (domain.ArtifactRef, error) {
	ref := domain.ArtifactRef{
		Key:       key,
		Location:  "memory://" + key,
		UpdatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = domain.Artifact{Ref: ref, Content: content}
	return ref, nil
}

// Load retrieves the artifact from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[key]
	if !ok {
		return nil, &domain.ArtifactNotFoundError{Key: key}
	}
	return &a, nil
}

// Delete removes the artifact.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
