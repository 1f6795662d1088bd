// Package cli holds the command implementations behind cmd/parley.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/s3"
	"github.com/aretw0/parley/pkg/adapters/tavily"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/news"
	"github.com/aretw0/parley/pkg/orchestrator"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
)

// builtinOrder pairs configured display names with use case ids by position.
var builtinOrder = []string{orchestrator.UseCaseBasic, orchestrator.UseCaseTools, orchestrator.UseCaseSummary}

// Storage is the artifact store chosen by configuration.
type Storage struct {
	Store  ports.ArtifactStore
	Locker ports.DistributedLocker
	io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStorage builds the store named by cfg.Driver. When an encryption key is
// configured, digest content is sealed before it reaches the backend.
func OpenStorage(cfg config.StoreConfig) (*Storage, error) {
	s, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return s, nil
	}
	mw, err := encryption(cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Store = middleware.Chain(s.Store, mw)
	return s, nil
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvStoreKey, err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.PreviousKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.EnvStoreKeyPrevious, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

func openBackend(cfg config.StoreConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &Storage{Store: memory.NewStore(), Closer: nopCloser{}}, nil
	case config.DriverFile, "":
		return &Storage{Store: file.New(cfg.File.Dir), Closer: nopCloser{}}, nil
	case config.DriverRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return &Storage{Store: store, Locker: redis.NewLocker(store.Client(), prefix), Closer: store}, nil
	case config.DriverS3:
		store, err := s3.NewFromConfig(s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return &Storage{Store: store, Closer: nopCloser{}}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// NewEngine wires a parley.Engine from configuration. The returned Storage
// must be closed by the caller.
func NewEngine(cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks, extra ...parley.Option) (*parley.Engine, *Storage, error) {
	storage, err := OpenStorage(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening store: %w", err)
	}

	opts := []parley.Option{
		parley.WithProviders(cfg.Providers...),
		parley.WithSystemPrompt(cfg.SystemPrompt),
		parley.WithStore(storage.Store),
		parley.WithMaxIterations(cfg.MaxIterations),
		parley.WithLifecycleHooks(hooks),
		parley.WithLogger(logger),
		parley.WithNewsOptions(news.WithMaxResults(cfg.News.MaxResults)),
	}
	if storage.Locker != nil {
		opts = append(opts, parley.WithLocker(storage.Locker, cfg.Store.LockTTL))
	}
	if cfg.News.SearchURL != "" {
		opts = append(opts, parley.WithSearchOptions(tavily.WithBaseURL(strings.TrimRight(cfg.News.SearchURL, "/"))))
	}
	if len(cfg.Tools) > 0 {
		procs, err := process.NewRunner(cfg.Tools)
		if err != nil {
			_ = storage.Close()
			return nil, nil, err
		}
		opts = append(opts, parley.WithTools(procs.RegisterAll))
	}
	for i, name := range cfg.UseCases {
		if i < len(builtinOrder) {
			opts = append(opts, parley.WithAlias(name, builtinOrder[i]))
		}
	}
	opts = append(opts, extra...)

	eng, err := parley.New(opts...)
	if err != nil {
		_ = storage.Close()
		return nil, nil, fmt.Errorf("error initializing parley: %w", err)
	}
	return eng, storage, nil
}
