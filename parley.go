package parley

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/tavily"
	"github.com/aretw0/parley/pkg/artifact"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/news"
	"github.com/aretw0/parley/pkg/orchestrator"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/provider"
	"github.com/aretw0/parley/pkg/registry"
)

// SearchKeyEnv is the credential name of the web search API key.
const SearchKeyEnv = "TAVILY_API_KEY"

// Engine is the high-level entry point: an orchestrator wired to the provider
// factory, the web search tool, the news summarizer and an artifact store.
type Engine struct {
	*orchestrator.Orchestrator

	providers *provider.Factory
	artifacts *artifact.Manager
	logger    *slog.Logger
}

type options struct {
	specs         []provider.Spec
	systemPrompt  string
	store         ports.ArtifactStore
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	searchOpts    []tavily.Option
	newsOpts      []news.Option
	registrars    []func(*registry.Registry)
	wrapTools     func(ports.ToolInvokerFactory) ports.ToolInvokerFactory
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxIterations int
	aliases       [][2]string
}

// Option defines a functional option for configuring the Engine.
type Option func(*options)

// WithProviders replaces provider.DefaultSpecs. The first one is the default.
func WithProviders(specs ...provider.Spec) Option {
	return func(o *options) {
		o.specs = specs
	}
}

// WithSystemPrompt sets the system prompt of every chat model.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		o.systemPrompt = prompt
	}
}

// WithStore sets where summaries are persisted (default: in memory).
func WithStore(store ports.ArtifactStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLocker serializes summary writes across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

// WithSearchOptions configures the web search client (endpoint, HTTP client).
func WithSearchOptions(opts ...tavily.Option) Option {
	return func(o *options) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithNewsOptions configures the news summarizer.
func WithNewsOptions(opts ...news.Option) Option {
	return func(o *options) {
		o.newsOpts = append(o.newsOpts, opts...)
	}
}

// WithTools adds tools to every tool-using turn, next to web_search.
func WithTools(register func(*registry.Registry)) Option {
	return func(o *options) {
		o.registrars = append(o.registrars, register)
	}
}

// WithToolMiddleware wraps the per-request tool factory, for example with
// runner.InterceptTools to confirm calls.
func WithToolMiddleware(wrap func(ports.ToolInvokerFactory) ports.ToolInvokerFactory) Option {
	return func(o *options) {
		o.wrapTools = wrap
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxIterations bounds tool loops.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithAlias maps a display name to a use case id.
func WithAlias(alias, id string) Option {
	return func(o *options) {
		o.aliases = append(o.aliases, [2]string{alias, id})
	}
}

// New wires an Engine.
func New(opts ...Option) (*Engine, error) {
	o := &options{specs: provider.DefaultSpecs()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}

	e := &Engine{
		providers: provider.NewFactory(o.specs, provider.WithSystemPrompt(o.systemPrompt)),
		logger:    o.logger,
	}

	managerOpts := []artifact.Option{artifact.WithLogger(o.logger)}
	if o.locker != nil {
		managerOpts = append(managerOpts, artifact.WithLocker(o.locker), artifact.WithLockTTL(o.lockTTL))
	}
	e.artifacts = artifact.NewManager(o.store, managerOpts...)

	var tools ports.ToolInvokerFactory = e.toolFactory(o)
	if o.wrapTools != nil {
		tools = o.wrapTools(tools)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithModelFactory(e.providers),
		orchestrator.WithToolFactory(tools),
		orchestrator.WithSummarizerFactory(e.summarizerFactory(o)),
		orchestrator.WithArtifactStore(e.artifacts),
		orchestrator.WithMaxIterations(o.maxIterations),
		orchestrator.WithLifecycleHooks(o.hooks),
		orchestrator.WithLogger(o.logger),
	}
	for _, a := range o.aliases {
		orchOpts = append(orchOpts, orchestrator.WithAlias(a[0], a[1]))
	}

	orch, err := orchestrator.New(orchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}
	e.Orchestrator = orch
	return e, nil
}

// toolFactory builds a registry per request: web_search when the request
// carries a search key, plus every configured tool.
func (e *Engine) toolFactory(o *options) ports.ToolInvokerFactory {
	return ports.ToolInvokerFactoryFunc(func(ctx context.Context, req domain.RequestContext) (ports.ToolInvoker, error) {
		reg := registry.NewRegistry()
		if key := req.Credential(SearchKeyEnv); key != "" {
			tavily.RegisterWebSearch(reg, tavily.New(key, o.searchOpts...))
		}
		for _, register := range o.registrars {
			register(reg)
		}
		if reg.Len() == 0 {
			return nil, fmt.Errorf("%w: web search requires %s", provider.ErrMissingCredential, SearchKeyEnv)
		}
		return reg, nil
	})
}

func (e *Engine) summarizerFactory(o *options) ports.SummarizerFactory {
	return ports.SummarizerFactoryFunc(func(ctx context.Context, req domain.RequestContext) (ports.Summarizer, error) {
		key := req.Credential(SearchKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%w: news search requires %s", provider.ErrMissingCredential, SearchKeyEnv)
		}
		model, err := e.providers.NewChatModel(ctx, req)
		if err != nil {
			return nil, err
		}
		return news.New(tavily.New(key, o.searchOpts...), model, o.newsOpts...), nil
	})
}

// Providers lists the selectable providers in order.
func (e *Engine) Providers() []provider.Spec {
	return e.providers.Specs()
}

// Artifacts returns the store the summary use case writes to.
func (e *Engine) Artifacts() ports.ArtifactStore {
	return e.artifacts
}
