package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/nodes"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/google/uuid"
)

// Orchestrator implements ports.Orchestrator.
// It is safe for concurrent use: every turn gets its own conversation and graph.
type Orchestrator struct {
	models      ports.ModelFactory
	tools       ports.ToolInvokerFactory
	summarizers ports.SummarizerFactory
	artifacts   ports.ArtifactStore

	useCases map[string]UseCase
	order    []string
	aliases  map[string]string

	maxIterations int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	newID         func() string

	pending []UseCase
	renames [][2]string
	errs    []error
}

var _ ports.Orchestrator = (*Orchestrator)(nil)

// Option defines a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithModelFactory sets how chat models are built per request.
func WithModelFactory(f ports.ModelFactory) Option {
	return func(o *Orchestrator) {
		o.models = f
	}
}

// WithToolFactory sets how tool invokers are built per request.
func WithToolFactory(f ports.ToolInvokerFactory) Option {
	return func(o *Orchestrator) {
		o.tools = f
	}
}

// WithSummarizerFactory sets how the news summarizer is built per request.
func WithSummarizerFactory(f ports.SummarizerFactory) Option {
	return func(o *Orchestrator) {
		o.summarizers = f
	}
}

// WithArtifactStore sets the durable summary store. Pass an artifact.Manager
// to serialize writes per frequency.
func WithArtifactStore(s ports.ArtifactStore) Option {
	return func(o *Orchestrator) {
		o.artifacts = s
	}
}

// WithMaxIterations bounds tool loops (default graph.DefaultMaxIterations).
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithUseCase registers an extra use case, or replaces a built-in with the same id.
func WithUseCase(uc UseCase) Option {
	return func(o *Orchestrator) {
		o.pending = append(o.pending, uc)
	}
}

// WithAlias maps a display name (e.g. from configuration) to a use case id.
func WithAlias(alias, id string) Option {
	return func(o *Orchestrator) {
		o.renames = append(o.renames, [2]string{alias, id})
	}
}

// WithIDGenerator overrides how request ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// New creates an Orchestrator with the built-in use cases registered.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		useCases:      make(map[string]UseCase),
		aliases:       make(map[string]string),
		maxIterations: graph.DefaultMaxIterations,
		newID:         uuid.NewString,
	}
	for _, uc := range []UseCase{BasicUseCase(), ToolsUseCase(), SummaryUseCase()} {
		o.register(uc)
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, uc := range o.pending {
		o.register(uc)
	}
	for _, a := range o.renames {
		o.alias(a[0], a[1])
	}
	o.pending, o.renames = nil, nil

	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if err := errors.Join(o.errs...); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) register(uc UseCase) {
	if uc.ID == "" {
		o.errs = append(o.errs, fmt.Errorf("use case without id"))
		return
	}
	if uc.Kind == KindConversation && uc.Build == nil {
		o.errs = append(o.errs, fmt.Errorf("use case %s: missing Build", uc.ID))
		return
	}
	if _, exists := o.useCases[uc.ID]; !exists {
		o.order = append(o.order, uc.ID)
	}
	o.useCases[uc.ID] = uc
	o.aliases[normalize(uc.ID)] = uc.ID
	for _, a := range uc.Aliases {
		o.aliases[normalize(a)] = uc.ID
	}
}

func (o *Orchestrator) alias(alias, id string) {
	if _, ok := o.useCases[id]; !ok {
		o.errs = append(o.errs, fmt.Errorf("alias %q points at unknown use case %q", alias, id))
		return
	}
	o.aliases[normalize(alias)] = id
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UseCases lists the registered use-case ids in registration order.
func (o *Orchestrator) UseCases() []string {
	return slices.Clone(o.order)
}

// Lookup resolves an id or display alias, case-insensitively.
func (o *Orchestrator) Lookup(name string) (UseCase, error) {
	if id, ok := o.aliases[normalize(name)]; ok {
		return o.useCases[id], nil
	}
	return UseCase{}, &domain.UnknownUseCaseError{Name: name, Known: o.UseCases()}
}

// Graph compiles the graph of a conversation use case without running it, for
// introspection. Nodes are bound to placeholder capabilities.
func (o *Orchestrator) Graph(ctx context.Context, name string) (*graph.Graph, error) {
	uc, err := o.Lookup(name)
	if err != nil {
		return nil, err
	}
	if uc.Kind != KindConversation {
		return nil, fmt.Errorf("use case %s has no conversation graph", uc.ID)
	}
	b, err := uc.Build(ctx, Env{Model: placeholderModel, Tools: placeholderTools{}})
	if err != nil {
		return nil, err
	}
	return b.Compile(graph.WithMaxIterations(o.maxIterations))
}

// Run executes a turn to completion.
//
// When a tool loop exceeds the iteration limit, Run returns BOTH a result with
// Degraded set (holding the partial conversation) and the
// *domain.IterationLimitExceededError. Every other error comes with a nil result;
// a *domain.NodeExecutionError carries the partial conversation itself.
func (o *Orchestrator) Run(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	var (
		last   domain.Update
		result *domain.TurnResult
		runErr error
	)
	uc, done := o.begin(ctx, &req)
	for update, err := range o.stream(ctx, uc, req) {
		if err != nil {
			runErr = err
			break
		}
		last = update
	}
	defer func() { done(last.Step, runErr) }()

	var limitErr *domain.IterationLimitExceededError
	switch {
	case runErr == nil:
		result = &domain.TurnResult{
			UseCase:      uc.ID,
			Conversation: last.Conversation,
			Artifact:     last.Artifact,
			Steps:        last.Step,
		}
	case errors.As(runErr, &limitErr):
		result = &domain.TurnResult{
			UseCase:      uc.ID,
			Conversation: limitErr.Partial,
			Steps:        last.Step,
			Degraded:     true,
		}
	}
	return result, runErr
}

// Stream executes a turn lazily, yielding one Update per node. Breaking out of
// the loop stops the turn; updates already yielded stay valid.
// An error is yielded at most once, as the last element.
func (o *Orchestrator) Stream(ctx context.Context, req domain.TurnRequest) iter.Seq2[domain.Update, error] {
	return func(yield func(domain.Update, error) bool) {
		uc, done := o.begin(ctx, &req)
		steps := 0
		var runErr error
		defer func() { done(steps, runErr) }()

		for update, err := range o.stream(ctx, uc, req) {
			if err != nil {
				runErr = err
				yield(domain.Update{}, err)
				return
			}
			steps = update.Step
			if !yield(update, nil) {
				return
			}
		}
	}
}

// begin assigns the request id and returns the resolved use case (zero if
// unknown) and a callback that logs the turn and fires OnTurnDone.
func (o *Orchestrator) begin(ctx context.Context, req *domain.TurnRequest) (UseCase, func(int, error)) {
	if req.Settings.RequestID == "" {
		req.Settings.RequestID = o.newID()
	}
	uc, _ := o.Lookup(req.UseCase)
	start := time.Now()
	logger := o.logger.With("request_id", req.Settings.RequestID, "use_case", req.UseCase)
	logger.Debug("turn started")

	return uc, func(steps int, err error) {
		d := time.Since(start)
		if err != nil {
			logger.Warn("turn failed", "steps", steps, "duration", d, "err", err)
		} else {
			logger.Info("turn completed", "steps", steps, "duration", d)
		}
		if o.hooks.OnTurnDone != nil {
			o.hooks.OnTurnDone(ctx, &domain.TurnEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurnDone, RequestID: req.Settings.RequestID},
				UseCase:   uc.ID,
				Steps:     steps,
				Duration:  d,
				Err:       err,
			})
		}
	}
}

func (o *Orchestrator) stream(ctx context.Context, uc UseCase, req domain.TurnRequest) iter.Seq2[domain.Update, error] {
	return func(yield func(domain.Update, error) bool) {
		if uc.ID == "" {
			yield(domain.Update{}, &domain.UnknownUseCaseError{Name: req.UseCase, Known: o.UseCases()})
			return
		}
		if uc.Kind == KindSummary {
			ref, err := o.summarize(ctx, req)
			if err != nil {
				yield(domain.Update{}, err)
				return
			}
			yield(domain.Update{UseCase: uc.ID, Step: 1, Node: nodes.DefaultSummaryName, Artifact: &ref}, nil)
			return
		}

		g, conv, err := o.prepare(ctx, uc, req)
		if err != nil {
			yield(domain.Update{}, err)
			return
		}
		for step, err := range g.Stream(ctx, conv) {
			if err != nil {
				yield(domain.Update{}, err)
				return
			}
			if !yield(domain.Update{UseCase: uc.ID, Step: step.Index, Node: step.Node, Conversation: step.Conversation}, nil) {
				return
			}
		}
	}
}

// prepare builds the per-request conversation, capabilities and graph.
func (o *Orchestrator) prepare(ctx context.Context, uc UseCase, req domain.TurnRequest) (*graph.Graph, *domain.Conversation, error) {
	conv, err := initialConversation(req)
	if err != nil {
		return nil, nil, err
	}
	if o.models == nil {
		return nil, nil, fmt.Errorf("use case %s: no model factory configured", uc.ID)
	}
	model, err := o.models.NewChatModel(ctx, req.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("chat model: %w", err)
	}

	env := Env{RequestID: req.Settings.RequestID, Model: model, Hooks: o.hooks}
	if uc.NeedsTools {
		if o.tools == nil {
			return nil, nil, fmt.Errorf("use case %s: no tool factory configured", uc.ID)
		}
		if env.Tools, err = o.tools.NewToolInvoker(ctx, req.Settings); err != nil {
			return nil, nil, fmt.Errorf("tools: %w", err)
		}
	}

	b, err := uc.Build(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	g, err := b.Compile(
		graph.WithMaxIterations(o.maxIterations),
		graph.WithLifecycleHooks(o.hooks),
		graph.WithLogger(o.logger),
		graph.WithRequestID(req.Settings.RequestID),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("use case %s: %w", uc.ID, err)
	}
	return g, conv, nil
}

func (o *Orchestrator) summarize(ctx context.Context, req domain.TurnRequest) (domain.ArtifactRef, error) {
	freq, err := domain.ParseFrequency(req.Input)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	if o.summarizers == nil || o.artifacts == nil {
		return domain.ArtifactRef{}, fmt.Errorf("use case %s: summarizer and artifact store are required", UseCaseSummary)
	}
	summarizer, err := o.summarizers.NewSummarizer(ctx, req.Settings)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("summarizer: %w", err)
	}

	node := nodes.NewSummaryNode(summarizer, o.artifacts)
	enter := time.Now()
	o.nodeHook(ctx, o.hooks.OnNodeEnter, domain.EventNodeEnter, req.Settings.RequestID, node.Name(), 0, nil)
	ref, err := node.Process(ctx, freq)
	if err != nil {
		err = &domain.NodeExecutionError{Node: node.Name(), Err: err}
	}
	o.nodeHook(ctx, o.hooks.OnNodeLeave, domain.EventNodeLeave, req.Settings.RequestID, node.Name(), time.Since(enter), err)
	return ref, err
}

func (o *Orchestrator) nodeHook(ctx context.Context, fn func(context.Context, *domain.NodeEvent), t domain.EventType, requestID, node string, d time.Duration, err error) {
	if fn == nil {
		return
	}
	fn(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, RequestID: requestID},
		UseCase:   UseCaseSummary,
		Node:      node,
		Duration:  d,
		Err:       err,
	})
}

// Artifact reads back a stored summary.
func (o *Orchestrator) Artifact(ctx context.Context, freq domain.Frequency) (*domain.Artifact, error) {
	if o.artifacts == nil {
		return nil, &domain.ArtifactNotFoundError{Key: freq.Key()}
	}
	a, err := o.artifacts.Load(ctx, freq.Key())
	if err != nil {
		return nil, err
	}
	a.Ref.Frequency = freq
	return a, nil
}

func initialConversation(req domain.TurnRequest) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	if req.Conversation != nil {
		conv = req.Conversation.Snapshot()
	}
	if req.Input != "" {
		if err := conv.Append(domain.NewUserMessage(req.Input)); err != nil {
			return nil, err
		}
	}
	if conv.Len() == 0 {
		return nil, &domain.InvalidStateError{Reason: "turn has no input"}
	}
	return conv, nil
}
