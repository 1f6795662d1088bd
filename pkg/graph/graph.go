package graph

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultMaxIterations bounds conditional loops when no limit is configured.
const DefaultMaxIterations = 10

// Option configures a compiled Graph.
type Option func(*Graph)

// WithMaxIterations sets how many conditional hops (not counting hops to End) a
// single run may take. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxIterations = n
		}
	}
}

// WithLifecycleHooks registers node enter/leave callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Graph) {
		g.hooks = hooks
	}
}

// WithLogger sets a structured logger for execution traces.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithRequestID tags hook events with the id of the request being served.
func WithRequestID(id string) Option {
	return func(g *Graph) {
		g.requestID = id
	}
}

// Graph is a compiled, immutable processing graph.
// It holds no per-run state, but nodes usually close over per-request clients,
// so graphs are built per request.
type Graph struct {
	name          string
	entry         string
	nodes         map[string]Node
	order         []string
	edges         map[string]string
	conds         map[string]conditional
	maxIterations int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	requestID     string
}

// Step is the state of a run right after one node finished.
type Step struct {
	Index        int
	Node         string
	Produced     []domain.Message
	Conversation *domain.Conversation
}

// Edge describes a connection for introspection.
type Edge struct {
	From        string
	To          string
	Conditional bool
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// MaxIterations returns the configured loop bound.
func (g *Graph) MaxIterations() int { return g.maxIterations }

// Nodes returns the node names in registration order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// Edges returns every edge, including the Start edge.
func (g *Graph) Edges() []Edge {
	edges := []Edge{{From: Start, To: g.entry}}
	for _, id := range g.order {
		if to, ok := g.edges[id]; ok {
			edges = append(edges, Edge{From: id, To: to})
		}
		if c, ok := g.conds[id]; ok {
			for _, to := range c.targets {
				edges = append(edges, Edge{From: id, To: to, Conditional: true})
			}
		}
	}
	return edges
}

// Stream executes the graph over a private copy of conv and yields one Step per
// node. Breaking out of the loop stops execution before the next node runs.
//
// Errors are yielded once, as the final element:
//   - *domain.NodeExecutionError when a node fails,
//   - *domain.InvalidStateError when a node produces an out-of-order message,
//   - *domain.IterationLimitExceededError when a loop runs past the limit,
//   - the context error when ctx is done between nodes.
func (g *Graph) Stream(ctx context.Context, conv *domain.Conversation) iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		work := &domain.Conversation{}
		if conv != nil {
			work = conv.Snapshot()
		}

		logger := g.log()
		current := g.entry
		iterations := 0

		for index := 1; ; index++ {
			if err := ctx.Err(); err != nil {
				yield(Step{}, err)
				return
			}

			produced, err := g.execute(ctx, current, work)
			if err != nil {
				logger.Debug("node failed", "graph", g.name, "node", current, "err", err)
				yield(Step{}, err)
				return
			}

			step := Step{
				Index:        index,
				Node:         current,
				Produced:     produced,
				Conversation: work.Snapshot(),
			}
			if !yield(step, nil) {
				logger.Debug("run stopped by consumer", "graph", g.name, "node", current)
				return
			}

			next, conditional, err := g.next(current, work)
			if err != nil {
				yield(Step{}, err)
				return
			}
			if next == End {
				return
			}
			if conditional {
				iterations++
				if iterations > g.maxIterations {
					yield(Step{}, &domain.IterationLimitExceededError{
						Limit:   g.maxIterations,
						Node:    next,
						Partial: work.Snapshot(),
					})
					return
				}
			}
			current = next
		}
	}
}

// Run executes the graph to completion and returns the final conversation and
// the number of node executions. On error, the returned conversation is the
// partial state up to the failure.
func (g *Graph) Run(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, int, error) {
	last := conv
	if last != nil {
		last = last.Snapshot()
	}
	steps := 0
	for step, err := range g.Stream(ctx, conv) {
		if err != nil {
			return partialOf(err, last), steps, err
		}
		steps = step.Index
		last = step.Conversation
	}
	return last, steps, nil
}

func (g *Graph) execute(ctx context.Context, id string, work *domain.Conversation) ([]domain.Message, error) {
	node := g.nodes[id]
	start := time.Now()
	if g.hooks.OnNodeEnter != nil {
		g.hooks.OnNodeEnter(ctx, g.nodeEvent(domain.EventNodeEnter, id, 0, nil))
	}

	produced, err := node.Process(ctx, work.Snapshot())
	if err != nil {
		err = &domain.NodeExecutionError{Node: id, Partial: work.Snapshot(), Err: err}
	} else {
		for _, msg := range produced {
			if err = work.Append(msg); err != nil {
				break
			}
		}
	}

	if g.hooks.OnNodeLeave != nil {
		g.hooks.OnNodeLeave(ctx, g.nodeEvent(domain.EventNodeLeave, id, time.Since(start), err))
	}
	return produced, err
}

func (g *Graph) next(current string, work *domain.Conversation) (string, bool, error) {
	if to, ok := g.edges[current]; ok {
		return to, false, nil
	}

	c := g.conds[current]
	last, _ := work.Last()
	to := c.router(last)
	if !slices.Contains(c.targets, to) {
		return "", true, fmt.Errorf("graph %s: router of %q chose undeclared target %q", g.name, current, to)
	}
	return to, true, nil
}

func (g *Graph) nodeEvent(t domain.EventType, node string, d time.Duration, err error) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, RequestID: g.requestID},
		UseCase:   g.name,
		Node:      node,
		Duration:  d,
		Err:       err,
	}
}

func (g *Graph) log() *slog.Logger {
	if g.logger == nil {
		return logging.NewNop()
	}
	return g.logger
}

func partialOf(err error, fallback *domain.Conversation) *domain.Conversation {
	var nodeErr *domain.NodeExecutionError
	if errors.As(err, &nodeErr) && nodeErr.Partial != nil {
		return nodeErr.Partial
	}
	var limitErr *domain.IterationLimitExceededError
	if errors.As(err, &limitErr) && limitErr.Partial != nil {
		return limitErr.Partial
	}
	return fallback
}
