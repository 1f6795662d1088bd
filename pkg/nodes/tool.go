package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultToolName is the node id used when none is given.
const DefaultToolName = "tools"

// ErrNoPendingToolCall is returned when the tool node runs but the last
// assistant message did not request anything.
var ErrNoPendingToolCall = errors.New("no pending tool call")

// ToolCallNode answers every pending tool request of the last assistant message.
type ToolCallNode struct {
	name      string
	invoker   ports.ToolInvoker
	hooks     domain.LifecycleHooks
	requestID string
	logger    *slog.Logger
}

// ToolOption configures a ToolCallNode.
type ToolOption func(*ToolCallNode)

// WithToolName overrides the node id.
func WithToolName(name string) ToolOption {
	return func(n *ToolCallNode) {
		n.name = name
	}
}

// WithToolHooks fires OnToolCall/OnToolReturn around each invocation.
func WithToolHooks(hooks domain.LifecycleHooks, requestID string) ToolOption {
	return func(n *ToolCallNode) {
		n.hooks = hooks
		n.requestID = requestID
	}
}

// WithToolLogger sets the logger.
func WithToolLogger(logger *slog.Logger) ToolOption {
	return func(n *ToolCallNode) {
		n.logger = logger
	}
}

// NewToolCallNode creates a tool node backed by invoker.
func NewToolCallNode(invoker ports.ToolInvoker, opts ...ToolOption) *ToolCallNode {
	n := &ToolCallNode{name: DefaultToolName, invoker: invoker, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the node id.
func (n *ToolCallNode) Name() string { return n.name }

// Tools lists the tools the underlying invoker offers.
func (n *ToolCallNode) Tools() []domain.Tool {
	if n.invoker == nil {
		return nil
	}
	return n.invoker.Tools()
}

// Process returns one ToolResult per pending call, in request order.
// A failing tool yields an error-flagged result so the model can react to it;
// only a done context or a missing invoker fail the node.
func (n *ToolCallNode) Process(ctx context.Context, conv *domain.Conversation) ([]domain.Message, error) {
	if n.invoker == nil {
		return nil, fmt.Errorf("tool node %s: no invoker configured", n.name)
	}
	pending := conv.PendingToolCalls()
	if len(pending) == 0 {
		return nil, ErrNoPendingToolCall
	}

	results := make([]domain.Message, 0, len(pending))
	for _, call := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, n.invoke(ctx, call))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (n *ToolCallNode) invoke(ctx context.Context, call domain.ToolCall) domain.Message {
	if n.hooks.OnToolCall != nil {
		n.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolCall, RequestID: n.requestID},
			Node:      n.name,
			ToolName:  call.Name,
			Input:     call.Args,
		})
	}

	start := time.Now()
	out, err := n.invoker.Invoke(ctx, call)
	isError := err != nil
	if isError {
		n.logger.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "err", err)
		out = fmt.Sprintf("error: %v", err)
	}

	if n.hooks.OnToolReturn != nil {
		n.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn, RequestID: n.requestID},
			Node:      n.name,
			ToolName:  call.Name,
			Output:    out,
			IsError:   isError,
			Duration:  time.Since(start),
		})
	}
	return domain.NewToolResult(call.ID, call.Name, out, isError)
}
