package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// ToolInvoker is the "invoke_tool(request) -> ToolResult" capability.
type ToolInvoker interface {
	// Invoke runs a single tool call and returns its textual output.
	Invoke(ctx context.Context, call domain.ToolCall) (string, error)

	// Tools describes the tools this invoker can run.
	Tools() []domain.Tool
}

// Summarizer produces the markdown digest for a frequency window.
type Summarizer interface {
	Summarize(ctx context.Context, freq domain.Frequency) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, freq domain.Frequency) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, freq domain.Frequency) (string, error) {
	return f(ctx, freq)
}

// Renderer displays role-tagged messages to the user.
type Renderer interface {
	Render(ctx context.Context, msgs []domain.Message) error
}

// SummarizerFactory builds a Summarizer for one request, so the digest uses the
// caller's model and credentials.
type SummarizerFactory interface {
	NewSummarizer(ctx context.Context, req domain.RequestContext) (Summarizer, error)
}

// SummarizerFactoryFunc adapts a function to SummarizerFactory.
type SummarizerFactoryFunc func(ctx context.Context, req domain.RequestContext) (Summarizer, error)

// NewSummarizer calls f.
func (f SummarizerFactoryFunc) NewSummarizer(ctx context.Context, req domain.RequestContext) (Summarizer, error) {
	return f(ctx, req)
}

// ToolInvokerFactory builds the tools offered to one request.
type ToolInvokerFactory interface {
	NewToolInvoker(ctx context.Context, req domain.RequestContext) (ToolInvoker, error)
}

// ToolInvokerFactoryFunc adapts a function to ToolInvokerFactory.
type ToolInvokerFactoryFunc func(ctx context.Context, req domain.RequestContext) (ToolInvoker, error)

// NewToolInvoker calls f.
func (f ToolInvokerFactoryFunc) NewToolInvoker(ctx context.Context, req domain.RequestContext) (ToolInvoker, error) {
	return f(ctx, req)
}
