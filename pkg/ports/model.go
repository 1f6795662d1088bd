package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// ChatModel is the "generate(state) -> Message" capability.
// Implementations must report tool requests through Message.ToolCalls.
type ChatModel interface {
	Generate(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error)
}

// ChatModelFunc adapts a function to ChatModel.
type ChatModelFunc func(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error)

// Generate calls f.
func (f ChatModelFunc) Generate(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
	return f(ctx, conv, tools)
}

// ModelFactory builds a ChatModel for one request.
type ModelFactory interface {
	NewChatModel(ctx context.Context, req domain.RequestContext) (ChatModel, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(ctx context.Context, req domain.RequestContext) (ChatModel, error)

// NewChatModel calls f.
func (f ModelFactoryFunc) NewChatModel(ctx context.Context, req domain.RequestContext) (ChatModel, error) {
	return f(ctx, req)
}
