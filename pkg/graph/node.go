package graph

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

const (
	// Start is the entry marker. Exactly one edge must leave it.
	Start = "__start__"
	// End is the exit marker.
	End = "__end__"
)

// Node is a unit of work. It receives a read-only snapshot of the conversation
// and returns the messages to append, in order.
type Node interface {
	Name() string
	Process(ctx context.Context, conv *domain.Conversation) ([]domain.Message, error)
}

// Router picks the next node from the last message in the conversation.
type Router func(last domain.Message) string

// ToolRouter routes to toolNode when the message carries structured tool calls,
// and to End otherwise. Prose that merely mentions a tool routes to End.
func ToolRouter(toolNode string) Router {
	return func(last domain.Message) string {
		if last.RequestsTool() {
			return toolNode
		}
		return End
	}
}

// NodeFunc adapts a function into a Node.
type NodeFunc struct {
	ID string
	Fn func(ctx context.Context, conv *domain.Conversation) ([]domain.Message, error)
}

// Name returns the node id.
func (n NodeFunc) Name() string { return n.ID }

// Process calls Fn.
func (n NodeFunc) Process(ctx context.Context, conv *domain.Conversation) ([]domain.Message, error) {
	return n.Fn(ctx, conv)
}
