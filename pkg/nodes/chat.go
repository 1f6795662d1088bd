package nodes

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/google/uuid"
)

// DefaultChatName is the node id used when none is given.
const DefaultChatName = "chat"

// ChatNode produces the next assistant message through a ChatModel.
type ChatNode struct {
	name  string
	model ports.ChatModel
	tools []domain.Tool
}

// ChatOption configures a ChatNode.
type ChatOption func(*ChatNode)

// WithChatName overrides the node id.
func WithChatName(name string) ChatOption {
	return func(n *ChatNode) {
		n.name = name
	}
}

// WithTools advertises tools to the model. Without tools the model is expected
// to answer directly.
func WithTools(tools ...domain.Tool) ChatOption {
	return func(n *ChatNode) {
		n.tools = append(n.tools, tools...)
	}
}

// NewChatNode creates a chat node backed by model.
func NewChatNode(model ports.ChatModel, opts ...ChatOption) *ChatNode {
	n := &ChatNode{name: DefaultChatName, model: model}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the node id.
func (n *ChatNode) Name() string { return n.name }

// Process calls the model once. Whatever role the model reports, the result is
// recorded as an assistant message, and tool calls without an id get one so the
// matching results can refer to them.
func (n *ChatNode) Process(ctx context.Context, conv *domain.Conversation) ([]domain.Message, error) {
	if n.model == nil {
		return nil, fmt.Errorf("chat node %s: no model configured", n.name)
	}

	msg, err := n.model.Generate(ctx, conv, n.tools)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	msg.Role = domain.RoleAssistant
	msg.ToolCallID = ""
	msg.IsError = false
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = "call_" + uuid.NewString()
		}
	}
	return []domain.Message{msg}, nil
}
