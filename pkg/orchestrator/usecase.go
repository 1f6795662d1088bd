package orchestrator

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/nodes"
	"github.com/aretw0/parley/pkg/ports"
)

// Built-in use case ids.
const (
	UseCaseBasic   = "basic"
	UseCaseTools   = "tools"
	UseCaseSummary = "summary"
)

// Kind separates message-flow use cases from scalar ones.
type Kind int

const (
	// KindConversation runs a graph over the conversation.
	KindConversation Kind = iota
	// KindSummary runs the SummaryNode over a frequency.
	KindSummary
)

// Env is what a use case may bind its graph to. It is built per request.
type Env struct {
	RequestID string
	Model     ports.ChatModel
	Tools     ports.ToolInvoker
	Hooks     domain.LifecycleHooks
}

// BuildFunc wires the nodes and edges of a conversation use case.
type BuildFunc func(ctx context.Context, env Env) (*graph.Builder, error)

// UseCase is a registry entry.
type UseCase struct {
	ID      string
	Title   string
	Aliases []string
	Kind    Kind

	// NeedsTools makes the orchestrator build a ToolInvoker for the request.
	NeedsTools bool

	// Build is required for KindConversation.
	Build BuildFunc
}

// BasicUseCase is a single chat step.
func BasicUseCase() UseCase {
	return UseCase{
		ID:      UseCaseBasic,
		Title:   "Basic Chatbot",
		Aliases: []string{"Basic Chatbot"},
		Kind:    KindConversation,
		Build: func(ctx context.Context, env Env) (*graph.Builder, error) {
			chat := nodes.NewChatNode(env.Model)
			return graph.New(UseCaseBasic).
				AddNode(chat).
				AddEdge(graph.Start, chat.Name()).
				AddEdge(chat.Name(), graph.End), nil
		},
	}
}

// ToolsUseCase loops between the chat model and the tool node until the model
// answers without a structured tool request.
func ToolsUseCase() UseCase {
	return UseCase{
		ID:         UseCaseTools,
		Title:      "Chatbot With Web",
		Aliases:    []string{"Chatbot With Web"},
		Kind:       KindConversation,
		NeedsTools: true,
		Build: func(ctx context.Context, env Env) (*graph.Builder, error) {
			if env.Tools == nil {
				return nil, fmt.Errorf("use case %s requires a tool invoker", UseCaseTools)
			}
			tools := nodes.NewToolCallNode(env.Tools, nodes.WithToolHooks(env.Hooks, env.RequestID))
			chat := nodes.NewChatNode(env.Model, nodes.WithTools(tools.Tools()...))

			b := graph.New(UseCaseTools).AddNode(chat).AddNode(tools)
			b.AddEdge(graph.Start, chat.Name())
			b.AddConditionalEdge(chat.Name(), graph.ToolRouter(tools.Name()), tools.Name(), graph.End)
			b.AddEdge(tools.Name(), chat.Name())
			return b, nil
		},
	}
}

// SummaryUseCase produces the news digest for the frequency given as input.
func SummaryUseCase() UseCase {
	return UseCase{
		ID:      UseCaseSummary,
		Title:   "AI News",
		Aliases: []string{"AI News"},
		Kind:    KindSummary,
	}
}
