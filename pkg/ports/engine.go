package ports

import (
	"context"
	"iter"

	"github.com/aretw0/parley/pkg/domain"
)

// Orchestrator is the presenter-facing contract.
// Adapters (HTTP, MCP, CLI) depend on this interface rather than on the concrete type.
type Orchestrator interface {
	// Run executes a turn to completion and returns the final state.
	Run(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error)

	// Stream executes a turn lazily, yielding one Update per node.
	// Stopping the iteration stops execution.
	Stream(ctx context.Context, req domain.TurnRequest) iter.Seq2[domain.Update, error]

	// UseCases lists the registered use-case ids in registration order.
	UseCases() []string
}
