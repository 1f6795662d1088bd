package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that trace every event on logger.
// Node and tool events log at debug; turn completion at info, or warn on failure.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"request_id", e.RequestID,
				"use_case", e.UseCase,
				"node", e.Node,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{
				"request_id", e.RequestID,
				"use_case", e.UseCase,
				"node", e.Node,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave", append(attrs, "err", e.Err)...)
				return
			}
			logger.DebugContext(ctx, "node_leave", attrs...)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call",
				"request_id", e.RequestID,
				"tool_name", e.ToolName,
			)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return",
				"request_id", e.RequestID,
				"tool_name", e.ToolName,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnTurnDone: func(ctx context.Context, e *domain.TurnEvent) {
			attrs := []any{
				"request_id", e.RequestID,
				"use_case", e.UseCase,
				"steps", e.Steps,
				"duration", e.Duration,
				"outcome", Outcome(e.Err),
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "turn_done", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "turn_done", attrs...)
		},
	}
}
