package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ErrToolDenied is returned to the tool node when an interceptor blocks a call.
// The node turns it into an error ToolResult, so the model sees the denial.
var ErrToolDenied = errors.New("tool call denied")

// ToolInterceptor can block a tool call before it runs.
// It returns true if execution should proceed; otherwise reason explains the denial.
type ToolInterceptor func(ctx context.Context, call domain.ToolCall) (allowed bool, reason string, err error)

// MultiInterceptor chains interceptors; the first denial wins.
func MultiInterceptor(interceptors ...ToolInterceptor) ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, string, error) {
		for _, interceptor := range interceptors {
			allowed, reason, err := interceptor(ctx, call)
			if err != nil || !allowed {
				return false, reason, err
			}
		}
		return true, "", nil
	}
}

// ConfirmationMiddleware asks the user through handler before every tool call.
func ConfirmationMiddleware(handler IOHandler) ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, string, error) {
		prompt := fmt.Sprintf("Tool request: %s (id %s) args=%v. Allow execution? [y/N]", call.Name, call.ID, call.Args)
		if err := handler.SystemOutput(ctx, prompt); err != nil {
			return false, "", err
		}
		input, err := handler.Input(ctx)
		if err != nil {
			return false, "", err
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, "", nil
		}
		return false, "user denied execution", nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, string, error) {
		return true, "", nil
	}
}

// AllowList permits only the named tools.
func AllowList(names ...string) ToolInterceptor {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return func(ctx context.Context, call domain.ToolCall) (bool, string, error) {
		if allowed[call.Name] {
			return true, "", nil
		}
		return false, fmt.Sprintf("tool %s is not allowed", call.Name), nil
	}
}

// InterceptTools wraps a tool factory so every invoker it builds consults interceptor.
func InterceptTools(factory ports.ToolInvokerFactory, interceptor ToolInterceptor) ports.ToolInvokerFactory {
	return ports.ToolInvokerFactoryFunc(func(ctx context.Context, req domain.RequestContext) (ports.ToolInvoker, error) {
		inner, err := factory.NewToolInvoker(ctx, req)
		if err != nil {
			return nil, err
		}
		return &interceptedInvoker{inner: inner, interceptor: interceptor}, nil
	})
}

type interceptedInvoker struct {
	inner       ports.ToolInvoker
	interceptor ToolInterceptor
}

func (i *interceptedInvoker) Invoke(ctx context.Context, call domain.ToolCall) (string, error) {
	allowed, reason, err := i.interceptor(ctx, call)
	if err != nil {
		return "", fmt.Errorf("tool interceptor: %w", err)
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s", ErrToolDenied, reason)
	}
	return i.inner.Invoke(ctx, call)
}

func (i *interceptedInvoker) Tools() []domain.Tool {
	return i.inner.Tools()
}
