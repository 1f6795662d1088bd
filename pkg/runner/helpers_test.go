package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

func toolFactory(inv ports.ToolInvoker) ports.ToolInvokerFactory {
	return ports.ToolInvokerFactoryFunc(func(context.Context, domain.RequestContext) (ports.ToolInvoker, error) {
		return inv, nil
	})
}
