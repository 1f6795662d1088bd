package orchestrator

import (
	"context"
	"errors"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

var errPlaceholder = errors.New("placeholder capability: graph built for introspection only")

var placeholderModel = ports.ChatModelFunc(func(context.Context, *domain.Conversation, []domain.Tool) (domain.Message, error) {
	return domain.Message{}, errPlaceholder
})

type placeholderTools struct{}

func (placeholderTools) Invoke(context.Context, domain.ToolCall) (string, error) {
	return "", errPlaceholder
}

func (placeholderTools) Tools() []domain.Tool { return nil }
