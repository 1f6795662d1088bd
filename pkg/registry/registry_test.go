package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query      string `json:"query" jsonschema:"description=Search terms"`
	MaxResults int    `json:"max_results,omitempty"`
}

func TestRegistry_TypedTool(t *testing.T) {
	reg := registry.NewRegistry()
	var got searchArgs
	registry.MustRegister(reg, "web_search", "Search the web", func(ctx context.Context, in searchArgs) (any, error) {
		got = in
		return map[string]any{"hits": 1}, nil
	})

	out, err := reg.Invoke(context.Background(), domain.ToolCall{
		ID:   "c1",
		Name: "web_search",
		Args: map[string]any{"query": "golang", "max_results": "3"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hits":1}`, out)
	assert.Equal(t, searchArgs{Query: "golang", MaxResults: 3}, got)

	tools := reg.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "web_search", tools[0].Name)
	assert.Equal(t, "object", tools[0].Parameters["type"])
	props, ok := tools[0].Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, tools[0].Parameters["required"], "query")
}

func TestRegistry_UnknownArgumentRejected(t *testing.T) {
	reg := registry.NewRegistry()
	registry.MustRegister(reg, "web_search", "Search", func(ctx context.Context, in searchArgs) (any, error) {
		return "ok", nil
	})

	_, err := reg.Invoke(context.Background(), domain.ToolCall{Name: "web_search", Args: map[string]any{"q": "x"}})
	assert.ErrorContains(t, err, "invalid arguments")
}

func TestRegistry_NotFound(t *testing.T) {
	reg := registry.NewRegistry()
	_, err := reg.Invoke(context.Background(), domain.ToolCall{Name: "missing"})
	assert.True(t, errors.Is(err, registry.ErrToolNotFound))
}

func TestRegistry_OverwriteKeepsOrder(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(domain.Tool{Name: "a"}, func(ctx context.Context, args map[string]any) (any, error) { return "a1", nil })
	reg.Register(domain.Tool{Name: "b"}, func(ctx context.Context, args map[string]any) (any, error) { return "b", nil })
	reg.Register(domain.Tool{Name: "a"}, func(ctx context.Context, args map[string]any) (any, error) { return "a2", nil })

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, "a", reg.Tools()[0].Name)

	out, err := reg.Invoke(context.Background(), domain.ToolCall{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a2", out)
}
