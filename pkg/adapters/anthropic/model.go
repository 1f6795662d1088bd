package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	backend "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens caps each reply.
const DefaultMaxTokens = 1024

// Model implements ports.ChatModel on the Anthropic Messages API.
type Model struct {
	client    backend.Client
	model     string
	system    string
	maxTokens int64
}

type config struct {
	system    string
	maxTokens int64
	reqOpts   []option.RequestOption
}

// Option configures the Model.
type Option func(*config)

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) {
		c.system = prompt
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRequestOptions passes raw SDK options (base URL, retries, HTTP client).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *config) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// New creates a model bound to apiKey and model name.
func New(apiKey, model string, opts ...Option) *Model {
	cfg := &config{maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.reqOpts...)
	return &Model{
		client:    backend.NewClient(reqOpts...),
		model:     model,
		system:    cfg.system,
		maxTokens: cfg.maxTokens,
	}
}

// Generate sends the conversation and folds the reply's content blocks into
// one assistant message: text blocks are joined, tool_use blocks become ToolCalls.
func (m *Model) Generate(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
	params := backend.MessageNewParams{
		Model:     backend.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages:  toMessages(conv.Messages()),
	}
	if m.system != "" {
		params.System = []backend.TextBlockParam{{Text: m.system}}
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, backend.ToolUnionParam{OfTool: toTool(t)})
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return domain.Message{}, fmt.Errorf("anthropic: messages: %w", err)
	}

	var text []string
	var calls []domain.ToolCall
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case backend.TextBlock:
			text = append(text, b.Text)
		case backend.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return domain.Message{}, fmt.Errorf("anthropic: tool call %s has invalid input: %w", b.Name, err)
				}
			}
			calls = append(calls, domain.ToolCall{ID: b.ID, Name: b.Name, Args: args})
		}
	}
	return domain.NewAssistantMessage(strings.Join(text, "\n"), calls...), nil
}

func toTool(t domain.Tool) *backend.ToolParam {
	schema := backend.ToolInputSchemaParam{}
	if props, ok := t.Parameters["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := t.Parameters["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	tool := &backend.ToolParam{Name: t.Name, InputSchema: schema}
	if t.Description != "" {
		tool.Description = backend.String(t.Description)
	}
	return tool
}

// toMessages maps the history onto alternating user/assistant turns.
// Tool results travel inside user turns, and adjacent blocks of the same
// role are merged into one turn.
func toMessages(msgs []domain.Message) []backend.MessageParam {
	var out []backend.MessageParam
	push := func(role backend.MessageParamRole, blocks ...backend.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, backend.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range msgs {
		switch m.Role {
		case domain.RoleUser:
			push(backend.MessageParamRoleUser, backend.NewTextBlock(m.Content))
		case domain.RoleAssistant:
			var blocks []backend.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, backend.NewTextBlock(m.Content))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, backend.NewToolUseBlock(c.ID, c.Args, c.Name))
			}
			push(backend.MessageParamRoleAssistant, blocks...)
		case domain.RoleToolResult:
			push(backend.MessageParamRoleUser, backend.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
		}
	}
	return out
}
