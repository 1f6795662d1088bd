package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	backend "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ErrEmptyResponse is returned when the API answers without choices.
var ErrEmptyResponse = errors.New("openai: response has no choices")

// Model implements ports.ChatModel on any OpenAI-compatible chat completions API.
type Model struct {
	client backend.Client
	model  string
	system string
}

// Option configures the Model.
type Option func(*config)

type config struct {
	baseURL string
	system  string
	reqOpts []option.RequestOption
}

// WithBaseURL targets another compatible endpoint, e.g. GroqBaseURL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) {
		c.system = prompt
	}
}

// WithRequestOptions passes raw SDK options (retries, HTTP client, headers).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *config) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// New creates a model bound to apiKey and model name.
func New(apiKey, model string, opts ...Option) *Model {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	reqOpts = append(reqOpts, cfg.reqOpts...)

	return &Model{
		client: backend.NewClient(reqOpts...),
		model:  model,
		system: cfg.system,
	}
}

// Generate sends the conversation and converts the first choice back.
// Tool requests come back as structured ToolCalls, never as prose.
func (m *Model) Generate(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
	params := backend.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.model),
		Messages: toMessages(m.system, conv.Messages()),
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, backend.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: backend.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Message{}, ErrEmptyResponse
	}

	choice := resp.Choices[0].Message
	var calls []domain.ToolCall
	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return domain.Message{}, fmt.Errorf("openai: tool call %s has invalid arguments: %w", tc.Function.Name, err)
			}
		}
		calls = append(calls, domain.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}
	return domain.NewAssistantMessage(choice.Content, calls...), nil
}

func toMessages(system string, msgs []domain.Message) []backend.ChatCompletionMessageParamUnion {
	out := make([]backend.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, backend.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleUser:
			out = append(out, backend.UserMessage(m.Content))
		case domain.RoleAssistant:
			if !m.RequestsTool() {
				out = append(out, backend.AssistantMessage(m.Content))
				continue
			}
			asst := backend.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = backend.String(m.Content)
			}
			for _, c := range m.ToolCalls {
				args, _ := json.Marshal(c.Args)
				asst.ToolCalls = append(asst.ToolCalls, backend.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &backend.ChatCompletionMessageFunctionToolCallParam{
						ID: c.ID,
						Function: backend.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      c.Name,
							Arguments: string(args),
						},
					},
				})
			}
			out = append(out, backend.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case domain.RoleToolResult:
			out = append(out, backend.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}
