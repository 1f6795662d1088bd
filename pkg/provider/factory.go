// Package provider turns a per-request RequestContext into a ChatModel.
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/parley/pkg/adapters/anthropic"
	"github.com/aretw0/parley/pkg/adapters/openai"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Kind selects the wire protocol of a provider.
type Kind string

const (
	KindOpenAI    Kind = "openai" // OpenAI and compatible APIs (Groq)
	KindAnthropic Kind = "anthropic"
)

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrUnknownModel      = errors.New("model not offered by provider")
	ErrMissingCredential = errors.New("missing credential")
)

// Spec describes one selectable provider.
type Spec struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	BaseURL string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	KeyEnv  string   `json:"key_env" yaml:"key_env"`
	Models  []string `json:"models" yaml:"models"`
}

// DefaultSpecs returns the providers offered out of the box.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:    "Groq",
			Kind:    KindOpenAI,
			BaseURL: openai.GroqBaseURL,
			KeyEnv:  "GROQ_API_KEY",
			Models:  []string{"llama-3.1-8b-instant", "llama-3.3-70b-versatile", "gemma2-9b-it"},
		},
		{
			Name:   "Anthropic",
			Kind:   KindAnthropic,
			KeyEnv: "ANTHROPIC_API_KEY",
			Models: []string{"claude-3-5-haiku-latest", "claude-sonnet-4-0"},
		},
	}
}

// Factory implements ports.ModelFactory over a fixed list of providers.
type Factory struct {
	specs  []Spec
	system string
}

// Option configures the Factory.
type Option func(*Factory)

// WithSystemPrompt sets the system prompt passed to every model.
func WithSystemPrompt(prompt string) Option {
	return func(f *Factory) {
		f.system = prompt
	}
}

// NewFactory creates a factory. The first spec is the default provider.
func NewFactory(specs []Spec, opts ...Option) *Factory {
	f := &Factory{specs: slices.Clone(specs)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Specs returns the configured providers in order.
func (f *Factory) Specs() []Spec {
	return slices.Clone(f.specs)
}

// Lookup finds a provider by name, case-insensitively. An empty name yields the default.
func (f *Factory) Lookup(name string) (Spec, error) {
	if len(f.specs) == 0 {
		return Spec{}, fmt.Errorf("%w: none configured", ErrUnknownProvider)
	}
	if strings.TrimSpace(name) == "" {
		return f.specs[0], nil
	}
	for _, s := range f.specs {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w %q", ErrUnknownProvider, name)
}

// NewChatModel builds a model for one request from its provider, model and credentials.
func (f *Factory) NewChatModel(ctx context.Context, req domain.RequestContext) (ports.ChatModel, error) {
	spec, err := f.Lookup(req.Provider)
	if err != nil {
		return nil, err
	}

	model := req.Model
	switch {
	case model == "" && len(spec.Models) > 0:
		model = spec.Models[0]
	case model == "":
		return nil, fmt.Errorf("provider %s: no model selected", spec.Name)
	case len(spec.Models) > 0 && !slices.Contains(spec.Models, model):
		return nil, fmt.Errorf("%w: %s does not offer %q", ErrUnknownModel, spec.Name, model)
	}

	key := req.Credential(spec.KeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: %s requires %s", ErrMissingCredential, spec.Name, spec.KeyEnv)
	}

	switch spec.Kind {
	case KindAnthropic:
		return anthropic.New(key, model, anthropic.WithSystemPrompt(f.system)), nil
	case KindOpenAI, "":
		opts := []openai.Option{openai.WithSystemPrompt(f.system)}
		if spec.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(spec.BaseURL))
		}
		return openai.New(key, model, opts...), nil
	}
	return nil, fmt.Errorf("provider %s: unsupported kind %q", spec.Name, spec.Kind)
}
