package runner

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithUseCase selects the use case for new turns (default "basic").
func WithUseCase(name string) Option {
	return func(r *Runner) {
		r.UseCase = name
	}
}

// WithSettings sets the provider, model and credentials sent with every turn.
func WithSettings(settings domain.RequestContext) Option {
	return func(r *Runner) {
		r.Settings = settings
	}
}

// WithHistory makes the runner carry the conversation across turns.
// By default every turn starts from an empty conversation.
func WithHistory(keep bool) Option {
	return func(r *Runner) {
		r.KeepHistory = keep
	}
}

// WithBanner prints text once before the first prompt.
func WithBanner(text string) Option {
	return func(r *Runner) {
		r.Banner = text
	}
}
