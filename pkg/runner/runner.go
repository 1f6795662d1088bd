package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Engine is what the REPL needs from the orchestrator.
type Engine interface {
	ports.Orchestrator
	Artifact(ctx context.Context, freq domain.Frequency) (*domain.Artifact, error)
}

// Runner handles the interactive loop: read a line, run a turn, render the messages.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdin/stdout.
	Handler IOHandler

	// Logger is used for internal debug logging. Defaults to a no-op logger.
	Logger *slog.Logger

	UseCase     string
	Settings    domain.RequestContext
	KeepHistory bool
	Banner      string

	engine  Engine
	history *domain.Conversation
}

// NewRunner creates a Runner for engine.
func NewRunner(engine Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  engine,
		UseCase: "basic",
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run executes the loop until EOF, "exit"/"quit", an interrupt while waiting
// for input, or ctx being done. An interrupt during a turn only cancels that turn.
func (r *Runner) Run(ctx context.Context) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if r.Banner != "" {
		if err := r.Handler.SystemOutput(ctx, r.Banner); err != nil {
			return err
		}
	}

	for {
		input, err := r.Handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			switch {
			case errors.Is(err, io.EOF), signals.Context().Err() != nil:
				return nil
			default:
				return fmt.Errorf("input error: %w", err)
			}
		}

		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case strings.HasPrefix(input, "/"):
			if err := r.command(signals.Context(), input); err != nil {
				return err
			}
			continue
		}

		if err := r.Turn(signals.Context(), input); err != nil {
			if signals.Interrupted() {
				r.Logger.Debug("turn interrupted")
				_ = r.Handler.SystemOutput(ctx, "interrupted")
				signals.Reset()
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := r.Handler.SystemOutput(ctx, "error: "+err.Error()); err != nil {
				return err
			}
		}
	}
}

// Turn runs one turn for input and renders what each node appends.
// An iteration-limit stop is reported as a warning and is not an error.
func (r *Runner) Turn(ctx context.Context, input string) error {
	req := domain.TurnRequest{
		UseCase:      r.UseCase,
		Input:        input,
		Conversation: r.history,
		Settings:     r.settings(),
	}

	// Prior history and the typed input are already on screen.
	shown := 1
	if r.history != nil {
		shown += r.history.Len()
	}

	var last *domain.Conversation
	for update, err := range r.engine.Stream(ctx, req) {
		if err != nil {
			var limitErr *domain.IterationLimitExceededError
			if errors.As(err, &limitErr) {
				return r.Handler.SystemOutput(ctx, "warning: "+err.Error()+"; showing the partial answer")
			}
			return err
		}
		if update.Artifact != nil {
			return r.showArtifact(ctx, *update.Artifact)
		}
		if update.Conversation == nil {
			continue
		}
		msgs := update.Conversation.Messages()
		if len(msgs) > shown {
			if err := r.Handler.Render(ctx, msgs[shown:]); err != nil {
				return err
			}
			shown = len(msgs)
		}
		last = update.Conversation
	}

	if r.KeepHistory && last != nil {
		r.history = last
	}
	return nil
}

func (r *Runner) showArtifact(ctx context.Context, ref domain.ArtifactRef) error {
	freq, err := domain.ParseFrequency(ref.Key)
	if err != nil {
		return r.Handler.SystemOutput(ctx, "summary saved to "+ref.Location)
	}
	if err := r.showSummary(ctx, freq); err != nil {
		return err
	}
	return r.Handler.SystemOutput(ctx, "summary saved to "+ref.Location)
}

func (r *Runner) showSummary(ctx context.Context, freq domain.Frequency) error {
	a, err := r.engine.Artifact(ctx, freq)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return r.Handler.SystemOutput(ctx, fmt.Sprintf("no %s summary has been generated yet", freq))
	}
	if err != nil {
		return err
	}
	return r.Handler.Render(ctx, []domain.Message{domain.NewAssistantMessage(a.Content)})
}

func (r *Runner) settings() domain.RequestContext {
	s := r.Settings
	s.RequestID = ""
	s.Credentials = maps.Clone(r.Settings.Credentials)
	return s
}

const helpText = `commands:
  /use <use case>       switch use case (` + "`basic`, `tools`, `summary`" + ` or a display name)
  /summary <frequency>  show the stored daily, weekly or monthly digest
  /reset                forget the conversation
  /help                 show this help
  exit | quit           leave`

func (r *Runner) command(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "use":
		if arg == "" {
			return r.Handler.SystemOutput(ctx, "current use case: "+r.UseCase+" (available: "+strings.Join(r.engine.UseCases(), ", ")+")")
		}
		r.UseCase = arg
		r.history = nil
		return r.Handler.SystemOutput(ctx, "use case set to "+arg)
	case "summary":
		freq, err := domain.ParseFrequency(arg)
		if err != nil {
			return r.Handler.SystemOutput(ctx, err.Error())
		}
		if err := r.showSummary(ctx, freq); err != nil {
			return r.Handler.SystemOutput(ctx, "error: "+err.Error())
		}
		return nil
	case "reset":
		r.history = nil
		return r.Handler.SystemOutput(ctx, "conversation cleared")
	case "help":
		return r.Handler.SystemOutput(ctx, helpText)
	default:
		return r.Handler.SystemOutput(ctx, fmt.Sprintf("unknown command /%s, try /help", name))
	}
}

// History returns a copy of the carried conversation, or nil.
func (r *Runner) History() *domain.Conversation {
	if r.history == nil {
		return nil
	}
	return r.history.Snapshot()
}
