package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/muesli/termenv"
)

// ChatOptions are the flags of the chat command.
type ChatOptions struct {
	UseCase  string
	Provider string
	Model    string
	History  bool
	JSON     bool
	Plain    bool
	Confirm  bool

	In  io.Reader
	Out io.Writer
}

// RunChat starts the interactive loop until EOF, exit or a signal.
func RunChat(ctx context.Context, cfg *config.Config, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := NewLogger(cfg.LogLevel, nil)

	handler, styled, err := newHandler(opts)
	if err != nil {
		return err
	}

	extra := []parley.Option{}
	if opts.Confirm {
		extra = append(extra, parley.WithToolMiddleware(func(f ports.ToolInvokerFactory) ports.ToolInvokerFactory {
			return runner.InterceptTools(f, runner.ConfirmationMiddleware(handler))
		}))
	}
	eng, storage, err := NewEngine(cfg, logger, observability.LoggingHooks(logger), extra...)
	if err != nil {
		return err
	}
	defer storage.Close()

	if styled {
		tui.PrintBanner(opts.Out, termenv.ColorProfile(), fmt.Sprintf("%s v%s", cfg.Title, strings.TrimSpace(parley.Version)))
	}

	runnerOpts := []runner.Option{
		runner.WithInputHandler(handler),
		runner.WithLogger(logger),
		runner.WithSettings(RequestSettings(opts.Provider, opts.Model, cfg.Credentials)),
		runner.WithHistory(opts.History),
		runner.WithBanner(banner(cfg, opts, styled)),
	}
	if opts.UseCase != "" {
		runnerOpts = append(runnerOpts, runner.WithUseCase(opts.UseCase))
	}
	return runner.NewRunner(eng, runnerOpts...).Run(ctx)
}

func newHandler(opts ChatOptions) (runner.IOHandler, bool, error) {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out), false, nil
	}
	if opts.Plain || !runner.IsTerminal(opts.Out) {
		return runner.NewTextHandler(opts.In, opts.Out), false, nil
	}
	renderer, err := tui.NewRenderer(tui.WithWordWrap(runner.TerminalWidth(opts.Out, 80) - 4))
	if err != nil {
		return nil, false, err
	}
	return runner.NewTextHandler(opts.In, opts.Out, runner.WithTextHandlerRenderer(renderer.Message)), true, nil
}

func banner(cfg *config.Config, opts ChatOptions, styled bool) string {
	if opts.JSON {
		return ""
	}
	useCase := opts.UseCase
	if useCase == "" {
		useCase = "basic"
	}
	text := fmt.Sprintf("use case %s; type /help for commands", useCase)
	if !styled {
		text = cfg.Title + ": " + text
	}
	return text
}
