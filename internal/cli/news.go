package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/orchestrator"
	"github.com/aretw0/parley/pkg/runner"
)

// NewsOptions are the flags of the news command.
type NewsOptions struct {
	Frequency string
	Provider  string
	Model     string

	// Show prints the stored digest without generating a new one.
	Show bool
}

// RunNews generates (or, with Show, prints) the digest for one frequency.
func RunNews(ctx context.Context, cfg *config.Config, opts NewsOptions, out io.Writer) error {
	freq, err := domain.ParseFrequency(opts.Frequency)
	if err != nil {
		return err
	}
	logger := NewLogger(cfg.LogLevel, nil)
	eng, storage, err := NewEngine(cfg, logger, observability.LoggingHooks(logger))
	if err != nil {
		return err
	}
	defer storage.Close()

	if !opts.Show {
		res, err := eng.Run(ctx, domain.TurnRequest{
			UseCase:  orchestrator.UseCaseSummary,
			Input:    string(freq),
			Settings: RequestSettings(opts.Provider, opts.Model, cfg.Credentials),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "summary saved to %s\n\n", res.Artifact.Location)
	}

	a, err := eng.Artifact(ctx, freq)
	if err != nil {
		return err
	}
	if !runner.IsTerminal(out) {
		_, err = io.WriteString(out, a.Content)
		return err
	}
	r, err := tui.NewRenderer(tui.WithWordWrap(runner.TerminalWidth(out, 80) - 4))
	if err != nil {
		return err
	}
	rendered, err := r.Markdown(a.Content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}
