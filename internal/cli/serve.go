package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	httpadapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout gives outstanding requests a deadline when stopping.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP presenter (and a separate metrics listener when
// configured) until ctx is done.
func Serve(ctx context.Context, cfg *config.Config) error {
	logger := NewLogger(cfg.LogLevel, os.Stderr)
	metrics := observability.NewMetrics(nil)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))

	eng, storage, err := NewEngine(cfg, logger, hooks)
	if err != nil {
		return err
	}
	defer storage.Close()

	servers := Servers(cfg, eng, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err, srv.Close())
			}
		}
		logger.Info("server stopped")
		return errors.Join(errs...)
	})
	return g.Wait()
}

// Servers builds the API server and, if cfg.Metrics.Addr is set, a metrics server.
func Servers(cfg *config.Config, eng *parley.Engine, metrics *observability.Metrics, logger *slog.Logger) []*http.Server {
	opts := []httpadapter.Option{
		httpadapter.WithInfo(Info(cfg)),
		httpadapter.WithCredentials(cfg.Credentials),
		httpadapter.WithLogger(logger),
		httpadapter.WithTurnTimeout(cfg.HTTP.TurnTimeout),
	}
	if cfg.Metrics.Addr == "" {
		opts = append(opts, httpadapter.WithMetrics(metrics.Handler()))
	}

	servers := []*http.Server{{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpadapter.NewHandler(eng, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Metrics.Addr != "" {
		r := chi.NewRouter()
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}
	return servers
}

// Info is the page configuration shown by the HTTP presenter.
func Info(cfg *config.Config) httpadapter.Info {
	info := httpadapter.Info{
		Title:    cfg.Title,
		Version:  strings.TrimSpace(parley.Version),
		UseCases: cfg.UseCases,
	}
	for _, p := range cfg.Providers {
		info.Providers = append(info.Providers, httpadapter.ProviderInfo{Name: p.Name, KeyEnv: p.KeyEnv, Models: p.Models})
	}
	return info
}
