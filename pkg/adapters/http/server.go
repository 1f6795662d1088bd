// Package http exposes the orchestrator over HTTP: a web form, a JSON batch
// endpoint, SSE streaming and summary retrieval.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is what the server needs from the orchestrator.
type Engine interface {
	ports.Orchestrator
	Artifact(ctx context.Context, freq domain.Frequency) (*domain.Artifact, error)
}

// ProviderInfo describes a selectable provider for clients.
type ProviderInfo struct {
	Name   string   `json:"name"`
	KeyEnv string   `json:"key_env"`
	Models []string `json:"models"`
}

// Info is the page configuration served at /api/config and used by the form.
type Info struct {
	Title       string         `json:"title"`
	Version     string         `json:"version"`
	Providers   []ProviderInfo `json:"providers"`
	UseCases    []string       `json:"use_cases"`
	Frequencies []string       `json:"frequencies"`
}

// Server holds the handlers.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	info        Info
	credentials map[string]string
	metrics     http.Handler
	logger      *slog.Logger
	timeout     time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithInfo sets the title, providers and option lists shown to clients.
func WithInfo(info Info) Option {
	return func(s *Server) {
		s.info = info
	}
}

// WithCredentials sets server-side default credentials (usually read from the
// environment). Request-supplied keys take precedence.
func WithCredentials(creds map[string]string) Option {
	return func(s *Server) {
		s.credentials = creds
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTurnTimeout bounds each turn (0 disables the bound).
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.info.UseCases) == 0 {
		s.info.UseCases = engine.UseCases()
	}
	if len(s.info.Frequencies) == 0 {
		for _, f := range domain.Frequencies {
			s.info.Frequencies = append(s.info.Frequencies, f.Label())
		}
	}
	if s.info.Title == "" {
		s.info.Title = "Parley"
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/", s.Form)
	r.Get("/health", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.GetConfig)
		r.Post("/chat", s.Chat)
		r.Post("/chat/stream", s.ChatStream)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/summaries/{frequency}", s.GetSummary)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"http_request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetConfig handles GET /api/config.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
