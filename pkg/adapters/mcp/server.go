// Package mcp exposes the orchestrator as a Model Context Protocol server.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is what the MCP server needs from the orchestrator.
type Engine interface {
	ports.Orchestrator
	Artifact(ctx context.Context, freq domain.Frequency) (*domain.Artifact, error)
}

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	UseCase  string `json:"use_case"`
	Input    string `json:"input"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ChatResponse is the structured result of the chat tool.
type ChatResponse struct {
	UseCase  string           `json:"use_case" jsonschema_description:"Resolved use case id"`
	Messages []domain.Message `json:"messages" jsonschema_description:"Full turn in causal order"`
	Steps    int              `json:"steps" jsonschema_description:"Number of node executions"`
	Degraded bool             `json:"degraded,omitempty" jsonschema_description:"True when the tool loop hit its iteration limit"`
	Warning  string           `json:"warning,omitempty"`
}

// SummarizeArgs are the arguments of the summarize and get_summary tools.
type SummarizeArgs struct {
	Frequency string `json:"frequency"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// SummaryResponse is the structured result of the summarize tool.
type SummaryResponse struct {
	Artifact domain.ArtifactRef `json:"artifact" jsonschema_description:"Where the digest was stored"`
}

// Server wraps the orchestrator and exposes it as an MCP server.
type Server struct {
	engine      Engine
	credentials map[string]string
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCredentials sets the credentials copied into every request.
func WithCredentials(creds map[string]string) Option {
	return func(s *Server) {
		s.credentials = creds
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop mcp server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Run one conversational turn (basic chat, or chat with web search)."),
		mcp.WithString("use_case", mcp.Required(), mcp.Description("Use case id or display name, e.g. basic or tools")),
		mcp.WithString("input", mcp.Required(), mcp.Description("User message")),
		mcp.WithString("provider", mcp.Description("LLM provider (optional)")),
		mcp.WithString("model", mcp.Description("Model name (optional)")),
		mcp.WithOutputSchema[ChatResponse](),
	), mcp.NewStructuredToolHandler(s.handleChat))

	s.mcpServer.AddTool(mcp.NewTool("summarize",
		mcp.WithDescription("Generate and store the AI news digest for a frequency window."),
		mcp.WithString("frequency", mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("provider", mcp.Description("LLM provider (optional)")),
		mcp.WithString("model", mcp.Description("Model name (optional)")),
		mcp.WithOutputSchema[SummaryResponse](),
	), mcp.NewStructuredToolHandler(s.handleSummarize))

	s.mcpServer.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Read the last stored AI news digest for a frequency window."),
		mcp.WithString("frequency", mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
	), s.handleGetSummary)

	s.mcpServer.AddTool(mcp.NewTool("list_use_cases",
		mcp.WithDescription("List the registered use cases."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(strings.Join(s.engine.UseCases(), "\n")), nil
	})
}

func (s *Server) settings(provider, model string) domain.RequestContext {
	return domain.RequestContext{
		RequestID:   uuid.NewString(),
		Provider:    provider,
		Model:       model,
		Credentials: maps.Clone(s.credentials),
	}
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResponse, error) {
	input, err := runner.SanitizeInput(args.Input)
	if err != nil {
		s.logger.Warn("mcp chat: input rejected", "err", err, "size", len(args.Input))
		return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.engine.Run(ctx, domain.TurnRequest{
		UseCase:  args.UseCase,
		Input:    input,
		Settings: s.settings(args.Provider, args.Model),
	})
	if res == nil {
		return ChatResponse{}, fmt.Errorf("chat failed: %w", err)
	}

	resp := ChatResponse{UseCase: res.UseCase, Steps: res.Steps, Degraded: res.Degraded}
	if res.Conversation != nil {
		resp.Messages = res.Conversation.Messages()
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp, nil
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest, args SummarizeArgs) (SummaryResponse, error) {
	res, err := s.engine.Run(ctx, domain.TurnRequest{
		UseCase:  "summary",
		Input:    args.Frequency,
		Settings: s.settings(args.Provider, args.Model),
	})
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("summarize failed: %w", err)
	}
	if res.Artifact == nil {
		return SummaryResponse{}, errors.New("summarize produced no artifact")
	}
	return SummaryResponse{Artifact: *res.Artifact}, nil
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	freq, err := domain.ParseFrequency(request.GetString("frequency", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.engine.Artifact(ctx, freq)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no %s summary has been generated yet", freq)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return mcp.NewToolResultText(a.Content), nil
}

func summaryURI(freq domain.Frequency) string {
	return "parley://summaries/" + freq.Key()
}

func (s *Server) registerResources() {
	for _, freq := range domain.Frequencies {
		s.mcpServer.AddResource(mcp.NewResource(summaryURI(freq), freq.Label()+" AI News Summary",
			mcp.WithMIMEType("text/markdown"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return s.readSummary(ctx, freq)
		})
	}
}

// readSummary serves a stored digest. A digest that was never generated is
// reported as text, not as a protocol error.
func (s *Server) readSummary(ctx context.Context, freq domain.Frequency) ([]mcp.ResourceContents, error) {
	uri := summaryURI(freq)
	text := ""
	a, err := s.engine.Artifact(ctx, freq)
	switch {
	case errors.Is(err, domain.ErrArtifactNotFound):
		text = fmt.Sprintf("No %s summary has been generated yet. Call the summarize tool first.", freq)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", uri, err)
	default:
		text = a.Content
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}
