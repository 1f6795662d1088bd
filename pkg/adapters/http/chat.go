package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	UseCase      string               `json:"use_case"`
	Input        string               `json:"input"`
	Conversation *domain.Conversation `json:"conversation,omitempty"`
	Provider     string               `json:"provider,omitempty"`
	Model        string               `json:"model,omitempty"`
	RequestID    string               `json:"request_id,omitempty"`

	// APIKey is the key for the selected provider.
	APIKey string `json:"api_key,omitempty"`

	// Credentials sets arbitrary named credentials (e.g. TAVILY_API_KEY).
	Credentials map[string]string `json:"credentials,omitempty"`
}

type chatResponse struct {
	*domain.TurnResult
	RequestID string `json:"request_id"`
	Warning   string `json:"warning,omitempty"`
}

type updateEvent struct {
	Step     int                      `json:"step"`
	Node     string                   `json:"node"`
	Diff     *domain.ConversationDiff `json:"diff,omitempty"`
	Artifact *domain.ArtifactRef      `json:"artifact,omitempty"`
}

// Chat handles POST /api/chat: runs a turn to completion and returns the result.
// Progress is also broadcast to /api/events subscribers of the request id.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.decodeTurn(w, r)
	if err != nil {
		writeJSON(w, status, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	ctx, cancel := s.turnContext(r.Context())
	defer cancel()

	id := req.Settings.RequestID
	defer s.Streams.Close(id)

	var (
		prev *domain.Conversation
		last domain.Update
	)
	for update, err := range s.Engine.Stream(ctx, req) {
		if err != nil {
			s.turnFailed(w, id, req.UseCase, last, err)
			return
		}
		s.broadcast(id, prev, update)
		prev, last = update.Conversation, update
	}

	writeJSON(w, http.StatusOK, chatResponse{
		TurnResult: &domain.TurnResult{
			UseCase:      resolvedUseCase(req.UseCase, last),
			Conversation: last.Conversation,
			Artifact:     last.Artifact,
			Steps:        last.Step,
		},
		RequestID: id,
	})
}

// resolvedUseCase prefers the id reported by the orchestrator over the alias the
// client sent.
func resolvedUseCase(requested string, last domain.Update) string {
	if last.UseCase != "" {
		return last.UseCase
	}
	return requested
}

func (s *Server) turnFailed(w http.ResponseWriter, id, useCase string, last domain.Update, err error) {
	var limitErr *domain.IterationLimitExceededError
	if errors.As(err, &limitErr) {
		writeJSON(w, http.StatusOK, chatResponse{
			TurnResult: &domain.TurnResult{
				UseCase:      resolvedUseCase(useCase, last),
				Conversation: limitErr.Partial,
				Steps:        last.Step,
				Degraded:     true,
			},
			RequestID: id,
			Warning:   err.Error(),
		})
		return
	}

	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("turn failed", "request_id", id, "err", err)
	}
	resp := struct {
		errorResponse
		RequestID string               `json:"request_id"`
		Partial   *domain.Conversation `json:"partial,omitempty"`
	}{errorResponse: errorResponse{Error: code, Message: err.Error()}, RequestID: id}

	var nodeErr *domain.NodeExecutionError
	if errors.As(err, &nodeErr) {
		resp.Partial = nodeErr.Partial
	}
	writeJSON(w, status, resp)
}

// ChatStream handles POST /api/chat/stream: runs a turn and streams one SSE
// "update" event per node, each carrying the messages appended since the
// previous event. The stream ends with "done" or "error".
func (s *Server) ChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming_unsupported"})
		return
	}
	req, status, err := s.decodeTurn(w, r)
	if err != nil {
		writeJSON(w, status, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	ctx, cancel := s.turnContext(r.Context())
	defer cancel()

	id := req.Settings.RequestID
	defer s.Streams.Close(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-Id", id)
	w.WriteHeader(http.StatusOK)

	var prev *domain.Conversation
	steps := 0
	for update, err := range s.Engine.Stream(ctx, req) {
		if err != nil {
			_, code := classify(err)
			writeEvent(w, flusher, "error", errorResponse{Error: code, Message: err.Error()})
			return
		}
		ev := s.broadcast(id, prev, update)
		writeEvent(w, flusher, "update", ev)
		prev, steps = update.Conversation, update.Step
	}
	writeEvent(w, flusher, "done", map[string]any{"request_id": id, "steps": steps})
}

func (s *Server) broadcast(id string, prev *domain.Conversation, u domain.Update) updateEvent {
	ev := updateEvent{
		Step:     u.Step,
		Node:     u.Node,
		Diff:     domain.Diff(prev, u.Conversation),
		Artifact: u.Artifact,
	}
	if data, err := json.Marshal(ev); err == nil {
		s.Streams.Broadcast(id, string(data))
	}
	return ev
}

func writeEvent(w io.Writer, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func (s *Server) decodeTurn(w http.ResponseWriter, r *http.Request) (domain.TurnRequest, int, error) {
	var body chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return domain.TurnRequest{}, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}

	sanitizer := runner.NewSanitizer()
	input, err := sanitizer.Input(body.Input)
	if err != nil {
		return domain.TurnRequest{}, http.StatusBadRequest, fmt.Errorf("invalid input: %w", err)
	}
	history, err := sanitizer.Conversation(body.Conversation)
	if err != nil {
		return domain.TurnRequest{}, http.StatusBadRequest, fmt.Errorf("invalid conversation: %w", err)
	}

	id := body.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	return domain.TurnRequest{
		UseCase:      body.UseCase,
		Input:        input,
		Conversation: history,
		Settings: domain.RequestContext{
			RequestID:   id,
			Provider:    body.Provider,
			Model:       body.Model,
			Credentials: s.credentialsFor(body),
		},
	}, 0, nil
}

func (s *Server) credentialsFor(body chatRequest) map[string]string {
	creds := maps.Clone(s.credentials)
	if creds == nil {
		creds = make(map[string]string)
	}
	maps.Copy(creds, body.Credentials)
	if body.APIKey == "" {
		return creds
	}
	for i, p := range s.info.Providers {
		if (body.Provider == "" && i == 0) || strings.EqualFold(p.Name, body.Provider) {
			creds[p.KeyEnv] = body.APIKey
			break
		}
	}
	return creds
}

func (s *Server) turnContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(parent, s.timeout)
	}
	return context.WithCancel(parent)
}

// classify maps a turn error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownUseCase):
		return http.StatusBadRequest, "unknown_use_case"
	case errors.Is(err, domain.ErrInvalidFrequency):
		return http.StatusBadRequest, "invalid_frequency"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, domain.ErrArtifactNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNodeExecution):
		return http.StatusBadGateway, "node_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
