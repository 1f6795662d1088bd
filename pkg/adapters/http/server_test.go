package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine replays canned updates and records the requests it received.
type fakeEngine struct {
	mu        sync.Mutex
	requests  []domain.TurnRequest
	updates   []domain.Update
	err       error
	artifacts map[domain.Frequency]*domain.Artifact
	gate      chan struct{}
}

func (f *fakeEngine) Run(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngine) Stream(ctx context.Context, req domain.TurnRequest) iter.Seq2[domain.Update, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return func(yield func(domain.Update, error) bool) {
		if f.gate != nil {
			<-f.gate
		}
		for _, u := range f.updates {
			if !yield(u, nil) {
				return
			}
		}
		if f.err != nil {
			yield(domain.Update{}, f.err)
		}
	}
}

func (f *fakeEngine) UseCases() []string { return []string{"basic", "tools", "summary"} }

func (f *fakeEngine) Artifact(ctx context.Context, freq domain.Frequency) (*domain.Artifact, error) {
	if a, ok := f.artifacts[freq]; ok {
		return a, nil
	}
	return nil, &domain.ArtifactNotFoundError{Key: freq.Key()}
}

func (f *fakeEngine) lastRequest() domain.TurnRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func conv(t *testing.T, msgs ...domain.Message) *domain.Conversation {
	t.Helper()
	c, err := domain.NewConversation(msgs...)
	require.NoError(t, err)
	return c
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))
	return rec
}

func helloUpdates(t *testing.T) []domain.Update {
	return []domain.Update{{
		Step: 1,
		Node: "chat",
		Conversation: conv(t,
			domain.NewUserMessage("hello"),
			domain.NewAssistantMessage("hi there"),
		),
	}}
}

func TestChat_Batch(t *testing.T) {
	eng := &fakeEngine{updates: helloUpdates(t)}
	h := NewHandler(eng)

	rec := post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "hello", "request_id": "r-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RequestID    string           `json:"request_id"`
		Steps        int              `json:"steps"`
		Conversation []domain.Message `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "r-1", resp.RequestID)
	assert.Equal(t, 1, resp.Steps)
	require.Len(t, resp.Conversation, 2)
	assert.Equal(t, domain.RoleAssistant, resp.Conversation[1].Role)
	assert.Equal(t, "hello", eng.lastRequest().Input)
}

func TestChat_Credentials(t *testing.T) {
	eng := &fakeEngine{updates: helloUpdates(t)}
	h := NewHandler(eng,
		WithInfo(Info{Providers: []ProviderInfo{
			{Name: "Groq", KeyEnv: "GROQ_API_KEY"},
			{Name: "Anthropic", KeyEnv: "ANTHROPIC_API_KEY"},
		}}),
		WithCredentials(map[string]string{"TAVILY_API_KEY": "server", "GROQ_API_KEY": "env"}),
	)

	rec := post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "x", "provider": "anthropic", "api_key": "user-key"})
	require.Equal(t, http.StatusOK, rec.Code)

	settings := eng.lastRequest().Settings
	assert.Equal(t, "user-key", settings.Credential("ANTHROPIC_API_KEY"))
	assert.Equal(t, "env", settings.Credential("GROQ_API_KEY"))
	assert.Equal(t, "server", settings.Credential("TAVILY_API_KEY"))
	assert.NotEmpty(t, settings.RequestID)

	post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "x", "api_key": "default-key"})
	assert.Equal(t, "default-key", eng.lastRequest().Settings.Credential("GROQ_API_KEY"))
}

func TestChat_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown use case", &domain.UnknownUseCaseError{Name: "x"}, http.StatusBadRequest, "unknown_use_case"},
		{"invalid state", &domain.InvalidStateError{Reason: "r"}, http.StatusBadRequest, "invalid_state"},
		{"invalid frequency", &domain.InvalidFrequencyError{Value: "yearly"}, http.StatusBadRequest, "invalid_frequency"},
		{"node failure", &domain.NodeExecutionError{Node: "chat", Err: errors.New("down")}, http.StatusBadGateway, "node_failed"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakeEngine{err: tc.err})
			rec := post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "x"})
			assert.Equal(t, tc.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error)
		})
	}
}

func TestChat_ResolvedUseCase(t *testing.T) {
	updates := helloUpdates(t)
	updates[0].UseCase = "basic"
	h := NewHandler(&fakeEngine{updates: updates})

	rec := post(t, h, "/api/chat", map[string]any{"use_case": "Basic Chatbot", "input": "hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		UseCase string `json:"use_case"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "basic", resp.UseCase)
}

func TestChat_DegradedOnIterationLimit(t *testing.T) {
	partial := conv(t, domain.NewUserMessage("loop"))
	h := NewHandler(&fakeEngine{err: &domain.IterationLimitExceededError{Limit: 3, Node: "tools", Partial: partial}})

	rec := post(t, h, "/api/chat", map[string]any{"use_case": "tools", "input": "loop"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Degraded bool   `json:"degraded"`
		Warning  string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.Warning, "iteration limit")
}

func TestChat_BadInput(t *testing.T) {
	h := NewHandler(&fakeEngine{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": strings.Repeat("a", 5000)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_Sanitized(t *testing.T) {
	eng := &fakeEngine{updates: helloUpdates(t)}
	h := NewHandler(eng)
	post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "hi\x1b[31m"})
	assert.Equal(t, "hi[31m", eng.lastRequest().Input)

	history := conv(t, domain.NewUserMessage("earlier\x00"), domain.NewAssistantMessage("ok"))
	rec := post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "next", "conversation": history})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msgs := eng.lastRequest().Conversation.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "earlier", msgs[0].Content)

	t.Setenv("PARLEY_MAX_INPUT_SIZE", "6")
	long := conv(t, domain.NewUserMessage("far too long"), domain.NewAssistantMessage("ok"))
	rec = post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "x", "conversation": long})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid conversation")
}

func TestChatStream(t *testing.T) {
	first := conv(t, domain.NewUserMessage("q"), domain.NewAssistantMessage("", domain.ToolCall{ID: "c1", Name: "web_search"}))
	second := conv(t, first.Messages()...)
	require.NoError(t, second.Append(domain.NewToolResult("c1", "web_search", "result", false)))

	eng := &fakeEngine{updates: []domain.Update{
		{Step: 1, Node: "chat", Conversation: first},
		{Step: 2, Node: "tools", Conversation: second},
	}}
	rec := post(t, NewHandler(eng), "/api/chat/stream", map[string]any{"use_case": "tools", "input": "q"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	events := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, events, 3)
	assert.True(t, strings.HasPrefix(events[0], "event: update"))
	assert.Contains(t, events[0], `"from":0`)
	assert.Contains(t, events[1], `"from":2`)
	assert.Contains(t, events[1], `"tool_call_id":"c1"`)
	assert.NotContains(t, events[1], `"role":"user"`)
	assert.True(t, strings.HasPrefix(events[2], "event: done"))
}

func TestChatStream_Error(t *testing.T) {
	eng := &fakeEngine{err: &domain.NodeExecutionError{Node: "chat", Err: errors.New("down")}}
	rec := post(t, NewHandler(eng), "/api/chat/stream", map[string]any{"use_case": "basic", "input": "q"})
	assert.Contains(t, rec.Body.String(), "event: error")
	assert.Contains(t, rec.Body.String(), "node_failed")
}

func TestSubscribeEvents(t *testing.T) {
	eng := &fakeEngine{updates: helloUpdates(t), gate: make(chan struct{})}
	srv := NewServer(eng)
	h := srv.Routes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(sub, httptest.NewRequest(http.MethodGet, "/api/events?request_id=watch-1", nil).WithContext(ctx))
	}()
	require.Eventually(t, func() bool { return srv.Streams.Subscribers("watch-1") == 1 }, time.Second, 5*time.Millisecond)

	chatDone := make(chan *httptest.ResponseRecorder)
	go func() {
		chatDone <- post(t, h, "/api/chat", map[string]any{"use_case": "basic", "input": "hello", "request_id": "watch-1"})
	}()
	close(eng.gate)

	rec := <-chatDone
	require.Equal(t, http.StatusOK, rec.Code)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not finish after the turn ended")
	}

	out := sub.Body.String()
	assert.Contains(t, out, "event: ping")
	assert.Contains(t, out, `"content":"hi there"`)
	assert.Contains(t, out, "event: done")
}

func TestSubscribeEvents_RequiresID(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&fakeEngine{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummary(t *testing.T) {
	eng := &fakeEngine{artifacts: map[domain.Frequency]*domain.Artifact{
		domain.Daily: {Ref: domain.ArtifactRef{Key: "daily", Location: "memory://daily"}, Content: "# Daily"},
	}}
	h := NewHandler(eng)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/Daily", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var a domain.Artifact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "# Daily", a.Content)

	req := httptest.NewRequest(http.MethodGet, "/api/summaries/daily", nil)
	req.Header.Set("Accept", "text/markdown")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "# Daily", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/weekly", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No weekly summary")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/yearly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigHealthAndForm(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) })
	h := NewHandler(&fakeEngine{},
		WithInfo(Info{Title: "Parley Demo", Providers: []ProviderInfo{{Name: "Groq", Models: []string{"llama"}}}}),
		WithMetrics(metrics),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	var info Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Parley Demo", info.Title)
	assert.Equal(t, []string{"basic", "tools", "summary"}, info.UseCases)
	assert.Equal(t, []string{"Daily", "Weekly", "Monthly"}, info.Frequencies)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "<title>Parley Demo</title>")
	assert.Contains(t, rec.Body.String(), "<option>Monthly</option>")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("a")
	sm.Broadcast("a", "one")
	sm.Broadcast("b", "ignored")
	assert.Equal(t, "one", <-ch)

	sm.Close("a")
	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, cancel)
	assert.Equal(t, 0, sm.Subscribers("a"))
}
