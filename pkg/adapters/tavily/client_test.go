package tavily_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/tavily"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, check func(r *http.Request, body tavily.SearchRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body tavily.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if check != nil {
			check(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tavily.SearchResponse{
			Query: body.Query,
			Results: []tavily.Result{
				{Title: "Go 1.25 released", URL: "https://go.dev/blog", Content: "Release notes", PublishedDate: "2025-08-12"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	srv := newServer(t, func(r *http.Request, body tavily.SearchRequest) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "news", body.Topic)
		assert.Equal(t, "week", body.TimeRange)
	})
	c := tavily.New("key", tavily.WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), tavily.SearchRequest{Query: "ai", Topic: "news", TimeRange: "week"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://go.dev/blog", resp.Results[0].URL)
}

func TestClient_Errors(t *testing.T) {
	_, err := tavily.New("").Search(context.Background(), tavily.SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, tavily.ErrMissingAPIKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err = tavily.New("k", tavily.WithBaseURL(srv.URL)).Search(context.Background(), tavily.SearchRequest{Query: "x"})
	var apiErr *tavily.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Body)
}

func TestRegisterWebSearch(t *testing.T) {
	srv := newServer(t, func(r *http.Request, body tavily.SearchRequest) {
		assert.Equal(t, tavily.DefaultToolResults, body.MaxResults)
	})
	reg := registry.NewRegistry()
	tavily.RegisterWebSearch(reg, tavily.New("key", tavily.WithBaseURL(srv.URL)))

	out, err := reg.Invoke(context.Background(), domain.ToolCall{Name: tavily.ToolName, Args: map[string]any{"query": "go"}})
	require.NoError(t, err)
	assert.Contains(t, out, "[Go 1.25 released](https://go.dev/blog) (2025-08-12)")
}
