// Package news produces the periodic AI news digest.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/adapters/tavily"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultQuery is what the digest searches for.
const DefaultQuery = "Top Artificial Intelligence (AI) technology news India and globally"

// DefaultMaxResults is the number of articles fed to the model.
const DefaultMaxResults = 20

const instructions = `Summarize the AI news articles below into markdown.
For each item use the format:
### [Date]
- [Summary](URL)

Sort news by date, most recent first. Use the published date when available.`

// Searcher finds news articles. *tavily.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error)
}

// Summarizer searches recent news for a window and asks a chat model to digest it.
type Summarizer struct {
	search     Searcher
	model      ports.ChatModel
	query      string
	maxResults int
	now        func() time.Time
}

// Option configures the Summarizer.
type Option func(*Summarizer)

// WithQuery overrides DefaultQuery.
func WithQuery(q string) Option {
	return func(s *Summarizer) {
		if q != "" {
			s.query = q
		}
	}
}

// WithMaxResults overrides DefaultMaxResults.
func WithMaxResults(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithClock overrides the time source used in the digest header.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) {
		s.now = now
	}
}

// New creates a Summarizer.
func New(search Searcher, model ports.ChatModel, opts ...Option) *Summarizer {
	s := &Summarizer{
		search:     search,
		model:      model,
		query:      DefaultQuery,
		maxResults: DefaultMaxResults,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize implements ports.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, freq domain.Frequency) (string, error) {
	resp, err := s.search.Search(ctx, tavily.SearchRequest{
		Query:         s.query,
		Topic:         "news",
		TimeRange:     timeRange(freq),
		Days:          freq.Days(),
		MaxResults:    s.maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return "", fmt.Errorf("search news: %w", err)
	}

	header := fmt.Sprintf("# %s AI News Summary\n\n_Generated %s_\n\n", freq.Label(), s.now().UTC().Format("2006-01-02"))
	if len(resp.Results) == 0 {
		return header + "No AI news found for this period.\n", nil
	}

	conv, err := domain.NewConversation(domain.NewUserMessage(instructions + "\n\nArticles:\n" + articles(resp.Results)))
	if err != nil {
		return "", err
	}
	msg, err := s.model.Generate(ctx, conv, nil)
	if err != nil {
		return "", fmt.Errorf("digest news: %w", err)
	}
	return header + strings.TrimSpace(msg.Content) + "\n", nil
}

func timeRange(freq domain.Frequency) string {
	switch freq {
	case domain.Weekly:
		return "week"
	case domain.Monthly:
		return "month"
	default:
		return "day"
	}
}

func articles(results []tavily.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Content: %s\nURL: %s\nDate: %s\n\n", strings.TrimSpace(r.Content), r.URL, r.PublishedDate)
	}
	return b.String()
}
