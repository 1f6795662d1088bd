package tavily

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/registry"
)

// ToolName is the name the chat model sees.
const ToolName = "web_search"

// DefaultToolResults matches the small result count of the web chatbot.
const DefaultToolResults = 2

// WebSearchArgs are the arguments the model passes to web_search.
type WebSearchArgs struct {
	Query      string `json:"query" jsonschema:"description=What to look up on the web"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Number of results (default 2),minimum=1,maximum=10"`
}

// RegisterWebSearch adds the web_search tool backed by c to reg.
func RegisterWebSearch(reg *registry.Registry, c *Client) {
	registry.MustRegister(reg, ToolName, "Search the web for current information. Returns titles, URLs and snippets.",
		func(ctx context.Context, in WebSearchArgs) (any, error) {
			n := in.MaxResults
			if n <= 0 {
				n = DefaultToolResults
			}
			resp, err := c.Search(ctx, SearchRequest{Query: in.Query, MaxResults: n})
			if err != nil {
				return nil, err
			}
			return FormatResults(resp), nil
		})
}

// FormatResults renders hits as a compact markdown list.
func FormatResults(resp *SearchResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return "No results."
	}
	var b strings.Builder
	if resp.Answer != "" {
		fmt.Fprintf(&b, "%s\n\n", resp.Answer)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. [%s](%s)", i+1, r.Title, r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, " (%s)", r.PublishedDate)
		}
		if c := strings.TrimSpace(r.Content); c != "" {
			fmt.Fprintf(&b, "\n   %s", c)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
