/*
Package parley is a small chat orchestrator: it runs a conversation through a
graph of nodes (chat model, tool calls, news summary) and hands the result to
a presenter (terminal, HTTP, MCP).

# Concept

A turn starts from user input, selects a use case and runs that use case's
graph. The graph threads an append-only Conversation through its nodes; a
conditional edge loops between the chat model and the tool node until the
model answers without a structured tool request. The summary use case skips
the conversation and writes a daily, weekly or monthly digest to an artifact
store instead.

Everything the turn needs that depends on the caller (provider, model, API
keys) travels in a per-request RequestContext. Nothing is stored globally, so
one Engine serves concurrent requests.

# Usage

	eng, err := parley.New(
		parley.WithStore(file.New("AINews")),
		parley.WithLogger(logging.New(slog.LevelInfo)),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Run(ctx, domain.TurnRequest{
		UseCase: "tools",
		Input:   "What happened in AI this week?",
		Settings: domain.RequestContext{
			Provider:    "Groq",
			Credentials: map[string]string{"GROQ_API_KEY": key, "TAVILY_API_KEY": tkey},
		},
	})

Use Stream instead of Run to receive the conversation after every node.

# Layout

  - pkg/domain: messages, conversations, errors and lifecycle events.
  - pkg/graph: the builder and the compiled, streaming graph.
  - pkg/nodes: ChatNode, ToolCallNode and SummaryNode.
  - pkg/orchestrator: use cases and turn execution.
  - pkg/adapters: model SDKs, stores, search, HTTP and MCP presenters.
  - pkg/runner: the interactive terminal loop.
*/
package parley
