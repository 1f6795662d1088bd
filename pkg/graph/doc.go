/*
Package graph builds and executes the processing graphs behind each use case.

A graph is a fixed set of named nodes connected by edges, with distinguished
Start and End markers. Edges are either static ("after a, run b") or
conditional: a Router inspects the message a node just produced and picks the
next node. Compile validates the wiring and returns an immutable Graph.

Execution is sequential. Stream yields one Step per node lazily, so a consumer
that stops iterating stops the run. Static edges may not form a cycle; loops
must go through a conditional edge, and every conditional hop that does not
lead to End counts against the iteration limit.

	b := graph.New("tools")
	b.AddNode(chat).AddNode(tools)
	b.AddEdge(graph.Start, "chat")
	b.AddConditionalEdge("chat", graph.ToolRouter("tools"), "tools", graph.End)
	b.AddEdge("tools", "chat")
	g, err := b.Compile(graph.WithMaxIterations(5))
*/
package graph
