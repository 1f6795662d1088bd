/*
Package orchestrator runs one conversational turn for a named use case.

A use case names a graph shape. Per request, the Orchestrator resolves the use
case, builds a fresh conversation and a fresh graph bound to the request's
model and tools, and executes it either to completion (Run) or step by step
(Stream). Concurrent turns share nothing but the artifact store.

Built-in use cases:

	basic    ("Basic Chatbot")     Start -> chat -> End
	tools    ("Chatbot With Web")  Start -> chat -?-> tools -> chat ... -> End
	summary  ("AI News")           frequency -> summarize -> artifact

Usage:

	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(factory),
		orchestrator.WithArtifactStore(artifact.NewManager(memory.NewStore())),
	)
	res, err := orc.Run(ctx, domain.TurnRequest{UseCase: "basic", Input: "hello"})
*/
package orchestrator
