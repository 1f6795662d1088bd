/*
Package ports defines the driven ports (interfaces) of the parley orchestrator.

These interfaces decouple the orchestration core from external implementations,
so model providers, tools, summary storage and presenters can be swapped.

# Key Interfaces

  - ChatModel / ModelFactory: the model-invocation capability, built per request.
  - ToolInvoker: executes structured tool calls.
  - Summarizer: produces the markdown digest for a frequency window.
  - ArtifactStore: durable summary storage keyed by frequency tag.
  - DistributedLocker: cross-replica write serialization for the artifact store.
  - Orchestrator / Renderer: the presenter-facing boundary.
*/
package ports
