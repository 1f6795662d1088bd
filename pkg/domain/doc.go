/*
Package domain contains the core domain models of the parley orchestrator.

It defines the entities threaded through a turn and is kept free of I/O and
persistence concerns.

# Key Entities

  - Message: a role-tagged utterance (User, Assistant, ToolResult). Tool requests are structured, never inferred from prose.
  - Conversation: the append-only history of a turn, with the ordering rules enforced on Append.
  - Frequency / ArtifactRef: the key and handle of a persisted news summary.
  - RequestContext: per-request provider, model and credentials.
  - Errors: the typed error taxonomy returned at the orchestrator boundary.
*/
package domain
