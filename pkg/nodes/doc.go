/*
Package nodes provides the node kinds the orchestrator wires into its graphs.

  - ChatNode asks a ports.ChatModel for the next assistant message.
  - ToolCallNode answers the pending tool requests of the last assistant message.
  - SummaryNode produces a news digest for a frequency and persists it.

ChatNode and ToolCallNode implement graph.Node. SummaryNode does not take part in
the message flow: it consumes a frequency and returns an artifact reference.
*/
package nodes
