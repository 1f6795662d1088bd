package domain

import "maps"

// Role tags the origin of a Message.
type Role string

const (
	// RoleUser marks input typed by the person driving the turn.
	RoleUser Role = "user"
	// RoleAssistant marks output produced by the chat model.
	RoleAssistant Role = "assistant"
	// RoleToolResult marks the output of a tool invocation.
	RoleToolResult Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleToolResult:
		return true
	}
	return false
}

// ToolCall is a structured tool request attached to an assistant message.
// Models must signal tool use through this field; message prose is never inspected.
type ToolCall struct {
	ID   string         `json:"id" mapstructure:"id"`
	Name string         `json:"name" mapstructure:"name"`
	Args map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// Message represents one utterance in a conversation.
// Messages are values: a Conversation stores its own copy and hands out copies.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolName is set on ToolResult messages (and optionally on tool-requesting assistant messages).
	ToolName string `json:"tool_name,omitempty"`

	// ToolCallID links a ToolResult message to the ToolCall it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolCalls holds the tool requests of an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// IsError flags a ToolResult produced by a failed tool.
	IsError bool `json:"is_error,omitempty"`
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message, optionally requesting tools.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	msg := Message{Role: RoleAssistant, Content: content}
	if len(calls) > 0 {
		msg.ToolCalls = cloneToolCalls(calls)
	}
	return msg
}

// NewToolResult creates a message carrying the output of the tool call identified by callID.
func NewToolResult(callID, toolName, content string, isError bool) Message {
	return Message{
		Role:       RoleToolResult,
		Content:    content,
		ToolName:   toolName,
		ToolCallID: callID,
		IsError:    isError,
	}
}

// RequestsTool reports whether the message asks for a tool invocation.
// Only the structured ToolCalls field counts.
func (m Message) RequestsTool() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// clone returns a deep copy so callers cannot reach into stored history.
func (m Message) clone() Message {
	m.ToolCalls = cloneToolCalls(m.ToolCalls)
	return m
}

func cloneToolCalls(calls []ToolCall) []ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		out[i] = ToolCall{ID: c.ID, Name: c.Name, Args: maps.Clone(c.Args)}
	}
	return out
}
