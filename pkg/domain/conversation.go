package domain

import (
	"encoding/json"
	"fmt"
)

// Conversation is the ordered, append-only message history threaded through a turn.
// It is not safe for concurrent mutation: the orchestrator owns it while a turn runs
// and hands out Snapshots.
type Conversation struct {
	messages []Message
}

// NewConversation builds a conversation by appending msgs in order.
func NewConversation(msgs ...Message) (*Conversation, error) {
	c := &Conversation{messages: make([]Message, 0, len(msgs))}
	for _, m := range msgs {
		if err := c.Append(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Append adds msg to the end of the history.
// A user message cannot follow an uncommitted tool call.
func (c *Conversation) Append(msg Message) error {
	if !msg.Role.Valid() {
		return &InvalidStateError{Reason: fmt.Sprintf("unknown role %q", msg.Role)}
	}

	switch msg.Role {
	case RoleUser:
		if c.HasUncommittedToolCall() {
			return &InvalidStateError{Reason: "user message appended while a tool call is uncommitted"}
		}
	case RoleToolResult:
		if msg.ToolCallID != "" && !c.isPending(msg.ToolCallID) {
			return &InvalidStateError{Reason: fmt.Sprintf("tool result %q does not answer a pending tool call", msg.ToolCallID)}
		}
	}

	c.messages = append(c.messages, msg.clone())
	return nil
}

// HasUncommittedToolCall reports whether the history ends inside a tool exchange:
// either a ToolResult not yet followed by an Assistant message, or an Assistant
// message whose tool requests were not answered.
func (c *Conversation) HasUncommittedToolCall() bool {
	last, ok := c.Last()
	if !ok {
		return false
	}
	switch last.Role {
	case RoleToolResult:
		return true
	case RoleAssistant:
		return last.RequestsTool()
	}
	return false
}

// PendingToolCalls returns the tool calls of the latest assistant message that
// have no matching ToolResult yet.
func (c *Conversation) PendingToolCalls() []ToolCall {
	idx := -1
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 || !c.messages[idx].RequestsTool() {
		return nil
	}

	answered := make(map[string]bool)
	for _, m := range c.messages[idx+1:] {
		if m.Role == RoleToolResult {
			answered[m.ToolCallID] = true
		}
	}

	var pending []ToolCall
	for _, call := range c.messages[idx].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return cloneToolCalls(pending)
}

func (c *Conversation) isPending(callID string) bool {
	for _, call := range c.PendingToolCalls() {
		if call.ID == callID {
			return true
		}
	}
	return false
}

// Snapshot returns an independent copy of the conversation.
func (c *Conversation) Snapshot() *Conversation {
	return &Conversation{messages: c.Messages()}
}

// Messages returns a copy of the history in causal order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1].clone(), true
}

// MarshalJSON encodes the conversation as a JSON array of messages.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	if c == nil || c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

// UnmarshalJSON decodes a JSON array of messages, re-checking the ordering rules.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	decoded, err := NewConversation(msgs...)
	if err != nil {
		return err
	}
	c.messages = decoded.messages
	return nil
}
