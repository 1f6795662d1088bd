package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Render presents role-tagged messages to the user.
	ports.Renderer

	// Input reads one line from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, warnings, errors).
	// This is distinct from conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a message into the text shown to the user.
// This allows TUI rendering (markdown to ANSI) without coupling this package to it.
type ContentRenderer func(msg domain.Message) (string, error)

// PlainRenderer labels each message with its role.
func PlainRenderer(msg domain.Message) (string, error) {
	switch msg.Role {
	case domain.RoleUser:
		return "You: " + msg.Content, nil
	case domain.RoleAssistant:
		if msg.RequestsTool() {
			return fmt.Sprintf("Assistant: calling %s", toolNames(msg.ToolCalls)), nil
		}
		return "Assistant: " + msg.Content, nil
	case domain.RoleToolResult:
		if msg.IsError {
			return fmt.Sprintf("Tool %s failed: %s", msg.ToolName, msg.Content), nil
		}
		return fmt.Sprintf("Tool %s: %s", msg.ToolName, msg.Content), nil
	default:
		return "", fmt.Errorf("unknown role %q", msg.Role)
	}
}

func toolNames(calls []domain.ToolCall) string {
	s := ""
	for i, c := range calls {
		if i > 0 {
			s += ", "
		}
		s += c.Name
	}
	return s
}
