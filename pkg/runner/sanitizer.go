package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/parley/pkg/domain"
)

const (
	// DefaultMaxInputSize bounds one user message, in bytes.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "PARLEY_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer cleans what a person types before it becomes a user message.
// The zero value uses DefaultMaxInputSize.
type Sanitizer struct {
	MaxSize int
}

// NewSanitizer returns a sanitizer honoring PARLEY_MAX_INPUT_SIZE.
func NewSanitizer() Sanitizer {
	return Sanitizer{MaxSize: MaxInputSize()}
}

func (s Sanitizer) limit() int {
	if s.MaxSize > 0 {
		return s.MaxSize
	}
	return DefaultMaxInputSize
}

// Input rejects oversized or non UTF-8 text, folds CRLF and lone CR into LF,
// and drops control characters other than newline and tab. Oversized input is
// refused, never truncated.
func (s Sanitizer) Input(input string) (string, error) {
	if n := len(input); n > s.limit() {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, s.limit())
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.ContainsRune(input, '\r') {
		input = strings.ReplaceAll(input, "\r\n", "\n")
		input = strings.ReplaceAll(input, "\r", "\n")
	}
	if strings.IndexFunc(input, dropped) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if dropped(r) {
			return -1
		}
		return r
	}, input), nil
}

// Conversation returns a copy of conv whose user messages went through Input.
// Assistant and tool messages are kept as produced. Presenters use it for
// client-supplied history, which is as untrusted as the new input.
func (s Sanitizer) Conversation(conv *domain.Conversation) (*domain.Conversation, error) {
	if conv == nil {
		return nil, nil
	}
	msgs := conv.Messages()
	for i, m := range msgs {
		if m.Role != domain.RoleUser {
			continue
		}
		clean, err := s.Input(m.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i].Content = clean
	}
	return domain.NewConversation(msgs...)
}

// SanitizeInput applies NewSanitizer().Input.
// Every presenter (CLI, HTTP, MCP) calls it before handing input to the orchestrator.
func SanitizeInput(input string) (string, error) {
	return NewSanitizer().Input(input)
}

// SanitizeConversation applies NewSanitizer().Conversation.
func SanitizeConversation(conv *domain.Conversation) (*domain.Conversation, error) {
	return NewSanitizer().Conversation(conv)
}

func dropped(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}

// MaxInputSize returns the effective input limit in bytes.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
