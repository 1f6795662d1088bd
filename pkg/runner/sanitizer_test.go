package runner

import (
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
		{"CRLF", "one\r\ntwo\rthree", "one\ntwo\nthree"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("12345678901")
	assert.Error(t, err)

	_, err = SanitizeInput("12345")
	assert.NoError(t, err)
	assert.Equal(t, 10, MaxInputSize())

	t.Setenv(EnvMaxInputSize, "not-a-number")
	assert.Equal(t, DefaultMaxInputSize, MaxInputSize())
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizer_ExplicitLimit(t *testing.T) {
	s := Sanitizer{MaxSize: 3}
	_, err := s.Input("abcd")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := Sanitizer{}.Input(strings.Repeat("a", DefaultMaxInputSize))
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxInputSize)
}

func TestSanitizer_Conversation(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("\x1b[2Jhello"),
		domain.NewAssistantMessage("raw\x07 reply"),
		domain.NewUserMessage("again\r\n"),
	)
	require.NoError(t, err)

	clean, err := Sanitizer{}.Conversation(conv)
	require.NoError(t, err)
	msgs := clean.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "[2Jhello", msgs[0].Content)
	assert.Equal(t, "raw\x07 reply", msgs[1].Content, "model output is not rewritten")
	assert.Equal(t, "again\n", msgs[2].Content)
	assert.Equal(t, "\x1b[2Jhello", conv.Messages()[0].Content, "the input conversation is untouched")

	_, err = Sanitizer{MaxSize: 4}.Conversation(conv)
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.ErrorContains(t, err, "message 0")

	none, err := Sanitizer{}.Conversation(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}
