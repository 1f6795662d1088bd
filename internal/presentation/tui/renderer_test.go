package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(WithStyle("notty"), WithProfile(termenv.Ascii), WithWordWrap(80))
	require.NoError(t, err)
	return r
}

func TestRenderer_Message(t *testing.T) {
	r := plain(t)

	out, err := r.Message(domain.NewUserMessage("hi"))
	require.NoError(t, err)
	assert.Equal(t, "You: hi", out)

	out, err = r.Message(domain.NewAssistantMessage("# Title\n\nSome **bold** text"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Assistant:\n"))
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")

	out, err = r.Message(domain.NewAssistantMessage("", domain.ToolCall{ID: "1", Name: "web_search"}))
	require.NoError(t, err)
	assert.Equal(t, "Assistant: calling web_search", out)

	out, err = r.Message(domain.NewToolResult("1", "web_search", "line one\nline two", false))
	require.NoError(t, err)
	assert.Equal(t, "Tool web_search: line one line two", out)

	out, err = r.Message(domain.NewToolResult("1", "web_search", "quota", true))
	require.NoError(t, err)
	assert.Equal(t, "Tool web_search failed: quota", out)

	_, err = r.Message(domain.Message{Role: "system"})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii, "v0.1.0")
	out := buf.String()
	assert.Contains(t, out, "|___/")
	assert.Contains(t, out, "v0.1.0")
	assert.NotContains(t, out, "\x1b[", "ascii profile emits no escape codes")
}
