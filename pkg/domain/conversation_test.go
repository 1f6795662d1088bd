package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_AppendUserAfterUncommittedToolResult(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("what's the weather?"),
		domain.NewAssistantMessage("", domain.ToolCall{ID: "c1", Name: "web_search"}),
		domain.NewToolResult("c1", "web_search", "sunny", false),
	)
	require.NoError(t, err)

	err = conv.Append(domain.NewUserMessage("and tomorrow?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var stateErr *domain.InvalidStateError
	assert.True(t, errors.As(err, &stateErr))
	assert.Equal(t, 3, conv.Len(), "failed append must not change history")
}

func TestConversation_AppendUserAfterUnansweredRequest(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("search please"),
		domain.NewAssistantMessage("", domain.ToolCall{ID: "c1", Name: "web_search"}),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, conv.Append(domain.NewUserMessage("hello?")), domain.ErrInvalidState)
}

func TestConversation_AppendOnCleanState(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("first"),
		domain.NewAssistantMessage("", domain.ToolCall{ID: "c1", Name: "web_search"}),
		domain.NewToolResult("c1", "web_search", "result", false),
		domain.NewAssistantMessage("answer"),
	)
	require.NoError(t, err)

	require.NoError(t, conv.Append(domain.NewUserMessage("second")))

	msgs := conv.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, domain.RoleToolResult, msgs[2].Role)
	assert.Equal(t, "answer", msgs[3].Content)
	assert.Equal(t, "second", msgs[4].Content)
}

func TestConversation_MentioningToolsInProseIsNotARequest(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("can you search?"),
		domain.NewAssistantMessage(`I could call the web_search tool: {"name":"web_search"}`),
	)
	require.NoError(t, err)

	last, _ := conv.Last()
	assert.False(t, last.RequestsTool())
	assert.False(t, conv.HasUncommittedToolCall())
	assert.NoError(t, conv.Append(domain.NewUserMessage("ok")))
}

func TestConversation_ToolResultMustAnswerPendingCall(t *testing.T) {
	conv, err := domain.NewConversation(domain.NewUserMessage("hi"))
	require.NoError(t, err)

	err = conv.Append(domain.NewToolResult("ghost", "web_search", "x", false))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestConversation_PendingToolCalls(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("compare"),
		domain.NewAssistantMessage("",
			domain.ToolCall{ID: "a", Name: "web_search"},
			domain.ToolCall{ID: "b", Name: "web_search"},
		),
		domain.NewToolResult("a", "web_search", "first", false),
	)
	require.NoError(t, err)

	pending := conv.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestConversation_SnapshotIsIndependent(t *testing.T) {
	conv, err := domain.NewConversation(
		domain.NewUserMessage("q"),
		domain.NewAssistantMessage("", domain.ToolCall{ID: "c1", Name: "t", Args: map[string]any{"q": "x"}}),
	)
	require.NoError(t, err)

	snap := conv.Snapshot()
	require.NoError(t, conv.Append(domain.NewToolResult("c1", "t", "done", false)))

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 3, conv.Len())

	msgs := snap.Messages()
	msgs[1].ToolCalls[0].Args["q"] = "mutated"
	again := snap.Messages()
	assert.Equal(t, "x", again[1].ToolCalls[0].Args["q"])
}

func TestConversation_JSONRoundTripRevalidates(t *testing.T) {
	var conv domain.Conversation
	bad := `[{"role":"user","content":"a"},{"role":"tool","content":"x","tool_call_id":"nope"}]`
	assert.ErrorIs(t, json.Unmarshal([]byte(bad), &conv), domain.ErrInvalidState)

	good := `[{"role":"user","content":"a"},{"role":"assistant","content":"b"}]`
	require.NoError(t, json.Unmarshal([]byte(good), &conv))
	assert.Equal(t, 2, conv.Len())
}

func TestConversation_RejectsUnknownRole(t *testing.T) {
	conv, err := domain.NewConversation()
	require.NoError(t, err)
	assert.ErrorIs(t, conv.Append(domain.Message{Role: "system", Content: "x"}), domain.ErrInvalidState)
}
