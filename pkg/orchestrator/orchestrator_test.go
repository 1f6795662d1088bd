package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/artifact"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/orchestrator"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoModel() ports.ModelFactory {
	return ports.ModelFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.ChatModel, error) {
		return ports.ChatModelFunc(func(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
			last, _ := conv.Last()
			return domain.NewAssistantMessage("you said: " + last.Content), nil
		}), nil
	})
}

// toolRequestingModel requests web_search `times` times (forever if negative),
// then answers.
func toolRequestingModel(times int) ports.ModelFactory {
	return ports.ModelFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.ChatModel, error) {
		calls := 0
		return ports.ChatModelFunc(func(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
			calls++
			if times < 0 || calls <= times {
				return domain.NewAssistantMessage("", domain.ToolCall{
					ID:   fmt.Sprintf("call-%d", calls),
					Name: "web_search",
					Args: map[string]any{"query": "go"},
				}), nil
			}
			return domain.NewAssistantMessage("done"), nil
		}), nil
	})
}

func toolFactory() ports.ToolInvokerFactory {
	return ports.ToolInvokerFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.ToolInvoker, error) {
		reg := registry.NewRegistry()
		reg.Register(domain.Tool{Name: "web_search"}, func(ctx context.Context, args map[string]any) (any, error) {
			return "results for " + fmt.Sprint(args["query"]), nil
		})
		return reg, nil
	})
}

func summarizerOf(content string) ports.SummarizerFactory {
	return ports.SummarizerFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.Summarizer, error) {
		return ports.SummarizerFunc(func(ctx context.Context, f domain.Frequency) (string, error) {
			return content, nil
		}), nil
	})
}

func TestRun_Basic(t *testing.T) {
	orc, err := orchestrator.New(orchestrator.WithModelFactory(echoModel()))
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: "hello"})
	require.NoError(t, err)

	msgs := res.Conversation.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, 1, res.Steps)
	assert.False(t, res.Degraded)
}

func TestRun_AliasesResolveCaseInsensitively(t *testing.T) {
	orc, err := orchestrator.New(orchestrator.WithModelFactory(echoModel()), orchestrator.WithAlias("Simple", "basic"))
	require.NoError(t, err)

	for _, name := range []string{"Basic Chatbot", "basic chatbot", " BASIC ", "simple"} {
		res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: name, Input: "hi"})
		require.NoError(t, err, name)
		assert.Equal(t, "basic", res.UseCase)
	}
}

func TestRun_UnknownUseCase(t *testing.T) {
	called := false
	models := ports.ModelFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.ChatModel, error) {
		called = true
		return nil, errors.New("unreachable")
	})
	orc, err := orchestrator.New(orchestrator.WithModelFactory(models))
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "poetry", Input: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnknownUseCase)

	var unknown *domain.UnknownUseCaseError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"basic", "tools", "summary"}, unknown.Known)
	assert.False(t, called, "nothing executes for an unknown use case")
}

func TestRun_ToolLoopTwice(t *testing.T) {
	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(toolRequestingModel(2)),
		orchestrator.WithToolFactory(toolFactory()),
	)
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "Chatbot With Web", Input: "search"})
	require.NoError(t, err)

	var roles []domain.Role
	for _, m := range res.Conversation.Messages() {
		if m.Role != domain.RoleUser && !m.RequestsTool() {
			roles = append(roles, m.Role)
		}
	}
	assert.Equal(t, []domain.Role{domain.RoleToolResult, domain.RoleToolResult, domain.RoleAssistant}, roles)

	last, _ := res.Conversation.Last()
	assert.Equal(t, "done", last.Content)
}

func TestRun_IterationLimitIsDegraded(t *testing.T) {
	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(toolRequestingModel(-1)),
		orchestrator.WithToolFactory(toolFactory()),
		orchestrator.WithMaxIterations(3),
	)
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "tools", Input: "loop"})
	assert.ErrorIs(t, err, domain.ErrIterationLimitExceeded)
	require.NotNil(t, res)
	assert.True(t, res.Degraded)
	assert.Greater(t, res.Conversation.Len(), 1)
}

func TestRun_NodeFailureCarriesPartialState(t *testing.T) {
	boom := errors.New("model down")
	models := ports.ModelFactoryFunc(func(ctx context.Context, rc domain.RequestContext) (ports.ChatModel, error) {
		return ports.ChatModelFunc(func(ctx context.Context, conv *domain.Conversation, tools []domain.Tool) (domain.Message, error) {
			return domain.Message{}, boom
		}), nil
	})
	orc, err := orchestrator.New(orchestrator.WithModelFactory(models))
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)

	var nodeErr *domain.NodeExecutionError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "chat", nodeErr.Node)
	assert.Equal(t, 1, nodeErr.Partial.Len())
}

func TestRun_PriorConversation(t *testing.T) {
	orc, err := orchestrator.New(orchestrator.WithModelFactory(echoModel()))
	require.NoError(t, err)

	prior, err := domain.NewConversation(domain.NewUserMessage("first"), domain.NewAssistantMessage("ok"))
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: "second", Conversation: prior})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Conversation.Len())
	assert.Equal(t, 2, prior.Len(), "caller's conversation is not mutated")

	pending, err := domain.NewConversation(domain.NewUserMessage("x"), domain.NewAssistantMessage("", domain.ToolCall{ID: "c", Name: "t"}))
	require.NoError(t, err)
	_, err = orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: "y", Conversation: pending})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRun_Summary(t *testing.T) {
	store := artifact.NewManager(memory.NewStore())
	orc, err := orchestrator.New(
		orchestrator.WithSummarizerFactory(summarizerOf("X")),
		orchestrator.WithArtifactStore(store),
	)
	require.NoError(t, err)

	res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "summary", Input: "Daily"})
	require.NoError(t, err)
	require.NotNil(t, res.Artifact)
	assert.Equal(t, "daily", res.Artifact.Key)
	assert.Equal(t, domain.Daily, res.Artifact.Frequency)
	assert.Equal(t, "summary", res.UseCase)
	assert.Nil(t, res.Conversation)

	a, err := orc.Artifact(context.Background(), domain.Daily)
	require.NoError(t, err)
	assert.Equal(t, "X", a.Content)
	assert.Equal(t, domain.Daily, a.Ref.Frequency)

	_, err = orc.Artifact(context.Background(), domain.Weekly)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	_, err = orc.Run(context.Background(), domain.TurnRequest{UseCase: "AI News", Input: "yearly"})
	assert.ErrorIs(t, err, domain.ErrInvalidFrequency)
	assert.ErrorContains(t, err, "invalid frequency")
}

func TestStream_Incremental(t *testing.T) {
	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(toolRequestingModel(1)),
		orchestrator.WithToolFactory(toolFactory()),
	)
	require.NoError(t, err)

	var nodes []string
	var sizes []int
	for update, err := range orc.Stream(context.Background(), domain.TurnRequest{UseCase: "tools", Input: "x"}) {
		require.NoError(t, err)
		assert.Equal(t, "tools", update.UseCase)
		nodes = append(nodes, update.Node)
		sizes = append(sizes, update.Conversation.Len())
	}
	assert.Equal(t, []string{"chat", "tools", "chat"}, nodes)
	assert.Equal(t, []int{2, 3, 4}, sizes)
}

func TestStream_EarlyStopKeepsEmittedState(t *testing.T) {
	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(toolRequestingModel(-1)),
		orchestrator.WithToolFactory(toolFactory()),
	)
	require.NoError(t, err)

	var first *domain.Conversation
	for update, err := range orc.Stream(context.Background(), domain.TurnRequest{UseCase: "tools", Input: "x"}) {
		require.NoError(t, err)
		first = update.Conversation
		break
	}
	require.NotNil(t, first)
	assert.Equal(t, 2, first.Len())
}

func TestStream_UnknownUseCaseYieldsOnce(t *testing.T) {
	orc, err := orchestrator.New()
	require.NoError(t, err)

	count := 0
	for _, err := range orc.Stream(context.Background(), domain.TurnRequest{UseCase: "nope", Input: "x"}) {
		count++
		assert.ErrorIs(t, err, domain.ErrUnknownUseCase)
	}
	assert.Equal(t, 1, count)
}

func TestHooks_TurnDone(t *testing.T) {
	var mu sync.Mutex
	var events []*domain.TurnEvent
	hooks := domain.LifecycleHooks{OnTurnDone: func(ctx context.Context, e *domain.TurnEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}}
	orc, err := orchestrator.New(
		orchestrator.WithModelFactory(echoModel()),
		orchestrator.WithLifecycleHooks(hooks),
		orchestrator.WithIDGenerator(func() string { return "req-42" }),
	)
	require.NoError(t, err)

	_, err = orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: "hi"})
	require.NoError(t, err)
	_, _ = orc.Run(context.Background(), domain.TurnRequest{UseCase: "missing", Input: "hi"})

	require.Len(t, events, 2)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "basic", events[0].UseCase)
	assert.Equal(t, 1, events[0].Steps)
	assert.ErrorIs(t, events[1].Err, domain.ErrUnknownUseCase)
}

func TestConcurrentTurnsAreIsolated(t *testing.T) {
	orc, err := orchestrator.New(orchestrator.WithModelFactory(echoModel()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := fmt.Sprintf("msg-%d", i)
			res, err := orc.Run(context.Background(), domain.TurnRequest{UseCase: "basic", Input: input})
			if assert.NoError(t, err) {
				msgs := res.Conversation.Messages()
				assert.Len(t, msgs, 2)
				assert.Equal(t, input, msgs[0].Content)
				assert.Equal(t, "you said: "+input, msgs[1].Content)
			}
		}(i)
	}
	wg.Wait()
}

func TestNew_Validation(t *testing.T) {
	_, err := orchestrator.New(orchestrator.WithAlias("x", "missing"))
	assert.Error(t, err)

	_, err = orchestrator.New(orchestrator.WithUseCase(orchestrator.UseCase{ID: "custom"}))
	assert.ErrorContains(t, err, "missing Build")
}

func TestGraph_Introspection(t *testing.T) {
	orc, err := orchestrator.New()
	require.NoError(t, err)

	g, err := orc.Graph(context.Background(), "tools")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "tools"}, g.Nodes())

	_, err = orc.Graph(context.Background(), "summary")
	assert.Error(t, err)
}
