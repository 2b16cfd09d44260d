package memory_test

import (
	"context"
	"io"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src ports.ChunkStream) []domain.Chunk {
	t.Helper()
	defer func() { _ = src.Close() }()

	var chunks []domain.Chunk
	for {
		chunk, err := src.Next(context.Background())
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestScriptedExecutorReplaysTurns(t *testing.T) {
	exec := memory.NewScriptedExecutor(
		[]domain.Chunk{
			memory.TextChunk("agent", "thinking it over"),
			memory.InterruptChunk(
				[]domain.ActionRequest{{Tool: "deploy", ToolCallID: "call_1", Args: map[string]any{"env": "prod"}}},
				[]domain.ReviewConfig{{AllowedDecisions: []string{"approve", "reject"}}},
			),
		},
		[]domain.Chunk{
			memory.TextChunk("agent", "deployed"),
		},
	)

	input := domain.AgentInput{Messages: []domain.Message{{Role: domain.RoleUser, Content: "ship it"}}}
	cfg := domain.RunConfig{}
	cfg.SetThreadID("t1")
	opts := ports.InvokeOptions{Config: cfg, StreamMode: "updates"}

	src, err := exec.Invoke(context.Background(), input, opts)
	require.NoError(t, err)
	first := drain(t, src)
	require.Len(t, first, 2)
	_, isInterrupt := first[1].RawInterrupt()
	assert.True(t, isInterrupt)

	decisions := []domain.Decision{domain.NewDecision(domain.DecisionApprove)}
	src, err = exec.Resume(context.Background(), decisions, opts)
	require.NoError(t, err)
	second := drain(t, src)
	require.Len(t, second, 1)

	calls := exec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "invoke", calls[0].Op)
	assert.Equal(t, input, calls[0].Input)
	assert.Equal(t, opts, calls[0].Options)
	assert.Equal(t, "resume", calls[1].Op)
	require.Len(t, calls[1].Decisions, 1)
	assert.Equal(t, domain.DecisionApprove, calls[1].Decisions[0].Type())
}

func TestScriptedExecutorExhaustedTurnsAreEmpty(t *testing.T) {
	exec := memory.NewScriptedExecutor()

	src, err := exec.Invoke(context.Background(), domain.AgentInput{}, ports.InvokeOptions{})
	require.NoError(t, err)
	assert.Empty(t, drain(t, src))
}

func TestScriptedExecutorStreamErr(t *testing.T) {
	exec := memory.NewScriptedExecutor([]domain.Chunk{memory.TextChunk("agent", "partial")})
	exec.StreamErr = io.ErrUnexpectedEOF

	src, err := exec.Invoke(context.Background(), domain.AgentInput{}, ports.InvokeOptions{})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	_, err = src.Next(context.Background())
	require.NoError(t, err)
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestScriptedExecutorCallErr(t *testing.T) {
	exec := memory.NewScriptedExecutor([]domain.Chunk{memory.TextChunk("agent", "never served")})
	exec.CallErr = io.ErrClosedPipe

	_, err := exec.Invoke(context.Background(), domain.AgentInput{}, ports.InvokeOptions{})
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	// The attempt is still recorded.
	assert.Len(t, exec.Calls(), 1)
}

func TestScriptedStreamHonorsContext(t *testing.T) {
	exec := memory.NewScriptedExecutor([]domain.Chunk{memory.TextChunk("agent", "hi")})

	src, err := exec.Invoke(context.Background(), domain.AgentInput{}, ports.InvokeOptions{})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkBuildersClassify(t *testing.T) {
	u := stream.New()

	events := u.Classify(memory.TextChunk("planner", "drafting a plan"))
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusStreaming, events[0].Status)
	assert.Equal(t, "planner", events[0].Node)
	assert.Equal(t, "drafting a plan", events[0].Chunk)

	events = u.Classify(memory.ToolCallChunk("agent", "call_7", "search", map[string]any{"query": "go releases"}))
	require.Len(t, events, 1)
	require.Len(t, events[0].ToolCalls, 1)
	assert.Equal(t, domain.ToolCall{ID: "call_7", Name: "search", Args: map[string]any{"query": "go releases"}}, events[0].ToolCalls[0])

	events = u.Classify(memory.ToolResultChunk("tools", "search", "3 results"))
	require.Len(t, events, 1)
	assert.Equal(t, "3 results", events[0].ToolResult)

	events = u.Classify(memory.InterruptChunk(
		[]domain.ActionRequest{{Tool: "rm", ToolCallID: "call_0", Args: map[string]any{}}},
		[]domain.ReviewConfig{{AllowedDecisions: []string{"reject"}}},
	))
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusInterrupt, events[0].Status)
	require.NotNil(t, events[0].Interrupt)
	require.Len(t, events[0].Interrupt.ActionRequests, 1)
	assert.Equal(t, "rm", events[0].Interrupt.ActionRequests[0].Tool)
	require.Len(t, events[0].Interrupt.ReviewConfigs, 1)
	assert.Equal(t, []string{"reject"}, events[0].Interrupt.ReviewConfigs[0].AllowedDecisions)
}
