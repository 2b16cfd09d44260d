package stream_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/stream"
)

// scriptedStream replays a fixed chunk sequence, then reports err or io.EOF.
type scriptedStream struct {
	chunks []domain.Chunk
	err    error
	pos    int
	closed bool
}

func (s *scriptedStream) Next(ctx context.Context) (domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func collect(t *testing.T, u *stream.Unifier, src *scriptedStream) []domain.Event {
	t.Helper()
	var got []domain.Event
	err := u.Run(context.Background(), src, func(ev domain.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.True(t, src.closed, "source must be closed after Run")
	return got
}

func aiMessage(content string, calls ...map[string]any) map[string]any {
	msg := map[string]any{"type": "ai", "content": content}
	if len(calls) > 0 {
		raw := make([]any, len(calls))
		for i, c := range calls {
			raw[i] = c
		}
		msg["tool_calls"] = raw
	}
	return msg
}

func toolMessage(name string, content any) map[string]any {
	return map[string]any{"type": "tool", "name": name, "content": content}
}

func nodeChunk(node string, msgs ...map[string]any) domain.Chunk {
	raw := make([]any, len(msgs))
	for i, m := range msgs {
		raw[i] = m
	}
	return domain.Chunk{node: map[string]any{"messages": raw}}
}

func TestRunEmitsContentBeforeToolCalls(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage(
			"Let me check the weather.",
			map[string]any{"id": "call_1", "name": "get_weather", "args": map[string]any{"city": "Lisbon"}},
		)),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 3)
	assert.Equal(t, domain.StatusStreaming, got[0].Status)
	assert.Equal(t, "agent", got[0].Node)
	assert.Equal(t, "Let me check the weather.", got[0].Chunk)
	assert.Empty(t, got[0].ToolCalls)

	require.Len(t, got[1].ToolCalls, 1)
	assert.Equal(t, "get_weather", got[1].ToolCalls[0].Name)
	assert.Equal(t, "call_1", got[1].ToolCalls[0].ID)
	assert.Empty(t, got[1].Chunk)

	assert.Equal(t, domain.StatusComplete, got[2].Status)
}

func TestRunEndsWithSingleCompleteEvent(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("one")),
		nodeChunk("agent", aiMessage("two")),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Chunk)
	assert.Equal(t, "two", got[1].Chunk)
	assert.Equal(t, domain.StatusComplete, got[2].Status)
	for _, ev := range got[:2] {
		assert.False(t, ev.Terminal())
	}
}

func TestRunConvertsStreamFailureToErrorEvent(t *testing.T) {
	src := &scriptedStream{
		chunks: []domain.Chunk{nodeChunk("agent", aiMessage("partial"))},
		err:    errors.New("executor exited with code 1"),
	}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0].Chunk)
	assert.Equal(t, domain.StatusError, got[1].Status)
	assert.Contains(t, got[1].Error, "exited with code 1")
}

func TestRunStopsAtInterrupt(t *testing.T) {
	raw := []any{
		[]any{map[string]any{
			"tool":         "delete_file",
			"tool_call_id": "call_9",
			"args":         map[string]any{"path": "/tmp/x"},
		}},
		[]any{map[string]any{"allowed_decisions": []any{"approve", "reject"}}},
	}
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("About to delete.")),
		{domain.InterruptKey: raw},
		nodeChunk("agent", aiMessage("never reached")),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusInterrupt, got[1].Status)
	require.NotNil(t, got[1].Interrupt)
	require.Len(t, got[1].Interrupt.ActionRequests, 1)
	assert.Equal(t, "delete_file", got[1].Interrupt.ActionRequests[0].Tool)
	require.Len(t, got[1].Interrupt.ReviewConfigs, 1)
	assert.Equal(t, []string{"approve", "reject"}, got[1].Interrupt.ReviewConfigs[0].AllowedDecisions)
	assert.True(t, got[1].Terminal())
}

func TestRunHidesSideChannelToolCalls(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("",
			map[string]any{"id": "c1", "name": "write_todos"},
			map[string]any{"id": "c2", "name": "search"},
			map[string]any{"id": "c3", "name": "think_tool"},
			map[string]any{"id": "c4", "name": "fetch"},
		)),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	require.Len(t, got[0].ToolCalls, 2)
	assert.Equal(t, "search", got[0].ToolCalls[0].Name)
	assert.Equal(t, "fetch", got[0].ToolCalls[1].Name)
}

func TestRunRoutesTodoResultsToSideChannel(t *testing.T) {
	payload := "Updated todo list to [{'content': 'Research weather', 'status': 'pending'}, {'content': 'Report back', 'status': 'in_progress'}]"
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("tools", toolMessage("write_todos", payload)),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	require.Len(t, got[0].TodoList, 2)
	assert.Equal(t, "Research weather", got[0].TodoList[0].Content)
	assert.Equal(t, domain.TodoPending, got[0].TodoList[0].Status)
	assert.Equal(t, domain.TodoInProgress, got[0].TodoList[1].Status)
	assert.Empty(t, got[0].ToolResult)
}

func TestRunRoutesReflectionToSideChannel(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("tools", toolMessage("think_tool", "The plan still holds.")),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	assert.Equal(t, "The plan still holds.", got[0].Reflection)
	assert.Empty(t, got[0].ToolResult)
}

func TestRunSurfacesOrdinaryToolResults(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("tools", toolMessage("get_weather", "Sunny, 24C")),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 2)
	assert.Equal(t, "Sunny, 24C", got[0].ToolResult)
	assert.Equal(t, "tools", got[0].Node)
}

func TestRunOrdersNodesDeterministically(t *testing.T) {
	chunk := domain.Chunk{
		"research": map[string]any{"messages": []any{aiMessage("from research")}},
		"agent":    map[string]any{"messages": []any{aiMessage("from agent")}},
	}
	src := &scriptedStream{chunks: []domain.Chunk{chunk}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 3)
	assert.Equal(t, "agent", got[0].Node)
	assert.Equal(t, "research", got[1].Node)
}

func TestRunSkipsUnrecognizedUpdates(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		{"agent": "not a mapping"},
		{"agent": map[string]any{"values": 42}},
		nodeChunk("agent", map[string]any{"type": "ai"}),
	}}

	got := collect(t, stream.New(), src)

	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusComplete, got[0].Status)
}

func TestRunPropagatesHandlerErrors(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("hello")),
	}}
	sentinel := errors.New("broken pipe")

	err := stream.New().Run(context.Background(), src, func(domain.Event) error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.True(t, src.closed)
}

func TestRunReturnsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("hello")),
	}}

	err := stream.New().Run(ctx, src, func(domain.Event) error { return nil })

	require.ErrorIs(t, err, context.Canceled)
}

func TestWithSkipToolsReplacesDefaults(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("",
			map[string]any{"id": "c1", "name": "write_todos"},
			map[string]any{"id": "c2", "name": "secret_tool"},
		)),
	}}

	got := collect(t, stream.New(stream.WithSkipTools("secret_tool")), src)

	require.Len(t, got, 2)
	require.Len(t, got[0].ToolCalls, 1)
	assert.Equal(t, "write_todos", got[0].ToolCalls[0].Name)
}

func TestEventsClosesChannelAfterTerminal(t *testing.T) {
	src := &scriptedStream{chunks: []domain.Chunk{
		nodeChunk("agent", aiMessage("streamed")),
	}}

	var got []domain.Event
	for ev := range stream.New().Events(context.Background(), src) {
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "streamed", got[0].Chunk)
	assert.True(t, got[len(got)-1].Terminal())
	assert.True(t, src.closed)
}
