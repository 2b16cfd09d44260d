package memory

import (
	"context"
	"io"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Call records one executor entry for later assertions.
type Call struct {
	Op        string
	Input     domain.AgentInput
	Decisions []domain.Decision
	Options   ports.InvokeOptions
}

// ScriptedExecutor replays canned chunk sequences, one per turn. It stands in
// for a real graph command in tests, examples, and offline demos. Turns are
// consumed in order by Invoke and Resume alike; once exhausted, further turns
// stream nothing and end cleanly.
type ScriptedExecutor struct {
	// StreamErr, when set, ends every scripted stream with this error
	// instead of a clean EOF.
	StreamErr error

	// CallErr, when set, fails Invoke and Resume outright.
	CallErr error

	mu    sync.Mutex
	turns [][]domain.Chunk
	next  int
	calls []Call
}

// NewScriptedExecutor builds an executor that replays the given turns.
func NewScriptedExecutor(turns ...[]domain.Chunk) *ScriptedExecutor {
	return &ScriptedExecutor{turns: turns}
}

// Invoke starts one scripted turn.
func (e *ScriptedExecutor) Invoke(ctx context.Context, input domain.AgentInput, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return e.take(Call{Op: "invoke", Input: input, Options: opts})
}

// Resume continues with the next scripted turn.
func (e *ScriptedExecutor) Resume(ctx context.Context, decisions []domain.Decision, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return e.take(Call{Op: "resume", Decisions: decisions, Options: opts})
}

// Calls returns the recorded executor entries in order.
func (e *ScriptedExecutor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

func (e *ScriptedExecutor) take(call Call) (ports.ChunkStream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, call)
	if e.CallErr != nil {
		return nil, e.CallErr
	}

	var chunks []domain.Chunk
	if e.next < len(e.turns) {
		chunks = e.turns[e.next]
		e.next++
	}
	return &scriptedStream{chunks: chunks, err: e.StreamErr}, nil
}

// scriptedStream serves one turn's chunks in order.
type scriptedStream struct {
	chunks []domain.Chunk
	err    error
	pos    int
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

func (s *scriptedStream) Close() error { return nil }

// TextChunk builds a node update carrying one AI text message.
func TextChunk(node, text string) domain.Chunk {
	return domain.Chunk{
		node: map[string]any{
			"messages": []any{
				map[string]any{"type": "ai", "content": text},
			},
		},
	}
}

// ToolCallChunk builds a node update carrying one AI tool call.
func ToolCallChunk(node, id, name string, args map[string]any) domain.Chunk {
	if args == nil {
		args = map[string]any{}
	}
	return domain.Chunk{
		node: map[string]any{
			"messages": []any{
				map[string]any{
					"type": "ai",
					"tool_calls": []any{
						map[string]any{"id": id, "name": name, "args": args},
					},
				},
			},
		},
	}
}

// ToolResultChunk builds a node update carrying one tool message.
func ToolResultChunk(node, name, content string) domain.Chunk {
	return domain.Chunk{
		node: map[string]any{
			"messages": []any{
				map[string]any{"type": "tool", "name": name, "content": content},
			},
		},
	}
}

// InterruptChunk builds an interrupt marker from canonical parts.
func InterruptChunk(requests []domain.ActionRequest, configs []domain.ReviewConfig) domain.Chunk {
	return domain.Chunk{
		domain.InterruptKey: []any{requests, configs},
	}
}
