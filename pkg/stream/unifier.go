package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/interrupt"
	"github.com/aretw0/tendril/pkg/ports"
)

// DefaultTodoTool is the tool name whose results carry todo-list payloads.
const DefaultTodoTool = "write_todos"

// DefaultReflectionTool is the tool name whose results carry reflection text.
const DefaultReflectionTool = "think_tool"

// Unifier turns native executor chunks into canonical domain Events.
// The zero value is not usable; construct with New.
type Unifier struct {
	skip        map[string]struct{}
	todoTool    string
	reflectTool string
	logger      *slog.Logger
}

// Option configures a Unifier.
type Option func(*Unifier)

// WithSkipTools replaces the set of tool names whose calls are hidden from
// the event stream. The default set hides the side-channel tools.
func WithSkipTools(names ...string) Option {
	return func(u *Unifier) {
		u.skip = make(map[string]struct{}, len(names))
		for _, n := range names {
			u.skip[n] = struct{}{}
		}
	}
}

// WithTodoTool overrides the tool name treated as the todo-list carrier.
func WithTodoTool(name string) Option {
	return func(u *Unifier) { u.todoTool = name }
}

// WithReflectionTool overrides the tool name treated as the reflection carrier.
func WithReflectionTool(name string) Option {
	return func(u *Unifier) { u.reflectTool = name }
}

// WithLogger sets the logger used for skipped and malformed chunks.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unifier) { u.logger = logger }
}

// New creates a Unifier with the default side-channel wiring.
func New(opts ...Option) *Unifier {
	u := &Unifier{
		skip: map[string]struct{}{
			DefaultTodoTool:       {},
			DefaultReflectionTool: {},
		},
		todoTool:    DefaultTodoTool,
		reflectTool: DefaultReflectionTool,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run drains src, invoking fn for every canonical event in order. It always
// finishes the sequence with exactly one terminal event: a complete event
// when src is exhausted, an error event when src fails. Source failures are
// absorbed into the error event; only fn errors and context cancellation are
// returned to the caller.
func (u *Unifier) Run(ctx context.Context, src ports.ChunkStream, fn func(domain.Event) error) error {
	defer src.Close()

	for {
		chunk, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fn(domain.Event{Status: domain.StatusComplete})
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			u.logger.Debug("executor stream failed", "error", err)
			return fn(domain.Event{Status: domain.StatusError, Error: err.Error()})
		}
		for _, ev := range u.Classify(chunk) {
			if err := fn(ev); err != nil {
				return err
			}
			if ev.Status == domain.StatusInterrupt {
				// The executor is paused; nothing further arrives until resume.
				return nil
			}
		}
	}
}

// Events drains src on a background goroutine and returns the canonical
// events as a channel. The channel is closed after the terminal event, or
// early if ctx is cancelled.
func (u *Unifier) Events(ctx context.Context, src ports.ChunkStream) <-chan domain.Event {
	ch := make(chan domain.Event)
	go func() {
		defer close(ch)
		err := u.Run(ctx, src, func(ev domain.Event) error {
			select {
			case ch <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			u.logger.Debug("event stream aborted", "error", err)
		}
	}()
	return ch
}

// Classify converts a single native chunk into zero or more events. Chunks
// that match no known shape produce no events.
func (u *Unifier) Classify(chunk domain.Chunk) []domain.Event {
	if raw, ok := chunk.RawInterrupt(); ok {
		norm := interrupt.Normalize(raw)
		return []domain.Event{{Status: domain.StatusInterrupt, Interrupt: &norm}}
	}

	var events []domain.Event
	for _, node := range sortedKeys(chunk) {
		update, ok := chunk[node].(map[string]any)
		if !ok {
			u.logger.Debug("skipping non-mapping node update", "node", node)
			continue
		}
		msgs, ok := asList(update["messages"])
		if !ok {
			continue
		}
		for _, msg := range msgs {
			events = append(events, u.classifyMessage(node, msg)...)
		}
	}
	return events
}

// classifyMessage emits the events for one message. A message that carries
// both text content and tool calls yields the content event first.
func (u *Unifier) classifyMessage(node string, raw any) []domain.Event {
	msg, ok := decodeMessage(raw)
	if !ok {
		u.logger.Debug("skipping undecodable message", "node", node)
		return nil
	}

	if msg.toolResult() {
		return u.classifyToolResult(node, msg)
	}

	var events []domain.Event
	if text, ok := extractText(msg.Content); ok && text != "" {
		events = append(events, domain.Event{
			Status: domain.StatusStreaming,
			Node:   node,
			Chunk:  text,
		})
	}
	if len(msg.ToolCalls) > 0 {
		calls := SerializeToolCalls(msg.ToolCalls, u.skipList()...)
		if len(calls) > 0 {
			events = append(events, domain.Event{
				Status:    domain.StatusStreaming,
				Node:      node,
				ToolCalls: calls,
			})
		}
	}
	return events
}

// classifyToolResult routes side-channel tool results to their dedicated
// event fields and surfaces everything else as a tool result.
func (u *Unifier) classifyToolResult(node string, msg message) []domain.Event {
	switch msg.Name {
	case u.todoTool:
		todos, ok := extractTodos(msg.Content)
		if !ok {
			u.logger.Debug("skipping unparseable todo payload", "node", node)
			return nil
		}
		return []domain.Event{{
			Status:   domain.StatusStreaming,
			Node:     node,
			TodoList: todos,
		}}
	case u.reflectTool:
		text, ok := extractReflection(msg.Content)
		if !ok || text == "" {
			u.logger.Debug("skipping empty reflection payload", "node", node)
			return nil
		}
		return []domain.Event{{
			Status:     domain.StatusStreaming,
			Node:       node,
			Reflection: text,
		}}
	default:
		result := stringifyContent(msg.Content)
		if result == "" {
			return nil
		}
		return []domain.Event{{
			Status:     domain.StatusStreaming,
			Node:       node,
			ToolResult: result,
		}}
	}
}

func (u *Unifier) skipList() []string {
	names := make([]string, 0, len(u.skip))
	for n := range u.skip {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(chunk domain.Chunk) []string {
	keys := make([]string, 0, len(chunk))
	for k := range chunk {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
