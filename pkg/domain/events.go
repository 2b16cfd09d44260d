package domain

import "context"

// Status defines the category of a canonical Event.
type Status string

const (
	// StatusStreaming carries incremental output: text, tool calls,
	// tool results, todo lists, or reflection notes.
	StatusStreaming Status = "streaming"
	// StatusInterrupt signals a human-approval pause raised by the executor.
	StatusInterrupt Status = "interrupt"
	// StatusComplete is the single terminal event of a successful stream.
	StatusComplete Status = "complete"
	// StatusError is the single terminal event of a failed stream.
	StatusError Status = "error"
)

// Event is one canonical unit emitted while observing the executor.
// Exactly one payload field is populated per event, matching the Status.
// Events are handed to the caller as they are produced and not retained.
type Event struct {
	Status Status `json:"status"`

	// Node names the graph node that produced a streaming event, when known.
	Node string `json:"node,omitempty"`

	Chunk      string     `json:"chunk,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolResult string     `json:"tool_result,omitempty"`
	TodoList   []Todo     `json:"todo_list,omitempty"`
	Reflection string     `json:"reflection,omitempty"`
	Interrupt  *Interrupt `json:"interrupt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Terminal reports whether the event ends the current turn. A complete or
// error event exhausts the stream; an interrupt pauses the run until the
// caller resumes it with decisions.
func (e Event) Terminal() bool {
	return e.Status == StatusComplete || e.Status == StatusError || e.Status == StatusInterrupt
}

// Hooks defines optional observer callbacks invoked by the runner.
// Nil callbacks are skipped.
type Hooks struct {
	OnEvent     func(context.Context, *Event)
	OnInterrupt func(context.Context, *Interrupt)
	OnResume    func(context.Context, []Decision)
}

// JoinHooks combines hook sets into one. Each callback fans out to every
// non-nil callback in order.
func JoinHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnEvent: func(ctx context.Context, e *Event) {
			for _, h := range hooks {
				if h.OnEvent != nil {
					h.OnEvent(ctx, e)
				}
			}
		},
		OnInterrupt: func(ctx context.Context, i *Interrupt) {
			for _, h := range hooks {
				if h.OnInterrupt != nil {
					h.OnInterrupt(ctx, i)
				}
			}
		},
		OnResume: func(ctx context.Context, ds []Decision) {
			for _, h := range hooks {
				if h.OnResume != nil {
					h.OnResume(ctx, ds)
				}
			}
		},
	}
}
