package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// ContentRenderer is a function that transforms text content before
// outputting it. This allows for TUI rendering (markdown to ANSI) without
// coupling the core package.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer    io.Writer
	Renderer  ContentRenderer
	ShowNodes bool
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerNodes prefixes streaming output with the emitting node
// name, which helps trace multi-node graphs.
func WithTextHandlerNodes() TextHandlerOption {
	return func(h *TextHandler) {
		h.ShowNodes = true
	}
}

// NewTextHandler creates a handler for standard text output.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) HandleEvent(ctx context.Context, ev domain.Event) error {
	switch ev.Status {
	case domain.StatusStreaming:
		return h.renderStreaming(ev)
	case domain.StatusInterrupt:
		return h.renderInterrupt(ev.Interrupt)
	case domain.StatusError:
		_, err := fmt.Fprintf(h.Writer, "error: %s\n", ev.Error)
		return err
	case domain.StatusComplete:
		return nil
	default:
		return nil
	}
}

func (h *TextHandler) renderStreaming(ev domain.Event) error {
	tag := h.nodeTag(ev)
	switch {
	case ev.Chunk != "":
		output := ev.Chunk
		if h.Renderer != nil {
			rendered, err := h.Renderer(ev.Chunk)
			if err == nil {
				output = rendered
			}
		}
		_, err := fmt.Fprintf(h.Writer, "%s%s\n", tag, strings.TrimSpace(output))
		return err

	case len(ev.ToolCalls) > 0:
		for _, call := range ev.ToolCalls {
			if _, err := fmt.Fprintf(h.Writer, "%s[tool] %s %s\n", tag, call.Name, PreviewArgs(call.Args)); err != nil {
				return err
			}
		}
		return nil

	case ev.ToolResult != "":
		_, err := fmt.Fprintf(h.Writer, "%s[result] %s\n", tag, PreviewResult(ev.ToolResult))
		return err

	case len(ev.TodoList) > 0:
		if _, err := fmt.Fprintf(h.Writer, "%s[todos]\n", tag); err != nil {
			return err
		}
		for _, todo := range ev.TodoList {
			if _, err := fmt.Fprintf(h.Writer, "  %s %s\n", todoMark(todo.Status), todo.Content); err != nil {
				return err
			}
		}
		return nil

	case ev.Reflection != "":
		_, err := fmt.Fprintf(h.Writer, "%s[think] %s\n", tag, strings.TrimSpace(ev.Reflection))
		return err
	}
	return nil
}

func (h *TextHandler) nodeTag(ev domain.Event) string {
	if !h.ShowNodes || ev.Node == "" {
		return ""
	}
	return "<" + ev.Node + "> "
}

// renderInterrupt lists the pending actions. The decision menu itself is
// the prompter's job, so this stays purely informational.
func (h *TextHandler) renderInterrupt(intr *domain.Interrupt) error {
	if intr == nil {
		return nil
	}
	if _, err := fmt.Fprintf(h.Writer, "\n[interrupt] %d pending action(s)\n", len(intr.ActionRequests)); err != nil {
		return err
	}
	for i, req := range intr.ActionRequests {
		if _, err := fmt.Fprintf(h.Writer, "  %d. %s %s\n", i+1, req.Tool, PreviewArgs(req.Args)); err != nil {
			return err
		}
		if req.Description != "" {
			if _, err := fmt.Fprintf(h.Writer, "     %s\n", req.Description); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}

func todoMark(status string) string {
	switch status {
	case domain.TodoCompleted:
		return "[x]"
	case domain.TodoInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}
