package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/stream"
)

// Result is the final outcome of a run or resume.
type Result struct {
	// Status is the status of the last event: complete, error, or interrupt
	// when the run was left paused.
	Status domain.Status

	// Interrupt holds the pending approvals when Status is interrupt.
	Interrupt *domain.Interrupt

	// Error carries the executor failure message when Status is error.
	Error string

	// Turns counts the executor streams consumed, one per invoke or resume.
	Turns int

	// Elapsed is the wall-clock time of the whole run including prompts.
	Elapsed time.Duration
}

// Paused reports whether the run stopped on an unanswered interrupt.
func (r *Result) Paused() bool {
	return r.Status == domain.StatusInterrupt
}

// Runner executes graph runs against a GraphExecutor using provided IO.
// This allows for easy testing and integration with different frontends
// (CLI, TUI, HTTP, MCP). It uses an EventHandler strategy to abstract the
// presentation mode (Text vs JSON) and a DecisionPrompter to answer
// interrupts.
type Runner struct {
	// Executor produces the native chunk streams. Required.
	Executor ports.GraphExecutor

	// Handler is the strategy for presenting events. If nil, events are
	// consumed silently.
	Handler EventHandler

	// Prompter answers interrupts. If nil, the run is left paused on the
	// first interrupt and the Result reports it.
	Prompter DecisionPrompter

	// Unifier classifies native chunks. If nil, a default one is used.
	Unifier *stream.Unifier

	// Hooks are optional observer callbacks.
	Hooks domain.Hooks

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// NewRunner creates a Runner for the given executor.
func NewRunner(executor ports.GraphExecutor, opts ...Option) *Runner {
	r := &Runner{
		Executor: executor,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts a new graph run and drives it to its outcome. Interrupts are
// answered through the Prompter; without one the run is left paused and the
// returned Result carries the pending interrupt.
func (r *Runner) Run(ctx context.Context, input domain.AgentInput, opts ports.InvokeOptions) (*Result, error) {
	src, err := r.Executor.Invoke(ctx, input, opts)
	if err != nil {
		return nil, fmt.Errorf("invoke graph: %w", err)
	}
	return r.drive(ctx, src, opts)
}

// Resume continues a paused run with the given decisions and drives it to
// its outcome.
func (r *Runner) Resume(ctx context.Context, decisions []domain.Decision, opts ports.InvokeOptions) (*Result, error) {
	if err := validateDecisions(decisions); err != nil {
		return nil, err
	}
	src, err := r.Executor.Resume(ctx, decisions, opts)
	if err != nil {
		return nil, fmt.Errorf("resume graph: %w", err)
	}
	return r.drive(ctx, src, opts)
}

// Stream starts a new graph run and returns its events as a channel. The
// channel closes after the terminal event. Interrupts are not answered in
// streaming mode; the consumer resumes explicitly via StreamResume.
func (r *Runner) Stream(ctx context.Context, input domain.AgentInput, opts ports.InvokeOptions) (<-chan domain.Event, error) {
	src, err := r.Executor.Invoke(ctx, input, opts)
	if err != nil {
		return nil, fmt.Errorf("invoke graph: %w", err)
	}
	return r.unifier().Events(ctx, src), nil
}

// StreamResume continues a paused run and returns its events as a channel.
func (r *Runner) StreamResume(ctx context.Context, decisions []domain.Decision, opts ports.InvokeOptions) (<-chan domain.Event, error) {
	if err := validateDecisions(decisions); err != nil {
		return nil, err
	}
	src, err := r.Executor.Resume(ctx, decisions, opts)
	if err != nil {
		return nil, fmt.Errorf("resume graph: %w", err)
	}
	return r.unifier().Events(ctx, src), nil
}

// drive consumes executor streams until the run completes, fails, or is
// left paused on an unanswered interrupt.
func (r *Runner) drive(ctx context.Context, src ports.ChunkStream, opts ports.InvokeOptions) (*Result, error) {
	started := time.Now()
	res := &Result{}

	for {
		res.Turns++

		var last domain.Event
		err := r.unifier().Run(ctx, src, func(ev domain.Event) error {
			last = ev
			return r.dispatch(ctx, ev)
		})
		if err != nil {
			return nil, err
		}

		res.Status = last.Status
		switch last.Status {
		case domain.StatusComplete:
			res.Elapsed = time.Since(started)
			return res, nil
		case domain.StatusError:
			res.Error = last.Error
			res.Elapsed = time.Since(started)
			return res, nil
		case domain.StatusInterrupt:
			res.Interrupt = last.Interrupt
		default:
			return nil, fmt.Errorf("stream ended on non-terminal event %q", last.Status)
		}

		if r.Prompter == nil {
			res.Elapsed = time.Since(started)
			return res, nil
		}

		decisions, err := r.Prompter.PromptDecisions(ctx, *last.Interrupt)
		if err != nil {
			return nil, fmt.Errorf("prompt decisions: %w", err)
		}
		if decisions == nil {
			// Declined: the run stays paused and resumable later.
			res.Elapsed = time.Since(started)
			return res, nil
		}

		if r.Hooks.OnResume != nil {
			r.Hooks.OnResume(ctx, decisions)
		}
		r.Logger.Debug("resuming run", "decisions", len(decisions))

		src, err = r.Executor.Resume(ctx, decisions, opts)
		if err != nil {
			return nil, fmt.Errorf("resume graph: %w", err)
		}
		res.Interrupt = nil
	}
}

// dispatch forwards one event to the hooks and the handler.
func (r *Runner) dispatch(ctx context.Context, ev domain.Event) error {
	if r.Hooks.OnEvent != nil {
		r.Hooks.OnEvent(ctx, &ev)
	}
	if ev.Status == domain.StatusInterrupt && r.Hooks.OnInterrupt != nil {
		r.Hooks.OnInterrupt(ctx, ev.Interrupt)
	}
	if r.Handler == nil {
		return nil
	}
	if err := r.Handler.HandleEvent(ctx, ev); err != nil {
		return fmt.Errorf("handle event: %w", err)
	}
	return nil
}

func (r *Runner) unifier() *stream.Unifier {
	if r.Unifier == nil {
		r.Unifier = stream.New(stream.WithLogger(r.Logger))
	}
	return r.Unifier
}

func validateDecisions(decisions []domain.Decision) error {
	if len(decisions) == 0 {
		return fmt.Errorf("resume requires at least one decision: %w", domain.ErrInvalidDecision)
	}
	for i, d := range decisions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("decision %d: %w", i, err)
		}
	}
	return nil
}
