package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/adapters/file"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/internal/prompts"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
)

// session wires one CLI invocation: the client, the presentation handler,
// the shared input prompter, and the signal-scoped run loop.
type session struct {
	opts     RunOptions
	client   *tendril.Client
	handler  runner.EventHandler
	input    *runner.InteractivePrompter
	logger   *slog.Logger
	cfg      domain.RunConfig
	threadID string
	sm       *runner.SignalManager
}

// newSession builds a session for the resolved agent spec. Library prompt
// defaults fill config gaps under explicit flags.
func newSession(spec string, opts RunOptions, prompt *prompts.Prompt) (*session, error) {
	logger := createLogger(opts.Verbose)

	streamMode, err := config.StreamMode(opts.StreamMode)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadRunConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	if prompt != nil {
		for k, v := range prompt.Config {
			if _, ok := cfg[k]; !ok {
				cfg[k] = v
			}
		}
	}

	s := &session{
		opts:     opts,
		logger:   logger,
		cfg:      cfg,
		threadID: config.EnsureThreadID(cfg),
	}

	// In JSON mode stdout is machine-readable NDJSON, so prompts and menus
	// move to stderr and interrupts surface as events instead of menus.
	if opts.JSON {
		s.handler = runner.NewJSONHandler(os.Stdout)
		s.input = runner.NewInteractivePrompter(os.Stdin, os.Stderr)
	} else {
		var textOpts []runner.TextHandlerOption
		if opts.Rich {
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		if opts.Verbose {
			textOpts = append(textOpts, runner.WithTextHandlerNodes())
		}
		s.handler = runner.NewTextHandler(os.Stdout, textOpts...)
		s.input = runner.NewInteractivePrompter(os.Stdin, os.Stdout)
	}

	root := config.WorkspaceRoot(opts.Workspace)
	clientOpts := []tendril.Option{
		tendril.WithLogger(logger),
		tendril.WithStreamMode(streamMode),
		tendril.WithStore(file.New(config.ThreadsDir(root))),
		tendril.WithHandler(s.handler),
	}
	if opts.Interactive && !opts.JSON {
		clientOpts = append(clientOpts, tendril.WithPrompter(s.input))
	}

	client, err := tendril.New(spec, clientOpts...)
	if err != nil {
		return nil, err
	}
	s.client = client
	s.sm = runner.NewSignalManager()

	return s, nil
}

// Close releases the signal listener.
func (s *session) Close() {
	s.sm.Stop()
}

// interactive reports whether interrupts are answered with the menu.
func (s *session) interactive() bool {
	return s.opts.Interactive && !s.opts.JSON
}

// RunOnce executes a single turn (plus its interrupt resume loop) and exits.
func (s *session) RunOnce(text string) error {
	ctx := s.sm.Context()

	res, err := s.runTurn(ctx, text)
	if err != nil {
		s.sm.CheckRace()
		if s.sm.Context().Err() != nil || isInterrupted(err) {
			s.reportInterrupted()
			return nil
		}
		return err
	}

	return s.reportResult(res)
}

// runTurn sanitizes and submits one prompt, recording thread bookkeeping.
func (s *session) runTurn(ctx context.Context, text string) (*runner.Result, error) {
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		return nil, err
	}

	input, err := domain.PrepareInput(clean, nil, nil)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.Threads().LoadOrStart(ctx, s.threadID, s.client.Graph()); err != nil {
		s.logger.Warn("thread bookkeeping unavailable", "err", err)
	} else if err := s.client.Threads().Touch(ctx, s.threadID, clean); err != nil {
		s.logger.Warn("failed to touch thread", "err", err)
	}

	if s.opts.Async {
		return s.runAsync(ctx, input)
	}
	return s.client.Run(ctx, input, s.cfg)
}

// runAsync drives the channel API, answering interrupts between streams the
// same way the blocking runner does.
func (s *session) runAsync(ctx context.Context, input domain.AgentInput) (*runner.Result, error) {
	started := time.Now()
	res := &runner.Result{}

	events, err := s.client.Stream(ctx, input, s.cfg)
	if err != nil {
		return nil, err
	}

	for {
		res.Turns++

		last, err := s.consume(ctx, events)
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
		}

		if !s.interactive() {
			res.Elapsed = time.Since(started)
			return res, nil
		}

		decisions, err := s.input.PromptDecisions(ctx, *last.Interrupt)
		if err != nil {
			return nil, fmt.Errorf("prompt decisions: %w", err)
		}
		if decisions == nil {
			res.Elapsed = time.Since(started)
			return res, nil
		}

		events, err = s.client.StreamResume(ctx, decisions, s.cfg)
		if err != nil {
			return nil, err
		}
		res.Interrupt = nil
	}
}

// consume drains one event channel, presenting events as they arrive, and
// returns the terminal event.
func (s *session) consume(ctx context.Context, events <-chan domain.Event) (domain.Event, error) {
	var last domain.Event
	for ev := range events {
		last = ev
		if err := s.handler.HandleEvent(ctx, ev); err != nil {
			return last, fmt.Errorf("handle event: %w", err)
		}
	}
	if !last.Terminal() {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		return last, fmt.Errorf("event channel closed on non-terminal event %q", last.Status)
	}
	return last, nil
}

// reportResult prints the turn outcome. Graph failures come back as an
// error so one-shot runs exit non-zero; the REPL reports and carries on.
func (s *session) reportResult(res *runner.Result) error {
	if !s.opts.JSON {
		switch res.Status {
		case domain.StatusComplete:
			printSystemMessage("Completed in %s.", runner.FormatDuration(res.Elapsed))
		case domain.StatusInterrupt:
			n := 0
			if res.Interrupt != nil {
				n = len(res.Interrupt.ActionRequests)
			}
			printSystemMessage("Paused on %d pending action(s). Thread '%s' can be resumed.", n, s.threadID)
		}
	}

	if res.Status == domain.StatusError {
		return fmt.Errorf("graph failed: %s", res.Error)
	}
	return nil
}

func (s *session) reportInterrupted() {
	if s.opts.JSON {
		return
	}
	fmt.Printf("\n")
	printSystemMessage("Interrupted. Thread '%s' can be resumed.", s.threadID)
}

// readInput reads one REPL line through the shared prompter pump.
func (s *session) readInput(ctx context.Context) (string, error) {
	prompt := "❯ "
	if s.opts.JSON {
		prompt = ""
	}
	return s.input.ReadLine(ctx, prompt)
}
