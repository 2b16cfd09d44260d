package tendril

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/process"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/aretw0/tendril/pkg/stream"
	"github.com/aretw0/tendril/pkg/threads"
)

// Version is the release version, embedded at build time.
//
//go:embed VERSION
var Version string

// Client is the high-level entry point for the Tendril library.
// It resolves an executor from an agent spec, wraps it in a Runner and
// provides a simplified API for consumers.
type Client struct {
	executor   ports.GraphExecutor
	store      ports.ThreadStore
	handler    runner.EventHandler
	prompter   runner.DecisionPrompter
	unifier    *stream.Unifier
	hooks      domain.Hooks
	logger     *slog.Logger
	streamMode string
	graph      string

	runner  *runner.Runner
	threads *threads.Manager

	// Name labels the client after the agent spec or injected executor.
	Name string
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithExecutor injects a custom GraphExecutor, bypassing the default
// process-spec resolution.
func WithExecutor(executor ports.GraphExecutor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

// WithStore injects a thread store for run bookkeeping. Without one,
// threads are tracked in memory only.
func WithStore(store ports.ThreadStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithHandler sets the event presentation strategy for blocking runs.
func WithHandler(handler runner.EventHandler) Option {
	return func(c *Client) {
		c.handler = handler
	}
}

// WithPrompter sets the interrupt answering strategy. Without one, runs
// are left paused on the first interrupt.
func WithPrompter(prompter runner.DecisionPrompter) Option {
	return func(c *Client) {
		c.prompter = prompter
	}
}

// WithUnifier sets a custom chunk classifier, e.g. with a different
// side-channel tool set.
func WithUnifier(u *stream.Unifier) Option {
	return func(c *Client) {
		c.unifier = u
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithStreamMode sets the default stream mode forwarded to the executor
// ("updates" or "values").
func WithStreamMode(mode string) Option {
	return func(c *Client) {
		c.streamMode = mode
	}
}

// New initializes a Tendril Client for the given agent spec.
//
// The spec is resolved the same way the CLI resolves it: a manifest path
// ("agents.yaml"), a "path:graph" pair selecting a named graph inside a
// manifest, or a bare executable path launched as an NDJSON graph process.
// If the WithExecutor option is provided, spec can be empty and resolution
// is skipped.
func New(spec string, opts ...Option) (*Client, error) {
	c := &Client{}

	// Apply options first to check if an executor is provided.
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if c.executor == nil {
		if spec == "" {
			return nil, fmt.Errorf("agent spec is required when no custom executor is provided")
		}
		executor, name, err := ResolveExecutor(spec, process.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.executor = executor
		c.Name = name
		c.graph = name
	} else if spec != "" {
		c.Name = filepath.Base(spec)
	}

	if c.Name != "" {
		c.logger = c.logger.With("graph", c.Name)
	}

	runnerOpts := []runner.Option{
		runner.WithHooks(c.hooks),
		runner.WithLogger(c.logger),
	}
	if c.handler != nil {
		runnerOpts = append(runnerOpts, runner.WithHandler(c.handler))
	}
	if c.prompter != nil {
		runnerOpts = append(runnerOpts, runner.WithPrompter(c.prompter))
	}
	if c.unifier != nil {
		runnerOpts = append(runnerOpts, runner.WithUnifier(c.unifier))
	}
	c.runner = runner.NewRunner(c.executor, runnerOpts...)

	if c.store == nil {
		c.store = memory.NewStore()
	}
	c.threads = threads.NewManager(c.store, threads.WithLogger(c.logger))

	return c, nil
}

// ResolveExecutor builds a process executor from an agent spec and returns
// it along with a descriptive graph name.
//
// Manifest specs ("agents.yaml", "agents.yml", ".json") resolve the default
// graph; a ":name" suffix selects another entry. Any other spec is treated
// as an executable launched directly.
func ResolveExecutor(spec string, opts ...process.Option) (ports.GraphExecutor, string, error) {
	path, graph := process.ParseSpec(spec)

	if isManifest(path) {
		manifest, err := process.LoadManifest(path)
		if err != nil {
			return nil, "", fmt.Errorf("load manifest: %w", err)
		}
		if graph == "" {
			graph = process.DefaultGraph
		}
		executor, err := manifest.Executor(graph, opts...)
		if err != nil {
			return nil, "", err
		}
		return executor, graph, nil
	}

	// Bare executable: the whole spec is the command, the suffix (if any)
	// names the graph inside that process.
	if graph != "" {
		opts = append(opts, process.WithGraph(graph))
	} else {
		graph = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return process.New(path, opts...), graph, nil
}

func isManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// invokeOptions builds per-call options, filling the default stream mode.
func (c *Client) invokeOptions(cfg domain.RunConfig) ports.InvokeOptions {
	mode := c.streamMode
	if mode == "" {
		mode = "updates"
	}
	return ports.InvokeOptions{Config: cfg, StreamMode: mode}
}

// Run starts a new graph run with the given input and blocks until it
// completes, fails, or is left paused on an interrupt.
func (c *Client) Run(ctx context.Context, input domain.AgentInput, cfg domain.RunConfig) (*runner.Result, error) {
	return c.runner.Run(ctx, input, c.invokeOptions(cfg))
}

// Ask is a convenience wrapper around Run for a single human message.
func (c *Client) Ask(ctx context.Context, message string, cfg domain.RunConfig) (*runner.Result, error) {
	input, err := domain.PrepareInput(message, nil, nil)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, input, cfg)
}

// Resume continues a paused run with the given decisions, one per pending
// action request.
func (c *Client) Resume(ctx context.Context, decisions []domain.Decision, cfg domain.RunConfig) (*runner.Result, error) {
	return c.runner.Resume(ctx, decisions, c.invokeOptions(cfg))
}

// Stream starts a new graph run and returns its events as a channel. The
// channel closes after the terminal event; a paused run is resumed
// explicitly via StreamResume.
func (c *Client) Stream(ctx context.Context, input domain.AgentInput, cfg domain.RunConfig) (<-chan domain.Event, error) {
	return c.runner.Stream(ctx, input, c.invokeOptions(cfg))
}

// StreamResume continues a paused run and returns its events as a channel.
func (c *Client) StreamResume(ctx context.Context, decisions []domain.Decision, cfg domain.RunConfig) (<-chan domain.Event, error) {
	return c.runner.StreamResume(ctx, decisions, c.invokeOptions(cfg))
}

// Threads returns the thread manager used for run bookkeeping.
func (c *Client) Threads() *threads.Manager {
	return c.threads
}

// Runner exposes the underlying runner for callers that need to adjust
// presentation per call.
func (c *Client) Runner() *runner.Runner {
	return c.runner
}

// Executor returns the underlying GraphExecutor used by the client.
func (c *Client) Executor() ports.GraphExecutor {
	return c.executor
}

// Graph returns the resolved graph name, or the empty string for injected
// executors.
func (c *Client) Graph() string {
	return c.graph
}
