package process

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

const (
	opInvoke = "invoke"
	opResume = "resume"

	// killGracePeriod is how long a cancelled command gets to exit after
	// SIGTERM before it is force-killed.
	killGracePeriod = 5 * time.Second
)

// request is the single line written to the command's stdin.
type request struct {
	Op         string            `json:"op"`
	Graph      string            `json:"graph,omitempty"`
	Input      domain.AgentInput `json:"input"`
	Config     domain.RunConfig  `json:"config,omitempty"`
	StreamMode string            `json:"stream_mode,omitempty"`
}

// Executor launches an external graph command for every turn.
type Executor struct {
	command string
	args    []string
	graph   string
	dir     string
	env     []string
	logger  *slog.Logger
}

// Option configures the executor.
type Option func(*Executor)

// WithArgs sets the command arguments.
func WithArgs(args ...string) Option {
	return func(e *Executor) {
		e.args = args
	}
}

// WithGraph names the graph the command should serve.
func WithGraph(name string) Option {
	return func(e *Executor) {
		e.graph = name
	}
}

// WithDir sets the working directory for the command.
func WithDir(dir string) Option {
	return func(e *Executor) {
		e.dir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the command environment.
func WithEnv(env ...string) Option {
	return func(e *Executor) {
		e.env = append(e.env, env...)
	}
}

// WithLogger sets the logger for subprocess diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Executor for the given command.
func New(command string, opts ...Option) *Executor {
	e := &Executor{
		command: command,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invoke starts one turn with the given input state.
func (e *Executor) Invoke(ctx context.Context, input domain.AgentInput, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return e.start(ctx, request{
		Op:         opInvoke,
		Graph:      e.graph,
		Input:      input,
		Config:     opts.Config,
		StreamMode: opts.StreamMode,
	})
}

// Resume feeds decisions back into a run paused on an interrupt. The command
// is launched fresh; it picks the paused run back up via the thread id in
// the forwarded config.
func (e *Executor) Resume(ctx context.Context, decisions []domain.Decision, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return e.start(ctx, request{
		Op:         opResume,
		Graph:      e.graph,
		Input:      domain.AgentInput{Resume: decisions},
		Config:     opts.Config,
		StreamMode: opts.StreamMode,
	})
}

func (e *Executor) start(ctx context.Context, req request) (ports.ChunkStream, error) {
	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	// The cancel handle lives on in the stream; Close uses it to kill the
	// command when the caller abandons the turn early.
	runCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(runCtx, e.command, e.args...)
	cmd.Dir = e.dir
	cmd.Env = append(cmd.Environ(), e.env...)

	// Ask nicely first so the command can flush its checkpoint, then
	// force-kill after the grace period.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = killGracePeriod

	stderr := &stderrWriter{logger: e.logger}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start executor: %w", err)
	}
	e.logger.Debug("executor started",
		"command", e.command,
		"graph", req.Graph,
		"op", req.Op,
		"pid", cmd.Process.Pid,
	)

	// One request per turn: write the line and close stdin so commands that
	// read to EOF are not left waiting.
	if _, err := stdin.Write(append(line, '\n')); err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, fmt.Errorf("failed to write request: %w", err)
	}
	_ = stdin.Close()

	return newChunkStream(runCtx, cancel, cmd, stdout, stderr, e.logger), nil
}
