package cli

import (
	"fmt"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/adapters/process"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Spec        string // agent spec argument, falls back to TENDRIL_AGENT_SPEC
	Graph       string // manifest graph name, overridden by a :name spec suffix
	Message     string // single prompt text
	File        string // read prompt from file
	Prompt      string // named prompt from the workspace library
	Config      string // run config, inline JSON or a file path
	Workspace   string // workspace root, falls back to TENDRIL_WORKSPACE_ROOT
	Interactive bool   // answer interrupts with the decision menu
	Async       bool   // consume the run as an event channel
	StreamMode  string // executor stream mode, falls back to TENDRIL_STREAM_MODE
	JSON        bool   // NDJSON events on stdout instead of the text renderer
	Rich        bool   // markdown rendering for AI text
	Verbose     bool   // node tags on streaming events, debug logging
}

// Execute handles the run command logic, dispatching to one-shot or REPL mode.
func Execute(opts RunOptions) error {
	msg, err := resolveMessage(opts)
	if err != nil {
		return err
	}

	// Library prompts may carry a default graph; explicit flags win.
	if msg.prompt != nil && opts.Graph == "" {
		opts.Graph = msg.prompt.Graph
	}

	spec := config.AgentSpec(opts.Spec)
	if spec == "" {
		return fmt.Errorf("no agent spec: pass one (agents.yaml, path:graph, or an executable) or set %s", config.EnvAgentSpec)
	}

	// A :name suffix on the spec wins over the --graph flag.
	if path, graph := process.ParseSpec(spec); graph == "" && opts.Graph != "" {
		spec = path + ":" + opts.Graph
	}

	s, err := newSession(spec, opts, msg.prompt)
	if err != nil {
		return err
	}
	defer s.Close()

	if msg.oneShot {
		return handleExecutionError(s.RunOnce(msg.text))
	}
	return handleExecutionError(s.RunREPL())
}
