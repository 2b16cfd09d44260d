package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/aretw0/tendril/pkg/threads"
)

// RunResponse is the structured result of run_graph and resume_graph: the
// collected canonical event sequence for one turn.
type RunResponse struct {
	ThreadID string         `json:"thread_id" jsonschema_description:"Thread id to resume this conversation with"`
	Status   domain.Status  `json:"status" jsonschema_description:"Final status of the turn: complete, error, or interrupt"`
	Events   []domain.Event `json:"events" jsonschema_description:"Canonical events emitted during the turn, terminal event last"`
}

// GraphInfo describes one runnable graph.
type GraphInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Server exposes registered graphs as MCP tools, so other agents can run
// them and answer their interrupts.
type Server struct {
	graphs       *registry.Registry
	threads      *threads.Manager
	descriptions map[string]string
	hooks        domain.Hooks
	logger       *slog.Logger
	mcpServer    *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithGraphInfo attaches human-readable descriptions to graph names for
// list_graphs output.
func WithGraphInfo(descriptions map[string]string) Option {
	return func(s *Server) {
		s.descriptions = descriptions
	}
}

// WithHooks installs observer callbacks invoked for every collected event.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Server) {
		s.hooks = hooks
	}
}

// WithLogger configures the structured logger. MCP servers must log to
// stderr; stdout carries JSON-RPC.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server over the given graphs and thread manager.
func NewServer(graphs *registry.Registry, manager *threads.Manager, opts ...Option) *Server {
	s := &Server{
		graphs:    graphs,
		threads:   manager,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tendril-mcp", strings.TrimSpace(tendril.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_graph",
		mcp.WithDescription("Run one turn of a graph with a user message and collect its events. An interrupt status means the run is paused awaiting resume_graph."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Registered graph name")),
		mcp.WithString("message", mcp.Required(), mcp.Description("User message for this turn")),
		mcp.WithString("config", mcp.Description("JSON object forwarded to the executor as the run config (optional)")),
		mcp.WithString("thread_id", mcp.Description("Thread to continue; omitted starts a fresh thread")),
		mcp.WithString("stream_mode", mcp.Description("Executor streaming granularity: updates or values (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunGraph))

	resumeTool := mcp.NewTool("resume_graph",
		mcp.WithDescription("Resume a run paused on an interrupt by supplying one decision per pending action."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread id returned by run_graph")),
		mcp.WithString("decisions", mcp.Required(), mcp.Description(`JSON array of decisions, e.g. [{"type": "approve"}]`)),
		mcp.WithString("config", mcp.Description("JSON object forwarded to the executor as the run config (optional)")),
		mcp.WithString("stream_mode", mcp.Description("Executor streaming granularity: updates or values (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.handleResumeGraph))

	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the graphs this server can run."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.graphInfos())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	graph, _ := args["graph"].(string)
	if graph == "" {
		return RunResponse{}, errors.New("graph is required")
	}

	executor, err := s.graphs.Resolve(graph)
	if err != nil {
		return RunResponse{}, err
	}

	message, _ := args["message"].(string)
	clean, err := runner.SanitizeInput(message)
	if err != nil {
		s.logger.Warn("run_graph: input rejected", "err", err, "size", len(message))
		return RunResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	input, err := domain.PrepareInput(clean, nil, nil)
	if err != nil {
		return RunResponse{}, err
	}

	cfg, err := decodeConfig(args)
	if err != nil {
		return RunResponse{}, err
	}
	if threadID, ok := args["thread_id"].(string); ok && threadID != "" {
		cfg.SetThreadID(threadID)
	}

	record, err := s.threads.LoadOrStart(ctx, cfg.ThreadID(), graph)
	if err != nil {
		return RunResponse{}, fmt.Errorf("thread setup failed: %w", err)
	}
	if record.Graph != graph {
		return RunResponse{}, fmt.Errorf("thread %s belongs to graph %s", record.ID, record.Graph)
	}
	cfg.SetThreadID(record.ID)

	streamMode, _ := args["stream_mode"].(string)
	run := runner.NewRunner(executor, runner.WithLogger(s.logger))
	events, err := run.Stream(ctx, input, ports.InvokeOptions{Config: cfg, StreamMode: streamMode})
	if err != nil {
		return RunResponse{}, err
	}

	collected, last := s.collect(ctx, events)
	if last.Terminal() && last.Status != domain.StatusError {
		if err := s.threads.Touch(ctx, record.ID, clean); err != nil {
			s.logger.Warn("run_graph: failed to record turn", "thread_id", record.ID, "err", err)
		}
	}

	return RunResponse{ThreadID: record.ID, Status: last.Status, Events: collected}, nil
}

func (s *Server) handleResumeGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	threadID, _ := args["thread_id"].(string)
	if threadID == "" {
		return RunResponse{}, errors.New("thread_id is required")
	}

	record, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return RunResponse{}, err
	}

	executor, err := s.graphs.Resolve(record.Graph)
	if err != nil {
		return RunResponse{}, fmt.Errorf("graph %s is not served here", record.Graph)
	}

	decisionsStr, _ := args["decisions"].(string)
	var decisions []domain.Decision
	if err := json.Unmarshal([]byte(decisionsStr), &decisions); err != nil {
		return RunResponse{}, fmt.Errorf("decisions must be a JSON array: %w", err)
	}

	cfg, err := decodeConfig(args)
	if err != nil {
		return RunResponse{}, err
	}
	cfg.SetThreadID(threadID)

	streamMode, _ := args["stream_mode"].(string)
	run := runner.NewRunner(executor, runner.WithLogger(s.logger))
	events, err := run.StreamResume(ctx, decisions, ports.InvokeOptions{Config: cfg, StreamMode: streamMode})
	if err != nil {
		return RunResponse{}, err
	}

	collected, last := s.collect(ctx, events)
	return RunResponse{ThreadID: threadID, Status: last.Status, Events: collected}, nil
}

// collect drains the event channel, firing hooks along the way, and returns
// the events with the last one seen.
func (s *Server) collect(ctx context.Context, events <-chan domain.Event) ([]domain.Event, domain.Event) {
	collected := make([]domain.Event, 0, 8)
	var last domain.Event
	for ev := range events {
		last = ev
		if s.hooks.OnEvent != nil {
			s.hooks.OnEvent(ctx, &ev)
		}
		if ev.Status == domain.StatusInterrupt && s.hooks.OnInterrupt != nil {
			s.hooks.OnInterrupt(ctx, ev.Interrupt)
		}
		collected = append(collected, ev)
	}
	return collected, last
}

func (s *Server) graphInfos() []GraphInfo {
	names := s.graphs.Names()
	infos := make([]GraphInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, GraphInfo{Name: name, Description: s.descriptions[name]})
	}
	return infos
}

func decodeConfig(args map[string]interface{}) (domain.RunConfig, error) {
	cfg := domain.RunConfig{}
	raw, ok := args["config"].(string)
	if !ok || raw == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("config must be a JSON object: %w", err)
	}
	return cfg, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("tendril://graphs", "Runnable Graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.graphInfos())
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "tendril://graphs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
