package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/aretw0/tendril/pkg/threads"
)

const contentTypeNDJSON = "application/x-ndjson"

// ThreadIDHeader carries the resolved thread id on run responses, so callers
// that let the server generate one can pick it up for later resumes.
const ThreadIDHeader = "X-Thread-Id"

// Server exposes registered graphs over a stateless JSON API. Run and resume
// responses stream the canonical event sequence as NDJSON, terminal event
// last.
type Server struct {
	graphs   *registry.Registry
	threads  *threads.Manager
	hooks    domain.Hooks
	recorder *observability.Metrics
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithHooks installs observer callbacks invoked for every streamed event.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Server) {
		s.hooks = hooks
	}
}

// WithMetrics wires the collectors into the serving path: events and
// interrupts are counted through the metric hooks, and each finished run is
// recorded with its graph, status, and duration.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.recorder = m
		s.hooks = domain.JoinHooks(s.hooks, m.Hooks())
	}
}

// WithMetricsHandler replaces the handler mounted on GET /metrics. The
// default serves the prometheus default registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler builds the HTTP handler serving the given graphs and thread
// manager.
func NewHandler(graphs *registry.Registry, manager *threads.Manager, opts ...Option) http.Handler {
	s := &Server{
		graphs:  graphs,
		threads: manager,
		metrics: promhttp.Handler(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics)
	r.Get("/graphs", s.listGraphs)
	r.Post("/graphs/{name}/runs", s.runGraph)
	r.Get("/threads", s.listThreads)
	r.Get("/threads/{id}", s.getThread)
	r.Delete("/threads/{id}", s.deleteThread)
	r.Post("/threads/{id}/resume", s.resumeThread)
	return enableCORS(r)
}

// runRequest is the body of POST /graphs/{name}/runs. Message and Raw are
// mutually exclusive; Config is forwarded to the executor verbatim.
type runRequest struct {
	Message    string           `json:"message,omitempty"`
	Raw        map[string]any   `json:"raw,omitempty"`
	Config     domain.RunConfig `json:"config,omitempty"`
	StreamMode string           `json:"stream_mode,omitempty"`
}

// resumeRequest is the body of POST /threads/{id}/resume.
type resumeRequest struct {
	Decisions  []domain.Decision `json:"decisions"`
	Config     domain.RunConfig  `json:"config,omitempty"`
	StreamMode string            `json:"stream_mode,omitempty"`
}

func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	executor, err := s.graphs.Resolve(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		s.logger.Warn("run: unknown graph", "graph", name)
		return
	}

	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("run: invalid request body", "err", err)
		return
	}

	if body.Message != "" {
		clean, err := runner.SanitizeInput(body.Message)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("run: input rejected", "err", err, "size", len(body.Message))
			return
		}
		body.Message = clean
	}

	input, err := domain.PrepareInput(body.Message, nil, body.Raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := body.Config
	if cfg == nil {
		cfg = domain.RunConfig{}
	}
	record, err := s.threads.LoadOrStart(r.Context(), cfg.ThreadID(), name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Thread error: %v", err), http.StatusInternalServerError)
		s.logger.Error("run: thread setup failed", "graph", name, "err", err)
		return
	}
	if record.Graph != name {
		http.Error(w, fmt.Sprintf("Thread %s belongs to graph %s", record.ID, record.Graph), http.StatusConflict)
		return
	}
	cfg.SetThreadID(record.ID)

	run := runner.NewRunner(executor, runner.WithLogger(s.logger))
	events, err := run.Stream(r.Context(), input, ports.InvokeOptions{Config: cfg, StreamMode: body.StreamMode})
	if err != nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		s.logger.Error("run: invoke failed", "graph", name, "err", err)
		return
	}

	w.Header().Set(ThreadIDHeader, record.ID)
	started := time.Now()
	last := s.streamEvents(w, r, events)
	if !last.Terminal() {
		// Client went away mid-stream; nothing to account for.
		return
	}
	s.recorder.RecordRun(name, last.Status, time.Since(started))

	if last.Status != domain.StatusError {
		if err := s.threads.Touch(r.Context(), record.ID, body.Message); err != nil {
			s.logger.Warn("run: failed to record turn", "thread_id", record.ID, "err", err)
		}
	}
}

func (s *Server) resumeThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.threads.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Thread error: %v", err), http.StatusInternalServerError)
		s.logger.Error("resume: thread load failed", "thread_id", id, "err", err)
		return
	}

	executor, err := s.graphs.Resolve(record.Graph)
	if err != nil {
		http.Error(w, fmt.Sprintf("Graph %s is not served here", record.Graph), http.StatusNotFound)
		s.logger.Warn("resume: graph not registered", "thread_id", id, "graph", record.Graph)
		return
	}

	var body resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("resume: invalid request body", "err", err)
		return
	}

	cfg := body.Config
	if cfg == nil {
		cfg = domain.RunConfig{}
	}
	cfg.SetThreadID(id)

	run := runner.NewRunner(executor, runner.WithLogger(s.logger))
	events, err := run.StreamResume(r.Context(), body.Decisions, ports.InvokeOptions{Config: cfg, StreamMode: body.StreamMode})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDecision) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Resume error: %v", err), http.StatusInternalServerError)
		s.logger.Error("resume: invoke failed", "thread_id", id, "err", err)
		return
	}

	w.Header().Set(ThreadIDHeader, id)
	started := time.Now()
	last := s.streamEvents(w, r, events)
	if last.Terminal() {
		s.recorder.RecordRun(record.Graph, last.Status, time.Since(started))
	}
}

// streamEvents encodes the event sequence as NDJSON, flushing per line, and
// returns the last event seen. Hooks observe every event before it is
// written.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, events <-chan domain.Event) domain.Event {
	w.Header().Set("Content-Type", contentTypeNDJSON)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	var last domain.Event
	for ev := range events {
		last = ev
		if s.hooks.OnEvent != nil {
			s.hooks.OnEvent(r.Context(), &ev)
		}
		if ev.Status == domain.StatusInterrupt && s.hooks.OnInterrupt != nil {
			s.hooks.OnInterrupt(r.Context(), ev.Interrupt)
		}
		if err := enc.Encode(ev); err != nil {
			s.logger.Debug("client went away mid-stream", "err", err)
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return last
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]any{"graphs": s.graphs.Names()})
}

func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	ids, err := s.threads.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("threads: list failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, map[string]any{"threads": ids})
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.threads.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Thread error: %v", err), http.StatusInternalServerError)
		s.logger.Error("threads: load failed", "thread_id", id, "err", err)
		return
	}
	writeJSON(w, s.logger, record)
}

func (s *Server) deleteThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.threads.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("threads: delete failed", "thread_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
