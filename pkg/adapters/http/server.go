// Package http serves a grove engine over HTTP: the annotated graph, policy sweeps and
// journals, a live stream of annotations and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/grove"
	"github.com/aretw0/grove/internal/presentation/graph"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
	"github.com/aretw0/grove/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines what the server needs from the grove engine.
type Engine interface {
	Inspect(ctx context.Context) ([]domain.Node, error)
	Policies() *registry.Registry
}

// Server holds the handlers. Policy state is not safe for concurrent use, so every
// request touching the engine runs under mu.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	mu       sync.Mutex
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose hooks were given to the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLocker serializes sweeps across replicas.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Server) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, lockTTL: 30 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	if spec, err := LoadSpec(context.Background()); err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "error", err)
	} else if validate, err := validateRequests(spec, s.logger); err != nil {
		s.logger.Error("Failed to build request validator", "error", err)
	} else {
		r.Use(validate)
	}

	r.Get("/openapi.yaml", serveSpec)
	r.Get("/swagger", serveSwagger)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph/mermaid", s.GetMermaid)
	r.Get("/policies", s.ListPolicies)
	r.Post("/policies/{name}/sweep", s.SweepPolicy)
	r.Get("/policies/{name}/journal", s.GetJournal)
	r.Get("/events", s.SubscribeEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) policy(w http.ResponseWriter, r *http.Request) (string, registry.Policy, bool) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter name: %s", err), http.StatusBadRequest)
		return name, nil, false
	}

	p, err := s.Engine.Policies().Get(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnknownPolicy) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return name, nil, false
	}
	return name, p, true
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "grove-http",
		"version": strings.TrimSpace(grove.Version),
	})
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes, err := s.Engine.Inspect(r.Context())
	s.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("Inspect error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Inspect failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, nodes)
}

// GetMermaid handles the GET /graph/mermaid request.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes, err := s.Engine.Inspect(r.Context())
	s.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("Inspect error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Inspect failed", "error", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(nodes, nil))
}

// PolicyInfo describes one registered policy.
type PolicyInfo struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ListPolicies handles the GET /policies request.
func (s *Server) ListPolicies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.Engine.Policies()
	out := []PolicyInfo{}
	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			continue
		}
		out = append(out, PolicyInfo{Name: name, Active: p.Active()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// SweepResult is the body returned by a sweep.
type SweepResult struct {
	Policy    string `json:"policy"`
	Processed int    `json:"processed"`
}

// SweepPolicy handles the POST /policies/{name}/sweep request.
func (s *Server) SweepPolicy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, p, ok := s.policy(w, r)
	if !ok {
		return
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(r.Context(), "sweep:"+name, s.lockTTL)
		if err != nil {
			http.Error(w, fmt.Sprintf("Lock error: %v", err), http.StatusServiceUnavailable)
			s.logger.Error("Sweep lock failed", "policy", name, "error", err)
			return
		}
		defer func() {
			if err := unlock(context.WithoutCancel(r.Context())); err != nil {
				s.logger.Warn("Sweep unlock failed", "policy", name, "error", err)
			}
		}()
	}

	n, err := p.Sweep(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Sweep error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Sweep failed", "policy", name, "error", err)
		return
	}
	s.logger.Info("Sweep completed", "policy", name, "processed", n)
	s.writeJSON(w, http.StatusOK, SweepResult{Policy: name, Processed: n})
}

// GetJournal handles the GET /policies/{name}/journal request.
func (s *Server) GetJournal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, ok := s.policy(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, p.Report())
}

// SubscribeEvents handles the GET /events request (SSE). The optional policy query
// parameter restricts the stream to one policy.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var policy string
	if err := runtime.BindQueryParameter("form", true, false, "policy", r.URL.Query(), &policy); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter policy: %s", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to annotations", "policy", policy)

	ch, cancel := s.Streams.Subscribe(policy)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: annotation\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
