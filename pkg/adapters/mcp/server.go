// Package mcp exposes a grove engine as a Model Context Protocol server so that agents
// can inspect the annotated graph and trigger policy sweeps.
package mcp

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
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "grove://graph"

// Engine defines the interface required by the MCP server to interact with grove.
type Engine interface {
	Inspect(ctx context.Context) ([]domain.Node, error)
	Policies() *registry.Registry
}

// PolicyStatus is one entry of list_policies.
type PolicyStatus struct {
	Name    string `json:"name" jsonschema_description:"Registered policy name"`
	Active  bool   `json:"active" jsonschema_description:"Whether the policy handlers are attached"`
	Journal string `json:"journal,omitempty" jsonschema_description:"Journal of the last run"`
}

// Server wraps the grove Engine and exposes it as an MCP Server.
type Server struct {
	mu        sync.Mutex
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("grove-mcp", strings.TrimSpace(grove.Version)),
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
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_policies",
		mcp.WithDescription("List the registered policies with their activation state and last journal."),
	), s.handleListPolicies)

	s.mcpServer.AddTool(mcp.NewTool("sweep_policy",
		mcp.WithDescription("Run a one-shot sweep of a policy over the whole document."),
		mcp.WithString("policy", mcp.Required(), mcp.Description("Policy name (colorgroups, fixparams, fixwires)")),
	), s.handleSweepPolicy)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the annotated graph for introspection."),
	), s.handleGetGraph)
}

func (s *Server) handleListPolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.engine.Policies()
	out := []PolicyStatus{}
	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			continue
		}
		out = append(out, PolicyStatus{Name: name, Active: p.Active(), Journal: p.Report()})
	}
	jsonBytes, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSweepPolicy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("policy")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.engine.Policies().Sweep(ctx, name)
	if errors.Is(err, domain.ErrUnknownPolicy) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		s.logger.Error("MCP Sweep failed", "policy", name, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("sweep failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s processed %d nodes", name, n)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	nodes, err := s.engine.Inspect(ctx)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(nodes)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Annotated Graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.Lock()
	nodes, err := s.engine.Inspect(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect graph: %w", err)
	}
	jsonBytes, _ := json.Marshal(nodes)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      graphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
