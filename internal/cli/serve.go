package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/grove/pkg/adapters/http"
	"github.com/aretw0/grove/pkg/adapters/mcp"
	"github.com/aretw0/grove/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// ServeOptions configure the HTTP surface.
type ServeOptions struct {
	Options
	Port int
}

// RunServe activates the selected policies and serves the engine over HTTP until ctx
// is cancelled.
func RunServe(ctx context.Context, opts ServeOptions, w io.Writer) error {
	logger, err := CreateLogger(opts.LogLevel, opts.Debug)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager(logger)
	hooks := streams.Hooks(metrics.Hooks(createDebugHooks(logger)))

	s, err := createSession(opts.Options, logger, hooks)
	if err != nil {
		return err
	}
	if err := s.start(ctx, opts.Options, live); err != nil {
		return fmt.Errorf("serve failed: %w", err)
	}

	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithStreams(streams),
		httpAdapter.WithGatherer(reg),
		httpAdapter.WithLogger(logger),
	}
	if s.Locker != nil {
		handlerOpts = append(handlerOpts, httpAdapter.WithLocker(s.Locker, opts.LockTTL))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: httpAdapter.NewHandler(s.Engine, handlerOpts...),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(w, "Starting grove server on %s", srv.Addr)
		printSystemMessage(w, "Serving document: %s", opts.DocPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			if cerr := srv.Close(); cerr != nil {
				logger.Error("Error killing server", "error", cerr)
			}
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		printSystemMessage(w, "grove server stopped gracefully")
		return nil
	}
}

// MCPOptions configure the MCP surface.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// RunMCP activates the selected policies and serves them as MCP tools.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	logger, err := CreateLogger(opts.LogLevel, opts.Debug)
	if err != nil {
		return err
	}

	s, err := createSession(opts.Options, logger, createDebugHooks(logger))
	if err != nil {
		return err
	}
	if err := s.start(ctx, opts.Options, live); err != nil {
		return fmt.Errorf("mcp failed: %w", err)
	}

	srv := mcp.NewServer(s.Engine, logger)
	switch opts.Transport {
	case "stdio":
		// Logs go to stderr and never corrupt JSON-RPC on stdout.
		logger.Info("Starting grove MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting grove MCP Server (SSE)", "port", opts.Port)
		err := srv.ServeSSE(ctx, opts.Port)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
