package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/semaphore"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for Quarry.
type Server struct {
	ports    *Ports
	policy   Policy
	defaults Defaults
	sem      *semaphore.Weighted
	server   *mcp.Server
}

// NewServer creates a new MCP server with the given ports, policy and
// retrieval defaults.
func NewServer(ports *Ports, policy Policy, defaults Defaults) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if policy.MaxConcurrent < 1 {
		policy.MaxConcurrent = 1
	}

	impl := &mcp.Implementation{
		Name:    "quarry",
		Version: Version,
	}

	s := &Server{
		ports:    ports,
		policy:   policy,
		defaults: defaults,
		sem:      semaphore.NewWeighted(int64(policy.MaxConcurrent)),
		server:   mcp.NewServer(impl, nil),
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// acquire reserves one tool-call slot, blocking while the server is at
// its concurrency cap.
func (s *Server) acquire(ctx context.Context) (release func(), err error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(1) }, nil
}
