// Package mcp exposes the travel lookup tools as a Model Context Protocol server.
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

	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/nullvoyager/voyager"
	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/registry"
)

const sessionURIPrefix = "voyager://session/"

// StateReader loads session state.
type StateReader interface {
	Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error)
}

// Server wraps a tool registry and exposes it as an MCP Server.
type Server struct {
	tools     *registry.Registry
	sessions  StateReader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessions exposes session state as the resource template voyager://session/{sessionId}.
func WithSessions(sessions StateReader) Option {
	return func(s *Server) {
		s.sessions = sessions
	}
}

// NewServer creates a new MCP Server instance serving every tool of the registry.
func NewServer(tools *registry.Registry, opts ...Option) *Server {
	s := &Server{
		tools:     tools,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("voyager-mcp", voyager.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.sessions != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on the given port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr: addr,
		Handler: cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		})(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerTools() {
	for _, spec := range s.tools.Specs() {
		schema, err := json.Marshal(spec.Parameters)
		if err != nil {
			s.logger.Error("skipping tool with unencodable schema", "tool", spec.Name, "err", err)
			continue
		}
		s.mcpServer.AddTool(
			mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema),
			s.handleTool(spec.Name),
		)
	}
}

func (s *Server) handleTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res := s.tools.Execute(ctx, domain.ToolCall{ID: name, Name: name, Args: args}, nil)
		if res.IsError {
			s.logger.Debug("MCP tool call failed", "tool", name, "err", res.Error)
			return mcp.NewToolResultError(res.Error), nil
		}

		text, err := json.Marshal(res.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}
		return mcp.NewToolResultStructured(res.Result, string(text)), nil
	}
}

func (s *Server) registerResources() {
	template := mcp.NewResourceTemplate(sessionURIPrefix+"{sessionId}", "Session state",
		mcp.WithTemplateDescription("Trip preferences, cart and mode of a chat session"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.mcpServer.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		sessionID := strings.TrimPrefix(uri, sessionURIPrefix)
		if sessionID == "" || sessionID == uri {
			return nil, fmt.Errorf("invalid session uri %q", uri)
		}
		state, err := s.sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		data, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
