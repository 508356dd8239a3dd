// Package server exposes the tool registry over MCP and provides the operator
// diagnostics HTTP handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"docs-mcp/internal/config"
	"docs-mcp/internal/tools"
)

// Server contains the MCP server, the diagnostics router and the registry they share.
type Server struct {
	cfg      config.ServerConfig
	registry *tools.Registry
	logger   zerolog.Logger
	mcp      *mcp.Server
	router   *chi.Mux
}

// New constructs a Server with every registered operation mounted as an MCP tool.
// Operations registered after New are not exposed.
func New(cfg config.ServerConfig, registry *tools.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		mcp:      mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		router:   chi.NewRouter(),
	}

	for _, entry := range registry.Catalog() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        entry.Name,
			Description: entry.Description,
			InputSchema: entry.InputSchema,
		}, s.callTool)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/tools", s.handleListTools)

	return s
}

// MCP exposes the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Router exposes the diagnostics HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// Run serves MCP over transport until the peer disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Debug().
		Str("name", s.cfg.Name).
		Str("version", s.cfg.Version).
		Strs("tools", s.registry.Names()).
		Msg("MCP server running")
	return s.mcp.Run(ctx, transport)
}

// ServeStdio runs the MCP server on the process's standard streams.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info().Msg("Docs MCP Server running on stdio")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// callTool bridges an MCP tools/call to the registry. Protocol-level errors
// are returned to the SDK, which answers with a JSON-RPC error.
func (s *Server) callTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	env, err := s.registry.Dispatch(ctx, req.Params.Name, req.Params.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("operation", req.Params.Name).Msg("tool call rejected")
		return nil, err
	}

	content := make([]mcp.Content, 0, len(env.Content))
	for _, block := range env.Content {
		content = append(content, &mcp.TextContent{Text: block.Text})
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tools": s.registry.Catalog()})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("diagnostics request")
	})
}

// ServeDiagnostics listens on addr until ctx is done, then shuts down.
func (s *Server) ServeDiagnostics(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("diagnostics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
