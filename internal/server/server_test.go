package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-mcp/internal/config"
	"docs-mcp/internal/handlers"
	"docs-mcp/internal/tools"
	"docs-mcp/internal/web"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := tools.NewRegistry(zerolog.Nop())
	require.NoError(t, handlers.Register(reg, handlers.Deps{
		Fetcher:            web.New(nil, "", web.DefaultMaxChars),
		ListingConcurrency: 2,
	}))
	return New(config.ServerConfig{Name: "docs", Version: "1.0.0"}, reg, zerolog.Nop())
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content type = %T", res.Content[0])
	return text.Text
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestDiagnosticsListsTools(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Tools []tools.CatalogEntry `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Tools, 3)
	assert.Equal(t, handlers.FetchWebpage, body.Tools[0].Name)
	assert.Equal(t, handlers.ListDirectory, body.Tools[1].Name)
	assert.Equal(t, handlers.TestConnectivity, body.Tools[2].Name)
}

func TestDiagnosticsRejectsUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionListsTools(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})

	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.ElementsMatch(t, []string{handlers.TestConnectivity, handlers.ListDirectory, handlers.FetchWebpage}, names)
}

func TestSessionCallsConnectivity(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      handlers.TestConnectivity,
		Arguments: map[string]any{},
	})

	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, handlers.ConnectivityOK, textOf(t, res))
}

func TestSessionListsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"), []byte("1"), 0o644))
	session := connect(t, newTestServer(t))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      handlers.ListDirectory,
		Arguments: map[string]any{"path": dir},
	})

	require.NoError(t, err)
	var listing handlers.Listing
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &listing))
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, "one.txt", listing.Entries[0].Name)
}

func TestSessionReportsHandlerFailureAsText(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      handlers.ListDirectory,
		Arguments: map[string]any{"path": filepath.Join(t.TempDir(), "missing")},
	})

	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "Error listing directory:")
}

func TestSessionRejectsInvalidArgumentsAndSurvives(t *testing.T) {
	session := connect(t, newTestServer(t))
	ctx := context.Background()

	_, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      handlers.ListDirectory,
		Arguments: map[string]any{"path": 7},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: handlers.TestConnectivity, Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, handlers.ConnectivityOK, textOf(t, res))
}

func TestSessionRejectsUnknownTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	_, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "unknown-op",
		Arguments: map[string]any{},
	})

	assert.Error(t, err)
}

func TestServeDiagnosticsStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeDiagnostics(ctx, "127.0.0.1:0") }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeDiagnostics did not return after cancel")
	}
}
