package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"docs-mcp/internal/tools"
)

// ConnectivityOK is the fixed reply of test-connectivity.
const ConnectivityOK = "test connectivity successful"

// Connectivity confirms the server is reachable.
func Connectivity(ctx context.Context, _ json.RawMessage) (tools.Envelope, error) {
	zerolog.Ctx(ctx).Info().Msg("test connectivity called")
	return tools.Text(ConnectivityOK), nil
}
