package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"docs-mcp/internal/tools"
)

// FetchWebpageSchema is the input schema of fetch-webpage.
const FetchWebpageSchema = `{
  "type": "object",
  "properties": {
    "url": {
      "type": "string",
      "format": "uri",
      "description": "The URL of the webpage to fetch"
    }
  },
  "required": ["url"]
}`

// WebpageFetcher implements fetch-webpage.
type WebpageFetcher struct {
	fetcher Fetcher
}

// NewWebpageFetcher wraps f as a handler.
func NewWebpageFetcher(f Fetcher) *WebpageFetcher {
	return &WebpageFetcher{fetcher: f}
}

// Handle fetches args.url once and returns the (truncated) body.
func (w *WebpageFetcher) Handle(ctx context.Context, args json.RawMessage) (tools.Envelope, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return tools.Envelope{}, fmt.Errorf("invalid arguments: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("url", params.URL).Msg("fetching webpage")

	body, err := w.fetcher.Fetch(ctx, params.URL)
	if err != nil {
		return tools.Envelope{}, tools.Fail("fetching webpage", err)
	}
	return tools.Text(body), nil
}
