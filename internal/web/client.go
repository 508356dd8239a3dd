// Package web provides the single-shot page retrieval used by fetch-webpage.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the number of characters kept from a fetched body.
const DefaultMaxChars = 2000

// Ellipsis marks a truncated body.
const Ellipsis = "..."

// Client is a minimal HTTP client for fetching pages as text.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	MaxChars  int
}

// New returns a new client. If httpClient is nil, a client without a timeout is used.
func New(httpClient *http.Client, userAgent string, maxChars int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Client{HTTP: httpClient, UserAgent: strings.TrimSpace(userAgent), MaxChars: maxChars}
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return "http status " + status
}

// Fetch performs one GET against rawURL and returns the body, truncated to
// MaxChars characters with an Ellipsis appended when it was longer.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// MaxChars+1 characters are always within this many bytes.
	limit := int64(c.MaxChars+1) * utf8.UTFMax
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return Truncate(string(body), c.MaxChars), nil
}

// Truncate keeps the first limit characters of s and appends an Ellipsis if
// anything was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}
