package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReturnsShortBodyUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	body, err := New(srv.Client(), "", 0).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<html>hello</html>", body)
}

func TestFetchTruncatesLongBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 5000)))
	}))
	defer srv.Close()

	body, err := New(srv.Client(), "", DefaultMaxChars).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, body, 2003)
	assert.True(t, strings.HasSuffix(body, Ellipsis))
	assert.Equal(t, strings.Repeat("a", 2000), strings.TrimSuffix(body, Ellipsis))
}

func TestFetchKeepsBodyAtExactLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("b", 10)))
	}))
	defer srv.Close()

	body, err := New(srv.Client(), "", 10).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 10), body)
}

func TestFetchReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := New(srv.Client(), "", 0).Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchSendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := New(srv.Client(), "docs-mcp/1.0.0", 0).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "docs-mcp/1.0.0", got)
}

func TestFetchReportsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(nil, "", 0).Fetch(context.Background(), url)

	assert.Error(t, err)
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	assert.Equal(t, "héé...", Truncate("héééé", 3))
	assert.Equal(t, "日本", Truncate("日本", 2))
	assert.Equal(t, "", Truncate("", 5))
}

func TestStatusErrorWithoutStatusText(t *testing.T) {
	err := &StatusError{Code: http.StatusBadGateway}
	assert.Equal(t, "http status 502 Bad Gateway", err.Error())
}
