// Package handlers implements the operations exposed by the docs server.
package handlers

import (
	"context"
	"fmt"

	"docs-mcp/internal/tools"
)

// Operation names.
const (
	TestConnectivity = "test-connectivity"
	ListDirectory    = "list-directory"
	FetchWebpage     = "fetch-webpage"
)

// Fetcher retrieves a URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Deps carries what the handlers need from the process.
type Deps struct {
	Fetcher            Fetcher
	ListingConcurrency int
}

// Register adds every operation to reg.
func Register(reg *tools.Registry, deps Deps) error {
	if deps.Fetcher == nil {
		return fmt.Errorf("handlers: fetcher is required")
	}

	ops := []struct {
		name, description, schema string
		handler                   tools.Handler
	}{
		{TestConnectivity, "Tests connectivity to the server", tools.EmptyObjectSchema, Connectivity},
		{ListDirectory, "Lists the contents of a given directory", ListDirectorySchema, NewDirectoryLister(deps.ListingConcurrency).Handle},
		{FetchWebpage, "Fetches a webpage and returns its content as text", FetchWebpageSchema, NewWebpageFetcher(deps.Fetcher).Handle},
	}
	for _, op := range ops {
		if err := reg.Register(op.name, op.description, []byte(op.schema), op.handler); err != nil {
			return err
		}
	}
	return nil
}
