package main

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docs-mcp/internal/config"
	"docs-mcp/internal/handlers"
	"docs-mcp/internal/logging"
	"docs-mcp/internal/telemetry"
	"docs-mcp/internal/tools"
	"docs-mcp/internal/web"
)

// app is the wired process state shared by every command.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *tools.Registry
}

// loadApp reads configuration, builds the logger and registers every operation.
func loadApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, registry: registry}, nil
}

// buildRegistry is the explicit initialization step: a fresh registry
// populated with every handler.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) (*tools.Registry, error) {
	observer, err := telemetry.NewGlobalObserver()
	if err != nil {
		return nil, err
	}
	registry := tools.NewRegistry(logger, tools.WithObserver(observer))

	fetcher := web.New(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch.UserAgent, cfg.Fetch.MaxChars)
	if err := handlers.Register(registry, handlers.Deps{
		Fetcher:            fetcher,
		ListingConcurrency: cfg.Listing.Concurrency,
	}); err != nil {
		return nil, err
	}
	return registry, nil
}
