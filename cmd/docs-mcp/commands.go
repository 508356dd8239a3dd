package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docs-mcp/internal/server"
	"docs-mcp/internal/telemetry"
	"docs-mcp/internal/tools"
)

const (
	exitRuntime    = 1
	exitValidation = 2
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs-mcp",
		Short: "Docs MCP server",
		Long:  "docs-mcp serves connectivity, directory listing and webpage fetch tools over MCP on stdio.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cmd.PersistentFlags().String("config", "", "Path to config file (default: ./docs-mcp.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level override: trace | debug | info | warn | error")

	cmd.Version = version
	cmd.SetVersionTemplate("docs-mcp version {{.Version}}\n")

	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newCallCmd())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, a.cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	srv := server.New(a.cfg.Server, a.registry, a.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		// The session ending means the client went away; stop everything else.
		defer cancel()
		return ignoreCanceled(srv.ServeStdio(ctx))
	})
	if addr := a.cfg.Diagnostics.Addr; addr != "" {
		p.Go(func(ctx context.Context) error {
			return srv.ServeDiagnostics(ctx, addr)
		})
	}

	if err := p.Wait(); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the operation catalog",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}
	cmd.Flags().StringP("output", "o", "json", "Output format: json | yaml")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "json" && output != "yaml" {
		return &exitError{code: exitValidation, err: fmt.Errorf("unknown output format %q", output)}
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	catalog := a.registry.Catalog()

	out := cmd.OutOrStdout()
	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"tools": catalog})
	}

	type yamlEntry struct {
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		InputSchema map[string]any `yaml:"inputSchema"`
	}
	entries := make([]yamlEntry, 0, len(catalog))
	for _, e := range catalog {
		var schema map[string]any
		if err := json.Unmarshal(e.InputSchema, &schema); err != nil {
			return fmt.Errorf("decode schema of %q: %w", e.Name, err)
		}
		entries = append(entries, yamlEntry{Name: e.Name, Description: e.Description, InputSchema: schema})
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]any{"tools": entries})
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Invoke one operation in-process and print its text output",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	cmd.Flags().String("args", "{}", "Operation arguments as a JSON object")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	rawArgs, _ := cmd.Flags().GetString("args")
	if !json.Valid([]byte(rawArgs)) {
		return &exitError{code: exitValidation, err: errors.New("--args must be valid JSON")}
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	env, err := a.registry.Dispatch(cmd.Context(), args[0], json.RawMessage(rawArgs))
	if err != nil {
		var unknown *tools.UnknownOperationError
		var invalid *tools.InvalidArgumentsError
		if errors.As(err, &unknown) || errors.As(err, &invalid) {
			return &exitError{code: exitValidation, err: err}
		}
		return &exitError{code: exitRuntime, err: err}
	}
	for _, block := range env.Content {
		fmt.Fprintln(cmd.OutOrStdout(), block.Text)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
