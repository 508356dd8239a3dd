package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"docs-mcp/internal/config"
)

// Shutdown flushes and stops whatever Setup installed.
type Shutdown func(context.Context) error

// Setup installs a global tracer provider exporting over OTLP/HTTP when an
// endpoint is configured. Without one the global no-op providers stay in place.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewGlobalObserver builds an Observer from the global meter and tracer providers.
func NewGlobalObserver() (*Observer, error) {
	return NewObserver(
		otel.GetMeterProvider().Meter(InstrumentationName),
		otel.GetTracerProvider().Tracer(InstrumentationName),
	)
}
