// Package telemetry records tool invocations as OpenTelemetry spans and metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"docs-mcp/internal/tools"
)

// InstrumentationName scopes the meter and tracer.
const InstrumentationName = "docs-mcp"

// Observer implements tools.Observer on top of OpenTelemetry.
type Observer struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter and tracer.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	invocations, err := meter.Int64Counter(
		"docs_mcp.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"docs_mcp.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &Observer{tracer: tracer, invocations: invocations, latency: latency}, nil
}

// ObserveInvocation records one dispatch result.
func (o *Observer) ObserveInvocation(ctx context.Context, inv tools.Invocation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", inv.Operation),
		attribute.String("outcome", string(inv.Outcome)),
	}
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, inv.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	end := time.Now()
	_, span := o.tracer.Start(ctx, "tool.invoke",
		trace.WithTimestamp(end.Add(-inv.Duration)),
		trace.WithAttributes(append(attrs, attribute.String("invocation_id", inv.ID))...),
	)
	if inv.Outcome == tools.OutcomeOK {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, string(inv.Outcome))
	}
	span.End(trace.WithTimestamp(end))
}

var _ tools.Observer = (*Observer)(nil)
