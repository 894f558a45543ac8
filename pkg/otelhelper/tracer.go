// Package otelhelper provides distributed tracing setup for flow
// submission monitoring.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// Common attribute keys.
	FlowNameKey     = "zoneflow.flow.name"
	FlowModeKey     = "zoneflow.flow.mode"
	ZoneIDKey       = "zoneflow.zone.id"
	ZoneStatusKey   = "zoneflow.zone.status"
	ProjectIDKey    = "zoneflow.project.id"
	SubmissionIDKey = "zoneflow.submission.id"
	WorkerIDKey     = "zoneflow.worker.id"
)

// InitTracer installs the global tracer provider exporting spans over OTLP
// and returns it so the binary can shut it down on exit to flush pending
// spans. Every otel.Tracer handle obtained afterwards records against it.
func InitTracer(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}
