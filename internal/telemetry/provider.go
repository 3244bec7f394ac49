// Package telemetry configures process-wide OpenTelemetry tracing.
//
// Tracing is opt-in: when MODHOST_OTEL_ENDPOINT is empty or
// MODHOST_OTEL_ENABLED is "false", Setup returns a no-op shutdown function
// and no global provider is registered. This mirrors the ambient
// observability stack carried by the teacher even for components
// spec.md's Non-goals never mention, since tracing is infrastructure, not
// a scoped-out feature.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Setup initializes tracing for the given service ("modhost-server" or
// "modhost-client"). The returned shutdown function flushes pending spans
// and should be deferred by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv("MODHOST_OTEL_ENABLED"), "false") {
		return noop, nil
	}

	endpoint := os.Getenv("MODHOST_OTEL_ENDPOINT")
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the named tracer from the global provider. Safe to call
// even when Setup returned the no-op shutdown: otel.Tracer always returns
// a usable (possibly no-op) tracer.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
