// Package telemetry wires OpenTelemetry tracing into the analysis.
//
// Tracing is off unless OTEL_ENABLED=true. When off, the global no-op
// TracerProvider stays in place and spans cost nothing. Recognised variables:
//
//	OTEL_ENABLED                 enable tracing (default: false)
//	OTEL_SERVICE_NAME            service name (default: poisson-gamma)
//	OTEL_SERVICE_VERSION         service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT  collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL  grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS   comma-separated key=value headers
//	OTEL_EXPORTER_OTLP_INSECURE  plaintext transport (default: false)
//	OTEL_TRACES_SAMPLER          sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG      sampler argument, e.g. a ratio
//	OTEL_RESOURCE_ATTRIBUTES     extra resource attributes
//
// Spans emitted: analysis.run, posterior.summarize, hpdi.solve, batch.run.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans produced by this module.
const InstrumentationName = "github.com/poisson-gamma"

// ShutdownFunc flushes and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// Init installs a global TracerProvider configured from the environment.
func Init(ctx context.Context) (ShutdownFunc, error) {
	return InitWithConfig(ctx, LoadFromEnv())
}

// InitWithConfig installs a global TracerProvider for cfg. A disabled
// config leaves the no-op provider in place.
func InitWithConfig(ctx context.Context, cfg *Config) (ShutdownFunc, error) {
	if cfg == nil || !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span named name with the given attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
