package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/navoditbharat/mapsketch/internal/pkg/config"
)

const tracerName = "github.com/navoditbharat/mapsketch"

// Span names used for instrumentation.
const (
	SpanImport = "mapsketch.import"
	SpanExport = "mapsketch.export"
	SpanSave   = "mapsketch.save"
	SpanLoad   = "mapsketch.load"
)

// Span attribute keys.
const (
	AttrMarkers     = attribute.Key("mapsketch.markers")
	AttrHasPolygon  = attribute.Key("mapsketch.polygon")
	AttrWarnings    = attribute.Key("mapsketch.geojson.warnings")
	AttrPayloadSize = attribute.Key("mapsketch.payload_bytes")
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(ctx context.Context) error

// InitTracer installs a global tracer provider that exports spans over
// OTLP/gRPC to cfg.TempoAddr. When telemetry is disabled the global no-op
// provider stays in place.
func InitTracer(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.TempoAddr),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
