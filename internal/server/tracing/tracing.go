// Package tracing installs the global OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/agrocms/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init configures an OTLP/HTTP exporter when endpoint is set. endpoint may be
// a bare host:port (plain HTTP) or a full URL. With no endpoint tracing stays
// a no-op and the returned shutdown does nothing.
func Init(ctx context.Context, log logging.Logger, serviceName, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		log.Info(ctx, "tracing disabled: no OTLP endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	var opts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info(ctx, "tracing initialized", "endpoint", endpoint)
	return tp.Shutdown, nil
}
