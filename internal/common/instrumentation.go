package common

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	metric2 "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.37.0"
)

// InitInstrumentation setups otel. Without an exporterEndpoint the counters are bound to the global
// no-op meter provider and nothing is exported.
func InitInstrumentation(serviceName, serviceVersion, serviceEnvironment, exporterEndpoint string) (func(ctx context.Context), error) {

	if exporterEndpoint == "" {
		if err := createCustomMeters(serviceName, serviceVersion, serviceEnvironment); err != nil {
			return nil, fmt.Errorf("failed to create custom meters: %w", err)
		}
		return func(context.Context) {}, nil
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironmentName(serviceEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to merge otel resource: %w", err)
	}

	// Metric exporter
	metricExporter, err := otlpmetricgrpc.New(
		context.Background(),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(exporterEndpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	// Metric periodic reader
	metricPeriodicReader := metric.NewPeriodicReader(metricExporter, metric.WithInterval(10*time.Second))

	metricsProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metricPeriodicReader),
	)

	otel.SetMeterProvider(metricsProvider)

	err = createCustomMeters(serviceName, serviceVersion, serviceEnvironment)
	if err != nil {
		_ = metricsProvider.Shutdown(context.Background())
		_ = metricExporter.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create custom meters: %w", err)
	}

	// Trace exporter
	traceExporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(exporterEndpoint),
	)
	if err != nil {
		_ = metricsProvider.Shutdown(context.Background())
		_ = metricExporter.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(traceProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	return func(ctx context.Context) {
		_ = metricsProvider.Shutdown(ctx)
		_ = metricExporter.Shutdown(ctx)
		_ = traceProvider.Shutdown(ctx)
		_ = traceExporter.Shutdown(ctx)
	}, nil
}

// FetchesTotalIncr increases in 1 a metric for tracking outgoing fetches by outcome
var FetchesTotalIncr = func(ctx context.Context, result string) {}

// CacheGetsTotalIncr increases in 1 a metric for tracking cache hits and misses
var CacheGetsTotalIncr = func(ctx context.Context, keyPrefix, result string) {}

// EntriesSkippedTotalAdd increases a metric for tracking corpus entries a stage had to skip
var EntriesSkippedTotalAdd = func(ctx context.Context, stage string, n int) {}

// PagesWrittenTotalAdd increases a metric for tracking written site pages by kind
var PagesWrittenTotalAdd = func(ctx context.Context, kind string, n int) {}

func createCustomMeters(serviceName, serviceVersion, serviceEnvironment string) error {
	meter := otel.Meter(serviceName)
	base := []attribute.KeyValue{
		attribute.String(string(semconv.DeploymentEnvironmentNameKey), serviceEnvironment),
		attribute.String(string(semconv.ServiceVersionKey), serviceVersion),
	}
	with := func(kv ...attribute.KeyValue) metric2.AddOption {
		return metric2.WithAttributes(append(kv, base...)...)
	}

	fetchesTotal, err := meter.Int64Counter("fetches_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	FetchesTotalIncr = func(ctx context.Context, result string) {
		fetchesTotal.Add(ctx, 1, with(attribute.String("result", result)))
	}

	cacheGetsTotal, err := meter.Int64Counter("cache_gets_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	CacheGetsTotalIncr = func(ctx context.Context, keyPrefix, result string) {
		cacheGetsTotal.Add(ctx, 1, with(
			attribute.String("key.prefix", keyPrefix),
			attribute.String("result", result),
		))
	}

	entriesSkippedTotal, err := meter.Int64Counter("entries_skipped_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	EntriesSkippedTotalAdd = func(ctx context.Context, stage string, n int) {
		entriesSkippedTotal.Add(ctx, int64(n), with(attribute.String("stage", stage)))
	}

	pagesWrittenTotal, err := meter.Int64Counter("pages_written_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	PagesWrittenTotalAdd = func(ctx context.Context, kind string, n int) {
		pagesWrittenTotal.Add(ctx, int64(n), with(attribute.String("kind", kind)))
	}

	return nil
}
