package main

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "authgate"

type telemetryConfig struct {
	enabled bool
	out     io.Writer
}

type telemetryShutdown func(context.Context) error

// initTelemetry installs global tracer and meter providers that export to
// cfg.out. When disabled the otel no-op providers stay in place.
func initTelemetry(ctx context.Context, cfg telemetryConfig) (telemetryShutdown, error) {
	if !cfg.enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(getVersion()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.out))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	tracerProvider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(traceExporter),
	)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.out))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter: %w", err)
	}
	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	return func(ctx context.Context) error {
		var err error
		for _, fn := range []func(context.Context) error{tracerProvider.Shutdown, meterProvider.Shutdown} {
			if shutdownErr := fn(ctx); shutdownErr != nil {
				err = shutdownErr
			}
		}
		return err
	}, nil
}
