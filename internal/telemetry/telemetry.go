// Package telemetry wires the global OpenTelemetry tracer provider.
// Tracing is opt-in: without an OTLP endpoint configured the process
// keeps the default no-op provider and provisioning spans cost nothing.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config controls trace export.
type Config struct {
	// Endpoint is the OTLP/HTTP collector endpoint, host:port.
	// Empty disables tracing.
	Endpoint string
	// Insecure disables TLS on the exporter connection.
	Insecure bool
	// ServiceName overrides the reported service.name attribute.
	ServiceName string
}

// Telemetry owns the tracer provider lifecycle. It implements the
// core Starter and Stopper interfaces so the daemon can manage it
// alongside the gateway and scheduler.
type Telemetry struct {
	config   Config
	logger   *slog.Logger
	provider *sdktrace.TracerProvider
}

// New creates a Telemetry component. It does nothing until Start.
func New(config Config, logger *slog.Logger) *Telemetry {
	if config.ServiceName == "" {
		config.ServiceName = "dbset"
	}
	return &Telemetry{config: config, logger: logger}
}

// Start builds the OTLP exporter and installs the global tracer
// provider. With no endpoint configured it is a no-op.
func (t *Telemetry) Start() error {
	if t.config.Endpoint == "" {
		t.logger.Debug("tracing disabled, no endpoint configured")
		return nil
	}
	ctx := context.Background()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.config.Endpoint),
	}
	if t.config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create otlp exporter: %w", err)
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", t.config.ServiceName),
		)),
	)
	otel.SetTracerProvider(t.provider)

	t.logger.Info("tracing enabled", "endpoint", t.config.Endpoint)
	return nil
}

// Stop flushes pending spans and shuts the provider down.
func (t *Telemetry) Stop(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
