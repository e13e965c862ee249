package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/servicekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	Endpoint       string        `mapstructure:"endpoint"`
	Insecure       bool          `mapstructure:"insecure"`
	Interval       time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "0.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Operation outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RegistryMetrics holds the instruments recorded by the registry facade.
type RegistryMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	nodes      metric.Int64Histogram
}

// NewRegistryMetrics creates registry instruments on meter.
func NewRegistryMetrics(meter metric.Meter) (*RegistryMetrics, error) {
	operations, err := meter.Int64Counter("registry.operation.total",
		metric.WithDescription("Discovery agent calls by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating registry.operation.total counter: %w", err)
	}
	duration, err := meter.Float64Histogram("registry.operation.duration",
		metric.WithDescription("Duration of discovery agent calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating registry.operation.duration histogram: %w", err)
	}
	nodes, err := meter.Int64Histogram("registry.nodes.returned",
		metric.WithDescription("Healthy nodes returned per service lookup"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating registry.nodes.returned histogram: %w", err)
	}
	return &RegistryMetrics{operations: operations, duration: duration, nodes: nodes}, nil
}

// RecordOperation records one facade operation. A nil receiver is a no-op.
func (m *RegistryMetrics) RecordOperation(ctx context.Context, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordNodes records how many healthy nodes a lookup returned.
func (m *RegistryMetrics) RecordNodes(ctx context.Context, service string, n int) {
	if m == nil {
		return
	}
	m.nodes.Record(ctx, int64(n), metric.WithAttributes(attribute.String("service", service)))
}
