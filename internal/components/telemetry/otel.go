package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yelp-bookmarks/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ConfigFile = "telemetry.json5"

const defaultMetricInterval = 5 * time.Second

// Endpoint is where one signal is exported to, grpc wins when both are set.
type Endpoint struct {
	Grpc    string            `json:"grpc_endpoint"`
	Http    string            `json:"http_endpoint"`
	Headers map[string]string `json:"headers"`
}

func (e Endpoint) enabled() bool {
	return e.Grpc != "" || e.Http != ""
}

func (e Endpoint) protocol() string {
	if e.Grpc != "" {
		return "grpc"
	}
	return "http"
}

// Config is the contents of telemetry.json5.
type Config struct {
	// ServiceName overrides the service name reported with every signal,
	// useful to tell apart runs against different accounts.
	ServiceName string   `json:"service_name"`
	Traces      Endpoint `json:"traces"`
	Metrics     Endpoint `json:"metrics"`
	// SampleRatio is the share of runs whose traces are kept, 0 keeps all
	// of them.
	SampleRatio float64 `json:"sample_ratio"`
	// MetricIntervalSeconds is how often metrics are pushed, a scrape is
	// usually shorter than the default so the final flush matters most.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func (c Config) serviceName(fallback string) string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	return fallback
}

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

func (c Config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

// Telemetry holds the installed otel providers, nil providers were not
// configured and leave the global no-op ones in place.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errlist []error
	if t.TracerProvider != nil {
		errlist = append(errlist, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errlist = append(errlist, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errlist...)
}

// SetupFromEnv looks for telemetry.json5 from the cwd upwards and exports
// traces and metrics as it describes, without the file nothing is exported.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config](ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no telemetry config found, otel export disabled", "file", ConfigFile)
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, fmt.Errorf("read %s: %w", ConfigFile, err)
	}
	return Setup(ctx, serviceName, config)
}

// Setup installs a provider for every signal that has an endpoint.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.serviceName(serviceName)),
		),
	)
	if err != nil {
		return Telemetry{}, err
	}

	var out Telemetry
	if config.Traces.enabled() {
		exporter, err := newSpanExporter(ctx, config.Traces)
		if err != nil {
			return Telemetry{}, fmt.Errorf("trace exporter: %w", err)
		}
		out.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(config.sampler()),
			sdktrace.WithResource(r),
		)
		otel.SetTracerProvider(out.TracerProvider)
	}

	if config.Metrics.enabled() {
		exporter, err := newMetricExporter(ctx, config.Metrics)
		if err != nil {
			return Telemetry{}, errors.Join(fmt.Errorf("metric exporter: %w", err), out.Shutdown(ctx))
		}
		out.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(config.metricInterval()),
			)),
			sdkmetric.WithResource(r),
		)
		otel.SetMeterProvider(out.MeterProvider)
	}

	slog.Debug(
		"otel export configured",
		"service", config.serviceName(serviceName),
		"traces", config.Traces.enabled(),
		"metrics", config.Metrics.enabled(),
	)
	return out, nil
}

func newSpanExporter(ctx context.Context, e Endpoint) (sdktrace.SpanExporter, error) {
	slog.Debug("span exporter", "protocol", e.protocol())
	if e.Grpc != "" {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(e.Grpc),
			otlptracegrpc.WithHeaders(e.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(e.Http),
		otlptracehttp.WithHeaders(e.Headers),
	)
}

func newMetricExporter(ctx context.Context, e Endpoint) (sdkmetric.Exporter, error) {
	slog.Debug("metric exporter", "protocol", e.protocol())
	if e.Grpc != "" {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(e.Grpc),
			otlpmetricgrpc.WithHeaders(e.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(e.Http),
		otlpmetrichttp.WithHeaders(e.Headers),
	)
}
