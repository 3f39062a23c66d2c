// Package telemetry installs an OTLP/HTTP tracer provider so the spans emitted
// by the runner package reach a collector.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amp-labs/amp-transducer/envutil"
	"github.com/amp-labs/amp-transducer/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceName    = "transducer"
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	defaultSampleRatio    = 1.0

	// gkeCollector is used when KUBERNETES_SERVICE_HOST is set and no endpoint is.
	gkeCollector = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

// ErrBadSampleRatio is returned for a sample ratio outside [0, 1].
var ErrBadSampleRatio = fmt.Errorf("%w: sample ratio must be within [0, 1]", envutil.ErrBadEnvVar)

var (
	providerMu sync.Mutex               //nolint:gochecknoglobals
	provider   *sdktrace.TracerProvider //nolint:gochecknoglobals
)

// Config holds the tracing setup.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration
	// SampleRatio is the fraction of root traces kept. Child spans follow
	// their parent's decision.
	SampleRatio float64
}

// LoadConfigFromEnv reads OTEL_ENABLED, OTEL_SERVICE_NAME,
// OTEL_SERVICE_VERSION, OTEL_EXPORTER_OTLP_TRACES_ENDPOINT,
// OTEL_EXPORTER_OTLP_TRACES_TIMEOUT and OTEL_TRACES_SAMPLER_ARG. The service
// name falls back to the logging subsystem, then to "transducer".
func LoadConfigFromEnv(ctx context.Context, runningEnv string) (*Config, error) {
	cfg := &Config{
		Environment: runningEnv,
		Enabled:     envutil.Bool(ctx, "OTEL_ENABLED", envutil.Default(false)).ValueOrElse(false),
	}

	fallbackName := logger.GetSubsystem(ctx)
	if fallbackName == "" {
		fallbackName = defaultServiceName
	}

	fallbackEndpoint := ""
	if envutil.String(ctx, "KUBERNETES_SERVICE_HOST").ValueOrElse("") != "" {
		fallbackEndpoint = gkeCollector
	}

	var err error

	if cfg.ServiceName, err = envutil.String(ctx, "OTEL_SERVICE_NAME",
		envutil.Default(fallbackName)).Value(); err != nil {
		return nil, err
	}

	if cfg.ServiceVersion, err = envutil.String(ctx, "OTEL_SERVICE_VERSION",
		envutil.Default(defaultServiceVersion)).Value(); err != nil {
		return nil, err
	}

	if cfg.Endpoint, err = envutil.String(ctx, "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		envutil.Default(fallbackEndpoint)).Value(); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = envutil.Duration(ctx, "OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		envutil.Default(defaultTimeout)).Value(); err != nil {
		return nil, err
	}

	if cfg.SampleRatio, err = envutil.Float64(ctx, "OTEL_TRACES_SAMPLER_ARG",
		envutil.Default(defaultSampleRatio)).Value(); err != nil {
		return nil, err
	}

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("%w, got %v", ErrBadSampleRatio, cfg.SampleRatio)
	}

	return cfg, nil
}

// Initialize installs a batching OTLP/HTTP tracer provider as the otel global.
// It does nothing when tracing is disabled or has no endpoint. A provider
// installed by an earlier call is shut down first.
func Initialize(ctx context.Context, config *Config) error {
	log := logger.Get(ctx)

	switch {
	case !config.Enabled:
		log.Info("OpenTelemetry tracing is disabled")

		return nil
	case config.Endpoint == "":
		log.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	next := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRatio))),
	)

	if err := swap(ctx, next); err != nil {
		log.Warn("failed to shut down previous tracer provider", "error", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"sampleRatio", config.SampleRatio,
	)

	return nil
}

// Shutdown flushes and stops the installed tracer provider, if any.
func Shutdown(ctx context.Context) error {
	return swap(ctx, nil)
}

// swap replaces the installed provider with next and shuts the old one down.
// A nil next leaves the otel global untouched.
func swap(ctx context.Context, next *sdktrace.TracerProvider) error {
	providerMu.Lock()
	prev := provider
	provider = next

	if next != nil {
		otel.SetTracerProvider(next)
	}
	providerMu.Unlock()

	if prev == nil {
		return nil
	}

	logger.Get(ctx).Info("Shutting down OpenTelemetry tracer provider")

	return prev.Shutdown(ctx)
}
