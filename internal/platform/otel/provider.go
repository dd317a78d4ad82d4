// Package otel wires OpenTelemetry tracing for the docs service.
package otel

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/config"
)

const (
	// EnvEndpoint names the OTLP/HTTP collector URL variable.
	EnvEndpoint = "ULTITOOLS_DOCS_OTEL_ENDPOINT"
	// EnvEnabled names the kill-switch variable; "false" disables tracing.
	EnvEnabled = "ULTITOOLS_DOCS_OTEL_ENABLED"
	// EnvSampleRatio names the root-span sampling fraction variable.
	EnvSampleRatio = "ULTITOOLS_DOCS_OTEL_SAMPLE_RATIO"
)

// Settings describe where and how spans are exported.
type Settings struct {
	Endpoint    string  `env:"ULTITOOLS_DOCS_OTEL_ENDPOINT"`
	Enabled     bool    `env:"ULTITOOLS_DOCS_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"ULTITOOLS_DOCS_OTEL_SAMPLE_RATIO" envDefault:"1"`
	Environment string  `env:"ULTITOOLS_DOCS_ENVIRONMENT"`
}

// Active reports whether spans should be exported at all.
func (s Settings) Active() bool {
	return s.Enabled && strings.TrimSpace(s.Endpoint) != ""
}

// Validate checks the sampling fraction.
func (s Settings) Validate() error {
	if s.SampleRatio < 0 || s.SampleRatio > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", EnvSampleRatio, s.SampleRatio)
	}
	return nil
}

// LoadSettings reads tracing settings from the environment.
func LoadSettings() (Settings, error) {
	var settings Settings
	if err := config.ParseEnv(&settings); err != nil {
		return Settings{}, err
	}
	settings.Endpoint = strings.TrimSpace(settings.Endpoint)
	return settings, settings.Validate()
}

// Setup loads settings from the environment and installs a tracer provider.
//
// Tracing is opt-in: with no endpoint, or with tracing disabled, the returned
// shutdown is a no-op and the global provider is left untouched.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	settings, err := LoadSettings()
	if err != nil {
		return noopShutdown, err
	}
	return SetupWithSettings(ctx, serviceName, settings)
}

// SetupWithSettings installs a batching OTLP/HTTP tracer provider for
// serviceName. Callers defer the returned shutdown to flush pending spans.
func SetupWithSettings(ctx context.Context, serviceName string, settings Settings) (func(context.Context) error, error) {
	if !settings.Active() {
		return noopShutdown, nil
	}
	if err := settings.Validate(); err != nil {
		return noopShutdown, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(settings.Endpoint))
	if err != nil {
		return noopShutdown, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(serviceName, settings)...))
	if err != nil {
		return noopShutdown, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(settings.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func resourceAttributes(serviceName string, settings Settings) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if env := strings.TrimSpace(settings.Environment); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(env))
	}
	return attrs
}

// sampler keeps the caller's decision for propagated traces.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func noopShutdown(context.Context) error { return nil }
