// Package observability provides OpenTelemetry and Prometheus integration for localekit.
//
// Components report resolve, asset and language events to a process-wide Observer. The
// default observer does nothing, so instrumenting costs nothing until Init or SetObserver is
// called.
//
// Features:
//   - Tracing spans for translations and language changes
//   - OpenTelemetry metric instruments (counters and histograms)
//   - A Prometheus observer for direct /metrics exposition
//
// Example usage:
//
//	import "github.com/kdsmith18542/localekit/observability"
//
//	func main() {
//	    observability.Init(observability.Config{
//	        ServiceName:    "my-app",
//	        ServiceVersion: "1.0.0",
//	        Environment:    "production",
//	        EnableTracing:  true,
//	        EnableMetrics:  true,
//	    })
//	}
package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kdsmith18542/localekit"

// Config holds the configuration for observability initialization
type Config struct {
	// ServiceName is the name of the service for tracing and metrics
	ServiceName string `env:"SERVICE_NAME" toml:"service_name" yaml:"service_name"`
	// ServiceVersion is the version of the service
	ServiceVersion string `env:"SERVICE_VERSION" toml:"service_version" yaml:"service_version"`
	// Environment is the deployment environment (dev, staging, prod)
	Environment string `env:"ENVIRONMENT" toml:"environment" yaml:"environment"`
	// EnableTracing enables distributed tracing
	EnableTracing bool `env:"TRACING" toml:"tracing" yaml:"tracing"`
	// EnableMetrics enables metrics collection
	EnableMetrics bool `env:"METRICS" toml:"metrics" yaml:"metrics"`
	// MetricReader receives the collected metrics. Nil means the SDK default (no export).
	MetricReader sdkmetric.Reader `toml:"-" yaml:"-"`
}

// Observer receives localization events.
type Observer interface {
	// Resolve
	OnTranslationStart(ctx context.Context, locale string, key string)
	OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration)
	OnMissingMessage(ctx context.Context, locale string, key string)

	// Language lifecycle
	OnLanguageChange(ctx context.Context, locales []string)
	OnLanguageReady(ctx context.Context, locales []string, reload bool)

	// Assets
	OnAssetLoad(ctx context.Context, path string, entries int, parseErrors int, duration time.Duration, success bool)
	OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool)
}

var (
	observerMu     sync.RWMutex
	globalObserver Observer = &noopObserver{}
)

// Init initializes the observability system with the given configuration
func Init(config Config) error {
	if !config.EnableTracing && !config.EnableMetrics {
		SetObserver(&noopObserver{})
		return nil
	}

	if err := initOpenTelemetry(config); err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	observer, err := NewOTelObserver(otel.Tracer(instrumentationName), otel.Meter(instrumentationName))
	if err != nil {
		return err
	}
	SetObserver(observer)
	return nil
}

// SetObserver sets a custom observer for observability events
func SetObserver(observer Observer) {
	if observer == nil {
		observer = &noopObserver{}
	}
	observerMu.Lock()
	globalObserver = observer
	observerMu.Unlock()
}

// GetObserver returns the current observer instance
func GetObserver() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return globalObserver
}

// StartSpan starts a new span for tracing
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		attrs := make([]attribute.KeyValue, 0, len(attributes))
		for k, v := range attributes {
			attrs = append(attrs, attribute.String(k, v))
		}
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// noopObserver is a no-operation observer that does nothing
type noopObserver struct{}

func (n *noopObserver) OnTranslationStart(ctx context.Context, locale string, key string) {}
func (n *noopObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
}
func (n *noopObserver) OnMissingMessage(ctx context.Context, locale string, key string)      {}
func (n *noopObserver) OnLanguageChange(ctx context.Context, locales []string)               {}
func (n *noopObserver) OnLanguageReady(ctx context.Context, locales []string, reload bool) {}
func (n *noopObserver) OnAssetLoad(ctx context.Context, path string, entries int, parseErrors int, duration time.Duration, success bool) {
}
func (n *noopObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
}

// OTelObserver implements Observer with OpenTelemetry spans and metric instruments.
type OTelObserver struct {
	tracer trace.Tracer

	translations    metric.Int64Counter
	translationTime metric.Float64Histogram
	missing         metric.Int64Counter
	languageChanges metric.Int64Counter
	readySignals    metric.Int64Counter
	assetLoads      metric.Int64Counter
	parseErrors     metric.Int64Counter
	storageOps      metric.Float64Histogram
}

// NewOTelObserver creates the metric instruments on meter.
func NewOTelObserver(tracer trace.Tracer, meter metric.Meter) (*OTelObserver, error) {
	o := &OTelObserver{tracer: tracer}
	var err error

	if o.translations, err = meter.Int64Counter("localekit.translations",
		metric.WithDescription("Number of resolved messages")); err != nil {
		return nil, err
	}
	if o.translationTime, err = meter.Float64Histogram("localekit.translation.duration",
		metric.WithDescription("Time spent resolving a message"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if o.missing, err = meter.Int64Counter("localekit.missing_messages",
		metric.WithDescription("Lookups that produced a placeholder")); err != nil {
		return nil, err
	}
	if o.languageChanges, err = meter.Int64Counter("localekit.language_changes"); err != nil {
		return nil, err
	}
	if o.readySignals, err = meter.Int64Counter("localekit.language_ready"); err != nil {
		return nil, err
	}
	if o.assetLoads, err = meter.Int64Counter("localekit.asset_loads"); err != nil {
		return nil, err
	}
	if o.parseErrors, err = meter.Int64Counter("localekit.parse_errors"); err != nil {
		return nil, err
	}
	if o.storageOps, err = meter.Float64Histogram("localekit.storage.duration", metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OTelObserver) OnTranslationStart(ctx context.Context, locale string, key string) {
	AddSpanEvent(ctx, "i18n.translation.start", map[string]string{
		"locale": locale,
		"key":    key,
	})
}

func (o *OTelObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("locale", locale))
	o.translations.Add(ctx, 1, attrs)
	o.translationTime.Record(ctx, milliseconds(duration), attrs)
}

func (o *OTelObserver) OnMissingMessage(ctx context.Context, locale string, key string) {
	o.missing.Add(ctx, 1, metric.WithAttributes(attribute.String("locale", locale)))
	AddSpanEvent(ctx, "i18n.message.missing", map[string]string{
		"locale": locale,
		"key":    key,
	})
}

func (o *OTelObserver) OnLanguageChange(ctx context.Context, locales []string) {
	_, span := o.tracer.Start(ctx, "i18n.language.change", trace.WithAttributes(
		attribute.StringSlice("locales", locales),
	))
	span.End()
	o.languageChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("primary", first(locales))))
}

func (o *OTelObserver) OnLanguageReady(ctx context.Context, locales []string, reload bool) {
	o.readySignals.Add(ctx, 1, metric.WithAttributes(
		attribute.String("primary", first(locales)),
		attribute.Bool("reload", reload),
	))
	AddSpanEvent(ctx, "i18n.language.ready", map[string]string{
		"locales": strings.Join(locales, ","),
		"reload":  fmt.Sprintf("%t", reload),
	})
}

func (o *OTelObserver) OnAssetLoad(ctx context.Context, path string, entries int, parseErrors int, duration time.Duration, success bool) {
	o.assetLoads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if parseErrors > 0 {
		o.parseErrors.Add(ctx, int64(parseErrors))
	}
}

func (o *OTelObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	o.storageOps.Record(ctx, milliseconds(duration), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("storage.type", storageType),
		attribute.Bool("success", success),
	))
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func first(locales []string) string {
	if len(locales) == 0 {
		return ""
	}
	return locales[0]
}

// initOpenTelemetry initializes OpenTelemetry with the given configuration
func initOpenTelemetry(config Config) error {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// No exporter is configured here; callers that ship spans install their own provider.
	if config.EnableTracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if config.EnableMetrics {
		opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
		if config.MetricReader != nil {
			opts = append(opts, sdkmetric.WithReader(config.MetricReader))
		}
		otel.SetMeterProvider(sdkmetric.NewMeterProvider(opts...))
	}

	return nil
}
