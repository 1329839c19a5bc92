package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exposes localization events as Prometheus metrics.
type PrometheusObserver struct {
	Translations    *prometheus.CounterVec
	TranslationTime *prometheus.HistogramVec
	Missing         *prometheus.CounterVec
	LanguageChanges prometheus.Counter
	ReadySignals    *prometheus.CounterVec
	AssetLoads      *prometheus.CounterVec
	ParseErrors     prometheus.Counter
	StorageOps      *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	p := &PrometheusObserver{
		Translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "translations_total",
			Help:      "Number of resolved messages.",
		}, []string{"locale"}),
		TranslationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "localekit",
			Name:      "translation_duration_seconds",
			Help:      "Time spent resolving a message.",
			Buckets:   []float64{.000005, .00001, .00005, .0001, .0005, .001, .005},
		}, []string{"locale"}),
		Missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "missing_messages_total",
			Help:      "Lookups that produced a placeholder.",
		}, []string{"locale"}),
		LanguageChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "language_changes_total",
			Help:      "Number of accepted language change requests.",
		}),
		ReadySignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "language_ready_total",
			Help:      "Number of ready signals delivered.",
		}, []string{"reload"}),
		AssetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "asset_loads_total",
			Help:      "Number of resource files read and parsed.",
		}, []string{"success"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "localekit",
			Name:      "parse_errors_total",
			Help:      "Number of malformed entries skipped while parsing.",
		}),
		StorageOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "localekit",
			Name:      "storage_operation_duration_seconds",
			Help:      "Latency of asset source operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "storage_type", "success"}),
	}

	for _, c := range []prometheus.Collector{
		p.Translations, p.TranslationTime, p.Missing, p.LanguageChanges,
		p.ReadySignals, p.AssetLoads, p.ParseErrors, p.StorageOps,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PrometheusObserver) OnTranslationStart(ctx context.Context, locale string, key string) {}

func (p *PrometheusObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	p.Translations.WithLabelValues(locale).Inc()
	p.TranslationTime.WithLabelValues(locale).Observe(duration.Seconds())
}

func (p *PrometheusObserver) OnMissingMessage(ctx context.Context, locale string, key string) {
	p.Missing.WithLabelValues(locale).Inc()
}

func (p *PrometheusObserver) OnLanguageChange(ctx context.Context, locales []string) {
	p.LanguageChanges.Inc()
}

func (p *PrometheusObserver) OnLanguageReady(ctx context.Context, locales []string, reload bool) {
	p.ReadySignals.WithLabelValues(boolLabel(reload)).Inc()
}

func (p *PrometheusObserver) OnAssetLoad(ctx context.Context, path string, entries int, parseErrors int, duration time.Duration, success bool) {
	p.AssetLoads.WithLabelValues(boolLabel(success)).Inc()
	p.ParseErrors.Add(float64(parseErrors))
}

func (p *PrometheusObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	p.StorageOps.WithLabelValues(operation, storageType, boolLabel(success)).Observe(duration.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// MultiObserver fans every event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnTranslationStart(ctx context.Context, locale string, key string) {
	for _, o := range m {
		o.OnTranslationStart(ctx, locale, key)
	}
}

func (m MultiObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	for _, o := range m {
		o.OnTranslationEnd(ctx, locale, key, duration)
	}
}

func (m MultiObserver) OnMissingMessage(ctx context.Context, locale string, key string) {
	for _, o := range m {
		o.OnMissingMessage(ctx, locale, key)
	}
}

func (m MultiObserver) OnLanguageChange(ctx context.Context, locales []string) {
	for _, o := range m {
		o.OnLanguageChange(ctx, locales)
	}
}

func (m MultiObserver) OnLanguageReady(ctx context.Context, locales []string, reload bool) {
	for _, o := range m {
		o.OnLanguageReady(ctx, locales, reload)
	}
}

func (m MultiObserver) OnAssetLoad(ctx context.Context, path string, entries int, parseErrors int, duration time.Duration, success bool) {
	for _, o := range m {
		o.OnAssetLoad(ctx, path, entries, parseErrors, duration, success)
	}
}

func (m MultiObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	for _, o := range m {
		o.OnStorageOperation(ctx, operation, storageType, duration, success)
	}
}
