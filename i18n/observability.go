package i18n

import (
	"context"
	"sync"
	"time"

	"github.com/kdsmith18542/localekit/observability"
)

// Observer defines hooks for tracing and metrics in i18n operations
type Observer interface {
	OnTranslationStart(ctx context.Context, locale string, key string)
	OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration)
	OnMissingMessage(ctx context.Context, locale string, key string)
	OnLanguageChange(ctx context.Context, locales []string)
	OnLanguageReady(ctx context.Context, locales []string, reload bool)
}

var (
	observerMu sync.RWMutex
	registered Observer
)

// RegisterObserver sets the global observer for i18n events. Managers created without
// WithObserver report to it.
func RegisterObserver(obs Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	registered = obs
}

// getObserver returns the registered observer (or nil)
func getObserver() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return registered
}

// i18nObserver implements Observer using the global observability system
type i18nObserver struct{}

func (i *i18nObserver) OnTranslationStart(ctx context.Context, locale string, key string) {
	observability.GetObserver().OnTranslationStart(ctx, locale, key)
}

func (i *i18nObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	observability.GetObserver().OnTranslationEnd(ctx, locale, key, duration)
}

func (i *i18nObserver) OnMissingMessage(ctx context.Context, locale string, key string) {
	observability.GetObserver().OnMissingMessage(ctx, locale, key)
}

func (i *i18nObserver) OnLanguageChange(ctx context.Context, locales []string) {
	observability.GetObserver().OnLanguageChange(ctx, locales)
}

func (i *i18nObserver) OnLanguageReady(ctx context.Context, locales []string, reload bool) {
	observability.GetObserver().OnLanguageReady(ctx, locales, reload)
}

// EnableObservability enables observability integration for the i18n package
func EnableObservability() {
	RegisterObserver(&i18nObserver{})
}

type noopObserver struct{}

func (noopObserver) OnTranslationStart(context.Context, string, string)                {}
func (noopObserver) OnTranslationEnd(context.Context, string, string, time.Duration)   {}
func (noopObserver) OnMissingMessage(context.Context, string, string)                  {}
func (noopObserver) OnLanguageChange(context.Context, []string)                        {}
func (noopObserver) OnLanguageReady(context.Context, []string, bool)                   {}
