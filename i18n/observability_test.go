package i18n

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestI18nObservability(t *testing.T) {
	t.Cleanup(func() { RegisterObserver(nil) })

	observer := &testI18nObserver{}
	RegisterObserver(observer)
	assert.Same(t, observer, getObserver())

	m := NewManager("", newFakeLoader())
	assert.Same(t, observer, m.observer, "managers default to the registered observer")

	EnableObservability()
	obs := getObserver()
	_, ok := obs.(*i18nObserver)
	assert.True(t, ok)

	// Forwarding to the global observability layer must not panic without initialization.
	ctx := context.Background()
	obs.OnTranslationStart(ctx, "en", "test-key")
	obs.OnTranslationEnd(ctx, "en", "test-key", time.Millisecond)
	obs.OnMissingMessage(ctx, "en", "test-key")
	obs.OnLanguageChange(ctx, []string{"en"})
	obs.OnLanguageReady(ctx, []string{"en"}, false)

	RegisterObserver(nil)
	_, ok = NewManager("", newFakeLoader()).observer.(noopObserver)
	assert.True(t, ok)
}

type testI18nObserver struct{}

func (o *testI18nObserver) OnTranslationStart(ctx context.Context, locale, key string) {}
func (o *testI18nObserver) OnTranslationEnd(ctx context.Context, locale, key string, duration time.Duration) {
}
func (o *testI18nObserver) OnMissingMessage(ctx context.Context, locale, key string)       {}
func (o *testI18nObserver) OnLanguageChange(ctx context.Context, locales []string)         {}
func (o *testI18nObserver) OnLanguageReady(ctx context.Context, locales []string, r bool) {}
