// Package i18n resolves message identifiers into localized strings.
//
// A Manager owns the active fallback chain (a LocaleSet): one Bundle per requested locale,
// most preferred first. Resource files are enumerated through a Loader and their content
// arrives later as notifications, applied once per scheduling tick with Apply. When every
// file of the active set has content, a LanguageReady signal is delivered to listeners,
// exactly once per language change and once per tick that changed loaded content.
//
// Resolution never fails: it walks the chain bundle by bundle and returns either the
// formatted pattern or a deterministic placeholder such as ##~id~##.
//
// Example:
//
//	server, _ := assets.NewServer(assets.NewLocal("./locales"), nil)
//	manager := i18n.NewManager("", server)
//	manager.OnLanguageReady(func(ev i18n.LanguageReady) {
//	    fmt.Println(manager.Get("title"))
//	})
//	_ = manager.RequestLanguage(ctx, []language.Tag{language.MustParse("fr"), language.English})
package i18n

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/logger"
	"github.com/kdsmith18542/localekit/resource"
)

// Loader enumerates locale directories and hands out parsed content. *assets.Server
// implements it.
type Loader interface {
	LoadFolder(ctx context.Context, dir string) ([]assets.Handle, error)
	Get(h assets.Handle) (*resource.Text, bool)
}

// Manager holds the active locale set and resolves messages against it.
// Resolve and the read accessors are safe for concurrent use. RequestLanguage and Apply are
// serialized with each other; resolves running meanwhile see either the old or the new state.
type Manager struct {
	root      string
	loader    Loader
	log       *zap.Logger
	observer  Observer
	formatter *formatter

	// writeMu serializes writers so a language change can enumerate directories without
	// holding mu.
	writeMu sync.Mutex

	mu        sync.RWMutex
	set       *LocaleSet
	pending   bool
	announced bool

	listenersMu  sync.Mutex
	listeners    []listener
	nextListener int
}

type listener struct {
	id int
	fn func(LanguageReady)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for load and resolve diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver sets the observer for this manager instead of the global one.
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		m.observer = obs
	}
}

// NewManager creates a manager whose locale directories live under root, relative to the
// loader's source.
func NewManager(root string, loader Loader, opts ...Option) *Manager {
	m := &Manager{
		root:      root,
		loader:    loader,
		formatter: newFormatter(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Named("i18n")
	}
	if m.observer == nil {
		m.observer = getObserver()
	}
	if m.observer == nil {
		m.observer = noopObserver{}
	}
	return m
}

// RequestLanguage replaces the active locale set with one bundle per tag, in order.
//
// Requesting the current list again does nothing. Content the loader already holds is merged
// immediately; the rest arrives through Apply. If the new set is complete right away, the
// ready signal is delivered before RequestLanguage returns. If no directory of the requested
// locales can be enumerated, the error wraps ErrLocaleDirectoryUnavailable and the active set
// stays as it was.
func (m *Manager) RequestLanguage(ctx context.Context, tags []language.Tag) error {
	if len(tags) == 0 {
		return ErrNoLocales
	}

	m.writeMu.Lock()
	ready, ok, err := m.changeLanguage(ctx, tags)
	m.writeMu.Unlock()
	if err != nil || !ok {
		return err
	}
	m.deliver(ctx, ready)
	return nil
}

// changeLanguage builds and installs the new set. The caller holds writeMu.
func (m *Manager) changeLanguage(ctx context.Context, tags []language.Tag) (LanguageReady, bool, error) {
	m.mu.RLock()
	same := m.set != nil && sameLocales(m.set.Locales(), tags)
	m.mu.RUnlock()
	if same {
		m.log.Info("language already active", zap.Strings("locales", tagStrings(tags)))
		return LanguageReady{}, false, nil
	}

	m.log.Info("changing language", zap.Strings("locales", tagStrings(tags)))

	set := &LocaleSet{}
	var failed []string
	for _, tag := range tags {
		dir := path.Join(m.root, tag.String())
		bundle := NewBundle(tag, m.log)

		handles, err := m.loader.LoadFolder(ctx, dir)
		if err != nil {
			m.log.Warn("locale directory unavailable",
				zap.String("locale", tag.String()),
				zap.String("dir", dir),
				zap.Error(err),
			)
			failed = append(failed, dir)
		}
		for _, h := range handles {
			if set.owner(h) != nil {
				continue
			}
			text, _ := m.loader.Get(h)
			bundle.AddMember(h, text)
		}
		set.add(dir, bundle)
	}

	if len(failed) == len(tags) {
		return LanguageReady{}, false, fmt.Errorf("failed to change language: %w: %s", ErrLocaleDirectoryUnavailable, strings.Join(failed, ", "))
	}

	m.mu.Lock()
	m.set = set
	m.pending = true
	m.announced = false
	ready, ok := m.readyLocked()
	m.mu.Unlock()

	m.observer.OnLanguageChange(ctx, tagStrings(tags))
	if !ok {
		m.log.Debug("language pending", zap.Int("remaining", set.Remaining()))
	}
	return ready, ok, nil
}

// Apply applies one tick worth of asset notifications to the active set, then checks once
// whether the set became fully loaded. Notifications about files outside the active set are
// ignored.
func (m *Manager) Apply(ctx context.Context, batch []Notification) {
	if len(batch) == 0 {
		return
	}

	m.writeMu.Lock()
	m.mu.Lock()
	if m.set == nil {
		m.mu.Unlock()
		m.writeMu.Unlock()
		m.log.Debug("no active language, ignoring notifications", zap.Int("count", len(batch)))
		return
	}
	for _, n := range batch {
		if m.applyLocked(n) {
			m.pending = true
		}
	}
	ready, ok := m.readyLocked()
	m.mu.Unlock()
	m.writeMu.Unlock()

	if ok {
		m.deliver(ctx, ready)
	}
}

func (m *Manager) applyLocked(n Notification) bool {
	fields := []zap.Field{
		zap.String("kind", n.Kind.String()),
		zap.Stringer("handle", n.Handle),
		zap.String("path", n.Path),
	}

	if n.Kind == Discovered {
		if m.set.owner(n.Handle) != nil {
			return false
		}
		bundle := m.set.bundleForPath(n.Path)
		if bundle == nil {
			m.log.Debug("ignoring file outside active locales", fields...)
			return false
		}
		m.log.Info("language asset discovered", append(fields, zap.String("locale", bundle.Locale().String()))...)
		bundle.AddMember(n.Handle, n.Text)
		return true
	}

	bundle := m.set.owner(n.Handle)
	if bundle == nil {
		m.log.Debug("ignoring untracked asset", fields...)
		return false
	}
	fields = append(fields, zap.String("locale", bundle.Locale().String()))

	switch n.Kind {
	case ContentAvailable, ContentChanged:
		m.log.Info("language asset state changed", fields...)
		// The member's state decides between first load and reload, not the event kind.
		if bundle.IsLoaded(n.Handle) {
			return bundle.MarkReloaded(n.Handle, n.Text)
		}
		return bundle.MarkLoaded(n.Handle, n.Text)
	case Removed:
		m.log.Info("language asset removed", fields...)
		return bundle.RemoveMember(n.Handle)
	}
	return false
}

// readyLocked consumes a pending cycle if the set is complete.
func (m *Manager) readyLocked() (LanguageReady, bool) {
	if !m.pending || !m.set.IsFullyLoaded() {
		return LanguageReady{}, false
	}
	ev := LanguageReady{
		Locales: m.set.Locales(),
		Primary: m.set.Primary(),
		Reload:  m.announced,
	}
	m.pending = false
	m.announced = true
	return ev, true
}

// OnLanguageReady registers fn to run on every ready signal. Listeners run on the goroutine
// that completed the load, after the manager's locks are released, so they may resolve.
// The returned function unregisters fn.
func (m *Manager) OnLanguageReady(fn func(LanguageReady)) (unsubscribe func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) deliver(ctx context.Context, ev LanguageReady) {
	m.log.Info("language ready",
		zap.Strings("locales", tagStrings(ev.Locales)),
		zap.Bool("reload", ev.Reload),
	)
	m.observer.OnLanguageReady(ctx, tagStrings(ev.Locales), ev.Reload)

	m.listenersMu.Lock()
	listeners := make([]listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn(ev)
	}
}

// IsFullyLoaded reports whether every file of the active set has content. It is false when
// no language was requested yet.
func (m *Manager) IsFullyLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set != nil && m.set.IsFullyLoaded()
}

// RemainingToLoad returns the number of files of the active set still waiting for content.
func (m *Manager) RemainingToLoad() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Remaining()
}

// CurrentLanguage returns the most preferred active locale, or language.Und.
func (m *Manager) CurrentLanguage() language.Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Primary()
}

// Locales returns the active fallback chain.
func (m *Manager) Locales() []language.Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Locales()
}

func tagStrings(tags []language.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
