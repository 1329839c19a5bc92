package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/config"
	"github.com/kdsmith18542/localekit/i18n"
	"github.com/kdsmith18542/localekit/observability"
	"github.com/kdsmith18542/localekit/resource"
	"github.com/kdsmith18542/localekit/scheduler"
)

// LocalizationTestSuite runs the whole pipeline against a locale tree on disk: config, local
// source, asset server, manager, scheduler and the file watcher.
type LocalizationTestSuite struct {
	suite.Suite

	root    string
	prom    *observability.PrometheusObserver
	server  *assets.Server
	manager *i18n.Manager
	sched   *scheduler.Scheduler

	cancel context.CancelFunc
	done   sync.WaitGroup

	mu    sync.Mutex
	ready []i18n.LanguageReady
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, new(LocalizationTestSuite))
}

var fixtures = map[string]string{
	"en-US/main.ftl": `-brand = Localekit
title = { -brand } settings
    .tooltip = Open settings
cart = { $count ->
    [one] One item
   *[other] { $count } items
}
`,
	"en-US/errors.yaml": `
not_found: Nothing here
forbidden:
  value: Access denied
  attributes:
    hint: Ask an administrator
`,
	"en-US/nav.json": `{"home": "Home", "back": {"value": "Back", "attributes": {"tooltip": "Previous page"}}}`,
	"fr/main.toml": `
title = "Paramètres"
cart = "{ $count ->\n    [one] Un article\n   *[other] { $count } articles\n}"
`,
	"fr/nav.ftl": "home = Accueil\n",
	"images/logo.txt": "not a locale",
}

func (s *LocalizationTestSuite) writeFile(name, content string) {
	path := filepath.Join(s.root, filepath.FromSlash(name))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

func (s *LocalizationTestSuite) SetupTest() {
	s.root = s.T().TempDir()
	for name, content := range fixtures {
		s.writeFile(name, content)
	}
	s.ready = nil

	reg := prometheus.NewRegistry()
	prom, err := observability.NewPrometheusObserver(reg)
	s.Require().NoError(err)
	s.prom = prom
	observability.SetObserver(prom)

	cfg := config.Default()
	cfg.Root = s.root
	cfg.TickInterval = 10 * time.Millisecond
	src, err := config.NewSource(context.Background(), cfg)
	s.Require().NoError(err)

	s.server, err = assets.NewServer(src, resource.NewRegistry(),
		assets.WithWorkers(cfg.LoaderWorkers),
		assets.WithLogger(zap.NewNop()),
	)
	s.Require().NoError(err)

	s.manager = i18n.NewManager("", s.server, i18n.WithLogger(zap.NewNop()), i18n.WithObserver(prom))
	s.manager.OnLanguageReady(func(ev i18n.LanguageReady) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ready = append(s.ready, ev)
	})
	s.sched = scheduler.New(s.manager, s.server,
		scheduler.WithInterval(cfg.TickInterval),
		scheduler.WithLogger(zap.NewNop()),
	)
}

func (s *LocalizationTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
		s.done.Wait()
		s.cancel = nil
	}
	s.Require().NoError(s.server.Close())
	observability.SetObserver(nil)
}

func (s *LocalizationTestSuite) settle(tags ...language.Tag) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.sched.RequestLanguage(tags)
	s.Require().NoError(s.sched.Settle(ctx))
}

// startWatching runs the watcher and the tick loop until the test ends.
func (s *LocalizationTestSuite) startWatching() {
	watcher, err := assets.NewWatcher(s.server, s.root, zap.NewNop())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(2)
	go func() {
		defer s.done.Done()
		_ = watcher.Run(ctx)
	}()
	go func() {
		defer s.done.Done()
		_ = s.sched.Run(ctx)
	}()
}

func (s *LocalizationTestSuite) readyEvents() []i18n.LanguageReady {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]i18n.LanguageReady(nil), s.ready...)
}

func (s *LocalizationTestSuite) eventually(fn func() bool, msg string) {
	s.Require().Eventually(fn, 5*time.Second, 10*time.Millisecond, msg)
}

func (s *LocalizationTestSuite) TestScanLanguages() {
	tags, err := assets.ScanLanguages(context.Background(), s.server.Source(), "")
	s.Require().NoError(err)
	s.Equal([]language.Tag{language.MustParse("en-US"), language.French}, tags)
}

func (s *LocalizationTestSuite) TestMixedFormatsWithFallback() {
	s.settle(language.French, language.MustParse("en-US"))

	events := s.readyEvents()
	s.Require().Len(events, 1)
	s.False(events[0].Reload)
	s.Equal(language.French, events[0].Primary)

	m := s.manager
	s.Equal("Paramètres", m.Get("title"))
	s.Equal("Open settings", m.GetAttr("title", "tooltip"), "attribute falls back to en-US")
	s.Equal("Un article", m.GetWithArgs("cart", i18n.ArgsFrom("count", 1)))
	s.Equal("3 articles", m.GetWithArgs("cart", i18n.ArgsFrom("count", 3)))
	s.Equal("Accueil", m.Get("home"))
	s.Equal("Back", m.Get("back"))
	s.Equal("Previous page", m.GetAttr("back", "tooltip"))
	s.Equal("Access denied", m.Get("forbidden"))
	s.Equal("Ask an administrator", m.GetAttr("forbidden", "hint"))
	s.Equal("##~unknown~##", m.Get("unknown"))
	s.Equal("##~title~@@~unknown~##", m.GetAttr("title", "unknown"))

	s.Equal(1.0, testutil.ToFloat64(s.prom.ReadySignals.WithLabelValues("false")))
	s.Equal(1.0, testutil.ToFloat64(s.prom.LanguageChanges))
	s.Equal(2.0, testutil.ToFloat64(s.prom.Missing.WithLabelValues("fr")))
	s.Equal(5.0, testutil.ToFloat64(s.prom.AssetLoads.WithLabelValues("true")))
}

func (s *LocalizationTestSuite) TestLanguageSwitch() {
	s.settle(language.MustParse("en-US"))
	s.Equal("Localekit settings", s.manager.Get("title"))

	s.settle(language.French)
	s.Equal("Paramètres", s.manager.Get("title"))
	s.Equal("##~back~##", s.manager.Get("back"), "no fallback was requested")
	s.Len(s.readyEvents(), 2)

	cache := i18n.NewMsgCache(i18n.NewMsgKey("cart").WithArgs(i18n.ArgsFrom("count", 2)))
	s.Equal("##~!!~cart~!!~##", cache.String())
	cache.Update(s.manager)
	s.Equal("2 articles", cache.String())
}

func (s *LocalizationTestSuite) TestHotReload() {
	s.settle(language.French, language.MustParse("en-US"))
	s.startWatching()

	s.writeFile("fr/nav.ftl", "home = Page d'accueil\nback = Retour\n")
	s.eventually(func() bool { return s.manager.Get("back") == "Retour" }, "modified file is reloaded")
	s.Equal("Page d'accueil", s.manager.Get("home"))

	events := s.readyEvents()
	s.True(events[len(events)-1].Reload)
	s.Equal(language.French, events[len(events)-1].Primary)

	s.writeFile("fr/errors.ftl", "not_found = Introuvable\n")
	s.eventually(func() bool { return s.manager.Get("not_found") == "Introuvable" }, "new file is discovered")

	s.Require().NoError(os.Remove(filepath.Join(s.root, "fr", "errors.ftl")))
	s.eventually(func() bool { return s.manager.Get("not_found") == "Nothing here" }, "removed file no longer contributes")

	s.writeFile("de/main.ftl", "title = Einstellungen\n")
	s.eventually(func() bool { return s.server.Pending() == 0 }, "reads settle")
	s.Equal("Paramètres", s.manager.Get("title"), "files outside the active locales are ignored")
	s.True(s.manager.IsFullyLoaded())
}
