package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/config"
	"github.com/kdsmith18542/localekit/i18n"
	"github.com/kdsmith18542/localekit/logger"
	"github.com/kdsmith18542/localekit/observability"
)

func (a *app) languagesCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the locale directories available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.openSource(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer src.Close()

			tags, err := assets.ScanLanguages(cmd.Context(), src, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(out, "No languages found")
				return nil
			}
			for _, tag := range tags {
				fmt.Fprintln(out, tag.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Locale directory (defaults to the configured root)")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var (
		root    string
		langs   []string
		attr    string
		rawArgs []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve [id]",
		Short: "Load a language and print one resolved message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.languages(langs)
			if err != nil {
				return err
			}
			msgArgs, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			p, err := a.openRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer p.Close()

			p.sched.RequestLanguage(tags)
			if err := p.sched.Settle(ctx); err != nil {
				return fmt.Errorf("failed to load languages: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), p.manager.ResolveContext(ctx, args[0], attr, msgArgs))
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Locale directory (defaults to the configured root)")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Languages in fallback order (defaults to the configured languages)")
	cmd.Flags().StringVar(&attr, "attr", "", "Attribute of the message to resolve")
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "Message argument as name=value, repeatable")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the language to load")
	return cmd
}

func (a *app) lintCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report parse errors and duplicate message ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.openSource(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer src.Close()

			files, locales, err := readLocales(cmd.Context(), src)
			if err != nil {
				return err
			}
			return lintLocales(cmd, files, locales)
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Locale directory (defaults to the configured root)")
	return cmd
}

func lintLocales(cmd *cobra.Command, files map[string][]localeFile, locales []string) error {
	out := cmd.OutOrStdout()

	total := 0
	for _, locale := range locales {
		total += len(files[locale])
	}
	fmt.Fprintf(out, "Linting %d locale files...\n\n", total)

	problems := 0
	for _, locale := range locales {
		// ids are unique per locale, not per file
		seen := make(map[string]string)

		for _, f := range files[locale] {
			fmt.Fprintf(out, "Checking %s...\n", f.path)
			issues := 0

			for _, perr := range f.errors {
				fmt.Fprintf(out, "  ❌ %s\n", perr.Error())
				issues++
			}
			for _, entry := range f.text.Entries() {
				key := entry.Key()
				if first, dup := seen[key]; dup {
					fmt.Fprintf(out, "  ❌ %s:%d: duplicate message id %q, first defined in %s\n", f.path, entry.Line, key, first)
					issues++
					continue
				}
				seen[key] = f.path
			}

			if issues == 0 {
				fmt.Fprintln(out, "  ✓ No issues found")
			}
			problems += issues
			fmt.Fprintln(out)
		}
	}

	if problems > 0 {
		return fmt.Errorf("lint found %d problem(s)", problems)
	}
	fmt.Fprintln(out, "✓ All locale files passed linting!")
	return nil
}

func (a *app) findMissingCmd() *cobra.Command {
	var (
		root   string
		source string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "find-missing",
		Short: "Find messages of the source locale missing in other locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" && len(a.cfg.Languages) > 0 {
				source = a.cfg.Languages[0]
			}

			src, err := a.openSource(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer src.Close()

			files, locales, err := readLocales(cmd.Context(), src)
			if err != nil {
				return err
			}

			missing, err := findMissing(cmd, files, locales, source)
			if err != nil {
				return err
			}
			if strict && missing > 0 {
				return fmt.Errorf("%d missing translation(s)", missing)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Locale directory (defaults to the configured root)")
	cmd.Flags().StringVar(&source, "source", "", "Reference locale (defaults to the first configured language)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when anything is missing")
	return cmd
}

func findMissing(cmd *cobra.Command, files map[string][]localeFile, locales []string, source string) (int, error) {
	out := cmd.OutOrStdout()

	tag, err := language.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("invalid source locale %q: %w", source, err)
	}
	source = tag.String()
	if !slices.Contains(locales, source) {
		return 0, fmt.Errorf("source locale %q not found", source)
	}
	sourceKeys := collectKeys(files[source])

	fmt.Fprintf(out, "Comparing %d locales against %s (%d keys)...\n\n", len(locales), source, len(sourceKeys))

	total := 0
	for _, locale := range locales {
		if locale == source {
			continue
		}
		keys := collectKeys(files[locale])

		var missing []string
		for key := range sourceKeys {
			if !keys[key] {
				missing = append(missing, key)
			}
		}
		sort.Strings(missing)

		if len(missing) == 0 {
			fmt.Fprintf(out, "Locale '%s': ✓ Complete\n", locale)
			continue
		}
		fmt.Fprintf(out, "Locale '%s' is missing %d keys:\n", locale, len(missing))
		for _, key := range missing {
			fmt.Fprintf(out, "  - %s\n", key)
		}
		fmt.Fprintln(out)
		total += len(missing)
	}

	if total == 0 {
		fmt.Fprintln(out, "✓ All locales are complete!")
	}
	return total, nil
}

// collectKeys lists the public message ids and id.attr pairs of a locale. Terms are private to
// a locale and never compared.
func collectKeys(files []localeFile) map[string]bool {
	keys := make(map[string]bool)
	for _, f := range files {
		for _, entry := range f.text.Entries() {
			if entry.Term {
				continue
			}
			if entry.Value != nil {
				keys[entry.ID] = true
			}
			for _, name := range entry.AttributeNames() {
				keys[entry.ID+"."+name] = true
			}
		}
	}
	return keys
}

func (a *app) watchCmd() *cobra.Command {
	var (
		root        string
		langs       []string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch [id]...",
		Short: "Preview messages and re-render them whenever locale files change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Backend != config.BackendLocal {
				return fmt.Errorf("watch requires the %s backend, got %s", config.BackendLocal, a.cfg.Backend)
			}
			if root == "" {
				root = a.cfg.Root
			}
			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}
			tags, err := a.languages(langs)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd, root, tags, args, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Locale directory (defaults to the configured root)")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Languages in fallback order (defaults to the configured languages)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, root string, tags []language.Tag, ids []string, metricsAddr string) error {
	log := logger.Named("watch")

	if metricsAddr != "" {
		srv, err := serveMetrics(metricsAddr, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	i18n.EnableObservability()

	p, err := a.openRuntime(ctx, root)
	if err != nil {
		return err
	}
	defer p.Close()

	watcher, err := assets.NewWatcher(p.server, root, logger.Named("assets.watcher"))
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	caches := make([]*i18n.MsgCache, 0, len(ids))
	for _, id := range ids {
		key := i18n.NewMsgKey(id)
		if msg, attr, ok := strings.Cut(id, "."); ok {
			key = i18n.NewMsgKeyAttr(msg, attr)
		}
		caches = append(caches, i18n.NewMsgCache(key))
	}

	out := cmd.OutOrStdout()
	p.manager.OnLanguageReady(func(ev i18n.LanguageReady) {
		for _, c := range caches {
			c.Update(p.manager)
			fmt.Fprintf(out, "[%s] %s = %s\n", ev.Primary, c.Key(), c)
		}
	})

	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Error("watcher stopped", zap.Error(err))
		}
	}()

	// The first language must load; later failures only get logged by the loop.
	p.sched.RequestLanguage(tags)
	if err := p.sched.Tick(ctx); err != nil {
		return fmt.Errorf("failed to load languages: %w", err)
	}
	return p.sched.Run(ctx)
}

func serveMetrics(addr string, log *zap.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	prom, err := observability.NewPrometheusObserver(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	observability.SetObserver(observability.MultiObserver{observability.GetObserver(), prom})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv, nil
}
