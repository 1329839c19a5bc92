package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/config"
	"github.com/kdsmith18542/localekit/i18n"
	"github.com/kdsmith18542/localekit/logger"
	"github.com/kdsmith18542/localekit/resource"
	"github.com/kdsmith18542/localekit/scheduler"
)

// pipeline is the loading stack shared by resolve and watch. The server owns the source.
type pipeline struct {
	server  *assets.Server
	manager *i18n.Manager
	sched   *scheduler.Scheduler
}

func (a *app) openSource(ctx context.Context, root string) (assets.Source, error) {
	cfg := *a.cfg
	if root != "" {
		cfg.Root = root
	}
	return config.NewSource(ctx, &cfg)
}

func (a *app) openRuntime(ctx context.Context, root string) (*pipeline, error) {
	src, err := a.openSource(ctx, root)
	if err != nil {
		return nil, err
	}
	return a.newPipeline(src)
}

// newPipeline takes ownership of src, closing it when the server cannot start.
func (a *app) newPipeline(src assets.Source) (*pipeline, error) {
	server, err := assets.NewServer(src, resource.NewRegistry(),
		assets.WithWorkers(a.cfg.LoaderWorkers),
		assets.WithLogger(logger.Named("assets")),
	)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	manager := i18n.NewManager("", server, i18n.WithLogger(logger.Named("i18n")))
	sched := scheduler.New(manager, server,
		scheduler.WithInterval(a.cfg.TickInterval),
		scheduler.WithLogger(logger.Named("scheduler")),
	)
	return &pipeline{server: server, manager: manager, sched: sched}, nil
}

// Close stops the server, which closes the source.
func (r *pipeline) Close() error {
	return r.server.Close()
}

// languages returns the tags named by the --lang flag, or the configured ones.
func (a *app) languages(codes []string) ([]language.Tag, error) {
	if len(codes) == 0 {
		codes = a.cfg.Languages
	}
	return i18n.ParseTags(codes)
}

// parseArgs turns k=v pairs into message arguments. Values that parse as numbers are passed
// as numbers so plural selection and NUMBER() work from the command line.
func parseArgs(pairs []string) (i18n.Args, error) {
	args := make(i18n.Args, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q, expected name=value", pair)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			args[k] = n
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			args[k] = f
		} else {
			args[k] = v
		}
	}
	return args, nil
}

// localeFile is one parsed resource file of a locale.
type localeFile struct {
	path   string
	text   *resource.Text
	errors []resource.ParseError
}

// readLocales parses every supported file of every locale directory in src.
func readLocales(ctx context.Context, src assets.Source) (map[string][]localeFile, []string, error) {
	tags, err := assets.ScanLanguages(ctx, src, "")
	if err != nil {
		return nil, nil, err
	}

	registry := resource.NewRegistry()
	files := make(map[string][]localeFile, len(tags))
	locales := make([]string, 0, len(tags))

	for _, tag := range tags {
		locale := tag.String()
		locales = append(locales, locale)

		paths, err := src.ListFiles(ctx, locale)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range paths {
			if !registry.Supports(p) {
				continue
			}
			data, err := readAll(ctx, src, p)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read %s: %w", p, err)
			}
			text, errs := registry.Parse(p, data)
			files[locale] = append(files[locale], localeFile{path: p, text: text, errors: errs})
		}
	}
	return files, locales, nil
}

func readAll(ctx context.Context, src assets.Source, p string) ([]byte, error) {
	r, err := src.GetReader(ctx, p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
