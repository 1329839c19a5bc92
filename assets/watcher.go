package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kdsmith18542/localekit/logger"
)

// Watcher forwards file system changes below a local root to a Server. It is meant for
// development setups where translators edit files while the program runs.
type Watcher struct {
	server  *Server
	root    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher watches root and every directory below it. root must be the directory the
// server's LocalSource reads from.
func NewWatcher(s *Server, root string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Named("assets.watcher")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{server: s, root: root, log: log, watcher: fw}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))
		}
	}
}

// Close stops watching without waiting for Run to return.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	path := filepath.ToSlash(rel)

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New locale or sub directory: watch it and pick up files that were copied in
			// before the watch was added.
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("failed to watch new directory", zap.String("path", path), zap.Error(err))
			}
			w.discoverTree(ctx, event.Name)
			return
		}
		if w.server.Supports(path) {
			w.log.Debug("resource created", zap.String("path", path))
			w.server.Discover(ctx, path)
		}

	case event.Op&fsnotify.Write != 0:
		if w.server.Supports(path) {
			w.log.Info("reloading resource", zap.String("path", path))
			w.server.Reload(ctx, path)
		}

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if w.server.Supports(path) {
			w.log.Info("resource removed", zap.String("path", path))
			w.server.Forget(path)
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) discoverTree(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		w.server.Discover(ctx, filepath.ToSlash(rel))
		return nil
	})
}
