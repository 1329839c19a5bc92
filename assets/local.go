package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalSource implements the Source interface for the local file system.
// It is the only backend that supports hot reload through Watcher.
type LocalSource struct {
	basePath string
}

// NewLocal creates a new LocalSource rooted at basePath.
//
// Example:
//
//	src := assets.NewLocal("./locales")
//	defer src.Close()
func NewLocal(basePath string) *LocalSource {
	return &LocalSource{basePath: basePath}
}

// Root returns the directory the source reads from.
func (l *LocalSource) Root() string {
	return l.basePath
}

// ListFiles returns every file below dir, recursively.
// Returns an error wrapping ErrNotFound if dir does not exist.
func (l *LocalSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	start, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(start)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory: %w", dir, ErrNotFound)
	}

	var files []string
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// ListDirs returns the names of the directories directly below dir.
func (l *LocalSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	start, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(start)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// GetReader opens a file for reading.
func (l *LocalSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	filePath, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists checks if a file exists below the base path.
func (l *LocalSource) Exists(ctx context.Context, path string) bool {
	filePath, err := l.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}

// GetInfo returns metadata about the source.
func (l *LocalSource) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type":     "local",
		"basePath": l.basePath,
	}
}

// Close performs cleanup operations for the source.
func (l *LocalSource) Close() error {
	// Local source doesn't require any cleanup
	return nil
}

// resolve maps a slash path onto the base path and refuses to leave it.
func (l *LocalSource) resolve(p string) (string, error) {
	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("path contains null byte")
	}
	rel := cleanDir(p)
	return filepath.Join(l.basePath, filepath.FromSlash(rel)), nil
}
