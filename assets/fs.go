package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
)

// FSSource reads resources from an fs.FS, typically an embed.FS compiled into the binary.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source over fsys. Use fs.Sub to strip a leading directory.
//
// Example:
//
//	//go:embed locales
//	var localeFS embed.FS
//
//	sub, _ := fs.Sub(localeFS, "locales")
//	src := assets.NewFSSource(sub)
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// ListFiles returns every file below dir, recursively.
func (f *FSSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	start := fsPath(dir)
	info, err := fs.Stat(f.fsys, start)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}

	var files []string
	err = fs.WalkDir(f.fsys, start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ListDirs returns the names of the directories directly below dir.
func (f *FSSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	entries, err := fs.ReadDir(f.fsys, fsPath(dir))
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
func (f *FSSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := f.fsys.Open(fsPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks if a file exists.
func (f *FSSource) Exists(ctx context.Context, path string) bool {
	info, err := fs.Stat(f.fsys, fsPath(path))
	return err == nil && !info.IsDir()
}

// GetInfo returns metadata about the source.
func (f *FSSource) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type": "fs",
	}
}

// Close is a no-op; the file system is owned by the caller.
func (f *FSSource) Close() error {
	return nil
}

func fsPath(p string) string {
	p = cleanDir(p)
	if p == "" {
		return "."
	}
	return p
}
