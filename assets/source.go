// Package assets loads localization resource files from pluggable backends.
//
// Features:
//   - Pluggable read-only sources (local disk, io/fs and embed.FS, S3, GCS, Azure Blob)
//   - Consistent slash-separated paths across all backends
//   - An asynchronous Server that parses files on a worker pool and queues change events
//   - fsnotify based hot reload for local sources
//   - Locale directory discovery
//
// Layout: one directory per locale under a common root, named after its BCP-47 tag:
//
//	locales/
//	    en-US/
//	        main.ftl
//	        menu/settings.ftl
//	    fr/
//	        main.ftl
//
// Example:
//
//	src := assets.NewLocal("./locales")
//	server, err := assets.NewServer(src, resource.NewRegistry())
//	if err != nil {
//	    return err
//	}
//	defer server.Close()
//
//	handles, err := server.LoadFolder(ctx, "en-US")
package assets

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a directory or file does not exist in a source.
	ErrNotFound = errors.New("assets: not found")
	// ErrSourceClosed is returned by operations on a closed source or server.
	ErrSourceClosed = errors.New("assets: source closed")
)

// Source defines the interface for resource file backends.
// All paths are slash-separated and relative to the root of the source.
type Source interface {
	// ListFiles returns every file below dir, recursively, as paths relative to the source
	// root (e.g. "en-US/menu/settings.ftl"), sorted.
	// Returns an error wrapping ErrNotFound if dir does not exist.
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// ListDirs returns the names of the directories directly below dir, sorted.
	ListDirs(ctx context.Context, dir string) ([]string, error)

	// GetReader returns an io.ReadCloser for reading a file.
	// The caller is responsible for closing the returned reader.
	GetReader(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks if a file exists.
	Exists(ctx context.Context, path string) bool

	// GetInfo returns metadata about the backend such as its type and location.
	GetInfo() map[string]interface{}

	// Close performs cleanup operations for the backend.
	Close() error
}

// cleanDir normalizes a directory argument: "", "." and "/" all mean the root.
func cleanDir(dir string) string {
	dir = path.Clean("/" + strings.ReplaceAll(dir, "\\", "/"))
	return strings.TrimPrefix(dir, "/")
}

// dirPrefix returns the key prefix that selects everything below dir.
func dirPrefix(dir string) string {
	dir = cleanDir(dir)
	if dir == "" {
		return ""
	}
	return dir + "/"
}

// joinKey prepends a bucket prefix to a relative path.
func joinKey(prefix, p string) string {
	prefix = strings.Trim(prefix, "/")
	p = cleanDir(p)
	if prefix == "" {
		return p
	}
	if p == "" {
		return prefix
	}
	return prefix + "/" + p
}
