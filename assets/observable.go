package assets

import (
	"context"
	"io"
	"time"

	"github.com/kdsmith18542/localekit/observability"
)

// ObservableSource wraps a Source implementation with observability
type ObservableSource struct {
	source     Source
	sourceType string
}

// NewObservableSource creates a new observable source wrapper
func NewObservableSource(source Source, sourceType string) *ObservableSource {
	return &ObservableSource{
		source:     source,
		sourceType: sourceType,
	}
}

// ListFiles lists files with observability
func (o *ObservableSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	start := time.Now()

	files, err := o.source.ListFiles(ctx, dir)
	observability.GetObserver().OnStorageOperation(ctx, "list_files", o.sourceType, time.Since(start), err == nil)

	return files, err
}

// ListDirs lists directories with observability
func (o *ObservableSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	start := time.Now()

	dirs, err := o.source.ListDirs(ctx, dir)
	observability.GetObserver().OnStorageOperation(ctx, "list_dirs", o.sourceType, time.Since(start), err == nil)

	return dirs, err
}

// GetReader returns a reader for the specified file with observability.
func (o *ObservableSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	start := time.Now()

	reader, err := o.source.GetReader(ctx, path)
	observability.GetObserver().OnStorageOperation(ctx, "get_reader", o.sourceType, time.Since(start), err == nil)

	return reader, err
}

// Exists checks if a file exists with observability
func (o *ObservableSource) Exists(ctx context.Context, path string) bool {
	start := time.Now()

	exists := o.source.Exists(ctx, path)
	observability.GetObserver().OnStorageOperation(ctx, "exists", o.sourceType, time.Since(start), true)

	return exists
}

// GetInfo returns the wrapped source's metadata
func (o *ObservableSource) GetInfo() map[string]interface{} {
	return o.source.GetInfo()
}

// Close closes the wrapped source with observability
func (o *ObservableSource) Close() error {
	start := time.Now()

	err := o.source.Close()
	observability.GetObserver().OnStorageOperation(context.Background(), "close", o.sourceType, time.Since(start), err == nil)

	return err
}

// Unwrap returns the wrapped source.
func (o *ObservableSource) Unwrap() Source {
	return o.source
}
