package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig holds configuration for the GCS source.
type GCSConfig struct {
	Bucket          string `env:"BUCKET" toml:"bucket" yaml:"bucket"`                               // GCS bucket name (required)
	Prefix          string `env:"PREFIX" toml:"prefix" yaml:"prefix"`                               // Object prefix of the locale root (optional)
	CredentialsFile string `env:"CREDENTIALS_FILE" toml:"credentials_file" yaml:"credentials_file"` // Path to service account JSON file (optional, uses env if empty)
}

// GCSSource implements the Source interface for Google Cloud Storage.
type GCSSource struct {
	client *storage.Client
	config GCSConfig
}

// NewGCS creates a new GCS source with the specified configuration.
func NewGCS(ctx context.Context, config GCSConfig) (*GCSSource, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSSource{client: client, config: config}, nil
}

// ListFiles returns every object below dir.
func (g *GCSSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(g.config.Prefix, dir))
	var files []string
	it := g.client.Bucket(g.config.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, "/") {
			files = append(files, g.relative(attrs.Name))
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}
	sort.Strings(files)
	return files, nil
}

// ListDirs returns the prefixes directly below dir.
func (g *GCSSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(g.config.Prefix, dir))
	var dirs []string
	it := g.client.Bucket(g.config.Bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("failed to list GCS prefixes: %w", err)
		}
		// With a delimiter, synthetic directory entries only carry Prefix.
		if attrs.Prefix != "" {
			dirs = append(dirs, strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, prefix), "/"))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// GetReader returns a reader for an object.
func (g *GCSSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	reader, err := g.client.Bucket(g.config.Bucket).Object(joinKey(g.config.Prefix, path)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object reader: %w", err)
	}
	return reader, nil
}

// Exists checks if an object exists.
func (g *GCSSource) Exists(ctx context.Context, path string) bool {
	_, err := g.client.Bucket(g.config.Bucket).Object(joinKey(g.config.Prefix, path)).Attrs(ctx)
	return err == nil
}

// GetInfo returns metadata about the bucket.
func (g *GCSSource) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type":   "gcs",
		"bucket": g.config.Bucket,
		"prefix": g.config.Prefix,
	}
}

// Close releases the GCS client.
func (g *GCSSource) Close() error {
	return g.client.Close()
}

func (g *GCSSource) relative(name string) string {
	if prefix := dirPrefix(g.config.Prefix); prefix != "" {
		return strings.TrimPrefix(name, prefix)
	}
	return name
}
