package assets

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureConfig holds configuration for the Azure Blob Storage source.
type AzureConfig struct {
	AccountName string `env:"ACCOUNT_NAME" toml:"account_name" yaml:"account_name"` // Azure storage account name (required)
	AccountKey  string `env:"ACCOUNT_KEY" toml:"account_key" yaml:"account_key"`    // Azure storage account key (required)
	Container   string `env:"CONTAINER" toml:"container" yaml:"container"`          // Blob container name (required)
	Prefix      string `env:"PREFIX" toml:"prefix" yaml:"prefix"`                   // Blob name prefix of the locale root (optional)
}

// AzureBlobSource implements the Source interface for Azure Blob Storage.
type AzureBlobSource struct {
	client    *azblob.Client
	container *container.Client
	config    AzureConfig
}

// NewAzureBlob creates a new Azure Blob source with the specified configuration.
func NewAzureBlob(config AzureConfig) (*AzureBlobSource, error) {
	if config.AccountName == "" || config.AccountKey == "" || config.Container == "" {
		return nil, fmt.Errorf("account name, account key, and container are required")
	}
	cred, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", config.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return &AzureBlobSource{
		client:    client,
		container: client.ServiceClient().NewContainerClient(config.Container),
		config:    config,
	}, nil
}

// ListFiles returns every blob below dir.
func (a *AzureBlobSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(a.config.Prefix, dir))
	var files []string
	pager := a.client.NewListBlobsFlatPager(a.config.Container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, blob := range resp.Segment.BlobItems {
			if blob.Name != nil {
				files = append(files, a.relative(*blob.Name))
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}
	sort.Strings(files)
	return files, nil
}

// ListDirs returns the virtual directories directly below dir.
func (a *AzureBlobSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(a.config.Prefix, dir))
	var dirs []string
	pager := a.container.NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blob prefixes: %w", err)
		}
		for _, p := range resp.Segment.BlobPrefixes {
			if p.Name != nil {
				dirs = append(dirs, strings.TrimSuffix(strings.TrimPrefix(*p.Name, prefix), "/"))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// GetReader downloads a blob.
func (a *AzureBlobSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	response, err := a.client.DownloadStream(ctx, a.config.Container, joinKey(a.config.Prefix, path), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return response.Body, nil
}

// Exists checks if a blob exists.
func (a *AzureBlobSource) Exists(ctx context.Context, path string) bool {
	_, err := a.container.NewBlobClient(joinKey(a.config.Prefix, path)).GetProperties(ctx, nil)
	return err == nil
}

// GetInfo returns metadata about the container.
func (a *AzureBlobSource) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type":      "azure",
		"account":   a.config.AccountName,
		"container": a.config.Container,
		"prefix":    a.config.Prefix,
	}
}

// Close performs cleanup operations for the Azure source.
func (a *AzureBlobSource) Close() error {
	// No explicit close needed for Azure SDK
	return nil
}

func (a *AzureBlobSource) relative(name string) string {
	if prefix := dirPrefix(a.config.Prefix); prefix != "" {
		return strings.TrimPrefix(name, prefix)
	}
	return name
}
