package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds configuration for the S3 source.
// All fields except Bucket are optional and will use AWS defaults if not provided.
type S3Config struct {
	Bucket          string `env:"BUCKET" toml:"bucket" yaml:"bucket"`                                  // S3 bucket name (required)
	Prefix          string `env:"PREFIX" toml:"prefix" yaml:"prefix"`                                  // Key prefix of the locale root (optional)
	Region          string `env:"REGION" toml:"region" yaml:"region"`                                  // AWS region (optional, uses default if empty)
	AccessKeyID     string `env:"ACCESS_KEY_ID" toml:"access_key_id" yaml:"access_key_id"`             // AWS access key ID (optional, uses environment/default)
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" toml:"secret_access_key" yaml:"secret_access_key"` // AWS secret access key (optional, uses environment/default)
	Endpoint        string `env:"ENDPOINT" toml:"endpoint" yaml:"endpoint"`                            // Custom S3 endpoint (optional, for S3-compatible services)
	ForcePathStyle  bool   `env:"FORCE_PATH_STYLE" toml:"force_path_style" yaml:"force_path_style"`    // Use path-style addressing (optional, for S3-compatible services)
}

// S3Source implements the Source interface for Amazon S3 and S3-compatible services.
type S3Source struct {
	client *s3.Client
	config S3Config
}

// NewS3 creates a new S3 source with the specified configuration.
// The configuration can use AWS environment variables, IAM roles, or explicit credentials.
//
// Example:
//
//	// Using S3-compatible service (like MinIO)
//	src, err := assets.NewS3(assets.S3Config{
//	    Bucket:         "translations",
//	    Prefix:         "locales",
//	    Endpoint:       "http://localhost:9000",
//	    ForcePathStyle: true,
//	})
func NewS3(config S3Config) (*S3Source, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override credentials if provided
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsConfig.Credentials = aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     config.AccessKeyID,
				SecretAccessKey: config.SecretAccessKey,
			}, nil
		})
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		if config.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Source{client: client, config: config}, nil
}

// ListFiles returns every object below dir.
// S3 has no real directories, so a dir without objects is reported as ErrNotFound.
func (s *S3Source) ListFiles(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(s.config.Prefix, dir))
	var files []string
	var continuationToken *string

	for {
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(s.config.Bucket),
			Prefix: aws.String(prefix),
		}
		if continuationToken != nil {
			input.ContinuationToken = continuationToken
		}

		result, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}

		for _, object := range result.Contents {
			if object.Key != nil && !strings.HasSuffix(*object.Key, "/") {
				files = append(files, s.relative(*object.Key))
			}
		}

		// Check if there are more objects to fetch
		if result.IsTruncated == nil || !*result.IsTruncated {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}
	sort.Strings(files)
	return files, nil
}

// ListDirs returns the common prefixes directly below dir.
func (s *S3Source) ListDirs(ctx context.Context, dir string) ([]string, error) {
	prefix := dirPrefix(joinKey(s.config.Prefix, dir))
	var dirs []string
	var continuationToken *string

	for {
		input := &s3.ListObjectsV2Input{
			Bucket:    aws.String(s.config.Bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
		}
		if continuationToken != nil {
			input.ContinuationToken = continuationToken
		}

		result, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 prefixes: %w", err)
		}

		for _, cp := range result.CommonPrefixes {
			if cp.Prefix != nil {
				dirs = append(dirs, strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, prefix), "/"))
			}
		}

		if result.IsTruncated == nil || !*result.IsTruncated {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	sort.Strings(dirs)
	return dirs, nil
}

// GetReader returns the body of an object.
func (s *S3Source) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(joinKey(s.config.Prefix, path)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return result.Body, nil
}

// Exists checks if an object exists.
func (s *S3Source) Exists(ctx context.Context, path string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(joinKey(s.config.Prefix, path)),
	})
	return err == nil
}

// GetInfo returns metadata about the bucket.
func (s *S3Source) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type":     "s3",
		"bucket":   s.config.Bucket,
		"prefix":   s.config.Prefix,
		"region":   s.config.Region,
		"endpoint": s.config.Endpoint,
	}
}

// Close performs cleanup operations for the S3 source.
func (s *S3Source) Close() error {
	// S3 client doesn't require cleanup
	return nil
}

func (s *S3Source) relative(key string) string {
	if prefix := dirPrefix(s.config.Prefix); prefix != "" {
		return strings.TrimPrefix(key, prefix)
	}
	return key
}
