package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"ajnadfm/cache"
	"ajnadfm/config"
	"ajnadfm/logger"
	"ajnadfm/model"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BucketStats summarizes a bucket listing.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// Bucket wraps the MinIO client for the configured audio bucket.
type Bucket struct {
	client    *minio.Client
	name      string
	signedTTL time.Duration
}

// NewBucket returns a Bucket over the globally initialized client.
func NewBucket(cfg *config.Config) *Bucket {
	return &Bucket{
		client:    GetMinioClient(),
		name:      cfg.MinioBucket,
		signedTTL: cfg.SignedURLTTL,
	}
}

// ListObjects walks the bucket depth-first from prefix and returns every
// file entry. Prefixes ("directories") are descended into, files are
// collected as-is; classification is left to the caller.
func (b *Bucket) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if b.client == nil {
		return nil, fmt.Errorf("MinIO client not available")
	}

	var out []ObjectInfo
	objectCh := b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			children, err := b.ListObjects(ctx, object.Key)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}
		out = append(out, ObjectInfo{
			Path:         object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	return out, nil
}

// Stats aggregates object count, total size and the newest modification
// time across the whole bucket.
func (b *Bucket) Stats(ctx context.Context) (*BucketStats, error) {
	objects, err := b.ListObjects(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &BucketStats{}
	for _, obj := range objects {
		stats.TotalObjects++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
	}
	return stats, nil
}

// SignedOrPublicURL resolves a source locator into a playable URL.
// Absolute URLs pass through unchanged. Storage-relative paths are
// exchanged for a presigned URL valid for the configured lifetime,
// falling back to the bucket's public URL when signing fails. Successful
// signings are cached below their expiry.
func (b *Bucket) SignedOrPublicURL(ctx context.Context, pathOrURL string) (string, error) {
	if pathOrURL == "" {
		return "", fmt.Errorf("empty source locator")
	}

	if model.IsHTTPURL(pathOrURL) {
		return pathOrURL, nil
	}

	if cached, err := cache.GetSourceURL(ctx, pathOrURL); err == nil && cached != "" {
		return cached, nil
	}

	if b.client == nil {
		return "", fmt.Errorf("MinIO client not available")
	}

	signed, err := b.client.PresignedGetObject(ctx, b.name, pathOrURL, b.signedTTL, url.Values{})
	if err == nil {
		if cacheErr := cache.SetSourceURL(ctx, pathOrURL, signed.String(), b.signedTTL); cacheErr != nil {
			logger.Debug("failed to cache signed URL", logger.ErrorField(cacheErr))
		}
		return signed.String(), nil
	}
	logger.Warn("presign failed, falling back to public URL",
		logger.String("path", pathOrURL), logger.ErrorField(err))

	return b.PublicURL(pathOrURL), nil
}

// PublicURL builds the long-lived unauthenticated URL for an object.
// Only useful when the bucket (or object) is publicly readable.
func (b *Bucket) PublicURL(objectPath string) string {
	endpoint := b.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, b.name, objectPath)
}

// Upload stores an object.
func (b *Bucket) Upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	if b.client == nil {
		return fmt.Errorf("MinIO client not available")
	}

	_, err := b.client.PutObject(ctx, b.name, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", objectPath, err)
	}
	return nil
}

// Remove deletes an object.
func (b *Bucket) Remove(ctx context.Context, objectPath string) error {
	if b.client == nil {
		return fmt.Errorf("MinIO client not available")
	}

	if err := b.client.RemoveObject(ctx, b.name, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %q: %w", objectPath, err)
	}
	return nil
}
