package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"modforge/core/storage"
)

// BucketSource serves entries from objects under a prefix in S3-compatible
// storage. Listing happens per structure open, so remote changes are
// observed on the next cycle just like the filesystem sources.
type BucketSource struct {
	name   string
	client storage.Client
	bucket string
	prefix string
}

// NewBucketSource creates a source over bucket/prefix. The prefix is
// normalized to end with a slash unless empty.
func NewBucketSource(name string, client storage.Client, bucket, prefix string) *BucketSource {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if name == "" {
		name = bucket + "/" + strings.TrimSuffix(prefix, "/")
	}
	return &BucketSource{name: name, client: client, bucket: bucket, prefix: prefix}
}

// Name returns the source label.
func (s *BucketSource) Name() string { return s.name }

// OpenStructure verifies the bucket is reachable and returns a view over it.
func (s *BucketSource) OpenStructure(ctx context.Context) (Structure, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket source %q: %w", s.name, err)
	}
	if !exists {
		return nil, fmt.Errorf("open bucket source %q: bucket %q does not exist", s.name, s.bucket)
	}
	return &bucketStructure{client: s.client, bucket: s.bucket, prefix: s.prefix}, nil
}

type bucketStructure struct {
	client storage.Client
	bucket string
	prefix string
}

func (b *bucketStructure) Entries(ctx context.Context, filter func(string) bool) ([]*Entry, error) {
	opts := minio.ListObjectsOptions{Prefix: b.prefix, Recursive: true}
	var entries []*Entry
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", b.bucket, b.prefix, obj.Err)
		}
		path := NormalizePath(strings.TrimPrefix(obj.Key, b.prefix))
		if path == "" || strings.HasSuffix(path, "/") {
			continue
		}
		if filter != nil && !filter(path) {
			continue
		}
		entries = append(entries, NewEntry(path, obj.LastModified))
	}
	return entries, nil
}

func (b *bucketStructure) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return b.client.GetObject(ctx, b.bucket, b.prefix+NormalizePath(path), minio.GetObjectOptions{})
}

func (b *bucketStructure) LastWriteTime(ctx context.Context, path string) (time.Time, error) {
	info, err := b.client.StatObject(ctx, b.bucket, b.prefix+NormalizePath(path), minio.StatObjectOptions{})
	if err != nil {
		return time.Time{}, err
	}
	return info.LastModified, nil
}

func (b *bucketStructure) Close() error { return nil }
