package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/yanqian/complaint-intake/internal/domain/intake"
)

// MinioOptions configures the S3-compatible storage adapter.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	// Buckets maps each category to its destination bucket.
	Buckets map[domain.CategoryID]string
}

// MinioStorage stores complaint files in one bucket per category via the S3 API.
type MinioStorage struct {
	client  *minio.Client
	buckets map[domain.CategoryID]string
	logger  *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

// NewMinioStorage constructs the storage adapter.
func NewMinioStorage(opts MinioOptions, logger *slog.Logger) (*MinioStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Buckets) == 0 {
		return nil, fmt.Errorf("no category buckets configured")
	}
	useSSL := strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "https")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	buckets := make(map[domain.CategoryID]string, len(opts.Buckets))
	for category, bucket := range opts.Buckets {
		buckets[category] = bucket
	}
	return &MinioStorage{
		client:  client,
		buckets: buckets,
		logger:  logger.With("component", "intake.storage.minio"),
		ensured: make(map[string]bool),
	}, nil
}

func (s *MinioStorage) bucketFor(category domain.CategoryID) (string, error) {
	bucket, ok := s.buckets[category]
	if !ok || bucket == "" {
		return "", fmt.Errorf("no bucket configured for category %q", category)
	}
	return bucket, nil
}

func (s *MinioStorage) ensureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[bucket] {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err == nil && exists {
		s.ensured[bucket] = true
		return nil
	}
	err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	s.logger.Info("bucket ready", "bucket", bucket)
	s.ensured[bucket] = true
	return nil
}

// Put uploads data to the category's bucket, overwriting an existing object.
func (s *MinioStorage) Put(ctx context.Context, category domain.CategoryID, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	bucket, err := s.bucketFor(category)
	if err != nil {
		return domain.StoredObject{}, err
	}
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return domain.StoredObject{}, err
	}
	info, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		DisableMultipart: len(data) < 5*1024*1024,
	})
	if err != nil {
		return domain.StoredObject{}, err
	}
	s.logger.Info("file uploaded", "bucket", bucket, "key", key, "size", info.Size)
	return domain.StoredObject{
		Location: s.location(bucket, key),
		Key:      key,
		Size:     info.Size,
		MimeType: mimeType,
		ETag:     info.ETag,
	}, nil
}

// Get fetches an object for reading.
func (s *MinioStorage) Get(ctx context.Context, category domain.CategoryID, key string) (io.ReadCloser, error) {
	bucket, err := s.bucketFor(category)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, statErr := obj.Stat(); statErr != nil {
		_ = obj.Close()
		return nil, statErr
	}
	return obj, nil
}

// Delete removes an object.
func (s *MinioStorage) Delete(ctx context.Context, category domain.CategoryID, key string) error {
	bucket, err := s.bucketFor(category)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStorage) location(bucket, key string) string {
	base := s.client.EndpointURL()
	return strings.TrimRight(base.String(), "/") + "/" + bucket + "/" + key
}

var _ domain.ObjectStorage = (*MinioStorage)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
