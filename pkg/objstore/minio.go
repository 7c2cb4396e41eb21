// Package objstore provides durable image hosting backed by MinIO/S3.
// Every item image — uploaded bytes and fetched remote images alike — is
// written here before its URL is persisted, so the application never serves
// third-party URLs directly.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sourcedhq/sourced/pkg/config"
)

// ObjectStore wraps a MinIO client scoped to a single bucket.
type ObjectStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// New creates an ObjectStore from config. Call EnsureBucket once at startup
// before serving traffic.
func New(cfg *config.Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioRootUser, cfg.MinioRootPassword, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: new client: %w", err)
	}

	return &ObjectStore{
		client:        client,
		bucket:        cfg.MinioBucket,
		publicBaseURL: strings.TrimRight(cfg.MediaPublicBaseURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("objstore: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("objstore: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads data under key and returns the publicly resolvable URL.
// No retries — the caller decides whether a failed submission is retried.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("objstore: put %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// Ping checks object storage health by probing the bucket.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("objstore: ping: %w", err)
	}
	return nil
}
