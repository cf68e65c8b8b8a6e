// Package storage archives uploaded probe images to an S3-compatible
// bucket so every forwarded lookup keeps a copy of what was sent.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"hexaosint/api/internal/config"
)

type EvidenceStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewEvidenceStore(cfg config.StorageConfig) (*EvidenceStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &EvidenceStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *EvidenceStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketEvidence)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketEvidence, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketEvidence, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketEvidence, err)
		}
	}
	return nil
}

func (s *EvidenceStore) Put(ctx context.Context, objectName, contentType string, data io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.cfg.BucketEvidence, objectName, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectName, err)
	}
	return nil
}
