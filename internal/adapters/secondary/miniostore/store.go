package miniostore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type store struct {
	client *minio.Client
	bucket string
}

// New builds a MinIO backed ModelStore. The bucket is created when missing.
func New(ctx context.Context, cfg *config.StorageConfig) (output.ModelStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket %s: %v", domain.ErrStoreUnavailable, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%w: create bucket %s: %v", domain.ErrStoreUnavailable, cfg.Bucket, err)
		}
	}
	return &store{client: client, bucket: cfg.Bucket}, nil
}

func (s *store) Bucket() string { return s.bucket }

func (s *store) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

func (s *store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", domain.ErrStoreUnavailable, s.URI(key), err)
	}
	return nil
}

func (s *store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate("get", key, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate("read", key, err)
	}
	return data, nil
}

func (s *store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", domain.ErrStoreUnavailable, s.URI(key), err)
}

func (s *store) translate(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrModelNotFound, s.URI(key))
	}
	return fmt.Errorf("%w: %s %s: %v", domain.ErrStoreUnavailable, op, s.URI(key), err)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
