package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/config"
)

// ImageStore persists uploaded ad images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, originalFileName string, data []byte) (string, error)
}

type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewMinioStore(cfg *config.StorageConfig, log *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client for %s: %w", cfg.Endpoint, err)
	}

	if err := client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(context.Background(), cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		log:    log,
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("ads/%s%s", uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.log.Error("image upload failed",
			zap.String("bucket", s.bucket),
			zap.String("key", objectKey),
			zap.Error(err))
		return "", fmt.Errorf("uploading object %s: %w", objectKey, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.log.Info("image uploaded",
		zap.String("key", objectKey),
		zap.Int("size_bytes", len(data)))
	return url, nil
}
