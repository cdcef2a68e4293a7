package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"catalog/internal/keys"
	"catalog/internal/models"
)

// S3Store reads raw product objects and writes enriched results to an
// S3-compatible bucket, one JSON object per record. It backs the
// notification-driven worker; the array-backed catalog stores remain
// the batch processor's storage.
type S3Store struct {
	client *minio.Client
	logger *slog.Logger
}

// S3Config holds the connection settings for an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewS3Store connects to the configured S3-compatible endpoint.
func NewS3Store(cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required S3 settings: endpoint, access key, secret key")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info("connected to object storage", "endpoint", cfg.Endpoint)
	return &S3Store{client: client, logger: logger}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// GetProduct retrieves and decodes one raw product object.
func (s *S3Store) GetProduct(ctx context.Context, bucket, objectKey string) (*models.Product, error) {
	object, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var product models.Product
	if err := json.NewDecoder(object).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product JSON: %w", err)
	}
	return &product, nil
}

// PutEnriched stores an enriched record under its canonical key. An
// already-existing object is left untouched so reprocessing the same
// sku stays idempotent.
func (s *S3Store) PutEnriched(ctx context.Context, bucket string, enriched models.EnrichedProduct) error {
	objectKey := keys.Enriched(enriched.SKU)

	_, err := s.client.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		s.logger.Info("enriched object already exists, skipping write", "sku", enriched.SKU, "key", objectKey)
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}

	data, err := json.Marshal(enriched)
	if err != nil {
		return fmt.Errorf("failed to marshal enriched product: %w", err)
	}

	_, err = s.client.PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	s.logger.Info("stored enriched product", "sku", enriched.SKU, "bucket", bucket, "key", objectKey)
	return nil
}
