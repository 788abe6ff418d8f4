package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage archives accepted onboarding documents for compliance.
// When no bucket is configured the archiver is disabled and Enabled
// reports false.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, prefix string) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
		)
		if err != nil {
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	if prefix == "" {
		prefix = "onboarding-documents"
	}

	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}
}

// Enabled reports whether a bucket is configured
func (s *S3Storage) Enabled() bool {
	return s.bucket != ""
}

// Archive stores a document copy under a per-customer key and returns
// the object key
func (s *S3Storage) Archive(ctx context.Context, customerID, fileName, mimeType string, content []byte) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("document archive bucket not configured")
	}

	ext := filepath.Ext(fileName)
	key := fmt.Sprintf("%s/%s/%s%s", s.prefix, customerID, uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive document: %w", err)
	}

	return key, nil
}
