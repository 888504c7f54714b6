// Package storage holds the object-storage client for product images.
// The store is optional, mirroring how the rest of the stack treats
// external collaborators: when the S3 variables are not configured the
// constructor returns nil and products are simply created without an
// image.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore uploads and deletes product images in an S3-compatible
// bucket (AWS or MinIO).
type ImageStore struct {
	client  *s3.Client
	bucket  string
	baseURL string // public URL prefix for uploaded objects
}

// NewImageStoreFromEnv builds an ImageStore from S3_* environment
// variables. Required: S3_BUCKET, S3_REGION, S3_ACCESS_KEY,
// S3_SECRET_KEY, S3_PUBLIC_BASE_URL. Optional: S3_ENDPOINT for
// MinIO-style deployments. Returns nil when S3_BUCKET is unset.
func NewImageStoreFromEnv(ctx context.Context) *ImageStore {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		log.Printf("image-store: S3_BUCKET not set, product images disabled")
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(os.Getenv("S3_REGION")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("S3_ACCESS_KEY"),
			os.Getenv("S3_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		log.Printf("image-store: load aws config failed: %v; product images disabled", err)
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("S3_ENDPOINT"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})

	return &ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
	}
}

// Upload stores an image under products/<uuid> and returns its public
// URL. The extension is derived from the content type.
func (s *ImageStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ext := "bin"
	if i := strings.LastIndex(contentType, "/"); i >= 0 && i+1 < len(contentType) {
		ext = contentType[i+1:]
	}
	key := fmt.Sprintf("products/%s.%s", uuid.New(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes a previously uploaded image given its public URL.
// Unknown URLs are ignored so product deletion never fails on a missing
// image.
func (s *ImageStore) Delete(ctx context.Context, imageURL string) error {
	if imageURL == "" || !strings.HasPrefix(imageURL, s.baseURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(imageURL, s.baseURL+"/")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
