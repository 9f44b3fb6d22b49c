package remote

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/eco-alert/api-go/config"
	"github.com/google/uuid"
)

// BlobStore uploads photo bytes straight to R2. Implements
// syncer.BlobUploader. Object keys embed a uuid, so re-uploading the same
// photo after a crash just produces another object; the report only ever
// references the URL that made it back.
type BlobStore struct {
	client *s3.Client
	cfg    *config.R2Config
}

func NewBlobStore(cfg *config.R2Config) *BlobStore {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Region: cfg.Region,
	})
	return &BlobStore{client: client, cfg: cfg}
}

func (b *BlobStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("uploads/photo/%d_%s%s", time.Now().Unix(), uuid.New().String(), extensionFor(contentType))

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", b.cfg.PublicURL, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}
