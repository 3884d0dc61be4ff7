package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/PlumyCat/doctrans/internal/config"
)

// Store wraps the S3-compatible blob service holding source documents
// and translated outputs.
type Store struct {
	client           *minio.Client
	sourceBucket     string
	translatedBucket string
	sasTTL           time.Duration
}

func New(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccountName, cfg.StorageAccountKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob client: %w", err)
	}
	return &Store{
		client:           client,
		sourceBucket:     cfg.SourceBucket,
		translatedBucket: cfg.TranslatedBucket,
		sasTTL:           cfg.SASTTL,
	}, nil
}

// EnsureBuckets makes sure the source/translated buckets exist before use.
func (s *Store) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.sourceBucket, s.translatedBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("make bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// Ping verifies the blob service is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.sourceBucket); err != nil {
		return fmt.Errorf("ping blob store: %w", err)
	}
	return nil
}

// SourceExists reports whether the named source document is present.
func (s *Store) SourceExists(ctx context.Context, blobName string) (bool, error) {
	return s.exists(ctx, s.sourceBucket, blobName)
}

// TranslatedExists reports whether the named translated output is present.
func (s *Store) TranslatedExists(ctx context.Context, blobName string) (bool, error) {
	return s.exists(ctx, s.translatedBucket, blobName)
}

func (s *Store) exists(ctx context.Context, bucket, blobName string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, blobName, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s/%s: %w", bucket, blobName, err)
	}
	return true, nil
}

// PrepareTranslationURLs returns a read URL for the source document and
// a write URL for the derived output blob, both time-limited.
func (s *Store) PrepareTranslationURLs(ctx context.Context, blobName, targetLang string) (string, string, error) {
	sourceURL, err := s.client.PresignedGetObject(ctx, s.sourceBucket, blobName, s.sasTTL, url.Values{})
	if err != nil {
		return "", "", fmt.Errorf("presign source %s: %w", blobName, err)
	}

	outputName := TranslatedBlobName(blobName, targetLang)
	targetURL, err := s.client.PresignedPutObject(ctx, s.translatedBucket, outputName, s.sasTTL)
	if err != nil {
		return "", "", fmt.Errorf("presign target %s: %w", outputName, err)
	}

	return sourceURL.String(), targetURL.String(), nil
}

// TranslatedDownloadURL returns a time-limited read URL for a translated output.
func (s *Store) TranslatedDownloadURL(ctx context.Context, blobName string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.translatedBucket, blobName, s.sasTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign translated %s: %w", blobName, err)
	}
	return u.String(), nil
}

// DownloadTranslated fetches the translated output bytes, used by the
// optional drive mirror.
func (s *Store) DownloadTranslated(ctx context.Context, blobName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.translatedBucket, blobName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get translated %s: %w", blobName, err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read translated %s: %w", blobName, err)
	}
	return buf, nil
}
