package assetstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
)

// S3Source reads modification times from an S3-compatible bucket. The static
// folder is used as the object key prefix.
type S3Source struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3Source constructs the object storage adapter.
func NewS3Source(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*S3Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &S3Source{client: client, bucket: bucket, logger: logger.With("component", "assetstore.s3")}, nil
}

// ModTime returns the object's LastModified.
func (s *S3Source) ModTime(ctx context.Context, folder, name string) (time.Time, error) {
	key, err := objectKey(folder, name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return time.Time{}, fmt.Errorf("object %s/%s: %w", s.bucket, key, fs.ErrNotExist)
		}
		s.logger.Warn("stat object failed", "bucket", s.bucket, "key", key, "error", err)
		return time.Time{}, err
	}
	return info.LastModified, nil
}

func objectKey(folder, name string) (string, error) {
	cleaned, err := cdn.CleanName(name)
	if err != nil {
		return "", err
	}
	prefix := strings.Trim(path.Clean("/"+strings.TrimSpace(folder)), "/")
	if prefix == "" {
		return cleaned, nil
	}
	return prefix + "/" + cleaned, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.IndexByte(raw, '/'); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

var _ cdn.ModTimeSource = (*S3Source)(nil)
