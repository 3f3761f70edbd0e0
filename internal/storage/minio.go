package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL clients fetch objects from. Defaults to the
	// endpoint itself.
	PublicURL string
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImageStore uploads product images to a MinIO bucket.
type ImageStore struct {
	client  objectStore
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewMinIOImageStore connects to MinIO and creates the bucket if it is missing.
func NewMinIOImageStore(ctx context.Context, cfg Config, log *zap.Logger) (*ImageStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("created image bucket", zap.String("bucket", cfg.Bucket))
	}

	return newImageStore(client, cfg, log), nil
}

func newImageStore(client objectStore, cfg Config, log *zap.Logger) *ImageStore {
	if log == nil {
		log = zap.NewNop()
	}
	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &ImageStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		log:     log,
	}
}

// Upload stores r under a fresh object name that keeps the file extension and
// returns the object's public URL.
func (s *ImageStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	object := "products/" + uuid.NewString() + strings.ToLower(path.Ext(name))

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", object, err)
	}

	s.log.Debug("image uploaded", zap.String("object", object), zap.Int64("size", size))
	return s.objectURL(object), nil
}

func (s *ImageStore) objectURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, object)
}
