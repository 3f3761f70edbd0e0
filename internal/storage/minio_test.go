package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	bucket, object, contentType string
	body                        string
	err                         error
}

func (f *fakeStore) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.object, f.contentType, f.body = bucket, object, opts.ContentType, string(b)
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestUpload(t *testing.T) {
	fake := &fakeStore{}
	s := newImageStore(fake, Config{Endpoint: "minio:9000", Bucket: "images"}, nil)

	url, err := s.Upload(context.Background(), "Photo.PNG", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "images", fake.bucket)
	assert.Equal(t, "image/png", fake.contentType)
	assert.Equal(t, "data", fake.body)
	assert.True(t, strings.HasPrefix(fake.object, "products/"))
	assert.True(t, strings.HasSuffix(fake.object, ".png"))
	assert.Equal(t, "http://minio:9000/images/"+fake.object, url)
}

func TestUpload_PublicURL(t *testing.T) {
	fake := &fakeStore{}
	s := newImageStore(fake, Config{Endpoint: "minio:9000", Bucket: "images", PublicURL: "https://cdn.example.com/"}, nil)

	url, err := s.Upload(context.Background(), "a.jpg", strings.NewReader("x"), 1, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/"+fake.object, url)
}

func TestUpload_Error(t *testing.T) {
	s := newImageStore(&fakeStore{err: errors.New("connection refused")}, Config{Bucket: "images", UseSSL: true, Endpoint: "s3"}, nil)

	_, err := s.Upload(context.Background(), "a.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.ErrorContains(t, err, "connection refused")
}
