package filestore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig points an ObjectBackend at an S3-compatible bucket.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	// Prefix is prepended to every stored name to form the object key.
	Prefix string
}

// ObjectBackend stores files in MinIO or any S3-compatible service.
type ObjectBackend struct {
	client *minio.Client
	bucket string
	region string
	prefix string
}

// NewObject creates a MinIO client for cfg.
func NewObject(cfg ObjectConfig) (*ObjectBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &ObjectBackend{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: cfg.Prefix,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (b *ObjectBackend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", b.bucket, err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", b.bucket, err)
	}
	return nil
}

func (b *ObjectBackend) key(name string) string {
	return b.prefix + name
}

// Put uploads body as an object.
func (b *ObjectBackend) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := b.client.PutObject(ctx, b.bucket, b.key(name), body, size, opts); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Get fetches an object. GetObject is lazy, so Stat is what surfaces a
// missing key.
func (b *ObjectBackend) Get(ctx context.Context, name string) (*Object, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return &Object{Body: obj, Size: info.Size, ModTime: info.LastModified}, nil
}

// Delete removes an object. S3 treats deleting a missing key as success.
func (b *ObjectBackend) Delete(ctx context.Context, name string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, b.key(name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
