package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"musicapp/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions holds the connection settings of a MinIO (or S3) server.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioBackend stores objects in one MinIO bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinioBackend connects to MinIO and creates the bucket if it is missing.
func NewMinioBackend(ctx context.Context, opts MinioOptions) (*MinioBackend, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", opts.Bucket))
	}

	logger.Info("MinIO backend ready",
		logger.String("endpoint", opts.Endpoint),
		logger.String("bucket", opts.Bucket))
	return &MinioBackend{client: client, bucket: opts.Bucket}, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (b *MinioBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload %s to MinIO: %w", key, err)
	}
	return info.Size, nil
}

func (b *MinioBackend) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	object, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get %s from MinIO: %w", key, err)
	}
	stat, err := object.Stat()
	if err != nil {
		object.Close()
		if isNoSuchKey(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to stat %s in MinIO: %w", key, err)
	}
	return object, &ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ContentType:  stat.ContentType,
	}, nil
}

func (b *MinioBackend) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("failed to remove %s from MinIO: %w", key, err)
	}
	return nil
}

func (b *MinioBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s in MinIO: %w", key, err)
	}
	return true, nil
}

func (b *MinioBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)
	for object := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list %s in MinIO: %w", prefix, object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, nil
}
