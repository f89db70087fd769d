// Package minio keeps static tables and run reports in an S3-compatible
// object store.
package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// ObjectAPI is the part of the SDK the stores use.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucket, name string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, name string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type sdkAPI struct {
	c *minio.Client
}

func (s sdkAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.c.BucketExists(ctx, bucket)
}

func (s sdkAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return s.c.MakeBucket(ctx, bucket, opts)
}

func (s sdkAPI) StatObject(ctx context.Context, bucket, name string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return s.c.StatObject(ctx, bucket, name, opts)
}

func (s sdkAPI) GetObject(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	return s.c.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
}

func (s sdkAPI) PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return s.c.PutObject(ctx, bucket, name, r, size, opts)
}

// Client connects to the object store.
type Client struct {
	api    ObjectAPI
	region string
	logger logging.Logger
}

// NewClient builds an SDK client. No request is made until a bucket is
// used.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}
	log.Info("MinIO client created", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return NewClientWith(sdkAPI{c: c}, region, log), nil
}

// NewClientWith wraps an ObjectAPI.
func NewClientWith(api ObjectAPI, region string, log logging.Logger) *Client {
	return &Client{api: api, region: region, logger: log}
}

// EnsureBucket creates bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket").WithDetail(bucket)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket").WithDetail(bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", bucket))
	return nil
}

// HealthCheck probes bucket.
func (c *Client) HealthCheck(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.api.BucketExists(ctx, bucket); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "object store unreachable")
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

//Personal.AI order the ending
