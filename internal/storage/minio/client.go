package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range w.c.ListObjects(ctx, bucketName, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}
func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

var _ model.ObjectStore = (*Client)(nil)

const defaultRetryDelay = 250 * time.Millisecond

// Client stores profile pictures in a single MinIO bucket.
//
// Every call runs under its own timeout and is retried once when the failure
// looks transient (network error, 5xx, throttling).
type Client struct {
	api        minioAPI
	bucket     string
	region     string
	timeout    time.Duration
	retryDelay time.Duration
}

var disableRetriesOnce sync.Once

// DisableSDKRetries stops minio-go from retrying requests on its own, since
// Client already retries transient failures once. minio.MaxRetry is a package
// global, so this affects every minio client in the process; call it once at
// startup.
func DisableSDKRetries() {
	disableRetriesOnce.Do(func() { minio.MaxRetry = 1 })
}

// New creates a client from storage configuration. It does not touch
// minio-go globals; see DisableSDKRetries.
func New(cfg config.Storage) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return NewClientWithAPI(minioClientWrapper{c: mc}, cfg.Bucket, cfg.Region, cfg.Timeout), nil
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(api minioAPI, bucket, region string, timeout time.Duration) *Client {
	return &Client{
		api:        api,
		bucket:     bucket,
		region:     region,
		timeout:    timeout,
		retryDelay: defaultRetryDelay,
	}
}

// Bucket returns the bucket name the client writes to.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the bucket if it doesn't exist. Losing a creation race
// to another writer counts as success.
func (c *Client) EnsureBucket(ctx context.Context) error {
	var exists bool
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		exists, err = c.api.BucketExists(ctx, c.bucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.do(ctx, func(ctx context.Context) error {
		return c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
	})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Put uploads data under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := c.do(ctx, func(ctx context.Context) error {
		_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Get opens the object under key. Missing objects yield model.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (model.Object, error) {
	var info minio.ObjectInfo
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		info, err = c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return model.Object{}, model.ErrNotFound
		}
		return model.Object{}, fmt.Errorf("failed to stat object: %w", err)
	}

	// The body is streamed after return, so it must outlive the per-call timeout.
	body, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return model.Object{}, model.ErrNotFound
		}
		return model.Object{}, fmt.Errorf("failed to get object: %w", err)
	}

	return model.Object{ObjectInfo: toObjectInfo(info), Body: body}, nil
}

// List returns all objects whose key starts with prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		objects, err = c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
		return err
	})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchBucket" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	result := make([]model.ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		result = append(result, toObjectInfo(obj))
	}
	return result, nil
}

// Remove deletes object from MinIO.
func (c *Client) Remove(ctx context.Context, key string) error {
	err := c.do(ctx, func(ctx context.Context) error {
		return c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Ready reports whether the bucket is reachable and present.
func (c *Client) Ready(ctx context.Context) error {
	var exists bool
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		exists, err = c.api.BucketExists(ctx, c.bucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", c.bucket)
	}
	return nil
}

func (c *Client) do(ctx context.Context, call func(ctx context.Context) error) error {
	err := c.attempt(ctx, call)
	if err == nil || !isTransient(ctx, err) {
		return err
	}

	select {
	case <-ctx.Done():
		return err
	case <-time.After(c.retryDelay):
	}

	return c.attempt(ctx, call)
}

func (c *Client) attempt(ctx context.Context, call func(ctx context.Context) error) error {
	if c.timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return call(callCtx)
}

func isTransient(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

func toObjectInfo(obj minio.ObjectInfo) model.ObjectInfo {
	return model.ObjectInfo{
		Key:          obj.Key,
		Size:         obj.Size,
		ContentType:  obj.ContentType,
		LastModified: obj.LastModified,
	}
}
