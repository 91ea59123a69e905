package model

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the key/blob store holding profile pictures.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Remove(ctx context.Context, key string) error
	Bucket() string
	Ready(ctx context.Context) error
}

// ObjectInfo describes a stored object without its content.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Object is an opened stored object. Callers must close Body.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
}
