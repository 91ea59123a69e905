//go:build integration

package minio_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/model"
	storage "github.com/dtroode/userhub/internal/storage/minio"
)

const (
	accessKey = "userhub-access-key"
	secretKey = "userhub-secret-key"
)

var endpoint string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-06-13T22-53-53Z",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     accessKey,
				"MINIO_ROOT_PASSWORD": secretKey,
			},
			WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "9000")
	if err != nil {
		panic(err)
	}
	endpoint = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newClient(t *testing.T, bucket string) *storage.Client {
	t.Helper()
	c, err := storage.New(config.Storage{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    bucket,
		Timeout:   10 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, "profile-pictures")

	require.Error(t, c.Ready(ctx), "bucket does not exist yet")
	require.NoError(t, c.EnsureBucket(ctx))
	require.NoError(t, c.EnsureBucket(ctx), "ensuring twice is fine")
	require.NoError(t, c.Ready(ctx))

	require.NoError(t, c.Put(ctx, "u1/active.png", []byte("png-bytes"), "image/png"))
	require.NoError(t, c.Put(ctx, "u1/archive/01J0.png", []byte("png-bytes"), "image/png"))
	require.NoError(t, c.Put(ctx, "u2/active.jpg", []byte("jpg"), "image/jpeg"))

	obj, err := c.Get(ctx, "u1/active.png")
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, obj.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, len("png-bytes"), obj.Size)

	listed, err := c.List(ctx, "u1/")
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, c.Remove(ctx, "u1/active.png"))
	_, err = c.Get(ctx, "u1/active.png")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_ListMissingBucket(t *testing.T) {
	c := newClient(t, "never-created")

	listed, err := c.List(context.Background(), "u1/")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
