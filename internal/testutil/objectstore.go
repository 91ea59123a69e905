package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/userhub/internal/model"
)

// MemoryStore is an in-memory model.ObjectStore with failure injection.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	clock   time.Time

	// PutErr, when set, is consulted before every Put.
	PutErr       func(key string) error
	EnsureErr    error
	ListErr      error
	GetErr       error
	Puts         []string
	EnsureCalled int
}

type storedObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

var _ model.ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]storedObject),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MemoryStore) Bucket() string { return "test-bucket" }

func (m *MemoryStore) EnsureBucket(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureCalled++
	return m.EnsureErr
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		if err := m.PutErr(key); err != nil {
			return err
		}
	}
	// Each write is one second newer than the previous one.
	m.clock = m.clock.Add(time.Second)
	m.objects[key] = storedObject{data: bytes.Clone(data), contentType: contentType, modified: m.clock}
	m.Puts = append(m.Puts, key)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return model.Object{}, m.GetErr
	}
	obj, ok := m.objects[key]
	if !ok {
		return model.Object{}, model.ErrNotFound
	}
	return model.Object{
		ObjectInfo: m.info(key, obj),
		Body:       io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]model.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []model.ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, m.info(key, obj))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Ready(context.Context) error { return m.EnsureErr }

// Keys returns all stored keys in lexical order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns the bytes stored under key.
func (m *MemoryStore) Data(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj.data, ok
}

func (m *MemoryStore) info(key string, obj storedObject) model.ObjectInfo {
	return model.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType, LastModified: obj.modified}
}
