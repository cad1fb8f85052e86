package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
)

// Memory keeps objects in process. It backs local runs and tests.
type Memory struct {
	publicURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemory(publicURL string) *Memory {
	return &Memory{publicURL: publicURL, objects: map[string]memoryObject{}}
}

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error) {
	if err := checkKey(key); err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Object{}, err
	}
	sum := md5.Sum(buf.Bytes())

	m.mu.Lock()
	m.objects[key] = memoryObject{data: buf.Bytes(), contentType: opts.ContentType}
	m.mu.Unlock()

	return Object{
		Key:         key,
		Size:        int64(buf.Len()),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: opts.ContentType,
		URL:         m.URL(key),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the object body and whether it exists.
func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.data), obj.contentType, true
}

func (m *Memory) URL(key string) string { return publicURL(m.publicURL, key) }

func (m *Memory) Close() error { return nil }
