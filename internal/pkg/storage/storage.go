// Package storage keeps user uploads (avatars, blog covers) in an object
// store. A Storage is bound to one bucket; callers deal in keys only.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrBucketRequired = errors.New("storage: bucket is required")
	ErrKeyRequired    = errors.New("storage: key is required")
)

type Storage interface {
	io.Closer

	// Put uploads r under key. Size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

type PutOptions struct {
	Size         int64
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

type Object struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	URL         string
}

// publicURL joins base and key with exactly one slash.
func publicURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func checkKey(key string) error {
	if strings.Trim(key, "/ ") == "" {
		return ErrKeyRequired
	}
	return nil
}
