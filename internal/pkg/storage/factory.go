package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverS3     = "s3"
	DriverGCS    = "gcs"
	DriverMinIO  = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

type FactoryOptions struct {
	// PublicURL is applied to drivers whose own PublicURL is empty.
	PublicURL string

	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory:
		return NewMemory(opts.PublicURL), nil
	case DriverS3:
		if opts.S3.PublicURL == "" {
			opts.S3.PublicURL = opts.PublicURL
		}
		return NewS3(ctx, opts.S3)
	case DriverGCS:
		if opts.GCS.PublicURL == "" {
			opts.GCS.PublicURL = opts.PublicURL
		}
		return NewGCS(ctx, opts.GCS)
	case DriverMinIO:
		if opts.MinIO.PublicURL == "" {
			opts.MinIO.PublicURL = opts.PublicURL
		}
		return NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
