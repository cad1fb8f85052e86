// Package denylist records revoked access-token ids in Redis until the
// token would have expired anyway.
package denylist

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "quill:denylist:"

var ErrEmptyID = errors.New("denylist: empty token id")

// Redis is a denylist backed by expiring keys.
type Redis struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: defaultPrefix}
}

// Add revokes jti for ttl. A non-positive ttl means the token has already
// expired and nothing is stored.
func (d *Redis) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return ErrEmptyID
	}
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+jti, 1, ttl).Err()
}

// Contains reports whether jti is revoked.
func (d *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	n, err := d.client.Exists(ctx, d.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
