package denylist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	redis.Cmdable

	data map[string]time.Duration
	err  error
}

func (f *fakeRedis) Set(_ context.Context, key string, _ any, exp time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestDenylist(t *testing.T) {
	ctx := context.Background()

	t.Run("AddThenContains", func(t *testing.T) {
		// Arrange
		rdb := &fakeRedis{data: map[string]time.Duration{}}
		d := New(rdb)

		// Act
		err := d.Add(ctx, "jti-1", 10*time.Minute)

		// Assert
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if rdb.data[defaultPrefix+"jti-1"] != 10*time.Minute {
			t.Fatalf("stored ttl = %v", rdb.data[defaultPrefix+"jti-1"])
		}
		ok, err := d.Contains(ctx, "jti-1")
		if err != nil || !ok {
			t.Fatalf("contains = %v, %v", ok, err)
		}
		ok, _ = d.Contains(ctx, "jti-2")
		if ok {
			t.Fatal("unknown jti reported revoked")
		}
	})

	t.Run("ExpiredTokenNotStored", func(t *testing.T) {
		rdb := &fakeRedis{data: map[string]time.Duration{}}

		if err := New(rdb).Add(ctx, "jti", 0); err != nil {
			t.Fatalf("add: %v", err)
		}
		if len(rdb.data) != 0 {
			t.Fatalf("data = %v", rdb.data)
		}
	})

	t.Run("EmptyID", func(t *testing.T) {
		d := New(&fakeRedis{data: map[string]time.Duration{}})

		if err := d.Add(ctx, "", time.Minute); !errors.Is(err, ErrEmptyID) {
			t.Fatalf("err = %v", err)
		}
		if ok, err := d.Contains(ctx, ""); ok || err != nil {
			t.Fatalf("contains empty = %v, %v", ok, err)
		}
	})

	t.Run("RedisError", func(t *testing.T) {
		d := New(&fakeRedis{data: map[string]time.Duration{}, err: errors.New("down")})

		if _, err := d.Contains(ctx, "jti"); err == nil {
			t.Fatal("expected error")
		}
	})
}
