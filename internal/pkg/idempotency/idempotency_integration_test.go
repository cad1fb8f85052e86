//go:build integration

package idempotency

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestExecAgainstRedis(t *testing.T) {
	client := startRedis(t)
	tracker := New(client)
	ctx := context.Background()

	t.Run("ConcurrentCallersRunOnce", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			wg.Go(func() {
				errs[i] = tracker.Exec(ctx, "concurrent", func(context.Context) error {
					calls.Add(1)
					<-release
					return nil
				})
			})
		}

		time.Sleep(200 * time.Millisecond)
		close(release)
		wg.Wait()

		if calls.Load() != 1 {
			t.Fatalf("calls = %d", calls.Load())
		}
		var inProgress int
		for _, err := range errs {
			if errors.Is(err, ErrAlreadyInProgress) {
				inProgress++
			}
		}
		if inProgress != len(errs)-1 {
			t.Fatalf("in progress rejections = %d, errs = %v", inProgress, errs)
		}
	})

	t.Run("CompletedStateExpires", func(t *testing.T) {
		noop := func(context.Context) error { return nil }

		if err := tracker.Exec(ctx, "expiring", noop, WithStateTTL(time.Second)); err != nil {
			t.Fatalf("first = %v", err)
		}
		if err := tracker.Exec(ctx, "expiring", noop); !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("replay = %v", err)
		}

		time.Sleep(1500 * time.Millisecond)

		if err := tracker.Exec(ctx, "expiring", noop); err != nil {
			t.Fatalf("after expiry = %v", err)
		}
	})
}
