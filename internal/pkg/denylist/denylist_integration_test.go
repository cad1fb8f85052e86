//go:build integration

package denylist

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestDenylistAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, _ := container.Host(ctx)
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	d := New(client)

	if err := d.Add(ctx, "jti-short", time.Second); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ok, err := d.Contains(ctx, "jti-short"); err != nil || !ok {
		t.Fatalf("contains = %v, %v", ok, err)
	}

	time.Sleep(1500 * time.Millisecond)

	if ok, err := d.Contains(ctx, "jti-short"); err != nil || ok {
		t.Fatalf("after ttl contains = %v, %v", ok, err)
	}
}
