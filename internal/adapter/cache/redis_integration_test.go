//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/ports"
)

func redisURL(t *testing.T) string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	container, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	return url
}

func TestRedisCache_SetGetExpire(t *testing.T) {
	c, err := NewRedisCache(redisURL(t), "advisor-test", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "weather:1", "payload", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, "weather:1")
	if err != nil || got != "payload" {
		t.Fatalf("expected payload, got %q (%v)", got, err)
	}

	c.Set(ctx, "weather:2", "short", 100*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	if _, err := c.Get(ctx, "weather:2"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}

	c.Delete(ctx, "weather:1")
	if _, err := c.Get(ctx, "weather:1"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}
