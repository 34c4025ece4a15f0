// Package testutil provides shared helpers for integration-style tests
// that need external backing services. Tests skip when the service is
// unavailable unless REQUIRE_TEST_BACKENDS=true, which turns a missing
// backend into a hard failure (for CI).
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

func requireBackends() bool {
	return strings.EqualFold(os.Getenv("REQUIRE_TEST_BACKENDS"), "true")
}

// SetupTestRedis returns a Redis client on a test database, flushed
// before use, or skips the test when Redis is unavailable. The client
// is closed automatically at test cleanup.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = defaultRedisAddr
	}

	// DB 15 keeps test data away from any local development state.
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireBackends() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})

	return client
}
