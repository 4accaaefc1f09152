// Package testenv locates the external services used by integration tests.
//
// Each helper reads its settings from the environment and skips the calling
// test when the service is not configured, so `go test ./...` passes on a
// machine with nothing running.
package testenv

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cinedb/cinedb/pkg/store/surrealdb"
)

const (
	// EnvSurrealDBURL is the environment variable that specifies the SurrealDB
	// endpoint. SurrealDB tests are skipped when it is unset.
	EnvSurrealDBURL = "SURREALDB_URL"

	// EnvSurrealDBUser and EnvSurrealDBPass hold root credentials. They
	// default to root/root.
	EnvSurrealDBUser = "SURREALDB_USER"
	EnvSurrealDBPass = "SURREALDB_PASS"

	// EnvRedisAddr is the environment variable that specifies a Redis
	// host:port for cache tests.
	EnvRedisAddr = "CINEDB_TEST_REDIS_ADDR"

	// Namespace holds every database created by SurrealDB.
	Namespace = "cinedb_test"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SurrealDB returns connection settings for a database no other test uses.
func SurrealDB(t testing.TB) surrealdb.Config {
	t.Helper()
	url := os.Getenv(EnvSurrealDBURL)
	if url == "" {
		t.Skipf("%s not set, skipping SurrealDB tests", EnvSurrealDBURL)
	}
	return surrealdb.Config{
		URL:       url,
		Namespace: Namespace,
		Database:  "t_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Username:  getEnv(EnvSurrealDBUser, "root"),
		Password:  getEnv(EnvSurrealDBPass, "root"),
	}
}

// RedisAddr returns the Redis address for cache tests.
func RedisAddr(t testing.TB) string {
	t.Helper()
	addr := os.Getenv(EnvRedisAddr)
	if addr == "" {
		t.Skipf("%s not set, skipping Redis tests", EnvRedisAddr)
	}
	return addr
}

// Docker skips the test unless a Docker daemon answers.
func Docker(t testing.TB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("Docker is not running, skipping integration test")
	}
}
