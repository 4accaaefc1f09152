// Package redis implements cache.Cache on a Redis server.
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	redisV9 "github.com/redis/go-redis/v9"

	"github.com/cinedb/cinedb/pkg/cache"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
	defaultMaxRetries   = 3
	pingTimeout         = 5 * time.Second
)

// Config holds connection settings. Zero values fall back to defaults.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisEngine is a cache.Cache backed by go-redis.
type RedisEngine struct {
	client *redisV9.Client
}

var _ cache.Cache = (*RedisEngine)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*RedisEngine, error) {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = defaultPoolSize
	}

	client := redisV9.NewClient(&redisV9.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: defaultMinIdleConns,
		MaxRetries:   defaultMaxRetries,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Addr)
	}

	return &RedisEngine{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redisV9.Client) *RedisEngine {
	return &RedisEngine{client: client}
}

// Get value by key
func (r *RedisEngine) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisV9.Nil) {
		return nil, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return value, nil
}

// Set value with expiration
func (r *RedisEngine) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrapf(r.client.Set(ctx, key, value, ttl).Err(), "redis set %s", key)
}

// Delete keys
func (r *RedisEngine) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.client.Del(ctx, keys...).Err(), "redis del")
}

func (r *RedisEngine) Close() error {
	return r.client.Close()
}
