package cinedb

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cinedb/cinedb/pkg/cache/redis"
	"github.com/cinedb/cinedb/pkg/logger"
	"github.com/cinedb/cinedb/pkg/relation"
	"github.com/cinedb/cinedb/pkg/store"
	"github.com/cinedb/cinedb/pkg/store/cached"
	"github.com/cinedb/cinedb/pkg/store/memory"
	"github.com/cinedb/cinedb/pkg/store/postgres"
	"github.com/cinedb/cinedb/pkg/store/surrealdb"
	"github.com/cinedb/cinedb/pkg/validate"
)

// Store backends selectable with -store.
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreSurrealDB = "surrealdb"
)

const connectTimeout = 10 * time.Second

// Config holds application configuration. Parse fills it from defaults, an
// optional YAML file, the environment and flags, in that order.
type Config struct {
	// Database configuration
	Store         string `yaml:"store" validate:"oneof=memory postgres surrealdb"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Store postgres"`
	SurrealDBURL  string `yaml:"surrealdb_url" validate:"required_if=Store surrealdb"`
	SurrealDBNS   string `yaml:"surrealdb_ns" validate:"required_if=Store surrealdb"`
	SurrealDBDB   string `yaml:"surrealdb_db" validate:"required_if=Store surrealdb"`
	SurrealDBUser string `yaml:"surrealdb_user"`
	SurrealDBPass string `yaml:"surrealdb_pass"`

	// Cache configuration. The cache is enabled when RedisAddr is set.
	RedisAddr     string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `yaml:"redis_password"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// Server configuration
	ServerPort string `yaml:"port" validate:"required,numeric"`
	ReadOnly   bool   `yaml:"read_only"` // When true, all write operations are rejected

	// Logging
	LogLevel  string    `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFile   string    `yaml:"log_file"`
	LogWriter io.Writer `yaml:"-"`
}

// App holds the application state.
type App struct {
	config    *Config
	store     store.Store
	backend   string
	readOnly  atomic.Bool
	relations *relation.Manager
	validator *validate.Validator
	metrics   *Metrics
	logData   *logger.LogData
	log       zerolog.Logger
}

// New creates an application, connecting to the configured store and, when
// configured, to the Redis cache in front of it.
func New(config *Config) (*App, error) {
	logData, err := logger.New().
		FromBuffer(config.LogWriter).
		FromPath(config.LogFile).
		WithLevel(config.LogLevel).
		Make()
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up logging")
	}

	backend, err := openStore(config, logData.Logger)
	if err != nil {
		_ = logData.Close()
		return nil, err
	}

	app, err := newApp(config, backend, logData)
	if err != nil {
		_ = backend.Close()
		_ = logData.Close()
		return nil, err
	}
	return app, nil
}

// NewWithStore creates an application around an existing store. The
// config's store settings are ignored.
func NewWithStore(config *Config, backend store.Store) (*App, error) {
	logData, err := logger.New().
		FromBuffer(config.LogWriter).
		FromPath(config.LogFile).
		WithLevel(config.LogLevel).
		Make()
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up logging")
	}
	return newApp(config, backend, logData)
}

func newApp(config *Config, backend store.Store, logData *logger.LogData) (*App, error) {
	app := &App{
		config:    config,
		backend:   config.Store,
		validator: validate.New(),
		metrics:   NewMetrics(),
		logData:   logData,
		log:       logData.Logger,
	}
	app.readOnly.Store(config.ReadOnly)

	var s store.Store = backend
	if config.RedisAddr != "" {
		engine, err := redis.New(redis.Config{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to Redis")
		}
		s = cached.New(backend, engine, config.CacheTTL,
			cached.WithLogger(app.log.With().Str("component", "cache").Logger()),
			cached.WithOperations(app.metrics.cacheOps),
		)
		app.log.Info().Str("addr", config.RedisAddr).Dur("ttl", config.CacheTTL).Msg("Redis cache enabled")
	}

	app.store = store.NewReadOnlyStore(s, app.IsReadOnly)
	app.relations = relation.NewManager(app.store,
		app.log.With().Str("component", "relation").Logger(),
		relation.WithOperations(app.metrics.relationOps),
	)
	return app, nil
}

func openStore(config *Config, log zerolog.Logger) (store.Store, error) {
	switch config.Store {
	case StorePostgres:
		s, err := postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to PostgreSQL")
		}
		log.Info().Msg("Connected to PostgreSQL")
		return s, nil
	case StoreSurrealDB:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s, err := surrealdb.NewSurrealStore(ctx, surrealdb.Config{
			URL:       config.SurrealDBURL,
			Namespace: config.SurrealDBNS,
			Database:  config.SurrealDBDB,
			Username:  config.SurrealDBUser,
			Password:  config.SurrealDBPass,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to SurrealDB")
		}
		log.Info().Str("url", config.SurrealDBURL).Msg("Connected to SurrealDB")
		return s, nil
	case StoreMemory, "":
		log.Info().Msg("Using in-memory store")
		return memory.NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown store backend: %s", config.Store)
	}
}

// Close closes the store and the log file.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if logErr := a.logData.Close(); err == nil {
		err = logErr
	}
	return err
}

// Store returns the store the handlers use, read-only wrapper included.
func (a *App) Store() store.Store {
	return a.store
}

// Metrics returns the application's collectors.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// SetReadOnly toggles read-only mode. While it is on every write is
// rejected with store.ErrReadOnly and reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Info().Bool("read_only", readOnly).Msg("Application read-only mode changed")
}

// IsReadOnly reports whether the application is in read-only mode.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}

// getEnv retrieves an environment variable value with a fallback default value.
// Empty variables count as unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
