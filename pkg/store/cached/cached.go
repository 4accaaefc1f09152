// Package cached decorates a store.Store with a cache-aside layer.
//
// Single-record reads are served from the cache when possible and populate
// it on a miss. Every write goes to the wrapped store first and then drops
// the affected key. Lists always hit the wrapped store.
//
// Cache failures never fail a request: they are logged, counted, and the
// wrapped store answers instead.
package cached

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cinedb/cinedb/pkg/cache"
	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

const keyPrefix = "cinedb:"

// CachedStore is a store.Store in front of another store.Store.
type CachedStore struct {
	store.Store
	cache      cache.Cache
	ttl        time.Duration
	log        zerolog.Logger
	operations *prometheus.CounterVec
}

// Option configures a CachedStore.
type Option func(*CachedStore)

// WithLogger sets the logger used for cache failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *CachedStore) { s.log = log }
}

// WithOperations counts cache lookups by result (hit, miss, error). The
// vector must have a single "result" label.
func WithOperations(c *prometheus.CounterVec) Option {
	return func(s *CachedStore) { s.operations = c }
}

// New wraps inner. Entries expire after ttl.
func New(inner store.Store, c cache.Cache, ttl time.Duration, opts ...Option) *CachedStore {
	s := &CachedStore{
		Store: inner,
		cache: c,
		ttl:   ttl,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unwrap returns the underlying store
func (s *CachedStore) Unwrap() store.Store {
	return s.Store
}

// Close closes the wrapped store and then the cache.
func (s *CachedStore) Close() error {
	storeErr := s.Store.Close()
	cacheErr := s.cache.Close()
	if storeErr != nil {
		return storeErr
	}
	return cacheErr
}

func actorKey(id models.ActorID) string { return fmt.Sprintf("%s%s:%d", keyPrefix, models.ActorTable, id) }
func movieKey(id models.MovieID) string { return fmt.Sprintf("%s%s:%d", keyPrefix, models.MovieTable, id) }

func (s *CachedStore) count(result string) {
	if s.operations != nil {
		s.operations.WithLabelValues(result).Inc()
	}
}

// lookup decodes key into dest. It reports whether dest was filled. Each
// call counts exactly one of hit, miss or error.
func (s *CachedStore) lookup(ctx context.Context, key string, dest any) bool {
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		s.count("miss")
		return false
	}
	if err != nil {
		s.count("error")
		s.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.count("error")
		s.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		s.invalidate(ctx, key)
		return false
	}
	s.count("hit")
	return true
}

func (s *CachedStore) fill(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err == nil {
		err = s.cache.Set(ctx, key, data, s.ttl)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to cache record")
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Error().Err(err).Strs("keys", keys).Msg("failed to invalidate cache")
	}
}

func (s *CachedStore) GetActor(ctx context.Context, id models.ActorID) (*models.Actor, error) {
	key := actorKey(id)
	var cachedActor models.Actor
	if s.lookup(ctx, key, &cachedActor) {
		return &cachedActor, nil
	}
	a, err := s.Store.GetActor(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	s.fill(ctx, key, a)
	return a, nil
}

func (s *CachedStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	err := s.Store.UpdateActor(ctx, actor)
	s.invalidate(ctx, actorKey(actor.ID))
	return err
}

func (s *CachedStore) DeleteActor(ctx context.Context, id models.ActorID) error {
	err := s.Store.DeleteActor(ctx, id)
	s.invalidate(ctx, actorKey(id))
	return err
}

func (s *CachedStore) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	key := movieKey(id)
	var cachedMovie models.Movie
	if s.lookup(ctx, key, &cachedMovie) {
		return &cachedMovie, nil
	}
	m, err := s.Store.GetMovie(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	s.fill(ctx, key, m)
	return m, nil
}

func (s *CachedStore) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	err := s.Store.UpdateMovie(ctx, movie)
	s.invalidate(ctx, movieKey(movie.ID))
	return err
}

func (s *CachedStore) DeleteMovie(ctx context.Context, id models.MovieID) error {
	err := s.Store.DeleteMovie(ctx, id)
	s.invalidate(ctx, movieKey(id))
	return err
}

// Atomic runs fn in a transaction of the wrapped store. Reads inside the
// transaction bypass the cache; keys written are dropped once it ends,
// whether it committed or not.
func (s *CachedStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	var touched txKeys
	err := store.Atomically(ctx, s.Store, func(tx store.Store) error {
		return fn(&txStore{Store: tx, keys: &touched})
	})
	if keys := touched.list(); len(keys) > 0 {
		s.invalidate(ctx, keys...)
	}
	return err
}

type txKeys struct {
	mu   sync.Mutex
	keys []string
}

func (k *txKeys) add(key string) {
	k.mu.Lock()
	k.keys = append(k.keys, key)
	k.mu.Unlock()
}

func (k *txKeys) list() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys
}

// txStore records the keys written through a transaction.
type txStore struct {
	store.Store
	keys *txKeys
}

func (t *txStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	t.keys.add(actorKey(actor.ID))
	return t.Store.UpdateActor(ctx, actor)
}

func (t *txStore) DeleteActor(ctx context.Context, id models.ActorID) error {
	t.keys.add(actorKey(id))
	return t.Store.DeleteActor(ctx, id)
}

func (t *txStore) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	t.keys.add(movieKey(movie.ID))
	return t.Store.UpdateMovie(ctx, movie)
}

func (t *txStore) DeleteMovie(ctx context.Context, id models.MovieID) error {
	t.keys.add(movieKey(id))
	return t.Store.DeleteMovie(ctx, id)
}
