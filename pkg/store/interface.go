// Package store defines the persistence boundary for actors and movies.
//
// A [Store] is a plain record store: create, read, update and delete by
// primary key. It knows nothing about the symmetry between an actor's
// filmography and a movie's cast. Each Update writes the whole record,
// relation set included, and the caller is responsible for keeping both
// sides consistent (see package relation).
//
// # Implementations
//
//   - memory: maps guarded by a mutex, used by tests and the default
//     configuration.
//   - postgres: GORM over PostgreSQL. The association is one join table,
//     so both relation sets are views of the same rows.
//   - surrealdb: records in the actor and movie tables whose relation sets
//     are arrays of record links.
//   - cached: a cache-aside decorator over any other Store.
//
// # Transactions
//
// Backends that can run several writes atomically implement [Transactor].
// Use [Atomically] to run a function in a transaction when the store
// supports one; it returns [ErrNotTransactional] otherwise, and the caller
// decides how to degrade.
//
// # Lookups
//
// Get methods return (nil, nil) when no record has the id. Update and
// Delete return [ErrNotFound] in that case.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cinedb/cinedb/pkg/models"
)

var (
	// ErrNotFound is returned by Update and Delete for unknown ids.
	ErrNotFound = errors.New("record not found")
	// ErrReadOnly is returned by every write while the application is in
	// read-only mode.
	ErrReadOnly = errors.New("operation denied: application is in read-only mode")
	// ErrNotTransactional is returned by Atomically for stores without
	// transaction support.
	ErrNotTransactional = errors.New("store does not support transactions")
)

// Store is the record store for both entity types.
type Store interface {
	// Actor operations
	CreateActor(ctx context.Context, actor *models.Actor) error
	GetActor(ctx context.Context, id models.ActorID) (*models.Actor, error)
	ListActors(ctx context.Context) ([]*models.Actor, error)
	UpdateActor(ctx context.Context, actor *models.Actor) error
	DeleteActor(ctx context.Context, id models.ActorID) error

	// Movie operations
	CreateMovie(ctx context.Context, movie *models.Movie) error
	GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error)
	ListMovies(ctx context.Context) ([]*models.Movie, error)
	UpdateMovie(ctx context.Context, movie *models.Movie) error
	DeleteMovie(ctx context.Context, id models.MovieID) error

	// Migrate prepares the schema. It is idempotent.
	Migrate(ctx context.Context) error
	// Close releases the backend connection.
	Close() error
}

// Transactor is implemented by stores that can run a group of writes
// atomically. fn receives a Store bound to the transaction; if fn returns an
// error every write made through it is rolled back.
type Transactor interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// Unwrapper is implemented by decorators so that callers can reach the
// backend they wrap.
type Unwrapper interface {
	Unwrap() Store
}

// Atomically runs fn inside a transaction of s. It returns
// ErrNotTransactional without calling fn when s cannot provide one.
func Atomically(ctx context.Context, s Store, fn func(tx Store) error) error {
	t, ok := s.(Transactor)
	if !ok {
		return ErrNotTransactional
	}
	return t.Atomic(ctx, fn)
}

// Backend returns the innermost store behind any decorators.
func Backend(s Store) Store {
	for {
		u, ok := s.(Unwrapper)
		if !ok {
			return s
		}
		s = u.Unwrap()
	}
}
