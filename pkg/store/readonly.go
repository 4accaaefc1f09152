package store

import (
	"context"

	"github.com/cinedb/cinedb/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects writes while isReadOnly reports
// true. Reads always pass through.
//
// The flag is consulted on every call, so the application can switch modes
// at runtime without rebuilding the store.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a read-only wrapper for a store
func NewReadOnlyStore(store Store, isReadOnly func() bool) Store {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

// Atomic runs fn in a transaction of the wrapped store. The transaction
// handle is wrapped too, so its writes are rejected while its lookups run,
// and a transaction that fails a lookup reports that error, not ErrReadOnly.
func (r *ReadOnlyStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return Atomically(ctx, r.Store, func(tx Store) error {
		return fn(NewReadOnlyStore(tx, r.isReadOnly))
	})
}

// Write operations - check read-only mode first

func (r *ReadOnlyStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateActor(ctx, actor)
}

func (r *ReadOnlyStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateActor(ctx, actor)
}

func (r *ReadOnlyStore) DeleteActor(ctx context.Context, id models.ActorID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteActor(ctx, id)
}

func (r *ReadOnlyStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateMovie(ctx, movie)
}

func (r *ReadOnlyStore) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateMovie(ctx, movie)
}

func (r *ReadOnlyStore) DeleteMovie(ctx context.Context, id models.MovieID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteMovie(ctx, id)
}

func (r *ReadOnlyStore) Migrate(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Migrate(ctx)
}
