package store_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
	"github.com/cinedb/cinedb/pkg/store/memory"
)

func TestReadOnlyStore(t *testing.T) {
	ctx := context.Background()
	var readOnly atomic.Bool
	inner := memory.NewMemoryStore()
	s := store.NewReadOnlyStore(inner, readOnly.Load)

	a := &models.Actor{Name: "A"}
	require.NoError(t, s.CreateActor(ctx, a))

	readOnly.Store(true)
	assert.ErrorIs(t, s.CreateActor(ctx, &models.Actor{Name: "B"}), store.ErrReadOnly)
	assert.ErrorIs(t, s.UpdateActor(ctx, a), store.ErrReadOnly)
	assert.ErrorIs(t, s.DeleteActor(ctx, a.ID), store.ErrReadOnly)
	assert.ErrorIs(t, s.CreateMovie(ctx, &models.Movie{Title: "M"}), store.ErrReadOnly)
	assert.NoError(t, store.Atomically(ctx, s, func(store.Store) error { return nil }), "a transaction without writes is allowed")
	assert.ErrorIs(t, store.Atomically(ctx, s, func(tx store.Store) error {
		return tx.DeleteActor(ctx, a.ID)
	}), store.ErrReadOnly)

	got, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	readOnly.Store(false)
	require.NoError(t, s.DeleteActor(ctx, a.ID))
	assert.Same(t, inner, store.Backend(s))
}

func TestAtomicallyWithoutTransactions(t *testing.T) {
	called := false
	err := store.Atomically(context.Background(), plainStore{}, func(store.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotTransactional)
	assert.False(t, called)
}

func TestReadOnlyTransactionChecksWrites(t *testing.T) {
	ctx := context.Background()
	var readOnly atomic.Bool
	s := store.NewReadOnlyStore(memory.NewMemoryStore(), readOnly.Load)

	err := store.Atomically(ctx, s, func(tx store.Store) error {
		readOnly.Store(true)
		return tx.CreateMovie(ctx, &models.Movie{Title: "M"})
	})
	assert.ErrorIs(t, err, store.ErrReadOnly)
}

// plainStore embeds a store without exposing its Atomic method.
type plainStore struct {
	store.Store
}
